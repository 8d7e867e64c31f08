package modelserver

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 32))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestHealth(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.h5")

	tests := []struct {
		name     string
		create   bool
		expected bool
	}{
		{name: "model file missing", create: false, expected: false},
		{name: "model file present", create: true, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.create {
				require.NoError(t, os.WriteFile(modelPath, []byte("weights"), 0644))
			}
			r := New(modelPath).Router()

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "ok", body["status"])
			assert.Equal(t, tt.expected, body["model_loaded"])
		})
	}
}

func TestPredict(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "model.h5"))
	s.float = func() float64 { return 0.5 }
	r := s.Router()

	for _, uri := range []string{pngDataURI(t), strings.SplitN(pngDataURI(t), ",", 2)[1]} {
		body, _ := json.Marshal(map[string]string{"image": uri})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Success        bool    `json:"success"`
			OrganicScore   float64 `json:"organic_score"`
			InorganicScore float64 `json:"inorganic_score"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 72.5, resp.OrganicScore)
		assert.Equal(t, 27.5, resp.InorganicScore)
	}
}

func TestPredictErrors(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "model.h5")).Router()

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{name: "missing image", body: `{}`, expectedStatus: http.StatusBadRequest, expectedError: "No image provided"},
		{name: "not json", body: `image=abc`, expectedStatus: http.StatusBadRequest, expectedError: "No image provided"},
		{name: "not an image", body: `{"image":"data:image/png;base64,aGVsbG8="}`, expectedStatus: http.StatusInternalServerError},
		{name: "bad base64", body: `{"image":"!!!"}`, expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, false, resp["success"])
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, resp["error"])
			} else {
				assert.NotEmpty(t, resp["error"])
			}
		})
	}
}

// oversizeDataURI is a PNG header declaring 30000x30000 pixels
func oversizeDataURI() string {
	chunk := make([]byte, 17)
	copy(chunk, "IHDR")
	binary.BigEndian.PutUint32(chunk[4:], 30000)
	binary.BigEndian.PutUint32(chunk[8:], 30000)
	chunk[12], chunk[13] = 8, 2

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(chunk)-4))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestPredictRejectsOversizeInput(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "model.h5")).Router()

	tests := []struct {
		name           string
		body           []byte
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "oversize dimensions",
			body:           []byte(`{"image":"` + oversizeDataURI() + `"}`),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "image dimensions too large",
		},
		{
			name:           "oversize body",
			body:           []byte(`{"image":"` + strings.Repeat("A", MaxRequestSize) + `"}`),
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedError:  "Request body too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, false, resp["success"])
			assert.Contains(t, resp["error"], tt.expectedError)
		})
	}
}

func TestScoresRange(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "model.h5"))
	for _, u := range []float64{0, 0.25, 0.999999} {
		s.float = func() float64 { return u }
		got := s.scores()
		assert.GreaterOrEqual(t, got.Organic, 50.0)
		assert.LessOrEqual(t, got.Organic, 95.0)
		assert.InDelta(t, 100, got.Organic+got.Inorganic, 1e-9)
	}
}
