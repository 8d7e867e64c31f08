package analysis

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenlens-app/greenlens/internal/classification"
	"github.com/greenlens-app/greenlens/internal/models"
	"github.com/greenlens-app/greenlens/internal/presenter"
	"github.com/greenlens-app/greenlens/internal/scoring"
	"github.com/greenlens-app/greenlens/internal/storage"
)

func testImage(t *testing.T) models.Payload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(2, 2, color.RGBA{G: 180, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return models.Payload{Data: buf.Bytes()}
}

// oversizePNG declares 30000x30000 pixels in a header of a few dozen bytes
func oversizePNG() []byte {
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
	return buf.Bytes()
}

type fixedPicker struct {
	subject models.Subject
	err     error
}

func (p fixedPicker) PickSubject(ctx context.Context, payload models.Payload) (models.Subject, error) {
	return p.subject, p.err
}

type blockingPicker struct {
	entered chan struct{}
	release chan struct{}
}

func (p *blockingPicker) PickSubject(ctx context.Context, payload models.Payload) (models.Subject, error) {
	close(p.entered)
	<-p.release
	return models.Cabbage, nil
}

func predictionServer(t *testing.T, healthy bool, predict http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "model_loaded": healthy})
	})
	mux.HandleFunc("/predict", predict)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newService(t *testing.T, url string, picker fixedPicker) (*Service, *storage.ResultStore) {
	t.Helper()
	store := storage.New()
	fallback := &scoring.Fallback{Float: func() float64 { return 0.62 }}
	source := scoring.NewSource(scoring.NewClient(url, time.Second), fallback)
	svc := NewService(source, picker, presenter.New(store))
	svc.Probe(context.Background())
	return svc, store
}

func TestAnalyze_DemoModeWhenServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	svc, store := newService(t, url, fixedPicker{subject: models.Lettuce})
	require.False(t, svc.Status().Connected)

	res, err := svc.Analyze(context.Background(), testImage(t))
	require.NoError(t, err)

	m := res.Model
	assert.True(t, m.Classification.IsOrganic)
	assert.GreaterOrEqual(t, m.Classification.Confidence, 50.0)
	assert.LessOrEqual(t, m.Classification.Confidence, 100.0)
	assert.Equal(t, models.SourceDemo, m.Source)
	assert.Equal(t, "image/png", m.Image.MIME)

	expected := classification.Comment("Lettuce", true, m.Scores.Organic, m.Scores.Inorganic)
	assert.Equal(t, expected, m.Comment)
	assert.Equal(t, "[GOOD] Good Lettuce! Strong organic characteristics detected.", m.Comment)

	stored, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, m, stored)
}

func TestAnalyze_RemoteScores(t *testing.T) {
	srv := predictionServer(t, true, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "organic_score": 85, "inorganic_score": 15})
	})

	svc, _ := newService(t, srv.URL, fixedPicker{subject: models.Cabbage})
	res, err := svc.Analyze(context.Background(), testImage(t))
	require.NoError(t, err)

	m := res.Model
	assert.True(t, m.Classification.IsOrganic)
	assert.Equal(t, 85.0, m.Classification.Confidence)
	assert.Equal(t, models.SourceRemote, m.Source)
	assert.Equal(t, "[GOOD] Good Cabbage! Strong organic characteristics detected.", m.Comment)
	assert.Empty(t, res.Notice)
}

func TestAnalyze_RejectedPredictionFallsBackWithNotice(t *testing.T) {
	srv := predictionServer(t, true, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "cannot identify image file"})
	})

	svc, _ := newService(t, srv.URL, fixedPicker{subject: models.Cabbage})
	res, err := svc.Analyze(context.Background(), testImage(t))
	require.NoError(t, err)
	assert.Equal(t, scoring.NoticeFallback, res.Notice)
	assert.Equal(t, models.SourceDemo, res.Model.Source)
	assert.True(t, res.Model.Classification.IsOrganic)
}

func TestAnalyze_PickerFailureUsesRandomSubject(t *testing.T) {
	svc, _ := newService(t, "http://127.0.0.1:1", fixedPicker{err: errors.New("offline")})
	res, err := svc.Analyze(context.Background(), testImage(t))
	require.NoError(t, err)
	assert.True(t, res.Model.Subject.Valid())
}

func TestAnalyze_InvalidImage(t *testing.T) {
	svc, store := newService(t, "http://127.0.0.1:1", fixedPicker{subject: models.Cabbage})

	_, err := svc.Analyze(context.Background(), models.Payload{})
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = svc.Analyze(context.Background(), models.Payload{Data: []byte("not an image")})
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, ok := store.Get()
	assert.False(t, ok)
}

func TestAnalyze_RejectsOversizeImage(t *testing.T) {
	svc, store := newService(t, "http://127.0.0.1:1", fixedPicker{subject: models.Cabbage})

	_, err := svc.Analyze(context.Background(), models.Payload{Data: oversizePNG()})
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.ErrorIs(t, err, models.ErrImageTooLarge)
	assert.False(t, svc.Pending())

	_, ok := store.Get()
	assert.False(t, ok)
}

func TestAnalyze_RejectsOverlappingRequests(t *testing.T) {
	store := storage.New()
	picker := &blockingPicker{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(scoring.NewSource(nil, nil), picker, presenter.New(store))
	payload := testImage(t)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Analyze(context.Background(), payload)
		done <- err
	}()

	<-picker.entered
	assert.True(t, svc.Pending())
	_, err := svc.Analyze(context.Background(), payload)
	assert.ErrorIs(t, err, ErrBusy)

	close(picker.release)
	require.NoError(t, <-done)
	assert.False(t, svc.Pending())
}

func TestNewPicker(t *testing.T) {
	for _, name := range []string{"", "random", "ollama", "openai", "gemini"} {
		p, err := NewPicker(name, "")
		require.NoError(t, err, name)
		require.NotNil(t, p, name)
	}

	_, err := NewPicker("tesseract", "")
	require.Error(t, err)
}
