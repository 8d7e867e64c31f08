package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/greenlens-app/greenlens/internal/analysis"
	"github.com/greenlens-app/greenlens/internal/capture"
	"github.com/greenlens-app/greenlens/internal/export"
	"github.com/greenlens-app/greenlens/internal/models"
)

// MaxUploadSize caps uploaded and downloaded images
const MaxUploadSize = 10 * 1024 * 1024

type Handler struct {
	service  *analysis.Service
	exporter *export.Exporter
	camera   *capture.Controller
	client   *http.Client
}

func New(service *analysis.Service, exporter *export.Exporter, camera *capture.Controller) *Handler {
	return &Handler{
		service:  service,
		exporter: exporter,
		camera:   camera,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Routes registers every endpoint on mux
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.HandleStatus)
	mux.HandleFunc("/api/classify", h.HandleClassify)
	mux.HandleFunc("/api/result", h.HandleResult)
	mux.HandleFunc("/api/export/", h.HandleExport)
	mux.HandleFunc("/api/cameras", h.HandleCameras)
	mux.HandleFunc("/api/cameras/", h.HandleCameraAction)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	mux.HandleFunc("/", h.HandleStatic)
}

// resultResponse is the JSON shape of a display model, with the photo inlined
type resultResponse struct {
	Result models.DisplayModel `json:"result"`
	Image  string              `json:"image"`
	Notice string              `json:"notice,omitempty"`
}

func newResultResponse(m models.DisplayModel, notice string) resultResponse {
	return resultResponse{Result: m, Image: m.Image.DataURI(), Notice: notice}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "code", code)
	http.Error(w, message, code)
}
