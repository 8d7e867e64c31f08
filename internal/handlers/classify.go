package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/greenlens-app/greenlens/internal/analysis"
	"github.com/greenlens-app/greenlens/internal/models"
)

var errTooLarge = errors.New("file too large (max 10MB)")

func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		payload models.Payload
		err     error
	)
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		payload, err = h.readJSONImage(r)
	} else {
		payload, err = h.readFileUpload(r)
	}
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.analyze(w, r, payload)
}

// analyze runs the pipeline and maps its errors to status codes
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request, payload models.Payload) {
	result, err := h.service.Analyze(r.Context(), payload)
	switch {
	case errors.Is(err, analysis.ErrBusy):
		h.writeError(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, analysis.ErrInvalidImage):
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.writeError(w, "Analysis failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, newResultResponse(result.Model, result.Notice))
}

// readJSONImage accepts {"image": "<data URI>"} from the browser camera or
// {"image_url": "..."} to fetch a remote image.
func (h *Handler) readJSONImage(r *http.Request) (models.Payload, error) {
	var request struct {
		Image    string `json:"image"`
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 2*MaxUploadSize)).Decode(&request); err != nil {
		return models.Payload{}, fmt.Errorf("invalid JSON: %w", err)
	}

	switch {
	case request.Image != "":
		return models.ParseDataURI(request.Image)
	case request.ImageURL != "":
		data, err := h.downloadImageFromURL(r, request.ImageURL)
		if err != nil {
			return models.Payload{}, err
		}
		return models.Payload{Data: data}, nil
	default:
		return models.Payload{}, errors.New("image or image_url is required")
	}
}

func (h *Handler) readFileUpload(r *http.Request) (models.Payload, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return models.Payload{}, fmt.Errorf("failed to read file: %w", err)
	}
	defer file.Close()

	data, err := readLimited(file)
	if err != nil {
		return models.Payload{}, err
	}

	slog.Info("Image uploaded", "filename", header.Filename, "bytes", len(data))
	return models.Payload{Data: data, MIME: header.Header.Get("Content-Type")}, nil
}
