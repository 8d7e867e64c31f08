package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/greenlens-app/greenlens/internal/capture"
)

// HandleCameras lists the server-side camera devices and controller state
func (h *Handler) HandleCameras(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, err := h.camera.Enumerate(r.Context()); err != nil {
		h.writeCaptureError(w, err)
		return
	}
	h.writeJSON(w, h.camera.Snapshot())
}

// HandleCameraAction serves select, start, stop and capture
func (h *Handler) HandleCameraAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var err error
	switch action := strings.TrimPrefix(r.URL.Path, "/api/cameras/"); action {
	case "select":
		var request struct {
			DeviceID string `json:"device_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		err = h.camera.Select(r.Context(), request.DeviceID)
	case "start":
		err = h.camera.Start(r.Context())
	case "stop":
		err = h.camera.Stop()
	case "capture":
		payload, err := h.camera.CaptureFrame()
		if err != nil {
			h.writeCaptureError(w, err)
			return
		}
		h.analyze(w, r, payload)
		return
	default:
		h.writeError(w, "Unknown camera action: "+action, http.StatusNotFound)
		return
	}

	if err != nil {
		h.writeCaptureError(w, err)
		return
	}
	h.writeJSON(w, h.camera.Snapshot())
}

func (h *Handler) writeCaptureError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, capture.ErrNotStreaming):
		h.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, capture.ErrUnknownDevice):
		h.writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, capture.ErrDeviceUnavailable):
		h.writeError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}
