package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/greenlens-app/greenlens/internal/export"
)

func (h *Handler) HandleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m, ok := h.service.Last()
	if !ok {
		h.writeError(w, "No result yet", http.StatusNotFound)
		return
	}
	h.writeJSON(w, newResultResponse(m, ""))
}

// HandleExport serves /api/export/{format} as a download
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format, err := export.ParseFormat(strings.TrimPrefix(r.URL.Path, "/api/export/"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	artifact, err := h.exporter.Export(format)
	switch {
	case errors.Is(err, export.ErrNoResult):
		h.writeError(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	if _, err := w.Write(artifact.Data); err != nil {
		h.writeError(w, "Unable to write export", http.StatusInternalServerError)
	}
}
