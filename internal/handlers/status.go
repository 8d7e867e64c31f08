package handlers

import "net/http"

// HandleStatus reports the prediction service status. ?refresh=1 probes the
// service again first.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := h.service.Status()
	if r.URL.Query().Get("refresh") == "1" {
		status = h.service.Probe(r.Context())
	}

	h.writeJSON(w, map[string]any{
		"connected":  status.Connected,
		"message":    status.Message,
		"checked_at": status.CheckedAt,
		"pending":    h.service.Pending(),
	})
}
