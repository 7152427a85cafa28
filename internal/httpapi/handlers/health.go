package handlers

import (
	"net/http"

	"chatshot/internal/httpkit"
)

// Health reports liveness plus queue and pool occupancy, so the pipeline
// can see saturation before submitting work.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	queue := h.svc.QueueStatus()
	idle, maxPooled := h.svc.PoolStatus()

	httpkit.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "chatshot",
		"version": "0.1.0",
		"queue": map[string]any{
			"running": queue.Running,
			"queued":  queue.Queued,
			"cap":     queue.Cap,
		},
		"browserPool": map[string]any{
			"idle":      idle,
			"maxPooled": maxPooled,
		},
		"storage": map[string]any{
			"provider": h.sink.ProviderName(),
			"upload":   h.sink.UploadEnabled(),
		},
	})
}
