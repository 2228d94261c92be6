package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/httpkit"
)

// Health reports service liveness; ?deep=true also probes the job store and
// archive provider.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	health := map[string]any{
		"status":  "ok",
		"service": "buttercut-api",
		"version": "0.1.0",
	}

	if r.URL.Query().Get("deep") == "true" {
		checks := map[string]any{
			"store":   h.checkStore(ctx),
			"archive": h.checkArchive(),
		}
		health["checks"] = checks

		for _, check := range checks {
			if checkMap, ok := check.(map[string]any); ok {
				if checkMap["status"] != "ok" {
					health["status"] = "degraded"
					log.Warn("health check degraded", "checks", checks)
					break
				}
			}
		}
	}

	httpkit.WriteJSON(w, 200, health)
}

func (h *Handler) checkStore(ctx context.Context) map[string]any {
	start := time.Now()
	result := map[string]any{"status": "ok"}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// A read of an arbitrary id exercises the backend round trip; a miss
	// is healthy, an error is not.
	if _, err := h.store.Get(checkCtx, "health-probe"); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	}

	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}

func (h *Handler) checkArchive() map[string]any {
	if h.archive == nil {
		return map[string]any{"status": "ok", "provider": "none"}
	}
	return map[string]any{"status": "ok", "provider": h.archive.Provider()}
}
