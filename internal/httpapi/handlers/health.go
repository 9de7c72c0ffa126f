package handlers

import (
	"context"
	"net/http"
	"time"

	"zoomclip/internal/httpkit"
	"zoomclip/internal/storage"
)

const healthCheckTimeout = 5 * time.Second

// Health reports liveness. With ?deep=true it also probes postgres, redis and
// the storage provider and reports "degraded" if any probe errors.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	health := map[string]any{
		"status":  "ok",
		"service": "zoomclip-api",
	}

	if r.URL.Query().Get("deep") == "true" {
		checks := h.deepHealthCheck(ctx)
		health["checks"] = checks

		for _, c := range checks {
			if c["status"] == "error" {
				health["status"] = "degraded"
				h.log.FromContext(ctx).Warn("health check degraded", "checks", checks)
				break
			}
		}
	}

	httpkit.WriteJSON(w, http.StatusOK, health)
	return nil
}

func (h *Handler) deepHealthCheck(ctx context.Context) map[string]map[string]any {
	return map[string]map[string]any{
		"postgres": probe(ctx, h.postgres),
		"redis":    probe(ctx, h.redis),
		"storage":  h.checkStorage(ctx),
	}
}

func probe(ctx context.Context, p Pinger) map[string]any {
	if p == nil {
		return map[string]any{"status": "skipped"}
	}
	start := time.Now()
	result := map[string]any{"status": "ok"}

	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := p.Ping(checkCtx); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	}
	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}

func (h *Handler) checkStorage(ctx context.Context) map[string]any {
	start := time.Now()
	result := map[string]any{
		"status":   "ok",
		"provider": h.sp.Provider(),
	}

	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	checked, err := storage.Ping(checkCtx, h.sp)
	switch {
	case err != nil:
		result["status"] = "error"
		result["error"] = err.Error()
	case !checked:
		result["connectivity"] = "not checked"
	}
	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}
