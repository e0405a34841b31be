package http

import (
	"context"
	"net/http"
	"time"

	"github.com/devnla/backend-express/internal/common/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports 503 when the store does not answer a ping within timeout.
func HealthHandler(log *logger.Logger, store Pinger, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			WriteErrorEnvelope(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed", nil, "")
			return
		}

		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				log.WithFields(r.Context(), logger.Fields{"action": "health_check_failed"}).Warnf("health check failed: %v", err)
				WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "store": "down"})
				return
			}
		}

		log.Debug("health check ok")
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": "up"})
	}
}
