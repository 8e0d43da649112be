package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/microblog/internal/logger"
)

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthResponse reports the state of the service.
type HealthResponse struct {
	Status string `json:"status"`
}

// NewHealthHandler returns 200 when every backing store answers a ping.
func NewHealthHandler(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for name, p := range checks {
			if err := p.PingContext(r.Context()); err != nil {
				logger.FromContext(r.Context()).Errorw("health check failed", "check", name, "err", err)
				writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: name + " unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
