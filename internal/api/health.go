package api

import (
	"context"
	"net/http"

	"github.com/jbweber/homelab/reel/internal/service"
)

// HealthResponse is the body of a successful health check.
type HealthResponse struct {
	Status string `json:"status"`
}

// Health groups the liveness endpoint
type Health struct {
	pinger Pinger
}

func NewHealth(pinger Pinger) *Health {
	return &Health{pinger: pinger}
}

func (h *Health) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Pattern: "/health", Status: http.StatusOK, Handle: h.check},
	}
}

func (h *Health) check(ctx context.Context, _ request) (any, error) {
	if h.pinger != nil {
		if err := h.pinger.Ping(ctx); err != nil {
			return nil, service.Wrap(service.StoreFailure, err, "store unavailable")
		}
	}
	return HealthResponse{Status: "ok"}, nil
}
