// Package health provides the health check endpoint for the contact
// backend.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// ServiceStatus reports one dependency's state
type ServiceStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the health endpoint payload
type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Services  map[string]ServiceStatus `json:"services,omitempty"`
}

// Handler serves health checks. The redis client is optional; it is only
// probed when the rate limiter runs on the redis backend.
type Handler struct {
	redisClient *redis.Client
	timeout     time.Duration
}

// NewHandler creates a health handler
func NewHandler(redisClient *redis.Client) *Handler {
	return &Handler{
		redisClient: redisClient,
		timeout:     5 * time.Second,
	}
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if h.redisClient != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		resp.Services = map[string]ServiceStatus{}
		start := time.Now()
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			resp.Status = "degraded"
			resp.Services["redis"] = ServiceStatus{Status: "down", Error: err.Error()}
		} else {
			resp.Services["redis"] = ServiceStatus{Status: "up", Latency: time.Since(start).String()}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(resp)
}
