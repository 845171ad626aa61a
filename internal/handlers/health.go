package handlers

import (
	"context"
	"net/http"

	"travel-planner-backend/internal/store"
)

// CollectionStater reports the state of a collection
type CollectionStater interface {
	Stat(ctx context.Context) store.Stat
}

// HealthHandler reports whether every collection is readable
type HealthHandler struct {
	collections []CollectionStater
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(collections ...CollectionStater) *HealthHandler {
	return &HealthHandler{collections: collections}
}

// CollectionHealth is the state of one collection
type CollectionHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status      string             `json:"status"`
	Collections []CollectionHealth `json:"collections"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		Collections: make([]CollectionHealth, 0, len(h.collections)),
	}

	for _, c := range h.collections {
		stat := c.Stat(r.Context())
		if stat.Status == store.LoadReadError {
			resp.Status = "degraded"
		}
		resp.Collections = append(resp.Collections, CollectionHealth{
			Name:   stat.Name,
			Status: stat.Status.String(),
			Count:  stat.Count,
		})
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}
