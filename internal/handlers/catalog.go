package handlers

import (
	"net/http"

	"travel-planner-backend/internal/services"
)

// CatalogHandler serves popular tours, tips and travel details
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// PopularTours handles GET /popular-tours
func (h *CatalogHandler) PopularTours(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.PopularTours(r.Context()))
}

// AllTours handles GET /allTours
func (h *CatalogHandler) AllTours(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.AllTours(r.Context()))
}

// GetTour handles GET /popular-tours/{id} and GET /allTours/{id}
func (h *CatalogHandler) GetTour(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	tour, err := h.catalog.GetTour(r.Context(), id)
	if err != nil {
		respondAppError(w, r, err, "Failed to get tour")
		return
	}
	respondJSON(w, http.StatusOK, tour)
}

// Tips handles GET /tips
func (h *CatalogHandler) Tips(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.Tips(r.Context()))
}

// TravelDetails handles GET /travel-details
func (h *CatalogHandler) TravelDetails(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.TravelDetails(r.Context()))
}

// GetTravelDetail handles GET /travel-details/{id}
func (h *CatalogHandler) GetTravelDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.catalog.GetTravelDetail(r.Context(), id)
	if err != nil {
		respondAppError(w, r, err, "Failed to get travel detail")
		return
	}
	respondJSON(w, http.StatusOK, detail)
}
