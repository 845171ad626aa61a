package handlers

import (
	"net/http"

	"travel-planner-backend/internal/models"
	"travel-planner-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// TravelHandler handles custom travels and the tours saved by users
type TravelHandler struct {
	travelService *services.TravelService
	resolver      *services.ResolverService
}

// NewTravelHandler creates a new travel handler
func NewTravelHandler(travelService *services.TravelService, resolver *services.ResolverService) *TravelHandler {
	return &TravelHandler{
		travelService: travelService,
		resolver:      resolver,
	}
}

// CreateTravelRequest is the body of POST /travels
type CreateTravelRequest struct {
	Title       string `json:"title" validate:"required"`
	City        string `json:"city" validate:"required"`
	Description string `json:"description"`
	Date        string `json:"date" validate:"required"`
}

// AddUserTourRequest is the body of POST /travels/user/{userId}/add
type AddUserTourRequest struct {
	TravelID int `json:"travelId" validate:"required"`
}

// AddUserTourResponse is returned after saving a tour
type AddUserTourResponse struct {
	Tour    *models.PopularTour `json:"tour"`
	Message string              `json:"message"`
}

// List handles GET /travels
func (h *TravelHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.travelService.List(r.Context()))
}

// Get handles GET /travels/{id}
func (h *TravelHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	travel, err := h.travelService.Get(r.Context(), id)
	if err != nil {
		respondAppError(w, r, err, "Failed to get travel")
		return
	}
	respondJSON(w, http.StatusOK, travel)
}

// Create handles POST /travels
func (h *TravelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTravelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	travel, err := h.travelService.Create(r.Context(), models.Travel{
		Title:       req.Title,
		City:        req.City,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		respondAppError(w, r, err, "Failed to create travel")
		return
	}

	log.Info().Int("travel_id", travel.ID).Str("city", travel.City).Msg("Travel created")
	respondJSON(w, http.StatusCreated, travel)
}

// Update handles PUT /travels/{id}
func (h *TravelHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	var patch models.TravelPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	travel, err := h.travelService.Update(r.Context(), id, patch)
	if err != nil {
		respondAppError(w, r, err, "Failed to update travel")
		return
	}

	log.Info().Int("travel_id", travel.ID).Msg("Travel updated")
	respondJSON(w, http.StatusOK, travel)
}

// Delete handles DELETE /travels/{id}
func (h *TravelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.travelService.Delete(r.Context(), id); err != nil {
		respondAppError(w, r, err, "Failed to delete travel")
		return
	}

	log.Info().Int("travel_id", id).Msg("Travel deleted")
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Travel deleted successfully"})
}

// UserTours handles GET /travels/user/{userId}
func (h *TravelHandler) UserTours(w http.ResponseWriter, r *http.Request) {
	userID, ok := intParam(w, r, "userId")
	if !ok {
		return
	}

	tours, err := h.resolver.ResolveUserTours(r.Context(), userID)
	if err != nil {
		respondAppError(w, r, err, "Failed to resolve user tours")
		return
	}
	respondJSON(w, http.StatusOK, tours)
}

// AddUserTour handles POST /travels/user/{userId}/add
func (h *TravelHandler) AddUserTour(w http.ResponseWriter, r *http.Request) {
	userID, ok := intParam(w, r, "userId")
	if !ok || !requireSelf(w, r, userID) {
		return
	}

	var req AddUserTourRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tour, err := h.resolver.AddUserTour(r.Context(), userID, req.TravelID)
	if err != nil {
		respondAppError(w, r, err, "Failed to add tour")
		return
	}

	respondJSON(w, http.StatusOK, AddUserTourResponse{
		Message: "Tour added successfully",
		Tour:    tour,
	})
}

// RemoveUserTour handles DELETE /travels/user-tours/{userId}/{travelId}
func (h *TravelHandler) RemoveUserTour(w http.ResponseWriter, r *http.Request) {
	userID, ok := intParam(w, r, "userId")
	if !ok || !requireSelf(w, r, userID) {
		return
	}
	tourID, ok := intParam(w, r, "travelId")
	if !ok {
		return
	}

	if err := h.resolver.RemoveUserTour(r.Context(), userID, tourID); err != nil {
		respondAppError(w, r, err, "Failed to remove tour")
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Message: "Tour removed successfully"})
}
