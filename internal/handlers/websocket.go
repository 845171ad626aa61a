package handlers

import (
	"net/http"
	"strconv"
	"time"

	"travel-planner-backend/internal/middleware"
	"travel-planner-backend/internal/models"
	"travel-planner-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// feedPongWait must exceed the hub's ping interval
const feedPongWait = 60 * time.Second

// CommentHandler handles travel detail comments and their live feed
type CommentHandler struct {
	resolver    *services.ResolverService
	userService *services.UserService
	catalog     *services.CatalogService
	hub         *services.CommentHub
	upgrader    websocket.Upgrader
}

// NewCommentHandler creates a new comment handler. allowedOrigin "*" accepts
// WebSocket upgrades from any origin.
func NewCommentHandler(
	resolver *services.ResolverService,
	userService *services.UserService,
	catalog *services.CatalogService,
	hub *services.CommentHub,
	allowedOrigin string,
) *CommentHandler {
	return &CommentHandler{
		resolver:    resolver,
		userService: userService,
		catalog:     catalog,
		hub:         hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// AddCommentRequest is the body of POST /travel-details/{id}/comments
type AddCommentRequest struct {
	Rating   *int   `json:"rating" validate:"omitempty,min=1,max=5"`
	Text     string `json:"text" validate:"max=2000"`
	Username string `json:"username" validate:"max=64"`
}

// List handles GET /travel-details/{id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	detailID, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	comments, err := h.resolver.ListComments(r.Context(), detailID)
	if err != nil {
		respondAppError(w, r, err, "Failed to list comments")
		return
	}
	respondJSON(w, http.StatusOK, comments)
}

// Add handles POST /travel-details/{id}/comments.
// Authenticated users comment under their own name; others post anonymously.
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	detailID, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	var req AddCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := models.CommentInput{
		Text:     req.Text,
		Rating:   req.Rating,
		Username: req.Username,
	}

	if userID := middleware.UserIDPtr(r.Context()); userID != nil {
		user, err := h.userService.GetUser(r.Context(), *userID)
		if err != nil {
			respondAppError(w, r, err, "Failed to resolve comment author")
			return
		}
		input.UserID = userID
		input.Username = user.Username
	}

	comment, err := h.resolver.AddComment(r.Context(), detailID, input)
	if err != nil {
		respondAppError(w, r, err, "Failed to add comment")
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

// Delete handles DELETE /travel-details/{id}/comments/{commentId}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	detailID, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentId"), 10, 64)
	if err != nil {
		respondError(w, "Invalid commentId", http.StatusBadRequest)
		return
	}

	if err := h.resolver.DeleteComment(r.Context(), detailID, commentID, middleware.UserIDPtr(r.Context())); err != nil {
		respondAppError(w, r, err, "Failed to delete comment")
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Comment deleted successfully"})
}

// Feed handles GET /travel-details/{id}/comments/ws
func (h *CommentHandler) Feed(w http.ResponseWriter, r *http.Request) {
	detailID, ok := intParam(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.catalog.GetTravelDetail(r.Context(), detailID); err != nil {
		respondAppError(w, r, err, "Failed to open comment feed")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	unsubscribe := h.hub.Subscribe(detailID, conn)
	defer unsubscribe()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	// the feed is one-way; reads only drive pongs and close detection
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Int("travel_detail_id", detailID).Msg("Comment feed closed")
			}
			return
		}
	}
}
