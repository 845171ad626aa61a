package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"travel-planner-backend/internal/avatars"
	"travel-planner-backend/internal/models"
	"travel-planner-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles registration, login and profile requests
type UserHandler struct {
	userService   *services.UserService
	maxAvatarSize int64
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, maxAvatarSize int64) *UserHandler {
	return &UserHandler{
		userService:   userService,
		maxAvatarSize: maxAvatarSize,
	}
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// VerifyPasswordRequest is the body of POST /verifyPassword
type VerifyPasswordRequest struct {
	Password string `json:"password" validate:"required"`
	UserID   int    `json:"userId" validate:"required"`
}

// UpdateProfileRequest is the body of POST /updateProfile
type UpdateProfileRequest struct {
	Username        string `json:"username" validate:"omitempty,max=64"`
	Email           string `json:"email" validate:"omitempty,email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,max=72"`
	UserID          int    `json:"userId" validate:"required"`
}

// RegisterResponse is returned by POST /auth/register
type RegisterResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    models.PublicUser `json:"user"`
}

// LoginResponse is returned by POST /auth/login
type LoginResponse struct {
	Avatar   *string `json:"avatar"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Token    string  `json:"token"`
	ID       int     `json:"id"`
}

// Register handles POST /auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.userService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondAppError(w, r, err, "Failed to register user")
		return
	}

	log.Info().
		Int("user_id", result.User.ID).
		Str("username", result.User.Username).
		Msg("User registered")

	respondJSON(w, http.StatusCreated, RegisterResponse{
		Message: "User registered successfully",
		Token:   result.Token,
		User:    result.User,
	})
}

// Login handles POST /auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondAppError(w, r, err, "Failed to log in")
		return
	}

	log.Info().Int("user_id", result.User.ID).Msg("User logged in")

	respondJSON(w, http.StatusOK, LoginResponse{
		ID:       result.User.ID,
		Username: result.User.Username,
		Email:    result.User.Email,
		Avatar:   result.User.Avatar,
		Token:    result.Token,
	})
}

// DeleteAccount handles DELETE /auth/delete-account/{userId}
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := intParam(w, r, "userId")
	if !ok || !requireSelf(w, r, userID) {
		return
	}

	if err := h.userService.DeleteAccount(r.Context(), userID); err != nil {
		respondAppError(w, r, err, "Failed to delete account")
		return
	}

	log.Info().Int("user_id", userID).Msg("Account deleted")
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Account deleted successfully"})
}

// GetUser handles GET /user/{userId}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := intParam(w, r, "userId")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		respondAppError(w, r, err, "Failed to get user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// VerifyPassword handles POST /verifyPassword
func (h *UserHandler) VerifyPassword(w http.ResponseWriter, r *http.Request) {
	var req VerifyPasswordRequest
	if !decodeJSON(w, r, &req) || !requireSelf(w, r, req.UserID) {
		return
	}

	if err := h.userService.VerifyPassword(r.Context(), req.UserID, req.Password); err != nil {
		respondAppError(w, r, err, "Failed to verify password")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password verified",
	})
}

// UpdateProfile handles POST /updateProfile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) || !requireSelf(w, r, req.UserID) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), req.UserID, services.ProfileUpdate{
		Username:        req.Username,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		respondAppError(w, r, err, "Failed to update profile")
		return
	}

	log.Info().Int("user_id", user.ID).Msg("Profile updated")
	respondJSON(w, http.StatusOK, user)
}

// UpdateAvatar handles POST /updateAvatar (multipart: avatar, userId)
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarSize+1<<20)
	if err := r.ParseMultipartForm(h.maxAvatarSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	userID, err := strconv.Atoi(r.FormValue("userId"))
	if err != nil {
		respondError(w, "Invalid userId", http.StatusBadRequest)
		return
	}
	if !requireSelf(w, r, userID) {
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > h.maxAvatarSize {
		respondError(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	contentType := header.Header.Get("Content-Type")
	if !avatars.AllowedExtensions[ext] || !strings.HasPrefix(contentType, "image/") {
		respondError(w, "Only image files are allowed", http.StatusBadRequest)
		return
	}

	name, err := h.userService.UpdateAvatar(r.Context(), userID, file, header.Size, ext, contentType)
	if err != nil {
		respondAppError(w, r, err, "Failed to update avatar")
		return
	}

	log.Info().
		Int("user_id", userID).
		Str("avatar", name).
		Int64("size", header.Size).
		Msg("Avatar updated")

	respondJSON(w, http.StatusOK, map[string]string{"avatar": name})
}
