package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"travel-planner-backend/internal/apperr"
	"travel-planner-backend/internal/avatars"
	"travel-planner-backend/internal/models"
	"travel-planner-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var errPasswordChanged = errors.New("password changed since it was checked")

// UserService handles registration, login and profile management
type UserService struct {
	userRepo  *repository.UserRepository
	avatars   avatars.Storage
	jwtSecret string
	tokenTTL  time.Duration
}

// NewUserService creates a new user service
func NewUserService(userRepo *repository.UserRepository, avatarStorage avatars.Storage, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		userRepo:  userRepo,
		avatars:   avatarStorage,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// ProfileUpdate carries the fields of a profile update request.
// Empty Username or Email keep the current value.
type ProfileUpdate struct {
	Username        string
	Email           string
	CurrentPassword string
	NewPassword     string
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID int) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return 0, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}

	// JSON numbers decode as float64
	userID, ok := claims["user_id"].(float64)
	if !ok || userID < 1 || userID != float64(int(userID)) {
		return 0, fmt.Errorf("user_id not found in token")
	}

	return int(userID), nil
}

// Register creates a new user and issues a token
func (s *UserService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, apperr.InvalidInput("Username, email and password are required")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, models.User{
		Username: username,
		Email:    email,
		Password: hash,
		Tours:    []int{},
	})
	if err != nil {
		return nil, err
	}

	return s.authResult(user)
}

// Login checks the credentials and issues a token
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperr.InvalidInput("Email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("Invalid email or password")
		}
		return nil, err
	}

	ok, legacy := checkPassword(user.Password, password)
	if !ok {
		return nil, apperr.Unauthorized("Invalid email or password")
	}

	if legacy {
		s.upgradePassword(ctx, user.ID, password)
	}

	return s.authResult(*user)
}

// GetUser returns the public profile of a user
func (s *UserService) GetUser(ctx context.Context, userID int) (*models.PublicUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// VerifyPassword checks the user's current password
func (s *UserService) VerifyPassword(ctx context.Context, userID int, password string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if ok, _ := checkPassword(user.Password, password); !ok {
		return apperr.Unauthorized("Invalid password")
	}
	return nil
}

// UpdateProfile changes the username, email and optionally the password.
// Changing the password requires the current one.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, update ProfileUpdate) (*models.PublicUser, error) {
	var patch models.UserPatch

	if username := strings.TrimSpace(update.Username); username != "" {
		patch.Username = &username
	}
	if email := strings.TrimSpace(update.Email); email != "" {
		patch.Email = &email
	}

	if update.NewPassword != "" {
		if update.CurrentPassword == "" {
			return nil, apperr.InvalidInput("Current password is required to set a new one")
		}
		if err := s.VerifyPassword(ctx, userID, update.CurrentPassword); err != nil {
			return nil, err
		}
		hash, err := hashPassword(update.NewPassword)
		if err != nil {
			return nil, err
		}
		patch.Password = &hash
	}

	user, err := s.userRepo.Update(ctx, userID, patch)
	if err != nil {
		return nil, err
	}

	public := user.Public()
	return &public, nil
}

// UpdateAvatar stores a new avatar image and removes the previous one.
// ext must include the leading dot.
func (s *UserService) UpdateAvatar(ctx context.Context, userID int, body io.Reader, size int64, ext, contentType string) (string, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return "", err
	}

	name := uuid.New().String() + strings.ToLower(ext)
	if !avatars.ValidName(name) {
		return "", apperr.InvalidInput("Unsupported file format")
	}

	if err := s.avatars.Save(ctx, name, body, size, contentType); err != nil {
		return "", fmt.Errorf("failed to save avatar: %w", err)
	}

	var previous *string
	_, err := s.userRepo.Modify(ctx, userID, func(user models.User) (models.User, error) {
		previous = user.Avatar
		user.Avatar = &name
		return user, nil
	})
	if err != nil {
		s.removeAvatar(ctx, userID, name)
		return "", err
	}

	if previous != nil && *previous != "" {
		s.removeAvatar(ctx, userID, *previous)
	}

	return name, nil
}

// DeleteAccount removes the user and its avatar
func (s *UserService) DeleteAccount(ctx context.Context, userID int) error {
	removed, err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		return err
	}

	if removed.Avatar != nil && *removed.Avatar != "" {
		s.removeAvatar(ctx, userID, *removed.Avatar)
	}
	return nil
}

func (s *UserService) authResult(user models.User) (*AuthResult, error) {
	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}

// upgradePassword replaces a plaintext password with its hash, unless the
// password was changed after it was checked
func (s *UserService) upgradePassword(ctx context.Context, userID int, plain string) {
	hash, err := hashPassword(plain)
	if err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("Failed to hash legacy password")
		return
	}

	_, err = s.userRepo.Modify(ctx, userID, func(user models.User) (models.User, error) {
		if user.Password != plain {
			return user, errPasswordChanged
		}
		user.Password = hash
		return user, nil
	})
	if errors.Is(err, errPasswordChanged) {
		log.Debug().Int("user_id", userID).Msg("Password changed during login, skipping re-hash")
		return
	}
	if err != nil {
		log.Error().Err(err).Int("user_id", userID).Msg("Failed to upgrade legacy password")
		return
	}
	log.Info().Int("user_id", userID).Msg("Legacy password re-hashed")
}

// removeAvatar deletes an avatar object; failures leave an orphan and are only logged
func (s *UserService) removeAvatar(ctx context.Context, userID int, name string) {
	if err := s.avatars.Delete(ctx, name); err != nil {
		log.Warn().
			Err(err).
			Int("user_id", userID).
			Str("avatar", name).
			Msg("Failed to delete avatar")
	}
}
