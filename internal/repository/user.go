package repository

import (
	"context"
	"errors"
	"fmt"

	"travel-planner-backend/internal/apperr"
	"travel-planner-backend/internal/models"
	"travel-planner-backend/internal/store"
)

// UserRepository handles persistence of users
type UserRepository struct {
	users *store.Collection[models.User]
}

// NewUserRepository creates a new user repository
func NewUserRepository(users *store.Collection[models.User]) *UserRepository {
	return &UserRepository{users: users}
}

// Create stores a new user, assigning the next ID.
// Returns a conflict if the username or email is taken.
func (r *UserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	var created models.User
	err := r.users.Mutate(ctx, func(users []models.User) ([]models.User, error) {
		if err := checkUnique(users, 0, user.Username, user.Email); err != nil {
			return nil, err
		}
		if user.Tours == nil {
			user.Tours = []int{}
		}
		created = user.WithID(store.NextID(users))
		return append(users, created), nil
	})
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := r.users.FindByID(ctx, id)
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users.LoadAll(ctx) {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, apperr.NotFound("User not found")
}

// Update applies a profile patch.
// Returns a conflict if the new username or email belongs to another user.
func (r *UserRepository) Update(ctx context.Context, id int, patch models.UserPatch) (models.User, error) {
	var updated models.User
	err := r.users.Mutate(ctx, func(users []models.User) ([]models.User, error) {
		idx := indexOfUser(users, id)
		if idx == -1 {
			return nil, apperr.NotFound("User not found")
		}
		next := patch.Apply(users[idx])
		if err := checkUnique(users, id, next.Username, next.Email); err != nil {
			return nil, err
		}
		users[idx] = next
		updated = next
		return users, nil
	})
	if err != nil {
		return models.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

// Modify replaces the user by fn's result. Nothing is written if fn fails.
func (r *UserRepository) Modify(ctx context.Context, id int, fn func(models.User) (models.User, error)) (models.User, error) {
	user, err := r.users.Modify(ctx, id, fn)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to modify user: %w", err)
	}
	return user, nil
}

// Delete removes a user and returns the removed record
func (r *UserRepository) Delete(ctx context.Context, id int) (models.User, error) {
	var removed models.User
	err := r.users.Mutate(ctx, func(users []models.User) ([]models.User, error) {
		idx := indexOfUser(users, id)
		if idx == -1 {
			return nil, apperr.NotFound("User not found")
		}
		removed = users[idx]
		return append(users[:idx], users[idx+1:]...), nil
	})
	if err != nil {
		return models.User{}, fmt.Errorf("failed to delete user: %w", err)
	}
	return removed, nil
}

func checkUnique(users []models.User, selfID int, username, email string) error {
	for _, u := range users {
		if u.ID == selfID {
			continue
		}
		if u.Username == username {
			return apperr.Conflict("User with this username already exists")
		}
		if u.Email == email {
			return apperr.Conflict("User with this email already exists")
		}
	}
	return nil
}

func indexOfUser(users []models.User, id int) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}
