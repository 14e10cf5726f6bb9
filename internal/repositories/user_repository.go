package repositories

import (
	"context"

	"gymhub/internal/models"
)

// Page size bounds for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// UserUpdate is a partial update. Nil fields are left untouched.
type UserUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// UserRepository defines the interface for user data access. Lookups never
// see soft-deleted rows and report absence as (nil, nil).
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// Create assigns the ID and timestamps.
	Create(ctx context.Context, user *models.User) error
	// Update applies fields and always refreshes UpdatedAt. Returns (nil, nil)
	// if no live user has id.
	Update(ctx context.Context, id string, fields UserUpdate) (*models.User, error)
	// SoftDelete marks the user deleted. Deleting twice is not an error.
	SoftDelete(ctx context.Context, id string) error
	// List returns live users, most recently created first.
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

// normalizePage applies the default and maximum page size.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
