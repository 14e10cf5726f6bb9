package repositories

import (
	"context"

	"gymhub/internal/models"
)

// GymRepository defines the interface for gym data access.
type GymRepository interface {
	GetAll(ctx context.Context) ([]models.Gym, error)
	// GetByID returns (nil, nil) for missing or deleted gyms.
	GetByID(ctx context.Context, id string) (*models.Gym, error)
	Create(ctx context.Context, gym *models.Gym) error
	// Update returns false if no live gym has the ID.
	Update(ctx context.Context, gym *models.Gym) (bool, error)
	// Delete soft-deletes and returns false if no live gym has the ID.
	Delete(ctx context.Context, id string) (bool, error)
	// Restore undeletes and returns false if no deleted gym has the ID.
	Restore(ctx context.Context, id string) (bool, error)
}
