package repositories

import (
	"context"
	"errors"

	"gymhub/internal/models"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

// GORMGymRepository is a GORM implementation of GymRepository.
type GORMGymRepository struct {
	db *gorm.DB
}

// NewGORMGymRepository creates a new instance of GORMGymRepository.
func NewGORMGymRepository(db *gorm.DB) *GORMGymRepository {
	return &GORMGymRepository{
		db: db,
	}
}

// GetAll retrieves all live gyms, newest first.
func (r *GORMGymRepository) GetAll(ctx context.Context) ([]models.Gym, error) {
	var gyms []models.Gym
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&gyms).Error; err != nil {
		return nil, oops.Code("GYM_QUERY_FAILED").Wrap(err)
	}
	return gyms, nil
}

// GetByID retrieves a single live gym.
func (r *GORMGymRepository) GetByID(ctx context.Context, id string) (*models.Gym, error) {
	var gym models.Gym
	if err := r.db.WithContext(ctx).First(&gym, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, oops.Code("GYM_QUERY_FAILED").With("id", id).Wrap(err)
	}
	return &gym, nil
}

// Create inserts a new gym.
func (r *GORMGymRepository) Create(ctx context.Context, gym *models.Gym) error {
	gym.ID = uuid.New().String()
	if err := r.db.WithContext(ctx).Create(gym).Error; err != nil {
		return oops.Code("GYM_CREATE_FAILED").With("name", gym.Name).Wrap(err)
	}
	return nil
}

// Update overwrites the editable columns of a live gym.
func (r *GORMGymRepository) Update(ctx context.Context, gym *models.Gym) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Gym{}).Where("id = ?", gym.ID).
		Select("name", "address", "phone", "updated_at").
		Updates(gym)
	if res.Error != nil {
		return false, oops.Code("GYM_UPDATE_FAILED").With("id", gym.ID).Wrap(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete soft-deletes a gym through gorm.DeletedAt.
func (r *GORMGymRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Gym{}, "id = ?", id)
	if res.Error != nil {
		return false, oops.Code("GYM_DELETE_FAILED").With("id", id).Wrap(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Restore clears the deletion marker of a soft-deleted gym.
func (r *GORMGymRepository) Restore(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Unscoped().Model(&models.Gym{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if res.Error != nil {
		return false, oops.Code("GYM_RESTORE_FAILED").With("id", id).Wrap(res.Error)
	}
	return res.RowsAffected > 0, nil
}
