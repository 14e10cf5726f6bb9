package services

import (
	"context"

	"gymhub/internal/apperror"
	"gymhub/internal/models"
	"gymhub/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// ErrGymNotFound is returned for unknown or deleted gyms.
var ErrGymNotFound = apperror.NotFound("gym not found")

// GymService handles business logic related to gyms.
type GymService struct {
	repo     repositories.GymRepository
	validate *validator.Validate
}

// NewGymService creates a new GymService.
func NewGymService(repo repositories.GymRepository) *GymService {
	return &GymService{
		repo:     repo,
		validate: newValidator(),
	}
}

// GetAllGyms retrieves all live gyms.
func (s *GymService) GetAllGyms(ctx context.Context) ([]models.Gym, error) {
	return s.repo.GetAll(ctx)
}

// GetGymByID retrieves a single gym by its ID.
func (s *GymService) GetGymByID(ctx context.Context, id string) (*models.Gym, error) {
	gym, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if gym == nil {
		return nil, ErrGymNotFound
	}
	return gym, nil
}

// CreateGym validates and stores a new gym.
func (s *GymService) CreateGym(ctx context.Context, gym *models.Gym) error {
	if err := validateStruct(s.validate, gym); err != nil {
		return err
	}
	return s.repo.Create(ctx, gym)
}

// UpdateGym replaces the editable fields of an existing gym.
func (s *GymService) UpdateGym(ctx context.Context, gym *models.Gym) (*models.Gym, error) {
	if err := validateStruct(s.validate, gym); err != nil {
		return nil, err
	}
	ok, err := s.repo.Update(ctx, gym)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGymNotFound
	}
	return s.GetGymByID(ctx, gym.ID)
}

// DeleteGym soft-deletes a gym.
func (s *GymService) DeleteGym(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrGymNotFound
	}
	return nil
}

// RestoreGym brings back a soft-deleted gym.
func (s *GymService) RestoreGym(ctx context.Context, id string) (*models.Gym, error) {
	ok, err := s.repo.Restore(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGymNotFound
	}
	return s.GetGymByID(ctx, id)
}
