package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"gymhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MockGymRepository is an in-memory implementation of GymRepository.
type MockGymRepository struct {
	gyms map[string]models.Gym
	mu   sync.RWMutex
}

// NewMockGymRepository creates a new instance of MockGymRepository.
func NewMockGymRepository() *MockGymRepository {
	return &MockGymRepository{
		gyms: make(map[string]models.Gym),
	}
}

// GetAll returns all live gyms, newest first.
func (r *MockGymRepository) GetAll(_ context.Context) ([]models.Gym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gymList := make([]models.Gym, 0, len(r.gyms))
	for _, g := range r.gyms {
		if !g.DeletedAt.Valid {
			gymList = append(gymList, g)
		}
	}
	sort.Slice(gymList, func(i, j int) bool { return gymList[i].CreatedAt.After(gymList[j].CreatedAt) })
	return gymList, nil
}

// GetByID returns a live gym by its ID.
func (r *MockGymRepository) GetByID(_ context.Context, id string) (*models.Gym, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gym, ok := r.gyms[id]
	if !ok || gym.DeletedAt.Valid {
		return nil, nil
	}
	return &gym, nil
}

// Create adds a new gym.
func (r *MockGymRepository) Create(_ context.Context, gym *models.Gym) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	gym.ID = uuid.New().String()
	gym.CreatedAt = time.Now()
	gym.UpdatedAt = gym.CreatedAt
	r.gyms[gym.ID] = *gym
	return nil
}

// Update modifies an existing live gym.
func (r *MockGymRepository) Update(_ context.Context, gym *models.Gym) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.gyms[gym.ID]
	if !ok || existing.DeletedAt.Valid {
		return false, nil
	}
	existing.Name = gym.Name
	existing.Address = gym.Address
	existing.Phone = gym.Phone
	existing.UpdatedAt = time.Now()
	r.gyms[gym.ID] = existing
	*gym = existing
	return true, nil
}

// Delete soft-deletes a gym.
func (r *MockGymRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gym, ok := r.gyms[id]
	if !ok || gym.DeletedAt.Valid {
		return false, nil
	}
	gym.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	r.gyms[id] = gym
	return true, nil
}

// Restore undeletes a soft-deleted gym.
func (r *MockGymRepository) Restore(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gym, ok := r.gyms[id]
	if !ok || !gym.DeletedAt.Valid {
		return false, nil
	}
	gym.DeletedAt = gorm.DeletedAt{}
	r.gyms[id] = gym
	return true, nil
}
