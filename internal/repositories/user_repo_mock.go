package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"gymhub/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository.
// It keeps soft-deleted rows, like the database does.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
	now   func() time.Time
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]models.User),
		now:   time.Now,
	}
}

// WithClock overrides the timestamp source. Intended for tests.
func (r *MockUserRepository) WithClock(now func() time.Time) *MockUserRepository {
	r.now = now
	return r
}

func (r *MockUserRepository) findBy(match func(u models.User) bool) *models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if !u.IsDeleted && match(u) {
			return &u
		}
	}
	return nil
}

// FindByID returns a live user by ID.
func (r *MockUserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok || u.IsDeleted {
		return nil, nil
	}
	return &u, nil
}

// FindByEmail returns a live user by exact email.
func (r *MockUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, nil
	}
	return r.findBy(func(u models.User) bool { return u.Email == email }), nil
}

// FindByUsername returns a live user by exact username.
func (r *MockUserRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, nil
	}
	return r.findBy(func(u models.User) bool { return u.Username == username }), nil
}

// Create adds a new user.
func (r *MockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	user.ID = uuid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.IsDeleted = false
	user.DeletedAt = nil
	r.users[user.ID] = *user
	return nil
}

// Update applies the non-nil fields of a partial update.
func (r *MockUserRepository) Update(_ context.Context, id string, fields UserUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || u.IsDeleted {
		return nil, nil
	}
	if fields.Username != nil {
		u.Username = *fields.Username
	}
	if fields.Email != nil {
		u.Email = *fields.Email
	}
	if fields.PasswordHash != nil {
		u.PasswordHash = *fields.PasswordHash
	}
	u.UpdatedAt = r.now()
	r.users[id] = u
	return &u, nil
}

// SoftDelete marks a user deleted.
func (r *MockUserRepository) SoftDelete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || u.IsDeleted {
		return nil
	}
	now := r.now()
	u.IsDeleted = true
	u.DeletedAt = &now
	u.UpdatedAt = now
	r.users[id] = u
	return nil
}

// List returns a page of live users, newest first.
func (r *MockUserRepository) List(_ context.Context, limit, offset int) ([]models.User, error) {
	limit, offset = normalizePage(limit, offset)

	r.mu.RLock()
	live := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		if !u.IsDeleted {
			live = append(live, u)
		}
	}
	r.mu.RUnlock()

	sort.Slice(live, func(i, j int) bool {
		if live[i].CreatedAt.Equal(live[j].CreatedAt) {
			return live[i].ID > live[j].ID
		}
		return live[i].CreatedAt.After(live[j].CreatedAt)
	})

	if offset >= len(live) {
		return []models.User{}, nil
	}
	end := offset + limit
	if end > len(live) {
		end = len(live)
	}
	return live[offset:end], nil
}
