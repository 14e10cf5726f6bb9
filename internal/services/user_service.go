package services

import (
	"context"
	"log/slog"

	"gymhub/internal/apperror"
	"gymhub/internal/logging"
	"gymhub/internal/metrics"
	"gymhub/internal/models"
	"gymhub/internal/repositories"
	"gymhub/internal/security"

	"github.com/go-playground/validator/v10"
)

// Domain errors returned by UserService.
var (
	ErrUserNotFound  = apperror.NotFound("user not found")
	ErrEmailTaken    = apperror.Conflict("email", "email already registered")
	ErrUsernameTaken = apperror.Conflict("username", "username already taken")
)

// UpdateUserInput is a partial update. Nil fields are left unchanged.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
}

// UserService enforces the identity rules the repository does not know about:
// field formats, uniqueness among live users, and password hashing.
type UserService struct {
	repo     repositories.UserRepository
	hasher   security.PasswordHasher
	validate *validator.Validate
	events   userEvents
	logger   *slog.Logger
}

// NewUserService creates a new UserService. publisher may be nil.
func NewUserService(repo repositories.UserRepository, hasher security.PasswordHasher, publisher EventPublisher, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &UserService{
		repo:     repo,
		hasher:   hasher,
		validate: newValidator(),
		events:   userEvents{publisher: publisher, logger: logger},
		logger:   logger,
	}
}

// WithMetrics records lifecycle events on m.
func (s *UserService) WithMetrics(m *metrics.Metrics) *UserService {
	s.events.metrics = m
	return s
}

// CreateUser validates the fields in order username, email, password, then
// checks email and username uniqueness, and only then hashes and stores.
func (s *UserService) CreateUser(ctx context.Context, username, email, password string) (*models.User, error) {
	if err := validateUsername(s.validate, username); err != nil {
		return nil, err
	}
	if err := validateEmail(s.validate, email); err != nil {
		return nil, err
	}
	if err := validatePassword(s.validate, password); err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}
	if err := s.ensureUsernameFree(ctx, username); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: username, Email: email, PasswordHash: hashed}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID)
	s.events.emit(ctx, EventUserCreated, user)
	return user, nil
}

// GetUserByID returns the live user with id.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.found(s.repo.FindByID(ctx, id))
}

// GetUserByUsername returns the live user with username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.found(s.repo.FindByUsername(ctx, username))
}

// GetUserByEmail returns the live user with email.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.found(s.repo.FindByEmail(ctx, email))
}

// ListUsers returns a page of live users, newest first.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.repo.List(ctx, limit, offset)
}

// UpdateUser validates only the supplied fields. A username or email equal to
// the current value skips the uniqueness check.
func (s *UserService) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*models.User, error) {
	if in.Username != nil {
		if err := validateUsername(s.validate, *in.Username); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		if err := validateEmail(s.validate, *in.Email); err != nil {
			return nil, err
		}
	}
	if in.Password != nil {
		if err := validatePassword(s.validate, *in.Password); err != nil {
			return nil, err
		}
	}

	current, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var fields repositories.UserUpdate
	if in.Email != nil && *in.Email != current.Email {
		if err := s.ensureEmailFree(ctx, *in.Email); err != nil {
			return nil, err
		}
		fields.Email = in.Email
	}
	if in.Username != nil && *in.Username != current.Username {
		if err := s.ensureUsernameFree(ctx, *in.Username); err != nil {
			return nil, err
		}
		fields.Username = in.Username
	}
	if in.Password != nil {
		hashed, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		fields.PasswordHash = &hashed
	}

	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Deleted between the lookup and the write.
		return nil, ErrUserNotFound
	}

	s.events.emit(ctx, EventUserUpdated, updated)
	return updated, nil
}

// DeleteUser soft-deletes a live user. Unknown or already deleted ids are
// not found.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", id)
	s.events.emit(ctx, EventUserDeleted, user)
	return nil
}

func (s *UserService) found(user *models.User, err error) (*models.User, error) {
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrEmailTaken
	}
	return nil
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username string) error {
	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrUsernameTaken
	}
	return nil
}
