package repositories

import (
	"context"
	"errors"
	"time"

	"gymhub/internal/models"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db:  db,
		now: time.Now,
	}
}

// WithClock overrides the timestamp source. Intended for tests.
func (r *GORMUserRepository) WithClock(now func() time.Time) *GORMUserRepository {
	r.now = now
	return r
}

// live scopes a query to rows that are not soft-deleted.
func (r *GORMUserRepository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("is_deleted = ?", false)
}

func (r *GORMUserRepository) findOne(ctx context.Context, column, value string) (*models.User, error) {
	if value == "" {
		return nil, nil
	}

	var user models.User
	if err := r.live(ctx).Where(column+" = ?", value).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, oops.Code("USER_QUERY_FAILED").With(column, value).Wrap(err)
	}
	return &user, nil
}

// FindByID retrieves a live user by ID.
func (r *GORMUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id", id)
}

// FindByEmail retrieves a live user by exact email.
func (r *GORMUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email", email)
}

// FindByUsername retrieves a live user by exact username.
func (r *GORMUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username", username)
}

// Create inserts a new user. ID, timestamps and delete markers are server-assigned.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	now := r.now()
	user.ID = uuid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.IsDeleted = false
	user.DeletedAt = nil

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return oops.Code("USER_CREATE_FAILED").With("username", user.Username).Wrap(err)
	}
	return nil
}

// Update applies the non-nil fields of a partial update.
func (r *GORMUserRepository) Update(ctx context.Context, id string, fields UserUpdate) (*models.User, error) {
	if id == "" {
		return nil, nil
	}

	values := map[string]any{"updated_at": r.now()}
	if fields.Username != nil {
		values["username"] = *fields.Username
	}
	if fields.Email != nil {
		values["email"] = *fields.Email
	}
	if fields.PasswordHash != nil {
		values["password_hash"] = *fields.PasswordHash
	}

	res := r.live(ctx).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return nil, oops.Code("USER_UPDATE_FAILED").With("id", id).Wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

// SoftDelete sets the delete marker. Already-deleted rows keep their original
// deletion timestamp.
func (r *GORMUserRepository) SoftDelete(ctx context.Context, id string) error {
	now := r.now()
	err := r.live(ctx).Where("id = ?", id).Updates(map[string]any{
		"is_deleted": true,
		"deleted_at": now,
		"updated_at": now,
	}).Error
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").With("id", id).Wrap(err)
	}
	return nil
}

// List returns a page of live users, newest first.
func (r *GORMUserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	limit, offset = normalizePage(limit, offset)

	users := make([]models.User, 0, limit)
	err := r.live(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").With("limit", limit).With("offset", offset).Wrap(err)
	}
	return users, nil
}
