package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"gymhub/internal/logging"
	"gymhub/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const (
	userCacheKeyPrefix      = "gymhub:user:"
	userGenerationKeyPrefix = "gymhub:user-gen:"
)

// CachedUserRepository is a read-through Redis cache in front of another
// UserRepository. Only FindByID is cached.
//
// Every mutation bumps a per-user generation key before and after writing to
// the backing store. A read-through fill WATCHes that key, so a fill that
// loaded the row before a concurrent mutation is discarded instead of
// resurrecting it. A mutation whose invalidation fails is not applied, or is
// reported as failed if the backing write already happened. Read failures
// fall back to the backing store.
//
// Cached entries never carry the password hash; callers that verify
// credentials use FindByEmail, which is not cached.
type CachedUserRepository struct {
	next   UserRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedUserRepository wraps next with a cache backed by client.
func NewCachedUserRepository(next UserRepository, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedUserRepository {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CachedUserRepository{next: next, client: client, ttl: ttl, logger: logger}
}

type cachedUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func userCacheKey(id string) string      { return userCacheKeyPrefix + id }
func userGenerationKey(id string) string { return userGenerationKeyPrefix + id }

// FindByID serves from cache when possible.
func (r *CachedUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, nil
	}

	raw, err := r.client.Get(ctx, userCacheKey(id)).Bytes()
	switch {
	case err == nil:
		var cu cachedUser
		if jsonErr := json.Unmarshal(raw, &cu); jsonErr == nil {
			return &models.User{
				ID:        cu.ID,
				Username:  cu.Username,
				Email:     cu.Email,
				CreatedAt: cu.CreatedAt,
				UpdatedAt: cu.UpdatedAt,
			}, nil
		}
		r.logger.WarnContext(ctx, "discarding corrupt cached user", "user_id", id)
	case !errors.Is(err, redis.Nil):
		r.logger.WarnContext(ctx, "user cache read failed", "user_id", id, "error", err)
	}

	var (
		user    *models.User
		loadErr error
		loaded  bool
	)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		user, loadErr = r.next.FindByID(ctx, id)
		loaded = true
		if loadErr != nil || user == nil {
			return nil
		}

		payload, err := json.Marshal(cachedUser{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.UpdatedAt,
		})
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, userCacheKey(id), payload, r.ttl)
			return nil
		})
		return err
	}, userGenerationKey(id))

	switch {
	case err == nil:
	case errors.Is(err, redis.TxFailedErr):
		r.logger.DebugContext(ctx, "user changed during cache fill, not cached", "user_id", id)
	default:
		r.logger.WarnContext(ctx, "user cache write failed", "user_id", id, "error", err)
	}

	if !loaded {
		return r.next.FindByID(ctx, id)
	}
	return user, loadErr
}

func (r *CachedUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.next.FindByEmail(ctx, email)
}

func (r *CachedUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.next.FindByUsername(ctx, username)
}

func (r *CachedUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.next.Create(ctx, user)
}

// Update invalidates the cached entry around the backing write.
func (r *CachedUserRepository) Update(ctx context.Context, id string, fields UserUpdate) (*models.User, error) {
	if err := r.invalidate(ctx, id); err != nil {
		return nil, err
	}
	user, err := r.next.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if err := r.invalidate(ctx, id); err != nil {
		return nil, err
	}
	return user, nil
}

// SoftDelete invalidates the cached entry around the backing write.
func (r *CachedUserRepository) SoftDelete(ctx context.Context, id string) error {
	if err := r.invalidate(ctx, id); err != nil {
		return err
	}
	if err := r.next.SoftDelete(ctx, id); err != nil {
		return err
	}
	return r.invalidate(ctx, id)
}

func (r *CachedUserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return r.next.List(ctx, limit, offset)
}

// invalidate bumps the generation key, which aborts in-flight fills, and
// drops the cached entry.
func (r *CachedUserRepository) invalidate(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, userGenerationKey(id))
		pipe.Expire(ctx, userGenerationKey(id), r.ttl)
		pipe.Del(ctx, userCacheKey(id))
		return nil
	})
	if err != nil {
		return oops.Code("USER_CACHE_INVALIDATE_FAILED").With("user_id", id).Wrap(err)
	}
	return nil
}
