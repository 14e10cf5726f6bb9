package repositories_test

import (
	"context"
	"testing"
	"time"

	"gymhub/internal/models"
	"gymhub/internal/repositories"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func newCachedRepo(t *testing.T) (*repositories.CachedUserRepository, *repositories.MockUserRepository, *miniredis.Miniredis) {
	t.Helper()
	client, mr := newRedisClient(t)
	backing := repositories.NewMockUserRepository()
	return repositories.NewCachedUserRepository(backing, client, time.Minute, nil), backing, mr
}

// interleavedRepo runs onRead once, after a FindByID has loaded its row but
// before it returns.
type interleavedRepo struct {
	*repositories.MockUserRepository
	onRead func(id string)
}

func (r *interleavedRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, err := r.MockUserRepository.FindByID(ctx, id)
	if hook := r.onRead; hook != nil {
		r.onRead = nil
		hook(id)
	}
	return user, err
}

func TestCachedUserRepository_ReadThrough(t *testing.T) {
	repo, backing, mr := newCachedRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "ana", "ana@example.com")

	assert.False(t, mr.Exists("gymhub:user:"+u.ID))

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, mr.Exists("gymhub:user:"+u.ID))
	assert.Equal(t, time.Minute, mr.TTL("gymhub:user:"+u.ID))

	// A change behind the cache's back stays invisible until eviction.
	_, err = backing.Update(ctx, u.ID, repositories.UserUpdate{Username: strPtr("stale")})
	require.NoError(t, err)

	cached, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", cached.Username)
	assert.Empty(t, cached.PasswordHash)

	raw, err := mr.Get("gymhub:user:" + u.ID)
	require.NoError(t, err)
	assert.NotContains(t, raw, "hash-ana")
}

func TestCachedUserRepository_UpdateEvicts(t *testing.T) {
	repo, _, mr := newCachedRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "ana", "ana@example.com")

	_, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)

	_, err = repo.Update(ctx, u.ID, repositories.UserUpdate{Username: strPtr("anna")})
	require.NoError(t, err)
	assert.False(t, mr.Exists("gymhub:user:"+u.ID))

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "anna", got.Username)
}

func TestCachedUserRepository_SoftDeleteEvicts(t *testing.T) {
	repo, _, mr := newCachedRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "ana", "ana@example.com")

	_, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NoError(t, repo.SoftDelete(ctx, u.ID))
	assert.False(t, mr.Exists("gymhub:user:"+u.ID))

	got, err := repo.FindByID(ctx, u.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCachedUserRepository_MissesAreNotCached(t *testing.T) {
	repo, _, mr := newCachedRepo(t)

	got, err := repo.FindByID(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, mr.Keys())
}

func TestCachedUserRepository_FallsBackWhenRedisDown(t *testing.T) {
	repo, backing, mr := newCachedRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "ana", "ana@example.com")

	mr.Close()

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ana", got.Username)

	// Mutations cannot invalidate, so they are not applied.
	assert.Error(t, repo.SoftDelete(ctx, u.ID))
	live, err := backing.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, live)
}

func TestCachedUserRepository_CorruptEntryIsReplaced(t *testing.T) {
	repo, _, mr := newCachedRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "ana", "ana@example.com")

	require.NoError(t, mr.Set("gymhub:user:"+u.ID, "{not json"))

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Username)

	raw, err := mr.Get("gymhub:user:" + u.ID)
	require.NoError(t, err)
	assert.Contains(t, raw, `"username":"ana"`)
}

func TestCachedUserRepository_FillRacingDeleteIsDiscarded(t *testing.T) {
	client, mr := newRedisClient(t)
	ctx := context.Background()
	backing := &interleavedRepo{MockUserRepository: repositories.NewMockUserRepository()}
	repo := repositories.NewCachedUserRepository(backing, client, time.Minute, nil)
	u := createUser(t, repo, "ana", "ana@example.com")

	backing.onRead = func(id string) {
		require.NoError(t, repo.SoftDelete(ctx, id))
	}

	inFlight, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, inFlight, "the racing read saw the row before the delete")
	assert.False(t, mr.Exists("gymhub:user:"+u.ID))

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCachedUserRepository_FillRacingUpdateIsDiscarded(t *testing.T) {
	client, _ := newRedisClient(t)
	ctx := context.Background()
	backing := &interleavedRepo{MockUserRepository: repositories.NewMockUserRepository()}
	repo := repositories.NewCachedUserRepository(backing, client, time.Minute, nil)
	u := createUser(t, repo, "ana", "ana@example.com")

	backing.onRead = func(id string) {
		_, err := repo.Update(ctx, id, repositories.UserUpdate{Username: strPtr("anna")})
		require.NoError(t, err)
	}

	_, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "anna", got.Username)
}

func TestCachedUserRepository_FailedInvalidationLeavesUserUntouched(t *testing.T) {
	repo, backing, mr := newCachedRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "ana", "ana@example.com")

	_, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists("gymhub:user:"+u.ID))

	mr.SetError("LOADING redis is loading the dataset")
	assert.Error(t, repo.SoftDelete(ctx, u.ID))
	_, err = repo.Update(ctx, u.ID, repositories.UserUpdate{Username: strPtr("anna")})
	assert.Error(t, err)
	mr.SetError("")

	live, err := backing.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, "ana", live.Username)

	require.NoError(t, repo.SoftDelete(ctx, u.ID))
	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
