package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gymhub/internal/models"
	"gymhub/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// steppingClock returns a clock that advances one minute per call.
func steppingClock() func() time.Time {
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Gym{}))
	return db
}

type repoFactory func(t *testing.T) repositories.UserRepository

func userRepoFactories() map[string]repoFactory {
	return map[string]repoFactory{
		"gorm": func(t *testing.T) repositories.UserRepository {
			return repositories.NewGORMUserRepository(openTestDB(t)).WithClock(steppingClock())
		},
		"memory": func(t *testing.T) repositories.UserRepository {
			return repositories.NewMockUserRepository().WithClock(steppingClock())
		},
	}
}

func createUser(t *testing.T, repo repositories.UserRepository, username, email string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: email, PasswordHash: "hash-" + username}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func strPtr(s string) *string { return &s }

func TestUserRepository_Contract(t *testing.T) {
	for name, newRepo := range userRepoFactories() {
		t.Run(name, func(t *testing.T) {
			t.Run("create and find", func(t *testing.T) {
				repo := newRepo(t)
				ctx := context.Background()

				u := createUser(t, repo, "ana", "ana@example.com")
				assert.NotEmpty(t, u.ID)
				assert.False(t, u.CreatedAt.IsZero())
				assert.Equal(t, u.CreatedAt, u.UpdatedAt)
				assert.False(t, u.IsDeleted)

				byID, err := repo.FindByID(ctx, u.ID)
				require.NoError(t, err)
				require.NotNil(t, byID)
				assert.Equal(t, "ana", byID.Username)
				assert.Equal(t, "hash-ana", byID.PasswordHash)

				byEmail, err := repo.FindByEmail(ctx, "ana@example.com")
				require.NoError(t, err)
				require.NotNil(t, byEmail)
				assert.Equal(t, u.ID, byEmail.ID)

				byName, err := repo.FindByUsername(ctx, "ana")
				require.NoError(t, err)
				require.NotNil(t, byName)
				assert.Equal(t, u.ID, byName.ID)
			})

			t.Run("absent and empty keys", func(t *testing.T) {
				repo := newRepo(t)
				ctx := context.Background()
				createUser(t, repo, "ana", "ana@example.com")

				for _, find := range []func(context.Context, string) (*models.User, error){
					repo.FindByID, repo.FindByEmail, repo.FindByUsername,
				} {
					got, err := find(ctx, "")
					assert.NoError(t, err)
					assert.Nil(t, got)

					got, err = find(ctx, "nobody")
					assert.NoError(t, err)
					assert.Nil(t, got)
				}
			})

			t.Run("lookups are case sensitive", func(t *testing.T) {
				repo := newRepo(t)
				createUser(t, repo, "ana", "ana@example.com")
				createUser(t, repo, "Ana", "Ana@example.com")

				got, err := repo.FindByUsername(context.Background(), "ANA")
				require.NoError(t, err)
				assert.Nil(t, got)
			})

			t.Run("partial update", func(t *testing.T) {
				repo := newRepo(t)
				ctx := context.Background()
				u := createUser(t, repo, "ana", "ana@example.com")

				updated, err := repo.Update(ctx, u.ID, repositories.UserUpdate{Email: strPtr("new@example.com")})
				require.NoError(t, err)
				require.NotNil(t, updated)
				assert.Equal(t, "ana", updated.Username)
				assert.Equal(t, "new@example.com", updated.Email)
				assert.Equal(t, "hash-ana", updated.PasswordHash)
				assert.True(t, updated.UpdatedAt.After(u.UpdatedAt))
				assert.True(t, updated.CreatedAt.Equal(u.CreatedAt))

				touched, err := repo.Update(ctx, u.ID, repositories.UserUpdate{})
				require.NoError(t, err)
				require.NotNil(t, touched)
				assert.True(t, touched.UpdatedAt.After(updated.UpdatedAt))

				missing, err := repo.Update(ctx, "nobody", repositories.UserUpdate{Username: strPtr("x")})
				assert.NoError(t, err)
				assert.Nil(t, missing)
			})

			t.Run("soft delete hides and is idempotent", func(t *testing.T) {
				repo := newRepo(t)
				ctx := context.Background()
				u := createUser(t, repo, "ana", "ana@example.com")
				keep := createUser(t, repo, "bo", "bo@example.com")

				require.NoError(t, repo.SoftDelete(ctx, u.ID))
				require.NoError(t, repo.SoftDelete(ctx, u.ID))
				require.NoError(t, repo.SoftDelete(ctx, "nobody"))

				got, err := repo.FindByID(ctx, u.ID)
				assert.NoError(t, err)
				assert.Nil(t, got)
				got, err = repo.FindByEmail(ctx, "ana@example.com")
				assert.NoError(t, err)
				assert.Nil(t, got)

				updated, err := repo.Update(ctx, u.ID, repositories.UserUpdate{Username: strPtr("zed")})
				assert.NoError(t, err)
				assert.Nil(t, updated)

				users, err := repo.List(ctx, 10, 0)
				require.NoError(t, err)
				require.Len(t, users, 1)
				assert.Equal(t, keep.ID, users[0].ID)
			})

			t.Run("identifiers free again after delete", func(t *testing.T) {
				repo := newRepo(t)
				ctx := context.Background()
				u := createUser(t, repo, "ana", "ana@example.com")
				require.NoError(t, repo.SoftDelete(ctx, u.ID))

				again := createUser(t, repo, "ana", "ana@example.com")
				assert.NotEqual(t, u.ID, again.ID)
			})

			t.Run("list pagination newest first", func(t *testing.T) {
				repo := newRepo(t)
				ctx := context.Background()
				created := make([]*models.User, 5)
				for i := range created {
					created[i] = createUser(t, repo, fmt.Sprintf("user%d", i), fmt.Sprintf("user%d@example.com", i))
				}

				page, err := repo.List(ctx, 2, 2)
				require.NoError(t, err)
				require.Len(t, page, 2)
				assert.Equal(t, created[2].ID, page[0].ID)
				assert.Equal(t, created[1].ID, page[1].ID)

				all, err := repo.List(ctx, 0, 0)
				require.NoError(t, err)
				require.Len(t, all, 5)
				assert.Equal(t, created[4].ID, all[0].ID)

				beyond, err := repo.List(ctx, 10, 50)
				require.NoError(t, err)
				assert.Empty(t, beyond)

				clamped, err := repo.List(ctx, 10, -3)
				require.NoError(t, err)
				assert.Len(t, clamped, 5)
			})
		})
	}
}

func TestGORMUserRepository_UniqueAmongLiveRows(t *testing.T) {
	repo := repositories.NewGORMUserRepository(openTestDB(t))
	createUser(t, repo, "ana", "ana@example.com")

	err := repo.Create(context.Background(), &models.User{Username: "ana", Email: "other@example.com", PasswordHash: "h"})
	assert.Error(t, err)
	err = repo.Create(context.Background(), &models.User{Username: "other", Email: "ana@example.com", PasswordHash: "h"})
	assert.Error(t, err)
}

func TestGORMUserRepository_SoftDeleteKeepsRow(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMUserRepository(db)
	u := createUser(t, repo, "ana", "ana@example.com")

	require.NoError(t, repo.SoftDelete(context.Background(), u.ID))

	var row models.User
	require.NoError(t, db.Where("id = ?", u.ID).Take(&row).Error)
	assert.True(t, row.IsDeleted)
	require.NotNil(t, row.DeletedAt)
}
