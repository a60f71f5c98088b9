package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ikkim/store-rating-backend/internal/app/model"
)

func TestUserRepository_Create(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	tests := []struct {
		name    string
		user    *model.User
		wantErr error
	}{
		{
			name: "Valid user",
			user: &model.User{
				Email:        "test@example.com",
				PasswordHash: "hashedpassword",
				Name:         "Test User",
				Role:         model.RoleNormalUser,
			},
		},
		{
			name: "Duplicate email",
			user: &model.User{
				Email:        "test@example.com",
				PasswordHash: "hashedpassword",
				Name:         "Another User",
				Role:         model.RoleStoreOwner,
			},
			wantErr: ErrEmailTaken,
		},
		{
			name: "Email differing only by case",
			user: &model.User{
				Email:        "Test@example.com",
				PasswordHash: "hashedpassword",
				Name:         "Case User",
				Role:         model.RoleNormalUser,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(tt.user)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, tt.user.ID)
		})
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewUserRepository(gdb)
	alice := createUser(t, gdb, "alice", model.RoleNormalUser)

	found, err := repo.FindByEmail("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	_, err = repo.FindByEmail("nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_FindAll_NewestFirst(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewUserRepository(gdb)

	older := &model.User{Name: "old", Email: "old@example.com", PasswordHash: "x", Role: model.RoleNormalUser, CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, gdb.Create(older).Error)
	newer := createUser(t, gdb, "new", model.RoleAdmin)

	users, err := repo.FindAll()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, newer.ID, users[0].ID)
	assert.Equal(t, older.ID, users[1].ID)
}

func TestUserRepository_Update_DuplicateEmail(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewUserRepository(gdb)
	createUser(t, gdb, "alice", model.RoleNormalUser)
	bob := createUser(t, gdb, "bob", model.RoleNormalUser)

	bob.Email = "alice@example.com"
	assert.ErrorIs(t, repo.Update(bob), ErrEmailTaken)

	bob.Email = "bobby@example.com"
	bob.Role = model.RoleStoreOwner
	require.NoError(t, repo.Update(bob))

	reloaded, err := repo.FindByID(bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bobby@example.com", reloaded.Email)
	assert.Equal(t, model.RoleStoreOwner, reloaded.Role)
}

func TestUserRepository_Delete(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewUserRepository(gdb)

	owner := createUser(t, gdb, "owner", model.RoleStoreOwner)
	alice := createUser(t, gdb, "alice", model.RoleNormalUser)
	store := createStore(t, gdb, "Coffee Shop", owner.ID)
	createRating(t, gdb, alice.ID, store.ID, 4, time.Now())

	t.Run("Blocked while owning stores", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(owner.ID), ErrUserOwnsStores)

		_, err := repo.FindByID(owner.ID)
		assert.NoError(t, err)
	})

	t.Run("Removes the user's ratings", func(t *testing.T) {
		require.NoError(t, repo.Delete(alice.ID))

		var ratings int64
		gdb.Model(&model.Rating{}).Where("user_id = ?", alice.ID).Count(&ratings)
		assert.Zero(t, ratings)
	})

	t.Run("Unknown user", func(t *testing.T) {
		assert.ErrorIs(t, repo.Delete(9999), gorm.ErrRecordNotFound)
	})

	t.Run("Succeeds once stores are gone", func(t *testing.T) {
		require.NoError(t, NewStoreRepository(gdb).Delete(store.ID))
		assert.NoError(t, repo.Delete(owner.ID))
	})
}

func TestUserRepository_CountByRole(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewUserRepository(gdb)

	createUser(t, gdb, "admin", model.RoleAdmin)
	createUser(t, gdb, "alice", model.RoleNormalUser)
	createUser(t, gdb, "bob", model.RoleNormalUser)

	counts, err := repo.CountByRole()
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[model.RoleAdmin])
	assert.Equal(t, int64(2), counts[model.RoleNormalUser])
	assert.Equal(t, int64(0), counts[model.RoleStoreOwner])

	total, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}
