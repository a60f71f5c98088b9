package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ikkim/store-rating-backend/internal/app/model"
)

func TestStoreRepository_Create_RequiresExistingOwner(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewStoreRepository(gdb)
	owner := createUser(t, gdb, "owner", model.RoleStoreOwner)

	store := &model.Store{Name: "Coffee Shop", Address: "1 Bean Rd", OwnerID: owner.ID}
	require.NoError(t, repo.Create(store))
	assert.NotZero(t, store.ID)

	assert.Error(t, repo.Create(&model.Store{Name: "Ghost", Address: "-", OwnerID: 4242}))
}

func TestStoreRepository_FindDetail(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewStoreRepository(gdb)

	owner := createUser(t, gdb, "owner", model.RoleStoreOwner)
	alice := createUser(t, gdb, "alice", model.RoleNormalUser)
	bob := createUser(t, gdb, "bob", model.RoleNormalUser)
	store := createStore(t, gdb, "Coffee Shop", owner.ID)

	now := time.Now()
	createRating(t, gdb, alice.ID, store.ID, 5, now.Add(-time.Minute))
	createRating(t, gdb, bob.ID, store.ID, 3, now)

	detail, err := repo.FindDetail(store.ID)
	require.NoError(t, err)

	require.NotNil(t, detail.Owner)
	assert.Equal(t, "owner@example.com", detail.Owner.Email)
	assert.Empty(t, detail.Owner.PasswordHash)

	require.Len(t, detail.Ratings, 2)
	assert.Equal(t, bob.ID, detail.Ratings[0].UserID)
	require.NotNil(t, detail.Ratings[0].User)
	assert.Equal(t, "bob", detail.Ratings[0].User.Name)
	assert.Empty(t, detail.Ratings[0].User.Email)

	_, err = repo.FindDetail(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStoreRepository_FindAll(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewStoreRepository(gdb)

	owner := createUser(t, gdb, "owner", model.RoleStoreOwner)
	other := createUser(t, gdb, "other", model.RoleStoreOwner)
	createStore(t, gdb, "Tech Store", owner.ID)
	createStore(t, gdb, "Book Store", owner.ID)
	createStore(t, gdb, "Tea House", other.ID)

	tests := []struct {
		name   string
		filter StoreFilter
		want   []string
	}{
		{"All stores by id", StoreFilter{}, []string{"Tech Store", "Book Store", "Tea House"}},
		{"Search by name", StoreFilter{Search: "Store"}, []string{"Tech Store", "Book Store"}},
		{"Search by address", StoreFilter{Search: "Tea House street"}, []string{"Tea House"}},
		{"Owner scope", StoreFilter{OwnerID: other.ID}, []string{"Tea House"}},
		{"Owner scope with search", StoreFilter{OwnerID: owner.ID, Search: "Book"}, []string{"Book Store"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores, err := repo.FindAll(tt.filter)
			require.NoError(t, err)

			names := make([]string, 0, len(stores))
			for _, s := range stores {
				names = append(names, s.Name)
				require.NotNil(t, s.Owner)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestStoreRepository_Delete_CascadesRatings(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewStoreRepository(gdb)

	owner := createUser(t, gdb, "owner", model.RoleStoreOwner)
	alice := createUser(t, gdb, "alice", model.RoleNormalUser)
	keep := createStore(t, gdb, "Keep", owner.ID)
	drop := createStore(t, gdb, "Drop", owner.ID)
	createRating(t, gdb, alice.ID, keep.ID, 4, time.Now())
	createRating(t, gdb, alice.ID, drop.ID, 2, time.Now())

	require.NoError(t, repo.Delete(drop.ID))

	var remaining []model.Rating
	require.NoError(t, gdb.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, keep.ID, remaining[0].StoreID)

	assert.ErrorIs(t, repo.Delete(drop.ID), gorm.ErrRecordNotFound)
}

func TestStoreRepository_BulkCreateAndCount(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewStoreRepository(gdb)
	owner := createUser(t, gdb, "owner", model.RoleStoreOwner)

	stores := []*model.Store{
		{Name: "A", Address: "a", OwnerID: owner.ID},
		{Name: "B", Address: "b", OwnerID: owner.ID},
	}
	require.NoError(t, repo.BulkCreate(stores))
	require.NoError(t, repo.BulkCreate(nil))

	byOwner, err := repo.CountByOwner(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byOwner)

	total, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
