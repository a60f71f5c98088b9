package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/internal/db"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB
}

func createUser(t *testing.T, gdb *gorm.DB, name string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "hashedpassword",
		Role:         role,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func createStore(t *testing.T, gdb *gorm.DB, name string, ownerID uint) *model.Store {
	t.Helper()
	s := &model.Store{Name: name, Address: name + " street", OwnerID: ownerID}
	require.NoError(t, gdb.Create(s).Error)
	return s
}

// createRating inserts with an explicit timestamp so ordering is deterministic.
func createRating(t *testing.T, gdb *gorm.DB, userID, storeID uint, score int, at time.Time) *model.Rating {
	t.Helper()
	r := &model.Rating{UserID: userID, StoreID: storeID, Score: score, CreatedAt: at, UpdatedAt: at}
	require.NoError(t, gdb.Create(r).Error)
	return r
}
