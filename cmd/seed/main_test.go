package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/internal/db"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", ref, &row))
	}

	path := filepath.Join(t.TempDir(), "stores.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadStoresFromXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"name", "address", "description"},
		{"Coffee Shop", "1 Main Street", "Espresso"},
		{"  Bakery ", "2 Side Street"},
		{"No Address", ""},
		{"coffee shop", "1 main street", "duplicate"},
	})

	stores, skipped, err := readStoresFromXLSX(path, 7)
	require.NoError(t, err)

	require.Len(t, stores, 2)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, "Coffee Shop", stores[0].Name)
	assert.Equal(t, "Espresso", stores[0].Description)
	assert.Equal(t, "Bakery", stores[1].Name)
	assert.Empty(t, stores[1].Description)
	for _, s := range stores {
		assert.Equal(t, uint(7), s.OwnerID)
	}
}

func TestReadStoresFromXLSX_MissingFile(t *testing.T) {
	_, _, err := readStoresFromXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), 1)
	assert.Error(t, err)
}

func TestImportStores(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	defer db.CleanupTestDB(testDB)

	owner := &model.User{Name: "Owner", Email: "owner@example.com", PasswordHash: "x", Role: model.RoleStoreOwner}
	normal := &model.User{Name: "User", Email: "user@example.com", PasswordHash: "x", Role: model.RoleNormalUser}
	require.NoError(t, testDB.Create(owner).Error)
	require.NoError(t, testDB.Create(normal).Error)

	path := writeWorkbook(t, [][]interface{}{
		{"name", "address"},
		{"Tea House", "3 Hill Road"},
		{"Diner", "4 Low Road"},
	})

	t.Run("Imports for a store owner", func(t *testing.T) {
		require.NoError(t, importStores(testDB, path, "owner@example.com"))

		var count int64
		require.NoError(t, testDB.Model(&model.Store{}).Where("owner_id = ?", owner.ID).Count(&count).Error)
		assert.Equal(t, int64(2), count)
	})

	t.Run("Rejects normal users", func(t *testing.T) {
		assert.Error(t, importStores(testDB, path, "user@example.com"))
	})

	t.Run("Rejects unknown owners", func(t *testing.T) {
		assert.Error(t, importStores(testDB, path, "ghost@example.com"))
	})
}
