package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleData() (Summary, []StoreRow) {
	summary := Summary{
		GeneratedAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Users:         4,
		Admins:        1,
		StoreOwners:   1,
		NormalUsers:   2,
		Stores:        2,
		Ratings:       3,
		AverageRating: 4,
	}
	stores := []StoreRow{
		{ID: 1, Name: "Coffee Shop", Address: "1 Main St", Owner: "Bob", AverageRating: 4.5, RatingCount: 2},
		{ID: 2, Name: "Bakery", Address: "2 Side St", Owner: "Bob", AverageRating: 0, RatingCount: 0},
	}
	return summary, stores
}

func TestBuild_Sheets(t *testing.T) {
	summary, stores := sampleData()

	f, err := Build(summary, stores)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{StoresSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(StoresSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, storeHeaders, rows[0])
	assert.Equal(t, []string{"1", "Coffee Shop", "1 Main St", "Bob", "4.5", "2"}, rows[1])
	assert.Equal(t, "Bakery", rows[2][1])

	generated, err := f.GetCellValue(SummarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01T12:00:00Z", generated)

	ratings, err := f.GetCellValue(SummarySheet, "B7")
	require.NoError(t, err)
	assert.Equal(t, "3", ratings)
}

func TestBuild_NoStores(t *testing.T) {
	summary, _ := sampleData()

	f, err := Build(summary, nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(StoresSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWrite_ProducesReadableWorkbook(t *testing.T) {
	summary, stores := sampleData()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, summary, stores))
	assert.NotZero(t, buf.Len())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue(StoresSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Coffee Shop", name)
}
