package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/internal/authz"
	"github.com/ikkim/store-rating-backend/internal/report"
)

type statsWorld struct {
	svc     StatsService
	f       *fixture
	admin   authz.Actor
	bob     authz.Actor
	carol   authz.Actor
	alice   authz.Actor
	coffee  *model.Store
	bakery  *model.Store
	diner   *model.Store
	created time.Time
}

// newStatsWorld seeds two owners, three stores and four ratings:
// coffee 5,4 (avg 4.5), bakery 5 (avg 5), diner unrated.
func newStatsWorld(t *testing.T) *statsWorld {
	f := newFixture(t)
	w := &statsWorld{f: f, svc: NewStatsService(f.users, f.stores, f.ratings, f.stats), created: time.Now()}

	_, w.admin = f.user(t, "admin", model.RoleAdmin)
	bob, bobActor := f.user(t, "bob", model.RoleStoreOwner)
	_, w.carol = f.user(t, "carol", model.RoleStoreOwner)
	alice, aliceActor := f.user(t, "alice", model.RoleNormalUser)
	dave, _ := f.user(t, "dave", model.RoleNormalUser)
	w.bob, w.alice = bobActor, aliceActor

	w.coffee = f.store(t, "Coffee Shop", bob.ID)
	w.bakery = f.store(t, "Bakery", bob.ID)
	w.diner = f.store(t, "Diner", bob.ID)

	f.rating(t, alice.ID, w.coffee.ID, 5, w.created.Add(-3*time.Minute))
	f.rating(t, dave.ID, w.coffee.ID, 4, w.created.Add(-2*time.Minute))
	f.rating(t, alice.ID, w.bakery.ID, 5, w.created.Add(-time.Minute))
	return w
}

func TestStatsService_AdminGates(t *testing.T) {
	w := newStatsWorld(t)

	for _, actor := range []authz.Actor{w.bob, w.alice} {
		_, err := w.svc.Users(actor)
		assert.ErrorIs(t, err, authz.ErrForbidden)
		_, err = w.svc.Stores(actor)
		assert.ErrorIs(t, err, authz.ErrForbidden)
		_, err = w.svc.Ratings(actor)
		assert.ErrorIs(t, err, authz.ErrForbidden)
		_, err = w.svc.Dashboard(actor)
		assert.ErrorIs(t, err, authz.ErrForbidden)
		assert.ErrorIs(t, w.svc.ExportDashboard(actor, &bytes.Buffer{}), authz.ErrForbidden)
	}

	_, err := w.svc.Dashboard(authz.Anonymous)
	assert.ErrorIs(t, err, authz.ErrNotAuthenticated)
}

func TestStatsService_Users(t *testing.T) {
	w := newStatsWorld(t)

	stats, err := w.svc.Users(w.admin)
	require.NoError(t, err)
	assert.Equal(t, UserStats{Count: 5, AdminCount: 1, StoreOwnerCount: 2, NormalUserCount: 2}, *stats)
}

func TestStatsService_Stores(t *testing.T) {
	w := newStatsWorld(t)

	stats, err := w.svc.Stores(w.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Count)

	require.Len(t, stats.TopRated, 3)
	assert.Equal(t, w.bakery.ID, stats.TopRated[0].ID)
	assert.Equal(t, w.coffee.ID, stats.TopRated[1].ID)
	assert.InDelta(t, 4.5, stats.TopRated[1].AverageRating, 0.001)
	assert.Equal(t, w.diner.ID, stats.TopRated[2].ID)
	assert.Zero(t, stats.TopRated[2].RatingCount)
}

func TestStatsService_Ratings(t *testing.T) {
	w := newStatsWorld(t)

	stats, err := w.svc.Ratings(w.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Count)
	assert.InDelta(t, 14.0/3.0, stats.AverageRating, 0.001)
	assert.Equal(t, []model.ScoreBucket{
		{Score: 5, Count: 2},
		{Score: 4, Count: 1},
		{Score: 3, Count: 0},
		{Score: 2, Count: 0},
		{Score: 1, Count: 0},
	}, stats.RatingDistribution)
	require.Len(t, stats.RecentRatings, 3)
	assert.Equal(t, w.bakery.ID, stats.RecentRatings[0].StoreID)
}

func TestStatsService_Store(t *testing.T) {
	w := newStatsWorld(t)

	t.Run("Owner sees own store", func(t *testing.T) {
		detail, err := w.svc.Store(w.bob, w.coffee.ID)
		require.NoError(t, err)
		assert.Equal(t, "Coffee Shop", detail.Store.Name)
		assert.Equal(t, int64(2), detail.Stats.RatingsCount)
		assert.InDelta(t, 4.5, detail.Stats.AverageRating, 0.001)
		assert.Len(t, detail.Stats.RatingDistribution, 5)
		assert.Len(t, detail.Stats.RecentRatings, 2)
	})

	t.Run("Unrated store averages zero", func(t *testing.T) {
		detail, err := w.svc.Store(w.admin, w.diner.ID)
		require.NoError(t, err)
		assert.Zero(t, detail.Stats.AverageRating)
		assert.Zero(t, detail.Stats.RatingsCount)
		assert.Empty(t, detail.Stats.RecentRatings)
	})

	t.Run("Other owner is forbidden", func(t *testing.T) {
		_, err := w.svc.Store(w.carol, w.coffee.ID)
		assert.ErrorIs(t, err, authz.ErrForbidden)
	})

	t.Run("Normal user is forbidden", func(t *testing.T) {
		_, err := w.svc.Store(w.alice, w.coffee.ID)
		assert.ErrorIs(t, err, authz.ErrForbidden)
	})

	t.Run("Missing store", func(t *testing.T) {
		_, err := w.svc.Store(w.admin, 9999)
		assert.ErrorIs(t, err, ErrStoreNotFound)
	})
}

func TestStatsService_Dashboard(t *testing.T) {
	w := newStatsWorld(t)

	dash, err := w.svc.Dashboard(w.admin)
	require.NoError(t, err)
	assert.Equal(t, DashboardCounts{
		Users:       5,
		Stores:      3,
		Ratings:     3,
		UsersByRole: RoleCounts{Admin: 1, StoreOwner: 2, NormalUser: 2},
	}, dash.Counts)
	assert.Len(t, dash.TopRatedStores, 3)
	assert.Len(t, dash.RecentRatings, 3)
}

func TestStatsService_ExportDashboard(t *testing.T) {
	w := newStatsWorld(t)

	var buf bytes.Buffer
	require.NoError(t, w.svc.ExportDashboard(w.admin, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(report.StoresSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Coffee Shop", rows[1][1])
	assert.Equal(t, "bob", rows[1][3])
	assert.Equal(t, "4.5", rows[1][4])

	stores, err := f.GetCellValue(report.SummarySheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, "3", stores)
}

func TestStatsService_Snapshot(t *testing.T) {
	w := newStatsWorld(t)

	snap, err := w.svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, int64(5), snap.Users)
	assert.Equal(t, int64(3), snap.Stores)
	assert.Equal(t, int64(3), snap.Ratings)
}
