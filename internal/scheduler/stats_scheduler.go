package scheduler

import (
	"github.com/ikkim/store-rating-backend/internal/app/service"
	"github.com/ikkim/store-rating-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Snapshotter computes the figures logged by the stats job.
type Snapshotter interface {
	Snapshot() (*service.Snapshot, error)
}

// OrphanSweeper removes ratings whose store or author is gone.
type OrphanSweeper interface {
	DeleteOrphans() (int64, error)
}

// StatsScheduler periodically logs a dashboard snapshot and sweeps orphaned
// ratings.
type StatsScheduler struct {
	cron    *cron.Cron
	spec    string
	stats   Snapshotter
	sweeper OrphanSweeper
}

// NewStatsScheduler creates a scheduler running on spec, a standard cron
// expression or descriptor such as "@hourly".
func NewStatsScheduler(spec string, stats Snapshotter, sweeper OrphanSweeper) *StatsScheduler {
	return &StatsScheduler{
		cron:    cron.New(),
		spec:    spec,
		stats:   stats,
		sweeper: sweeper,
	}
}

func (s *StatsScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { _ = s.RunOnce() }); err != nil {
		logger.Error("Failed to add cron job for stats snapshot", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Stats scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// RunOnce performs one sweep and snapshot. The sweep runs first so the
// snapshot reflects it.
func (s *StatsScheduler) RunOnce() error {
	removed, err := s.sweeper.DeleteOrphans()
	if err != nil {
		logger.Error("Orphan rating sweep failed", err)
		return err
	}
	if removed > 0 {
		logger.Warn("Removed orphaned ratings", map[string]interface{}{
			"count": removed,
		})
	}

	snap, err := s.stats.Snapshot()
	if err != nil {
		logger.Error("Stats snapshot failed", err)
		return err
	}

	logger.Info("Stats snapshot", map[string]interface{}{
		"users":          snap.Users,
		"stores":         snap.Stores,
		"ratings":        snap.Ratings,
		"average_rating": snap.AverageRating,
	})
	return nil
}

// Stop waits for a running job to finish.
func (s *StatsScheduler) Stop() {
	logger.Info("Stopping stats scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Stats scheduler stopped")
}
