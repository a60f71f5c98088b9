package service

import (
	"errors"
	"io"
	"time"

	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/internal/app/repository"
	"github.com/ikkim/store-rating-backend/internal/authz"
	"github.com/ikkim/store-rating-backend/internal/report"
	"github.com/ikkim/store-rating-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	topRatedLimit = 5
	recentLimit   = 5
)

type UserStats struct {
	Count           int64 `json:"count"`
	AdminCount      int64 `json:"adminCount"`
	StoreOwnerCount int64 `json:"storeOwnerCount"`
	NormalUserCount int64 `json:"normalUserCount"`
}

type StoreStats struct {
	Count    int64             `json:"count"`
	TopRated []model.StoreView `json:"topRated"`
}

type RatingStats struct {
	Count              int64               `json:"count"`
	AverageRating      float64             `json:"averageRating"`
	RatingDistribution []model.ScoreBucket `json:"ratingDistribution"`
	RecentRatings      []model.Rating      `json:"recentRatings"`
}

type StoreSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

type StoreRatingStats struct {
	RatingsCount       int64               `json:"ratingsCount"`
	AverageRating      float64             `json:"averageRating"`
	RatingDistribution []model.ScoreBucket `json:"ratingDistribution"`
	RecentRatings      []model.Rating      `json:"recentRatings"`
}

// StoreStatsDetail is the per-store dashboard shown to its owner.
type StoreStatsDetail struct {
	Store StoreSummary     `json:"store"`
	Stats StoreRatingStats `json:"stats"`
}

type RoleCounts struct {
	Admin      int64 `json:"admin"`
	StoreOwner int64 `json:"storeOwner"`
	NormalUser int64 `json:"normalUser"`
}

type DashboardCounts struct {
	Users       int64      `json:"users"`
	Stores      int64      `json:"stores"`
	Ratings     int64      `json:"ratings"`
	UsersByRole RoleCounts `json:"usersByRole"`
}

type Dashboard struct {
	Counts         DashboardCounts   `json:"counts"`
	TopRatedStores []model.StoreView `json:"topRatedStores"`
	RecentRatings  []model.Rating    `json:"recentRatings"`
}

// Snapshot is the compact figure set logged by the scheduler.
type Snapshot struct {
	Users         int64
	Stores        int64
	Ratings       int64
	AverageRating float64
}

type StatsService interface {
	Users(actor authz.Actor) (*UserStats, error)
	Stores(actor authz.Actor) (*StoreStats, error)
	Ratings(actor authz.Actor) (*RatingStats, error)
	Store(actor authz.Actor, storeID uint) (*StoreStatsDetail, error)
	Dashboard(actor authz.Actor) (*Dashboard, error)
	// ExportDashboard writes the dashboard as an xlsx workbook.
	ExportDashboard(actor authz.Actor, w io.Writer) error
	// Snapshot is for internal jobs and is not authorization gated.
	Snapshot() (*Snapshot, error)
}

type statsService struct {
	userRepo   repository.UserRepository
	storeRepo  repository.StoreRepository
	ratingRepo repository.RatingRepository
	statsRepo  repository.StatsRepository
}

func NewStatsService(
	userRepo repository.UserRepository,
	storeRepo repository.StoreRepository,
	ratingRepo repository.RatingRepository,
	statsRepo repository.StatsRepository,
) StatsService {
	return &statsService{
		userRepo:   userRepo,
		storeRepo:  storeRepo,
		ratingRepo: ratingRepo,
		statsRepo:  statsRepo,
	}
}

func (s *statsService) Users(actor authz.Actor) (*UserStats, error) {
	if err := authz.Decide(actor, authz.ActionViewUserStats, authz.Resource{}).Err(); err != nil {
		return nil, err
	}

	total, byRole, err := s.userCounts()
	if err != nil {
		return nil, err
	}
	return &UserStats{
		Count:           total,
		AdminCount:      byRole.Admin,
		StoreOwnerCount: byRole.StoreOwner,
		NormalUserCount: byRole.NormalUser,
	}, nil
}

func (s *statsService) Stores(actor authz.Actor) (*StoreStats, error) {
	if err := authz.Decide(actor, authz.ActionViewStoreStats, authz.Resource{}).Err(); err != nil {
		return nil, err
	}

	count, err := s.storeRepo.Count()
	if err != nil {
		return nil, err
	}
	top, err := s.statsRepo.TopRatedStores(topRatedLimit)
	if err != nil {
		return nil, err
	}
	return &StoreStats{Count: count, TopRated: top}, nil
}

func (s *statsService) Ratings(actor authz.Actor) (*RatingStats, error) {
	if err := authz.Decide(actor, authz.ActionViewRatingStats, authz.Resource{}).Err(); err != nil {
		return nil, err
	}

	stats, err := s.ratingStats(0)
	if err != nil {
		return nil, err
	}
	return &RatingStats{
		Count:              stats.RatingsCount,
		AverageRating:      stats.AverageRating,
		RatingDistribution: stats.RatingDistribution,
		RecentRatings:      stats.RecentRatings,
	}, nil
}

func (s *statsService) Store(actor authz.Actor, storeID uint) (*StoreStatsDetail, error) {
	store, err := s.storeRepo.FindByID(storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	if err := authz.Decide(actor, authz.ActionViewStoreStatsByID, authz.Resource{OwnerID: store.OwnerID}).Err(); err != nil {
		return nil, err
	}

	stats, err := s.ratingStats(store.ID)
	if err != nil {
		return nil, err
	}
	return &StoreStatsDetail{
		Store: StoreSummary{
			ID:          store.ID,
			Name:        store.Name,
			Address:     store.Address,
			Description: store.Description,
		},
		Stats: *stats,
	}, nil
}

func (s *statsService) Dashboard(actor authz.Actor) (*Dashboard, error) {
	if err := authz.Decide(actor, authz.ActionViewDashboard, authz.Resource{}).Err(); err != nil {
		return nil, err
	}

	users, byRole, err := s.userCounts()
	if err != nil {
		return nil, err
	}
	stores, err := s.storeRepo.Count()
	if err != nil {
		return nil, err
	}
	ratings, err := s.statsRepo.CountRatings(0)
	if err != nil {
		return nil, err
	}
	top, err := s.statsRepo.TopRatedStores(topRatedLimit)
	if err != nil {
		return nil, err
	}
	recent, err := s.statsRepo.RecentRatings(0, recentLimit)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Counts: DashboardCounts{
			Users:       users,
			Stores:      stores,
			Ratings:     ratings,
			UsersByRole: byRole,
		},
		TopRatedStores: top,
		RecentRatings:  recent,
	}, nil
}

func (s *statsService) ExportDashboard(actor authz.Actor, w io.Writer) error {
	if err := authz.Decide(actor, authz.ActionExportDashboard, authz.Resource{}).Err(); err != nil {
		return err
	}

	users, byRole, err := s.userCounts()
	if err != nil {
		return err
	}
	ratings, err := s.statsRepo.CountRatings(0)
	if err != nil {
		return err
	}
	avg, err := s.statsRepo.AverageScore(0)
	if err != nil {
		return err
	}

	stores, err := s.storeRepo.FindAll(repository.StoreFilter{})
	if err != nil {
		return err
	}
	ids := make([]uint, 0, len(stores))
	for _, store := range stores {
		ids = append(ids, store.ID)
	}
	aggregates, err := s.ratingRepo.AggregateByStores(ids)
	if err != nil {
		return err
	}

	rows := make([]report.StoreRow, 0, len(stores))
	for _, store := range stores {
		row := report.StoreRow{
			ID:            store.ID,
			Name:          store.Name,
			Address:       store.Address,
			AverageRating: aggregates[store.ID].AverageRating,
			RatingCount:   aggregates[store.ID].RatingCount,
		}
		if store.Owner != nil {
			row.Owner = store.Owner.Name
		}
		rows = append(rows, row)
	}

	summary := report.Summary{
		GeneratedAt:   time.Now(),
		Users:         users,
		Admins:        byRole.Admin,
		StoreOwners:   byRole.StoreOwner,
		NormalUsers:   byRole.NormalUser,
		Stores:        int64(len(stores)),
		Ratings:       ratings,
		AverageRating: avg,
	}
	if err := report.Write(w, summary, rows); err != nil {
		logger.Error("Failed to write dashboard export", err, map[string]interface{}{
			"admin_id": actor.ID,
		})
		return err
	}

	logger.Info("Dashboard exported", map[string]interface{}{
		"admin_id": actor.ID,
		"stores":   len(rows),
	})
	return nil
}

func (s *statsService) Snapshot() (*Snapshot, error) {
	users, err := s.userRepo.Count()
	if err != nil {
		return nil, err
	}
	stores, err := s.storeRepo.Count()
	if err != nil {
		return nil, err
	}
	ratings, err := s.statsRepo.CountRatings(0)
	if err != nil {
		return nil, err
	}
	avg, err := s.statsRepo.AverageScore(0)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Users: users, Stores: stores, Ratings: ratings, AverageRating: avg}, nil
}

func (s *statsService) userCounts() (int64, RoleCounts, error) {
	total, err := s.userRepo.Count()
	if err != nil {
		return 0, RoleCounts{}, err
	}
	byRole, err := s.userRepo.CountByRole()
	if err != nil {
		return 0, RoleCounts{}, err
	}
	return total, RoleCounts{
		Admin:      byRole[model.RoleAdmin],
		StoreOwner: byRole[model.RoleStoreOwner],
		NormalUser: byRole[model.RoleNormalUser],
	}, nil
}

// ratingStats computes the figures for one store, or globally for storeID 0.
func (s *statsService) ratingStats(storeID uint) (*StoreRatingStats, error) {
	count, err := s.statsRepo.CountRatings(storeID)
	if err != nil {
		return nil, err
	}
	avg, err := s.statsRepo.AverageScore(storeID)
	if err != nil {
		return nil, err
	}
	distribution, err := s.statsRepo.ScoreDistribution(storeID)
	if err != nil {
		return nil, err
	}
	recent, err := s.statsRepo.RecentRatings(storeID, recentLimit)
	if err != nil {
		return nil, err
	}
	return &StoreRatingStats{
		RatingsCount:       count,
		AverageRating:      avg,
		RatingDistribution: distribution,
		RecentRatings:      recent,
	}, nil
}
