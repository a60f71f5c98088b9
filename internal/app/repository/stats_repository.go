package repository

import (
	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/pkg/logger"
	"gorm.io/gorm"
)

// averageScoreExpr yields a float average on both PostgreSQL and SQLite,
// 0 when there are no rows.
const averageScoreExpr = "COALESCE(CAST(AVG(score) AS FLOAT), 0)"

// StatsRepository runs the aggregation queries behind the dashboards.
// A storeID of 0 means "all stores".
type StatsRepository interface {
	CountRatings(storeID uint) (int64, error)
	AverageScore(storeID uint) (float64, error)
	ScoreDistribution(storeID uint) ([]model.ScoreBucket, error)
	RecentRatings(storeID uint, limit int) ([]model.Rating, error)
	TopRatedStores(limit int) ([]model.StoreView, error)
}

type statsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) ratings(storeID uint) *gorm.DB {
	q := r.db.Model(&model.Rating{})
	if storeID != 0 {
		q = q.Where("store_id = ?", storeID)
	}
	return q
}

func (r *statsRepository) CountRatings(storeID uint) (int64, error) {
	var count int64
	err := r.ratings(storeID).Count(&count).Error
	return count, err
}

func (r *statsRepository) AverageScore(storeID uint) (float64, error) {
	var avg float64
	if err := r.ratings(storeID).Select(averageScoreExpr).Scan(&avg).Error; err != nil {
		logger.Error("Failed to compute average score", err, map[string]interface{}{
			"store_id": storeID,
		})
		return 0, err
	}
	return avg, nil
}

// ScoreDistribution returns one bucket per possible score, highest first,
// including scores nobody gave.
func (r *statsRepository) ScoreDistribution(storeID uint) ([]model.ScoreBucket, error) {
	var rows []model.ScoreBucket
	if err := r.ratings(storeID).
		Select("score, COUNT(*) AS count").
		Group("score").
		Scan(&rows).Error; err != nil {
		logger.Error("Failed to compute score distribution", err, map[string]interface{}{
			"store_id": storeID,
		})
		return nil, err
	}

	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.Score] = row.Count
	}

	buckets := make([]model.ScoreBucket, 0, model.MaxScore-model.MinScore+1)
	for score := model.MaxScore; score >= model.MinScore; score-- {
		buckets = append(buckets, model.ScoreBucket{Score: score, Count: counts[score]})
	}
	return buckets, nil
}

func (r *statsRepository) RecentRatings(storeID uint, limit int) ([]model.Rating, error) {
	q := r.db.Preload("User", userSummary)
	if storeID == 0 {
		q = q.Preload("Store", storeSummary)
	} else {
		q = q.Where("store_id = ?", storeID)
	}

	var ratings []model.Rating
	if err := q.Scopes(newestFirst).Limit(limit).Find(&ratings).Error; err != nil {
		logger.Error("Failed to load recent ratings", err, map[string]interface{}{
			"store_id": storeID,
		})
		return nil, err
	}
	return ratings, nil
}

type topStoreRow struct {
	ID            uint
	Name          string
	Address       string
	OwnerID       uint
	AverageRating float64
	RatingCount   int64
}

// TopRatedStores orders by average descending, ties by ascending id.
// Unrated stores average 0 and sort last.
func (r *statsRepository) TopRatedStores(limit int) ([]model.StoreView, error) {
	var rows []topStoreRow
	err := r.db.Table("stores").
		Select("stores.id, stores.name, stores.address, stores.owner_id, " +
			"COALESCE(CAST(AVG(ratings.score) AS FLOAT), 0) AS average_rating, " +
			"COUNT(ratings.id) AS rating_count").
		Joins("LEFT JOIN ratings ON ratings.store_id = stores.id").
		Group("stores.id, stores.name, stores.address, stores.owner_id").
		Order("average_rating DESC").
		Order("stores.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to load top rated stores", err)
		return nil, err
	}

	views := make([]model.StoreView, 0, len(rows))
	for _, row := range rows {
		views = append(views, model.StoreView{
			Store: model.Store{
				ID:      row.ID,
				Name:    row.Name,
				Address: row.Address,
				OwnerID: row.OwnerID,
			},
			AverageRating: row.AverageRating,
			RatingCount:   row.RatingCount,
		})
	}
	return views, nil
}
