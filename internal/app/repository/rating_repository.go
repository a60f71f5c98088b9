package repository

import (
	"errors"

	"github.com/ikkim/store-rating-backend/internal/app/model"
	apperrors "github.com/ikkim/store-rating-backend/internal/errors"
	"github.com/ikkim/store-rating-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository interface {
	// Create inserts the rating unless the user already rated the store,
	// in which case it returns ErrRatingExists.
	Create(rating *model.Rating) error
	Update(rating *model.Rating) error
	Delete(id uint) error
	FindByID(id uint) (*model.Rating, error)
	Exists(userID, storeID uint) (bool, error)
	FindAll() ([]model.Rating, error)
	FindByStore(storeID uint) ([]model.Rating, error)
	FindByUser(userID uint) ([]model.Rating, error)
	// AggregateByStores returns average and count per store id. Stores
	// without ratings are absent from the result.
	AggregateByStores(storeIDs []uint) (map[uint]model.RatingAggregate, error)
	// DeleteOrphans removes ratings whose store or author no longer exists.
	DeleteOrphans() (int64, error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Create(rating *model.Rating) error {
	logger.Debug("Creating rating in database", map[string]interface{}{
		"user_id":  rating.UserID,
		"store_id": rating.StoreID,
		"score":    rating.Score,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&model.Rating{}).
			Where("user_id = ? AND store_id = ?", rating.UserID, rating.StoreID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrRatingExists
		}
		return tx.Omit(clause.Associations).Create(rating).Error
	})
	if err == nil {
		logger.Debug("Rating created in database", map[string]interface{}{
			"rating_id": rating.ID,
		})
		return nil
	}

	// the unique index catches inserts that raced past the count
	if errors.Is(err, ErrRatingExists) || apperrors.IsDuplicateKey(err) {
		return ErrRatingExists
	}
	logger.Error("Failed to create rating in database", err, map[string]interface{}{
		"user_id":  rating.UserID,
		"store_id": rating.StoreID,
	})
	return err
}

func (r *ratingRepository) Update(rating *model.Rating) error {
	if err := r.db.Omit(clause.Associations).Save(rating).Error; err != nil {
		logger.Error("Failed to update rating in database", err, map[string]interface{}{
			"rating_id": rating.ID,
		})
		return err
	}
	return nil
}

func (r *ratingRepository) Delete(id uint) error {
	result := r.db.Delete(&model.Rating{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete rating from database", result.Error, map[string]interface{}{
			"rating_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ratingRepository) FindByID(id uint) (*model.Rating, error) {
	var rating model.Rating
	if err := r.db.First(&rating, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find rating", err, map[string]interface{}{
				"rating_id": id,
			})
		}
		return nil, err
	}
	return &rating, nil
}

func (r *ratingRepository) Exists(userID, storeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.Rating{}).
		Where("user_id = ? AND store_id = ?", userID, storeID).
		Count(&count).Error
	return count > 0, err
}

func (r *ratingRepository) FindAll() ([]model.Rating, error) {
	var ratings []model.Rating
	err := r.db.
		Preload("User", userContact).
		Preload("Store", storeSummary).
		Scopes(newestFirst).
		Find(&ratings).Error
	if err != nil {
		logger.Error("Failed to list ratings", err)
		return nil, err
	}
	return ratings, nil
}

func (r *ratingRepository) FindByStore(storeID uint) ([]model.Rating, error) {
	var ratings []model.Rating
	err := r.db.
		Where("store_id = ?", storeID).
		Preload("User", userSummary).
		Scopes(newestFirst).
		Find(&ratings).Error
	if err != nil {
		logger.Error("Failed to list store ratings", err, map[string]interface{}{
			"store_id": storeID,
		})
		return nil, err
	}
	return ratings, nil
}

func (r *ratingRepository) FindByUser(userID uint) ([]model.Rating, error) {
	var ratings []model.Rating
	err := r.db.
		Where("user_id = ?", userID).
		Preload("Store", storeSummary).
		Scopes(newestFirst).
		Find(&ratings).Error
	if err != nil {
		logger.Error("Failed to list user ratings", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return ratings, nil
}

func (r *ratingRepository) AggregateByStores(storeIDs []uint) (map[uint]model.RatingAggregate, error) {
	result := make(map[uint]model.RatingAggregate, len(storeIDs))
	if len(storeIDs) == 0 {
		return result, nil
	}

	var rows []model.RatingAggregate
	if err := r.db.Model(&model.Rating{}).
		Select("store_id, " + averageScoreExpr + " AS average_rating, COUNT(*) AS rating_count").
		Where("store_id IN ?", storeIDs).
		Group("store_id").
		Scan(&rows).Error; err != nil {
		logger.Error("Failed to aggregate ratings by store", err, map[string]interface{}{
			"store_count": len(storeIDs),
		})
		return nil, err
	}

	for _, row := range rows {
		result[row.StoreID] = row
	}
	return result, nil
}

func (r *ratingRepository) DeleteOrphans() (int64, error) {
	result := r.db.
		Where("store_id NOT IN (?)", r.db.Model(&model.Store{}).Select("id")).
		Or("user_id NOT IN (?)", r.db.Model(&model.User{}).Select("id")).
		Delete(&model.Rating{})
	if result.Error != nil {
		logger.Error("Failed to delete orphan ratings", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
