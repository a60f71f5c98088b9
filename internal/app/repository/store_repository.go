package repository

import (
	"errors"
	"strings"

	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoreFilter struct {
	Search  string // matched against name and address
	OwnerID uint
	// WithRatings preloads each store's ratings, newest first.
	WithRatings bool
}

type StoreRepository interface {
	Create(store *model.Store) error
	BulkCreate(stores []*model.Store) error
	Update(store *model.Store) error
	// Delete removes the store and its ratings atomically.
	Delete(id uint) error
	FindByID(id uint) (*model.Store, error)
	// FindDetail loads the owner and the ratings with their authors.
	FindDetail(id uint) (*model.Store, error)
	FindAll(filter StoreFilter) ([]model.Store, error)
	CountByOwner(ownerID uint) (int64, error)
	Count() (int64, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) Create(store *model.Store) error {
	logger.Debug("Creating store in database", map[string]interface{}{
		"name":     store.Name,
		"owner_id": store.OwnerID,
	})

	if err := r.db.Omit(clause.Associations).Create(store).Error; err != nil {
		logger.Error("Failed to create store in database", err, map[string]interface{}{
			"name":     store.Name,
			"owner_id": store.OwnerID,
		})
		return err
	}

	logger.Debug("Store created in database", map[string]interface{}{
		"store_id": store.ID,
	})
	return nil
}

func (r *storeRepository) BulkCreate(stores []*model.Store) error {
	if len(stores) == 0 {
		return nil
	}

	logger.Debug("Bulk creating stores", map[string]interface{}{
		"count": len(stores),
	})

	if err := r.db.Omit(clause.Associations).CreateInBatches(stores, 100).Error; err != nil {
		logger.Error("Failed to bulk create stores", err, map[string]interface{}{
			"count": len(stores),
		})
		return err
	}
	return nil
}

func (r *storeRepository) Update(store *model.Store) error {
	logger.Debug("Updating store in database", map[string]interface{}{
		"store_id": store.ID,
	})

	if err := r.db.Omit(clause.Associations).Save(store).Error; err != nil {
		logger.Error("Failed to update store in database", err, map[string]interface{}{
			"store_id": store.ID,
		})
		return err
	}
	return nil
}

func (r *storeRepository) Delete(id uint) error {
	logger.Debug("Deleting store with ratings", map[string]interface{}{
		"store_id": id,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		ratings := tx.Where("store_id = ?", id).Delete(&model.Rating{})
		if ratings.Error != nil {
			return ratings.Error
		}

		result := tx.Delete(&model.Store{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		logger.Debug("Store deleted", map[string]interface{}{
			"store_id":        id,
			"ratings_removed": ratings.RowsAffected,
		})
		return nil
	})
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to delete store", err, map[string]interface{}{
			"store_id": id,
		})
	}
	return err
}

func (r *storeRepository) FindByID(id uint) (*model.Store, error) {
	var store model.Store
	if err := r.db.First(&store, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to find store", err, map[string]interface{}{
				"store_id": id,
			})
		}
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindDetail(id uint) (*model.Store, error) {
	var store model.Store
	err := r.db.
		Preload("Owner", userContact).
		Preload("Ratings", newestFirst).
		Preload("Ratings.User", userSummary).
		First(&store, id).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to load store detail", err, map[string]interface{}{
				"store_id": id,
			})
		}
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindAll(filter StoreFilter) ([]model.Store, error) {
	logger.Debug("Finding stores", map[string]interface{}{
		"search":   filter.Search,
		"owner_id": filter.OwnerID,
	})

	query := r.db.Model(&model.Store{}).Preload("Owner", userContact)
	if filter.WithRatings {
		query = query.Preload("Ratings", newestFirst)
	}
	if filter.OwnerID != 0 {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(address) LIKE ?", like, like)
	}

	var stores []model.Store
	if err := query.Order("id ASC").Find(&stores).Error; err != nil {
		logger.Error("Failed to find stores", err, map[string]interface{}{
			"search": filter.Search,
		})
		return nil, err
	}

	logger.Debug("Stores found", map[string]interface{}{
		"count": len(stores),
	})
	return stores, nil
}

func (r *storeRepository) CountByOwner(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Store{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

func (r *storeRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Store{}).Count(&count).Error
	return count, err
}
