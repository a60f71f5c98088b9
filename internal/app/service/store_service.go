package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/internal/app/repository"
	"github.com/ikkim/store-rating-backend/internal/authz"
	"github.com/ikkim/store-rating-backend/internal/storage"
	"github.com/ikkim/store-rating-backend/pkg/logger"
	"gorm.io/gorm"
)

// ImagePresigner issues direct-upload URLs for store images.
type ImagePresigner interface {
	PresignStoreImage(ctx context.Context, storeID uint, filename, contentType string) (*storage.PresignedUpload, error)
}

type CreateStoreInput struct {
	Name        string
	Description string
	Address     string
	ImageURL    string
	// OwnerID assigns the store to another user. Admin only; zero means
	// the caller owns the store.
	OwnerID uint
}

// UpdateStoreInput carries optional fields; nil leaves the field unchanged.
type UpdateStoreInput struct {
	Name        *string
	Description *string
	Address     *string
	ImageURL    *string
	OwnerID     *uint
}

type StoreService interface {
	List(search string) ([]model.StoreView, error)
	// Get returns the store with its owner, its ratings and their authors.
	Get(id uint) (*model.StoreView, error)
	Create(actor authz.Actor, input CreateStoreInput) (*model.Store, error)
	Update(actor authz.Actor, id uint, input UpdateStoreInput) (*model.Store, error)
	Delete(actor authz.Actor, id uint) error
	Owned(actor authz.Actor) ([]model.StoreView, error)
	PresignImageUpload(ctx context.Context, actor authz.Actor, id uint, filename, contentType string) (*storage.PresignedUpload, error)
}

type storeService struct {
	storeRepo  repository.StoreRepository
	userRepo   repository.UserRepository
	ratingRepo repository.RatingRepository
	presigner  ImagePresigner
}

// NewStoreService builds the store service. presigner may be nil, in which
// case image uploads report ErrUploadsDisabled.
func NewStoreService(
	storeRepo repository.StoreRepository,
	userRepo repository.UserRepository,
	ratingRepo repository.RatingRepository,
	presigner ImagePresigner,
) StoreService {
	return &storeService{
		storeRepo:  storeRepo,
		userRepo:   userRepo,
		ratingRepo: ratingRepo,
		presigner:  presigner,
	}
}

func (s *storeService) List(search string) ([]model.StoreView, error) {
	if err := authz.Decide(authz.Anonymous, authz.ActionListStores, authz.Resource{}).Err(); err != nil {
		return nil, err
	}

	stores, err := s.storeRepo.FindAll(repository.StoreFilter{Search: strings.TrimSpace(search)})
	if err != nil {
		return nil, err
	}
	return s.withAggregates(stores)
}

func (s *storeService) Get(id uint) (*model.StoreView, error) {
	if err := authz.Decide(authz.Anonymous, authz.ActionViewStore, authz.Resource{}).Err(); err != nil {
		return nil, err
	}

	store, err := s.storeRepo.FindDetail(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Store not found", map[string]interface{}{
				"store_id": id,
			})
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	views, err := s.withAggregates([]model.Store{*store})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *storeService) Create(actor authz.Actor, input CreateStoreInput) (*model.Store, error) {
	logger.Info("Creating store", map[string]interface{}{
		"name":     input.Name,
		"actor_id": actor.ID,
	})

	if err := authz.Decide(actor, authz.ActionCreateStore, authz.Resource{}).Err(); err != nil {
		return nil, err
	}

	ownerID := actor.ID
	if input.OwnerID != 0 && input.OwnerID != actor.ID {
		if err := s.checkAssignableOwner(actor, input.OwnerID); err != nil {
			return nil, err
		}
		ownerID = input.OwnerID
	}

	store := &model.Store{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Address:     strings.TrimSpace(input.Address),
		ImageURL:    input.ImageURL,
		OwnerID:     ownerID,
	}
	if err := s.storeRepo.Create(store); err != nil {
		return nil, err
	}

	logger.Info("Store created", map[string]interface{}{
		"store_id": store.ID,
		"owner_id": store.OwnerID,
	})
	return store, nil
}

func (s *storeService) Update(actor authz.Actor, id uint, input UpdateStoreInput) (*model.Store, error) {
	store, err := s.find(id)
	if err != nil {
		return nil, err
	}

	if err := authz.Decide(actor, authz.ActionUpdateStore, authz.Resource{OwnerID: store.OwnerID}).Err(); err != nil {
		logger.Warn("Store update denied", map[string]interface{}{
			"store_id": id,
			"actor_id": actor.ID,
		})
		return nil, err
	}

	if input.OwnerID != nil && *input.OwnerID != store.OwnerID {
		if err := s.checkAssignableOwner(actor, *input.OwnerID); err != nil {
			return nil, err
		}
		store.OwnerID = *input.OwnerID
	}
	if input.Name != nil {
		store.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		store.Description = *input.Description
	}
	if input.Address != nil {
		store.Address = strings.TrimSpace(*input.Address)
	}
	if input.ImageURL != nil {
		store.ImageURL = *input.ImageURL
	}

	if err := s.storeRepo.Update(store); err != nil {
		return nil, err
	}

	logger.Info("Store updated", map[string]interface{}{
		"store_id": store.ID,
		"actor_id": actor.ID,
	})
	return store, nil
}

func (s *storeService) Delete(actor authz.Actor, id uint) error {
	store, err := s.find(id)
	if err != nil {
		return err
	}

	if err := authz.Decide(actor, authz.ActionDeleteStore, authz.Resource{OwnerID: store.OwnerID}).Err(); err != nil {
		logger.Warn("Store delete denied", map[string]interface{}{
			"store_id": id,
			"actor_id": actor.ID,
		})
		return err
	}

	if err := s.storeRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStoreNotFound
		}
		return err
	}

	logger.Info("Store deleted", map[string]interface{}{
		"store_id": id,
		"actor_id": actor.ID,
	})
	return nil
}

func (s *storeService) Owned(actor authz.Actor) ([]model.StoreView, error) {
	if err := authz.Decide(actor, authz.ActionViewOwnedStores, authz.Resource{}).Err(); err != nil {
		return nil, err
	}

	stores, err := s.storeRepo.FindAll(repository.StoreFilter{
		OwnerID:     actor.ID,
		WithRatings: true,
	})
	if err != nil {
		return nil, err
	}
	return s.withAggregates(stores)
}

func (s *storeService) PresignImageUpload(ctx context.Context, actor authz.Actor, id uint, filename, contentType string) (*storage.PresignedUpload, error) {
	store, err := s.find(id)
	if err != nil {
		return nil, err
	}

	if err := authz.Decide(actor, authz.ActionUpdateStore, authz.Resource{OwnerID: store.OwnerID}).Err(); err != nil {
		return nil, err
	}
	if s.presigner == nil {
		return nil, ErrUploadsDisabled
	}

	upload, err := s.presigner.PresignStoreImage(ctx, store.ID, filename, contentType)
	if err != nil {
		return nil, err
	}

	logger.Info("Store image upload presigned", map[string]interface{}{
		"store_id": store.ID,
		"key":      upload.Key,
	})
	return upload, nil
}

// checkAssignableOwner enforces that only admins hand stores to other users
// and that the new owner can own stores.
func (s *storeService) checkAssignableOwner(actor authz.Actor, ownerID uint) error {
	if err := authz.Decide(actor, authz.ActionAssignStoreOwner, authz.Resource{}).Err(); err != nil {
		return err
	}

	owner, err := s.userRepo.FindByID(ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidStoreOwner
		}
		return err
	}
	if owner.Role != model.RoleStoreOwner && owner.Role != model.RoleAdmin {
		return ErrInvalidStoreOwner
	}
	return nil
}

func (s *storeService) find(id uint) (*model.Store, error) {
	store, err := s.storeRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return store, nil
}

func (s *storeService) withAggregates(stores []model.Store) ([]model.StoreView, error) {
	ids := make([]uint, 0, len(stores))
	for _, store := range stores {
		ids = append(ids, store.ID)
	}

	aggregates, err := s.ratingRepo.AggregateByStores(ids)
	if err != nil {
		return nil, err
	}

	views := make([]model.StoreView, 0, len(stores))
	for _, store := range stores {
		agg := aggregates[store.ID]
		views = append(views, model.StoreView{
			Store:         store,
			AverageRating: agg.AverageRating,
			RatingCount:   agg.RatingCount,
		})
	}
	return views, nil
}
