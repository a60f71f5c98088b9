package service

import (
	"errors"

	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/internal/app/repository"
	"github.com/ikkim/store-rating-backend/internal/authz"
	apperrors "github.com/ikkim/store-rating-backend/internal/errors"
	"github.com/ikkim/store-rating-backend/pkg/logger"
	"gorm.io/gorm"
)

// Rating event types pushed to live store feeds.
const (
	RatingCreated = "rating.created"
	RatingUpdated = "rating.updated"
	RatingDeleted = "rating.deleted"
)

// RatingPublisher receives rating changes after they are committed.
type RatingPublisher interface {
	PublishRating(storeID uint, event string, rating *model.Rating)
}

type CreateRatingInput struct {
	Score   int
	Comment string
}

// UpdateRatingInput carries optional fields; nil leaves the field unchanged.
type UpdateRatingInput struct {
	Score   *int
	Comment *string
}

type RatingService interface {
	ListAll(actor authz.Actor) ([]model.Rating, error)
	ListForStore(storeID uint) ([]model.Rating, error)
	// Watch checks that the caller may follow the store's live rating feed.
	Watch(actor authz.Actor, storeID uint) error
	Create(actor authz.Actor, storeID uint, input CreateRatingInput) (*model.Rating, error)
	Update(actor authz.Actor, id uint, input UpdateRatingInput) (*model.Rating, error)
	Delete(actor authz.Actor, id uint) error
	Mine(actor authz.Actor) ([]model.Rating, error)
}

type ratingService struct {
	ratingRepo repository.RatingRepository
	storeRepo  repository.StoreRepository
	publisher  RatingPublisher
}

// NewRatingService builds the rating service. publisher may be nil.
func NewRatingService(
	ratingRepo repository.RatingRepository,
	storeRepo repository.StoreRepository,
	publisher RatingPublisher,
) RatingService {
	return &ratingService{
		ratingRepo: ratingRepo,
		storeRepo:  storeRepo,
		publisher:  publisher,
	}
}

func (s *ratingService) ListAll(actor authz.Actor) ([]model.Rating, error) {
	if err := authz.Decide(actor, authz.ActionListRatings, authz.Resource{}).Err(); err != nil {
		return nil, err
	}
	return s.ratingRepo.FindAll()
}

func (s *ratingService) ListForStore(storeID uint) ([]model.Rating, error) {
	if err := authz.Decide(authz.Anonymous, authz.ActionViewStoreRatings, authz.Resource{}).Err(); err != nil {
		return nil, err
	}
	if err := s.ensureStore(storeID); err != nil {
		return nil, err
	}
	return s.ratingRepo.FindByStore(storeID)
}

func (s *ratingService) Watch(actor authz.Actor, storeID uint) error {
	if err := authz.Decide(actor, authz.ActionWatchStoreRatings, authz.Resource{}).Err(); err != nil {
		return err
	}
	return s.ensureStore(storeID)
}

func (s *ratingService) Create(actor authz.Actor, storeID uint, input CreateRatingInput) (*model.Rating, error) {
	logger.Info("Creating rating", map[string]interface{}{
		"store_id": storeID,
		"actor_id": actor.ID,
		"score":    input.Score,
	})

	if !model.ValidScore(input.Score) {
		return nil, ErrInvalidScore
	}
	if err := s.ensureStore(storeID); err != nil {
		return nil, err
	}

	// role gate first so non-raters never learn whether they rated before
	if err := authz.Decide(actor, authz.ActionCreateRating, authz.Resource{}).Err(); err != nil {
		return nil, err
	}

	rated, err := s.ratingRepo.Exists(actor.ID, storeID)
	if err != nil {
		return nil, err
	}
	if err := authz.Decide(actor, authz.ActionCreateRating, authz.Resource{AlreadyRated: rated}).Err(); err != nil {
		if errors.Is(err, authz.ErrConflict) {
			return nil, ErrDuplicateRating
		}
		return nil, err
	}

	rating := &model.Rating{
		Score:   input.Score,
		Comment: input.Comment,
		UserID:  actor.ID,
		StoreID: storeID,
	}
	if err := s.ratingRepo.Create(rating); err != nil {
		switch {
		case errors.Is(err, repository.ErrRatingExists):
			logger.Warn("Duplicate rating rejected", map[string]interface{}{
				"store_id": storeID,
				"user_id":  actor.ID,
			})
			return nil, ErrDuplicateRating
		case apperrors.IsForeignKeyViolation(err):
			// store deleted between lookup and insert
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	logger.Info("Rating created", map[string]interface{}{
		"rating_id": rating.ID,
		"store_id":  storeID,
		"user_id":   actor.ID,
	})
	s.publish(RatingCreated, rating)
	return rating, nil
}

func (s *ratingService) Update(actor authz.Actor, id uint, input UpdateRatingInput) (*model.Rating, error) {
	rating, err := s.find(id)
	if err != nil {
		return nil, err
	}

	if err := authz.Decide(actor, authz.ActionUpdateRating, authz.Resource{OwnerID: rating.UserID}).Err(); err != nil {
		logger.Warn("Rating update denied", map[string]interface{}{
			"rating_id": id,
			"actor_id":  actor.ID,
		})
		return nil, err
	}

	if input.Score != nil {
		if !model.ValidScore(*input.Score) {
			return nil, ErrInvalidScore
		}
		rating.Score = *input.Score
	}
	if input.Comment != nil {
		rating.Comment = *input.Comment
	}

	if err := s.ratingRepo.Update(rating); err != nil {
		return nil, err
	}

	logger.Info("Rating updated", map[string]interface{}{
		"rating_id": rating.ID,
		"actor_id":  actor.ID,
	})
	s.publish(RatingUpdated, rating)
	return rating, nil
}

func (s *ratingService) Delete(actor authz.Actor, id uint) error {
	rating, err := s.find(id)
	if err != nil {
		return err
	}

	if err := authz.Decide(actor, authz.ActionDeleteRating, authz.Resource{OwnerID: rating.UserID}).Err(); err != nil {
		logger.Warn("Rating delete denied", map[string]interface{}{
			"rating_id": id,
			"actor_id":  actor.ID,
		})
		return err
	}

	if err := s.ratingRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRatingNotFound
		}
		return err
	}

	logger.Info("Rating deleted", map[string]interface{}{
		"rating_id": id,
		"actor_id":  actor.ID,
	})
	s.publish(RatingDeleted, rating)
	return nil
}

func (s *ratingService) Mine(actor authz.Actor) ([]model.Rating, error) {
	if err := authz.Decide(actor, authz.ActionViewOwnRatings, authz.Resource{}).Err(); err != nil {
		return nil, err
	}
	return s.ratingRepo.FindByUser(actor.ID)
}

func (s *ratingService) ensureStore(storeID uint) error {
	if _, err := s.storeRepo.FindByID(storeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStoreNotFound
		}
		return err
	}
	return nil
}

func (s *ratingService) find(id uint) (*model.Rating, error) {
	rating, err := s.ratingRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, err
	}
	return rating, nil
}

func (s *ratingService) publish(event string, rating *model.Rating) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishRating(rating.StoreID, event, rating)
}
