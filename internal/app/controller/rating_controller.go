package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/store-rating-backend/internal/app/service"
	"github.com/ikkim/store-rating-backend/internal/middleware"
)

// RatingSubscriber upgrades a request into a live rating feed for one store.
type RatingSubscriber interface {
	Subscribe(w http.ResponseWriter, r *http.Request, storeID uint) error
}

type RatingController struct {
	ratingService service.RatingService
	statsService  service.StatsService
	subscriber    RatingSubscriber
}

func NewRatingController(
	ratingService service.RatingService,
	statsService service.StatsService,
	subscriber RatingSubscriber,
) *RatingController {
	return &RatingController{
		ratingService: ratingService,
		statsService:  statsService,
		subscriber:    subscriber,
	}
}

type CreateRatingRequest struct {
	Score   int    `json:"score" binding:"required"`
	Comment string `json:"comment"`
}

type UpdateRatingRequest struct {
	Score   *int    `json:"score"`
	Comment *string `json:"comment"`
}

// ListAll returns every rating
// GET /api/ratings
func (ctrl *RatingController) ListAll(c *gin.Context) {
	ratings, err := ctrl.ratingService.ListAll(middleware.GetActor(c))
	if err != nil {
		respondServiceError(c, err, "list ratings")
		return
	}
	respondList(c, ratings)
}

// ListForStore returns a store's ratings, newest first
// GET /api/stores/:id/ratings
func (ctrl *RatingController) ListForStore(c *gin.Context) {
	storeID, ok := parseID(c, "id")
	if !ok {
		return
	}

	ratings, err := ctrl.ratingService.ListForStore(storeID)
	if err != nil {
		respondServiceError(c, err, "list store ratings")
		return
	}
	respondList(c, ratings)
}

// Create rates a store once per user
// POST /api/stores/:id/ratings
func (ctrl *RatingController) Create(c *gin.Context) {
	storeID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateRatingRequest
	if !bindJSON(c, &req) {
		return
	}

	rating, err := ctrl.ratingService.Create(middleware.GetActor(c), storeID, service.CreateRatingInput{
		Score:   req.Score,
		Comment: req.Comment,
	})
	if err != nil {
		respondServiceError(c, err, "create rating")
		return
	}
	respondData(c, http.StatusCreated, rating)
}

// Update changes the score or comment of a rating
// PUT /api/ratings/:id
func (ctrl *RatingController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateRatingRequest
	if !bindJSON(c, &req) {
		return
	}

	rating, err := ctrl.ratingService.Update(middleware.GetActor(c), id, service.UpdateRatingInput{
		Score:   req.Score,
		Comment: req.Comment,
	})
	if err != nil {
		respondServiceError(c, err, "update rating")
		return
	}
	respondData(c, http.StatusOK, rating)
}

// Delete removes a rating
// DELETE /api/ratings/:id
func (ctrl *RatingController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.ratingService.Delete(middleware.GetActor(c), id); err != nil {
		respondServiceError(c, err, "delete rating")
		return
	}
	respondDeleted(c)
}

// Stats returns the global rating breakdown
// GET /api/ratings/stats
func (ctrl *RatingController) Stats(c *gin.Context) {
	stats, err := ctrl.statsService.Ratings(middleware.GetActor(c))
	if err != nil {
		respondServiceError(c, err, "rating stats")
		return
	}
	respondData(c, http.StatusOK, stats)
}

// Mine returns the caller's ratings
// GET /api/ratings/user
func (ctrl *RatingController) Mine(c *gin.Context) {
	ratings, err := ctrl.ratingService.Mine(middleware.GetActor(c))
	if err != nil {
		respondServiceError(c, err, "list own ratings")
		return
	}
	respondList(c, ratings)
}

// Live streams rating events of one store over a websocket
// GET /api/stores/:id/ratings/live
func (ctrl *RatingController) Live(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	storeID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.ratingService.Watch(middleware.GetActor(c), storeID); err != nil {
		respondServiceError(c, err, "watch store ratings")
		return
	}

	// the upgrader has already written the failure response
	if err := ctrl.subscriber.Subscribe(c.Writer, c.Request, storeID); err != nil {
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"store_id": storeID,
			"error":    err.Error(),
		})
		return
	}

	log.Info("Live rating feed opened", map[string]interface{}{
		"store_id": storeID,
	})
}
