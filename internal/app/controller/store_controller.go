package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/store-rating-backend/internal/app/service"
	"github.com/ikkim/store-rating-backend/internal/middleware"
)

type StoreController struct {
	storeService service.StoreService
	statsService service.StatsService
}

func NewStoreController(storeService service.StoreService, statsService service.StatsService) *StoreController {
	return &StoreController{
		storeService: storeService,
		statsService: statsService,
	}
}

type CreateStoreRequest struct {
	Name        string `json:"name" binding:"required"`
	Address     string `json:"address" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl" binding:"omitempty,url"`
	OwnerID     uint   `json:"ownerId"`
}

type UpdateStoreRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1"`
	Address     *string `json:"address" binding:"omitempty,min=1"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	OwnerID     *uint   `json:"ownerId" binding:"omitempty,min=1"`
}

type PresignImageRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// List returns stores with their rating aggregates
// GET /api/stores?search=
func (ctrl *StoreController) List(c *gin.Context) {
	stores, err := ctrl.storeService.List(strings.TrimSpace(c.Query("search")))
	if err != nil {
		respondServiceError(c, err, "list stores")
		return
	}
	respondList(c, stores)
}

// Get returns one store with its owner and ratings
// GET /api/stores/:id
func (ctrl *StoreController) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	store, err := ctrl.storeService.Get(id)
	if err != nil {
		respondServiceError(c, err, "fetch store")
		return
	}
	respondData(c, http.StatusOK, store)
}

// Create adds a store owned by the caller, or by ownerId when an admin sets it
// POST /api/stores
func (ctrl *StoreController) Create(c *gin.Context) {
	var req CreateStoreRequest
	if !bindJSON(c, &req) {
		return
	}

	store, err := ctrl.storeService.Create(middleware.GetActor(c), service.CreateStoreInput{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		ImageURL:    req.ImageURL,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		respondServiceError(c, err, "create store")
		return
	}
	respondData(c, http.StatusCreated, store)
}

// Update changes the supplied fields of a store
// PUT /api/stores/:id
func (ctrl *StoreController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateStoreRequest
	if !bindJSON(c, &req) {
		return
	}

	store, err := ctrl.storeService.Update(middleware.GetActor(c), id, service.UpdateStoreInput{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		ImageURL:    req.ImageURL,
		OwnerID:     req.OwnerID,
	})
	if err != nil {
		respondServiceError(c, err, "update store")
		return
	}
	respondData(c, http.StatusOK, store)
}

// Delete removes a store and its ratings
// DELETE /api/stores/:id
func (ctrl *StoreController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.storeService.Delete(middleware.GetActor(c), id); err != nil {
		respondServiceError(c, err, "delete store")
		return
	}
	respondDeleted(c)
}

// Owned returns the caller's stores
// GET /api/stores/owned
func (ctrl *StoreController) Owned(c *gin.Context) {
	stores, err := ctrl.storeService.Owned(middleware.GetActor(c))
	if err != nil {
		respondServiceError(c, err, "list owned stores")
		return
	}
	respondList(c, stores)
}

// Stats returns the store count and the top rated stores
// GET /api/stores/stats
func (ctrl *StoreController) Stats(c *gin.Context) {
	stats, err := ctrl.statsService.Stores(middleware.GetActor(c))
	if err != nil {
		respondServiceError(c, err, "store stats")
		return
	}
	respondData(c, http.StatusOK, stats)
}

// StatsByID returns the rating breakdown of one store
// GET /api/stores/:id/stats
func (ctrl *StoreController) StatsByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	stats, err := ctrl.statsService.Store(middleware.GetActor(c), id)
	if err != nil {
		respondServiceError(c, err, "store rating stats")
		return
	}
	respondData(c, http.StatusOK, stats)
}

// PresignImage issues a direct upload URL for the store image
// POST /api/stores/:id/image
func (ctrl *StoreController) PresignImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req PresignImageRequest
	if !bindJSON(c, &req) {
		return
	}

	upload, err := ctrl.storeService.PresignImageUpload(c.Request.Context(), middleware.GetActor(c), id, req.Filename, req.ContentType)
	if err != nil {
		respondServiceError(c, err, "presign store image")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Store image upload presigned", map[string]interface{}{
		"store_id": id,
		"key":      upload.Key,
	})
	respondData(c, http.StatusOK, upload)
}
