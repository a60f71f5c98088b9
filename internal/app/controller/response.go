package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/store-rating-backend/internal/app/service"
	"github.com/ikkim/store-rating-backend/internal/authz"
	apperrors "github.com/ikkim/store-rating-backend/internal/errors"
	"github.com/ikkim/store-rating-backend/internal/middleware"
	"github.com/ikkim/store-rating-backend/internal/storage"
)

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondList[T any](c *gin.Context, items []T) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(items),
		"data":    items,
	})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}

// respondDeleted mirrors the empty data object clients expect after a delete.
func respondDeleted(c *gin.Context) {
	respondData(c, http.StatusOK, gin.H{})
}

// parseID reads a positive integer path parameter, answering 400 otherwise.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// bindJSON binds the body and answers 400 with per-field messages on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		if fields, ok := apperrors.ValidationFields(err); ok {
			apperrors.RespondWithValidationError(c, fields)
			return false
		}
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid input")
		return false
	}
	return true
}

// respondServiceError maps service and engine errors onto the failure
// envelope. Unknown errors are logged and reported as a generic 500.
func respondServiceError(c *gin.Context, err error, operation string) {
	var denied *authz.DeniedError
	switch {
	case errors.As(err, &denied) && !errors.Is(err, authz.ErrConflict):
		middleware.RespondDenied(c, err)

	case errors.Is(err, service.ErrInvalidCredentials):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid credentials")
	case errors.Is(err, service.ErrIncorrectPassword):
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthIncorrectPassword, "Current password is incorrect")

	case errors.Is(err, service.ErrUserNotFound):
		apperrors.NotFound(c, apperrors.UserNotFound, "User not found")
	case errors.Is(err, service.ErrStoreNotFound):
		apperrors.NotFound(c, apperrors.StoreNotFound, "Store not found")
	case errors.Is(err, service.ErrRatingNotFound):
		apperrors.NotFound(c, apperrors.RatingNotFound, "Rating not found")

	case errors.Is(err, service.ErrEmailAlreadyExists):
		apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "Email already registered")
	case errors.Is(err, service.ErrDuplicateRating):
		apperrors.Conflict(c, apperrors.RatingAlreadyExists, "You have already rated this store")
	case errors.Is(err, service.ErrUserOwnsStores):
		apperrors.Conflict(c, apperrors.UserOwnsStores, "Cannot delete user who owns stores. Please reassign or delete the stores first.")
	case errors.Is(err, authz.ErrConflict):
		apperrors.Conflict(c, apperrors.ResourceConflict, authz.Message(err))

	case errors.Is(err, service.ErrInvalidRole):
		apperrors.BadRequest(c, apperrors.ValidationInvalidRole, "Role must be one of: admin, normal_user, store_owner")
	case errors.Is(err, service.ErrInvalidScore):
		apperrors.BadRequest(c, apperrors.RatingInvalidScore, "Score must be between 1 and 5")
	case errors.Is(err, service.ErrInvalidStoreOwner):
		apperrors.BadRequest(c, apperrors.StoreInvalidOwner, "Owner must be an existing store owner or admin")
	case errors.Is(err, storage.ErrContentTypeNotAllowed):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())

	case errors.Is(err, service.ErrUploadsDisabled):
		apperrors.ServiceUnavailable(c, apperrors.UploadUnavailable, "Image uploads are not configured")

	default:
		middleware.GetLoggerFromContext(c).Error("Request failed", err, map[string]interface{}{
			"operation": operation,
		})
		info := apperrors.ParseError(err, operation)
		apperrors.RespondWithError(c, statusForCode(info.Code), info.Code, info.Message)
	}
}

func statusForCode(code string) int {
	switch code {
	case apperrors.ResourceNotFound, apperrors.UserNotFound, apperrors.StoreNotFound, apperrors.RatingNotFound:
		return http.StatusNotFound
	case apperrors.AuthEmailAlreadyExists, apperrors.RatingAlreadyExists, apperrors.ResourceAlreadyExists,
		apperrors.ResourceConflict, apperrors.UserOwnsStores:
		return http.StatusConflict
	case apperrors.ValidationRequired:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
