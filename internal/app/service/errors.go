package service

import "errors"

var (
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIncorrectPassword  = errors.New("current password is incorrect")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserOwnsStores     = errors.New("cannot delete user who owns stores")
	ErrInvalidRole        = errors.New("invalid role")

	ErrStoreNotFound     = errors.New("store not found")
	ErrInvalidStoreOwner = errors.New("store owner must be an existing store_owner or admin")
	ErrUploadsDisabled   = errors.New("image uploads are not configured")

	ErrRatingNotFound  = errors.New("rating not found")
	ErrDuplicateRating = errors.New("you have already rated this store")
	ErrInvalidScore    = errors.New("score must be between 1 and 5")
)
