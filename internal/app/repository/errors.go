package repository

import "errors"

var (
	// ErrRatingExists is returned when (user, store) already has a rating.
	ErrRatingExists = errors.New("rating already exists for this user and store")
	// ErrUserOwnsStores is returned when deleting a user that still owns stores.
	ErrUserOwnsStores = errors.New("user still owns stores")
	// ErrEmailTaken is returned on a users.email uniqueness violation.
	ErrEmailTaken = errors.New("email already registered")
)
