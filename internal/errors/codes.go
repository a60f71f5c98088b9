package errors

// Error codes returned in the "error" field of failure envelopes.
// Format: CATEGORY_SPECIFIC_DETAIL

const (
	// Authentication
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthIncorrectPassword  = "AUTH_INCORRECT_PASSWORD"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// Authorization
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"
	AuthzOwnerOnly = "AUTHZ_OWNER_ONLY"

	// Validation
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRole  = "VALIDATION_INVALID_ROLE"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// Generic resources
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// Users
	UserNotFound   = "USER_NOT_FOUND"
	UserOwnsStores = "USER_OWNS_STORES"

	// Stores
	StoreNotFound     = "STORE_NOT_FOUND"
	StoreInvalidOwner = "STORE_INVALID_OWNER"

	// Ratings
	RatingNotFound      = "RATING_NOT_FOUND"
	RatingInvalidScore  = "RATING_INVALID_SCORE"
	RatingAlreadyExists = "RATING_ALREADY_EXISTS"

	// Uploads
	UploadUnavailable = "UPLOAD_UNAVAILABLE"

	// Server
	InternalServerError = "INTERNAL_SERVER_ERROR"
	InternalDatabase    = "INTERNAL_DATABASE_ERROR"
)
