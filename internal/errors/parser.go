package errors

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ErrorInfo is a code/message pair safe to return to clients.
type ErrorInfo struct {
	Code    string
	Message string
}

// IsDuplicateKey reports whether err is a unique constraint violation.
// Drivers opened with TranslateError return gorm.ErrDuplicatedKey; the
// message checks cover PostgreSQL (23505) and SQLite text.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// IsForeignKeyViolation reports whether err is a foreign key violation (23503).
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

// ParseError maps storage errors to a client message without leaking
// driver details. context names the operation, e.g. "create rating".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Server error"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}
	if IsDuplicateKey(err) {
		return parseDuplicateKeyError(err.Error())
	}
	if IsForeignKeyViolation(err) {
		return parseForeignKeyError(err.Error(), context)
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "not-null constraint") || strings.Contains(lower, "not null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}
	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "timeout") {
		return ErrorInfo{Code: InternalDatabase, Message: "Database unavailable, please try again later"}
	}

	return ErrorInfo{Code: InternalServerError, Message: "Server error"}
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	lower := strings.ToLower(errStr)

	if strings.Contains(lower, "email") {
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "Email already registered"}
	}
	if strings.Contains(lower, "ratings") || strings.Contains(lower, "idx_rating_user_store") {
		return ErrorInfo{Code: RatingAlreadyExists, Message: "You have already rated this store"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "Resource already exists"}
}

func parseForeignKeyError(errStr string, context string) ErrorInfo {
	lower := strings.ToLower(errStr)
	ctx := strings.ToLower(context)

	if strings.Contains(lower, "still referenced") || strings.Contains(ctx, "delete") {
		if strings.Contains(ctx, "user") {
			return ErrorInfo{
				Code:    UserOwnsStores,
				Message: "Cannot delete user who owns stores. Please reassign or delete the stores first.",
			}
		}
		return ErrorInfo{Code: ResourceConflict, Message: "Resource is still referenced"}
	}
	if strings.Contains(lower, "owner_id") || strings.Contains(lower, "user_id") {
		return ErrorInfo{Code: UserNotFound, Message: "User not found"}
	}
	if strings.Contains(lower, "store_id") {
		return ErrorInfo{Code: StoreNotFound, Message: "Store not found"}
	}
	return ErrorInfo{Code: ResourceNotFound, Message: "Referenced resource not found"}
}

func notFoundMessage(context string) string {
	ctx := strings.ToLower(context)
	switch {
	case strings.Contains(ctx, "rating"):
		return "Rating not found"
	case strings.Contains(ctx, "store"):
		return "Store not found"
	case strings.Contains(ctx, "user"):
		return "User not found"
	}
	return "Resource not found"
}

// ValidationFields flattens binding errors into field -> message pairs.
// ok is false when err is not a validation error.
func ValidationFields(err error) (fields map[string]string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fields = make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[lowerFirst(fe.Field())] = describeTag(fe)
	}
	return fields, true
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
