package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"translated", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), true},
		{"postgres", errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email" (SQLSTATE 23505)`), true},
		{"sqlite", errors.New("UNIQUE constraint failed: ratings.user_id, ratings.store_id"), true},
		{"other", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicateKey(tt.err))
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(gorm.ErrForeignKeyViolated))
	assert.True(t, IsForeignKeyViolation(errors.New("FOREIGN KEY constraint failed")))
	assert.True(t, IsForeignKeyViolation(errors.New(`update or delete on table "users" violates foreign key constraint "fk_stores_owner" on table "stores"`)))
	assert.False(t, IsForeignKeyViolation(errors.New("syntax error")))
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		context string
		code    string
	}{
		{"not found", gorm.ErrRecordNotFound, "get store", ResourceNotFound},
		{"duplicate email", errors.New(`duplicate key value violates unique constraint "idx_users_email"`), "create user", AuthEmailAlreadyExists},
		{"duplicate rating", errors.New("UNIQUE constraint failed: ratings.user_id, ratings.store_id"), "create rating", RatingAlreadyExists},
		{"user still owns stores", errors.New("FOREIGN KEY constraint failed"), "delete user", UserOwnsStores},
		{"missing owner", errors.New(`insert on table "stores" violates foreign key constraint on owner_id`), "create store", UserNotFound},
		{"unknown", errors.New("boom"), "list stores", InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.code, info.Code)
			assert.NotEmpty(t, info.Message)
			assert.NotContains(t, info.Message, "SQLSTATE")
		})
	}
}

func TestValidationFields(t *testing.T) {
	type input struct {
		Email string `validate:"required,email"`
		Score int    `validate:"min=1,max=5"`
	}

	err := validator.New().Struct(input{Email: "nope", Score: 9})
	fields, ok := ValidationFields(err)

	assert.True(t, ok)
	assert.Equal(t, "must be a valid email", fields["email"])
	assert.Equal(t, "must be at most 5", fields["score"])

	_, ok = ValidationFields(errors.New("plain"))
	assert.False(t, ok)
}
