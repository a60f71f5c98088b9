package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name    string
		userID  uint
		email   string
		role    string
		secret  string
		expiry  time.Duration
		wantErr bool
	}{
		{
			name:   "Normal user",
			userID: 1,
			email:  "user@example.com",
			role:   "normal_user",
			secret: testSecret,
			expiry: 15 * time.Minute,
		},
		{
			name:   "Admin",
			userID: 2,
			email:  "admin@example.com",
			role:   "admin",
			secret: testSecret,
			expiry: 720 * time.Hour,
		},
		{
			name:    "Empty secret",
			userID:  3,
			email:   "owner@example.com",
			role:    "store_owner",
			secret:  "",
			expiry:  time.Hour,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, expiresAt, err := GenerateToken(tt.userID, tt.email, tt.role, tt.secret, tt.expiry)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.WithinDuration(t, time.Now().Add(tt.expiry), expiresAt, 5*time.Second)
		})
	}
}

func TestGenerateToken_UniquePerCall(t *testing.T) {
	a, _, err := GenerateToken(1, "user@example.com", "normal_user", testSecret, time.Hour)
	require.NoError(t, err)
	b, _, err := GenerateToken(1, "user@example.com", "normal_user", testSecret, time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestValidateToken(t *testing.T) {
	token, _, err := GenerateToken(123, "test@example.com", "store_owner", testSecret, 15*time.Minute)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 123}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{name: "Valid token", token: token, secret: testSecret},
		{name: "Invalid secret", token: token, secret: "wrong-secret", wantErr: ErrInvalidToken},
		{name: "Invalid token format", token: "invalid.token.format", secret: testSecret, wantErr: ErrInvalidToken},
		{name: "Empty token", token: "", secret: testSecret, wantErr: ErrInvalidToken},
		{name: "Unsigned token", token: noneToken, secret: testSecret, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, claims)
			assert.Equal(t, uint(123), claims.UserID)
			assert.Equal(t, "test@example.com", claims.Email)
			assert.Equal(t, "store_owner", claims.Role)
			assert.Equal(t, "123", claims.Subject)
			assert.NotEmpty(t, claims.ID)
		})
	}
}

func TestExpiredToken(t *testing.T) {
	token, _, err := GenerateToken(1, "test@example.com", "normal_user", testSecret, -time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestTokenClaims(t *testing.T) {
	token, _, err := GenerateToken(42, "user@example.com", "admin", testSecret, 15*time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)

	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.True(t, claims.IssuedAt.Before(claims.ExpiresAt.Time))
}
