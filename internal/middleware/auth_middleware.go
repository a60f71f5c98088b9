package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/internal/authz"
	"github.com/ikkim/store-rating-backend/internal/errors"
	"github.com/ikkim/store-rating-backend/pkg/util"
	"gorm.io/gorm"
)

// Context keys set by Authenticate
const (
	ActorKey          = "actor"
	TokenKey          = "token"
	TokenExpiresAtKey = "token_expires_at"
)

// UserLookup resolves the account behind a token.
type UserLookup interface {
	FindByID(id uint) (*model.User, error)
}

// RevocationChecker reports tokens revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type AuthMiddleware struct {
	jwtSecret string
	users     UserLookup
	revoked   RevocationChecker
}

// NewAuthMiddleware builds the middleware. revoked may be nil when token
// revocation is disabled.
func NewAuthMiddleware(jwtSecret string, users UserLookup, revoked RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		users:     users,
		revoked:   revoked,
	}
}

// Authenticate requires a valid bearer token and resolves the caller's
// current role from storage.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.Unauthorized(c, "")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Not authorized to access this route")
			return
		}
		token := parts[1]

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			if stderrors.Is(err, util.ErrExpiredToken) {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "Token has expired")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Not authorized to access this route")
			}
			return
		}

		if m.revoked != nil {
			revoked, err := m.revoked.IsRevoked(c.Request.Context(), token)
			if err != nil {
				log.Error("Token revocation check failed", err)
				errors.InternalError(c, "")
				return
			}
			if revoked {
				log.Warn("Revoked token presented", map[string]interface{}{
					"user_id": claims.UserID,
				})
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenRevoked, "Token has been revoked")
				return
			}
		}

		// the stored role wins over the one in the token
		user, err := m.users.FindByID(claims.UserID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				log.Warn("Token for deleted user", map[string]interface{}{
					"user_id": claims.UserID,
				})
				errors.Unauthorized(c, "")
				return
			}
			log.Error("Failed to load authenticated user", err, map[string]interface{}{
				"user_id": claims.UserID,
			})
			errors.InternalError(c, "")
			return
		}

		actor := authz.Actor{ID: user.ID, Role: user.Role}
		c.Set(ActorKey, actor)
		c.Set(TokenKey, token)
		if claims.ExpiresAt != nil {
			c.Set(TokenExpiresAtKey, claims.ExpiresAt.Time)
		}

		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": user.ID,
			"role":    user.Role,
		})

		c.Next()
	}
}

// Authorize rejects the request unless the engine allows action for the
// caller with no resource context. Use it for role-only gates, which run
// before any resource lookup.
func (m *AuthMiddleware) Authorize(action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)

		if err := authz.Decide(actor, action, authz.Resource{}).Err(); err != nil {
			GetLoggerFromContext(c).Warn("Insufficient permissions", map[string]interface{}{
				"user_id": actor.ID,
				"role":    actor.Role,
				"action":  action,
				"path":    c.Request.URL.Path,
			})
			RespondDenied(c, err)
			return
		}

		c.Next()
	}
}

// RespondDenied writes the failure envelope for an engine denial.
func RespondDenied(c *gin.Context, err error) {
	msg := authz.Message(err)
	switch {
	case stderrors.Is(err, authz.ErrNotAuthenticated):
		errors.Unauthorized(c, msg)
	case stderrors.Is(err, authz.ErrConflict):
		errors.Conflict(c, errors.ResourceConflict, msg)
	default:
		errors.Forbidden(c, msg)
	}
}

// GetActor returns the authenticated caller, or authz.Anonymous.
func GetActor(c *gin.Context) authz.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(authz.Actor); ok {
			return actor
		}
	}
	return authz.Anonymous
}

// GetToken returns the presented bearer token and its expiry.
func GetToken(c *gin.Context) (string, time.Time, bool) {
	token := c.GetString(TokenKey)
	if token == "" {
		return "", time.Time{}, false
	}
	return token, c.GetTime(TokenExpiresAtKey), true
}
