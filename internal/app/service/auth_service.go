package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/internal/app/repository"
	"github.com/ikkim/store-rating-backend/internal/authz"
	"github.com/ikkim/store-rating-backend/pkg/logger"
	"github.com/ikkim/store-rating-backend/pkg/util"
	"gorm.io/gorm"
)

// TokenRevoker blacklists bearer tokens on logout.
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthToken is a signed bearer credential.
type AuthToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Address  string
	Role     string // coerced, see authz.RegistrationRole
}

type AuthService interface {
	Register(input RegisterInput) (*model.User, *AuthToken, error)
	Login(email, password string) (*model.User, *AuthToken, error)
	Me(actor authz.Actor) (*model.User, error)
	ChangePassword(actor authz.Actor, currentPassword, newPassword string) error
	Logout(ctx context.Context, actor authz.Actor, token string, expiresAt time.Time) error
}

type authService struct {
	userRepo  repository.UserRepository
	revoker   TokenRevoker
	jwtSecret string
	expiry    time.Duration
}

// NewAuthService builds the auth service. revoker may be nil, in which case
// logout does not blacklist the token.
func NewAuthService(
	userRepo repository.UserRepository,
	revoker TokenRevoker,
	jwtSecret string,
	expiry time.Duration,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		revoker:   revoker,
		jwtSecret: jwtSecret,
		expiry:    expiry,
	}
}

func (s *authService) Register(input RegisterInput) (*model.User, *AuthToken, error) {
	role := authz.RegistrationRole(model.Role(input.Role))

	logger.Info("Attempting user registration", map[string]interface{}{
		"email":          input.Email,
		"requested_role": input.Role,
		"role":           role,
	})

	if err := authz.Decide(authz.Anonymous, authz.ActionRegister, authz.Resource{}).Err(); err != nil {
		return nil, nil, err
	}

	existing, err := s.userRepo.FindByEmail(input.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	if existing != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": input.Email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	hashed, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": input.Email,
		})
		return nil, nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        input.Email,
		PasswordHash: hashed,
		Address:      input.Address,
		Role:         role,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, nil, ErrEmailAlreadyExists
		}
		return nil, nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, token, nil
}

func (s *authService) Login(email, password string) (*model.User, *AuthToken, error) {
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, token, nil
}

func (s *authService) Me(actor authz.Actor) (*model.User, error) {
	if err := authz.Decide(actor, authz.ActionViewProfile, authz.Resource{}).Err(); err != nil {
		return nil, err
	}
	return s.loadUser(actor.ID)
}

func (s *authService) ChangePassword(actor authz.Actor, currentPassword, newPassword string) error {
	if err := authz.Decide(actor, authz.ActionChangePassword, authz.Resource{}).Err(); err != nil {
		return err
	}

	user, err := s.loadUser(actor.ID)
	if err != nil {
		return err
	}

	if !util.VerifyPassword(user.PasswordHash, currentPassword) {
		logger.Warn("Password change rejected: current password mismatch", map[string]interface{}{
			"user_id": user.ID,
		})
		return ErrIncorrectPassword
	}

	hashed, err := util.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed

	if err := s.userRepo.Update(user); err != nil {
		return err
	}

	logger.Info("Password updated", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}

func (s *authService) Logout(ctx context.Context, actor authz.Actor, token string, expiresAt time.Time) error {
	if err := authz.Decide(actor, authz.ActionLogout, authz.Resource{}).Err(); err != nil {
		return err
	}
	if s.revoker == nil {
		logger.Debug("Token revocation disabled, logout is client side only", map[string]interface{}{
			"user_id": actor.ID,
		})
		return nil
	}

	if err := s.revoker.Revoke(ctx, token, time.Until(expiresAt)); err != nil {
		return err
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": actor.ID,
	})
	return nil
}

func (s *authService) loadUser(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) issueToken(user *model.User) (*AuthToken, error) {
	signed, expiresAt, err := util.GenerateToken(user.ID, user.Email, string(user.Role), s.jwtSecret, s.expiry)
	if err != nil {
		logger.Error("Failed to generate token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return &AuthToken{Token: signed, ExpiresAt: expiresAt}, nil
}
