package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/internal/app/service"
	"github.com/ikkim/store-rating-backend/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// Register handles account sign-up
// POST /api/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := ctrl.authService.Register(service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
		Role:     req.Role,
	})
	if err != nil {
		respondServiceError(c, err, "register user")
		return
	}

	respondAuth(c, http.StatusCreated, user, token)
}

// Login exchanges credentials for a bearer token
// POST /api/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err, "login")
		return
	}

	respondAuth(c, http.StatusOK, user, token)
}

// Me returns the caller's profile
// GET /api/auth/me
func (ctrl *AuthController) Me(c *gin.Context) {
	user, err := ctrl.authService.Me(middleware.GetActor(c))
	if err != nil {
		respondServiceError(c, err, "fetch profile")
		return
	}
	respondData(c, http.StatusOK, user)
}

// ChangePassword updates the caller's password
// PUT /api/auth/password
func (ctrl *AuthController) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := ctrl.authService.ChangePassword(middleware.GetActor(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, err, "change password")
		return
	}

	respondMessage(c, "Password updated successfully")
}

// Logout revokes the presented token
// POST /api/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	actor := middleware.GetActor(c)
	token, expiresAt, _ := middleware.GetToken(c)

	if err := ctrl.authService.Logout(c.Request.Context(), actor, token, expiresAt); err != nil {
		respondServiceError(c, err, "logout")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Logged out", map[string]interface{}{
		"user_id": actor.ID,
	})
	respondMessage(c, "Logged out successfully")
}

func respondAuth(c *gin.Context, status int, user *model.User, token *service.AuthToken) {
	c.JSON(status, gin.H{
		"success":   true,
		"token":     token.Token,
		"expiresAt": token.ExpiresAt,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}
