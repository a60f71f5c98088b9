package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/store-rating-backend/internal/app/service"
	"github.com/ikkim/store-rating-backend/internal/middleware"
)

// UserController is the admin user-management API.
type UserController struct {
	userService  service.UserService
	statsService service.StatsService
}

func NewUserController(userService service.UserService, statsService service.StatsService) *UserController {
	return &UserController{
		userService:  userService,
		statsService: statsService,
	}
}

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Address  string `json:"address"`
	Role     string `json:"role"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6"`
	Address  *string `json:"address"`
	Role     *string `json:"role"`
}

// List returns every user
// GET /api/users
func (ctrl *UserController) List(c *gin.Context) {
	users, err := ctrl.userService.List(middleware.GetActor(c))
	if err != nil {
		respondServiceError(c, err, "list users")
		return
	}
	respondList(c, users)
}

// Get returns one user
// GET /api/users/:id
func (ctrl *UserController) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user, err := ctrl.userService.Get(middleware.GetActor(c), id)
	if err != nil {
		respondServiceError(c, err, "fetch user")
		return
	}
	respondData(c, http.StatusOK, user)
}

// Create adds a user with any role
// POST /api/users
func (ctrl *UserController) Create(c *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.userService.Create(middleware.GetActor(c), service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
		Role:     req.Role,
	})
	if err != nil {
		respondServiceError(c, err, "create user")
		return
	}
	respondData(c, http.StatusCreated, user)
}

// Update changes the supplied fields of a user
// PUT /api/users/:id
func (ctrl *UserController) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.userService.Update(middleware.GetActor(c), id, service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Address:  req.Address,
		Role:     req.Role,
	})
	if err != nil {
		respondServiceError(c, err, "update user")
		return
	}
	respondData(c, http.StatusOK, user)
}

// Delete removes a user who owns no stores
// DELETE /api/users/:id
func (ctrl *UserController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.userService.Delete(middleware.GetActor(c), id); err != nil {
		respondServiceError(c, err, "delete user")
		return
	}
	respondDeleted(c)
}

// Stats returns user counts by role
// GET /api/users/stats
func (ctrl *UserController) Stats(c *gin.Context) {
	stats, err := ctrl.statsService.Users(middleware.GetActor(c))
	if err != nil {
		respondServiceError(c, err, "user stats")
		return
	}
	respondData(c, http.StatusOK, stats)
}
