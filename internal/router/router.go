package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/store-rating-backend/config"
	"github.com/ikkim/store-rating-backend/internal/app/controller"
	"github.com/ikkim/store-rating-backend/internal/authz"
	"github.com/ikkim/store-rating-backend/internal/middleware"
)

type Router struct {
	authController      *controller.AuthController
	userController      *controller.UserController
	storeController     *controller.StoreController
	ratingController    *controller.RatingController
	dashboardController *controller.DashboardController
	authMiddleware      *middleware.AuthMiddleware
	config              *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	userController *controller.UserController,
	storeController *controller.StoreController,
	ratingController *controller.RatingController,
	dashboardController *controller.DashboardController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:      authController,
		userController:      userController,
		storeController:     storeController,
		ratingController:    ratingController,
		dashboardController: dashboardController,
		authMiddleware:      authMiddleware,
		config:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", health)

	authenticated := r.authMiddleware.Authenticate()
	allow := r.authMiddleware.Authorize

	api := router.Group("/api")
	api.GET("/health", health)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.GET("/me", authenticated, r.authController.Me)
			auth.PUT("/password", authenticated, r.authController.ChangePassword)
			auth.POST("/logout", authenticated, r.authController.Logout)
		}

		users := api.Group("/users", authenticated)
		{
			users.GET("/stats", allow(authz.ActionViewUserStats), r.userController.Stats)
			users.GET("", allow(authz.ActionListUsers), r.userController.List)
			users.POST("", allow(authz.ActionCreateUser), r.userController.Create)
			users.GET("/:id", allow(authz.ActionViewUser), r.userController.Get)
			users.PUT("/:id", allow(authz.ActionUpdateUser), r.userController.Update)
			users.DELETE("/:id", allow(authz.ActionDeleteUser), r.userController.Delete)
		}

		// static segments are registered ahead of /:id
		stores := api.Group("/stores")
		{
			stores.GET("", r.storeController.List)
			stores.GET("/stats", authenticated, allow(authz.ActionViewStoreStats), r.storeController.Stats)
			stores.GET("/owned", authenticated, allow(authz.ActionViewOwnedStores), r.storeController.Owned)
			stores.POST("", authenticated, allow(authz.ActionCreateStore), r.storeController.Create)

			stores.GET("/:id", r.storeController.Get)
			stores.PUT("/:id", authenticated, r.storeController.Update)
			stores.DELETE("/:id", authenticated, r.storeController.Delete)
			stores.GET("/:id/stats", authenticated, r.storeController.StatsByID)
			stores.POST("/:id/image", authenticated, r.storeController.PresignImage)

			stores.GET("/:id/ratings", r.ratingController.ListForStore)
			stores.POST("/:id/ratings", authenticated, allow(authz.ActionCreateRating), r.ratingController.Create)
			stores.GET("/:id/ratings/live", r.ratingController.Live)
		}

		ratings := api.Group("/ratings", authenticated)
		{
			ratings.GET("", allow(authz.ActionListRatings), r.ratingController.ListAll)
			ratings.GET("/stats", allow(authz.ActionViewRatingStats), r.ratingController.Stats)
			ratings.GET("/user", r.ratingController.Mine)
			ratings.PUT("/:id", r.ratingController.Update)
			ratings.DELETE("/:id", r.ratingController.Delete)
		}

		dashboard := api.Group("/dashboard", authenticated)
		{
			dashboard.GET("/stats", allow(authz.ActionViewDashboard), r.dashboardController.Stats)
			dashboard.GET("/export", allow(authz.ActionExportDashboard), r.dashboardController.Export)
		}
	}

	return router
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  "healthy",
		"message": "Store Rating API is running",
	})
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed && origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
