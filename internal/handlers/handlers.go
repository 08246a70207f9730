package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"buhoeats/api/internal/config"
	"buhoeats/api/internal/middleware"
	"buhoeats/api/internal/models"
	"buhoeats/api/internal/ratelimit"
	"buhoeats/api/internal/security"
	"buhoeats/api/internal/service"
	"buhoeats/api/internal/store"
)

// PingFunc checks one backing dependency for the health endpoint.
type PingFunc func(ctx context.Context) error

type Dependencies struct {
	Store    store.Store
	Attempts store.AttemptStore
	Database PingFunc
	Cache    PingFunc
}

type HandlerSet struct {
	log   zerolog.Logger
	cfg   *config.AppConfig
	store store.Store

	database PingFunc
	cache    PingFunc

	authService       *service.AuthService
	restaurantService *service.RestaurantService
	reviewService     *service.ReviewService
	favoriteService   *service.FavoriteService
	ownerService      *service.OwnerService
	moderationService *service.ModerationService
	adminService      *service.AdminService
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Dependencies) HandlerSet {
	limiter := ratelimit.NewLimiter(deps.Attempts, cfg.RateLimit, log, nil)
	hasher := security.NewPasswordHasher(cfg.Security.Argon2)
	ratings := service.NewRatingAggregator(deps.Store, log)
	restaurants := service.NewRestaurantService(deps.Store, log)

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		store:    deps.Store,
		database: deps.Database,
		cache:    deps.Cache,

		authService:       service.NewAuthService(deps.Store, limiter, hasher, cfg.Security, log),
		restaurantService: restaurants,
		reviewService:     service.NewReviewService(deps.Store, ratings, log),
		favoriteService:   service.NewFavoriteService(deps.Store),
		ownerService:      service.NewOwnerService(deps.Store, restaurants, log),
		moderationService: service.NewModerationService(deps.Store, ratings, cfg.Moderation, log),
		adminService:      service.NewAdminService(deps.Store),
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	authenticated := middleware.Auth(h.cfg.Security.JWTAccessSecret, h.store)

	auth := router.Group("/auth")
	{
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)

		protected := auth.Group("", authenticated)
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
		protected.GET("/sessions", h.ListSessions)
		protected.DELETE("/sessions/:sessionId", h.RevokeSession)
	}

	restaurants := router.Group("/restaurants")
	{
		restaurants.GET("", h.ListRestaurants)
		restaurants.GET("/:id", h.GetRestaurant)
		restaurants.GET("/:id/menu", h.RestaurantMenu)
		restaurants.GET("/:id/reviews", h.RestaurantReviews)
	}

	reviews := router.Group("/reviews", authenticated)
	{
		reviews.POST("", h.UpsertReview)
		reviews.PUT("/:id", h.UpdateReview)
		reviews.DELETE("/:id", h.DeleteReview)
	}

	favorites := router.Group("/favorites", authenticated)
	{
		favorites.GET("", h.ListFavorites)
		favorites.POST("/:restaurantId", h.AddFavorite)
		favorites.DELETE("/:restaurantId", h.RemoveFavorite)
		favorites.GET("/:restaurantId/check", h.CheckFavorite)
	}

	owner := router.Group("/owner",
		authenticated,
		middleware.RequireRoles(models.UserRoleOwner, models.UserRoleAdmin),
	)
	{
		owner.GET("/restaurant", h.OwnerRestaurant)
		owner.POST("/restaurant", h.CreateOwnerRestaurant)
		owner.PUT("/restaurant", h.UpdateOwnerRestaurant)
		owner.POST("/menu", h.CreateMenuItem)
		owner.PUT("/menu/:id", h.UpdateMenuItem)
		owner.DELETE("/menu/:id", h.DeleteMenuItem)
		owner.GET("/stats", h.OwnerStats)
		owner.POST("/reviews/:id/report", h.ReportReview)
	}

	admin := router.Group("/admin",
		authenticated,
		middleware.RequireRoles(models.UserRoleAdmin),
	)
	{
		admin.GET("/reports", h.AdminListReports)
		admin.POST("/reports/:id/approve", h.ApproveReport)
		admin.POST("/reports/:id/reject-review", h.RejectReview)
		admin.POST("/reports/:id/reject-with-strike", h.RejectWithStrike)
		admin.GET("/users", h.AdminListUsers)
		admin.POST("/users/:id/ban", h.BanUser)
		admin.POST("/users/:id/unban", h.UnbanUser)
		admin.GET("/stats", h.AdminStats)
		admin.GET("/restaurants", h.AdminListRestaurants)
		admin.GET("/audit", h.AdminAudit)
	}
}
