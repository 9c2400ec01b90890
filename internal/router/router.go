package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                             // Echo web framework
	"github.com/prometheus/client_golang/prometheus/promhttp" // Prometheus metrics endpoint
	"github.com/redis/go-redis/v9"                            // Redis client for rate limiting and caching

	"github.com/iliyamo/library-space-reservation/internal/config"
	"github.com/iliyamo/library-space-reservation/internal/handler"
	"github.com/iliyamo/library-space-reservation/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Space       *handler.SpaceHandler
	Reservation *handler.ReservationHandler
	CheckIn     *handler.CheckInHandler
	Admin       *handler.AdminHandler
	Feedback    *handler.FeedbackHandler
}

// Register wires every route of the API onto the Echo instance.
//
// Route map:
//   - public:    /healthz, /metrics, GET /v1/spaces[...], /v1/auth/*
//   - member:    /v1/me, /v1/reservations, /v1/my-reservations,
//     /v1/checkin, /v1/feedback (JWT, MEMBER or ADMIN)
//   - admin:     /v1/admin/* (JWT, ADMIN)
//
// When rdb is non-nil the Redis token bucket guards all /v1 routes and
// GET space browsing goes through the Redis response cache.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	var limiter echo.MiddlewareFunc
	var cache echo.MiddlewareFunc
	if rdb != nil {
		limiter = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
		cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	}

	// Public space browsing, cached when Redis is configured.
	browse := e.Group("/v1/spaces")
	if limiter != nil {
		browse.Use(limiter)
	}
	if cache != nil {
		browse.Use(cache)
	}
	browse.GET("", h.Space.List)
	browse.GET("/:id", h.Space.Get)

	// Session management does not require an existing session.
	authGroup := e.Group("/v1/auth")
	if limiter != nil {
		authGroup.Use(limiter)
	}
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)

	// Member endpoints.
	member := e.Group("/v1")
	if limiter != nil {
		member.Use(limiter)
	}
	member.Use(middleware.JWTAuth(cfg.JWTSecret))
	member.Use(middleware.RequireRole("ADMIN", "MEMBER"))
	member.GET("/me", h.Auth.Me)
	member.PUT("/me/device-token", h.Auth.UpdateDeviceToken)
	member.POST("/reservations", h.Reservation.Create)
	member.GET("/my-reservations", h.Reservation.Mine)
	member.GET("/reservations/:id", h.Reservation.Get)
	member.DELETE("/reservations/:id", h.Reservation.Cancel)
	member.POST("/checkin", h.CheckIn.CheckIn)
	member.POST("/feedback", h.Feedback.Submit)

	// Admin endpoints.
	admin := e.Group("/v1/admin")
	if limiter != nil {
		admin.Use(limiter)
	}
	admin.Use(middleware.JWTAuth(cfg.JWTSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.POST("/spaces", h.Space.Create)
	admin.PUT("/spaces/:id", h.Space.Update)
	admin.DELETE("/spaces/:id", h.Space.Delete)
	admin.GET("/reservations", h.Admin.ListReservations)
	admin.POST("/reservations/:id/approve", h.Admin.Approve)
	admin.POST("/reservations/:id/reject", h.Admin.Reject)
	admin.GET("/stats", h.Admin.StatsRange)

	// Feedback review lives under the program resource but is admin only.
	e.GET("/v1/programs/:id/feedback", h.Feedback.ListByProgram,
		middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole("ADMIN"))
}
