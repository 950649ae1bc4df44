package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/handyswift/backend/internal/activity"
	"github.com/handyswift/backend/internal/admin"
	"github.com/handyswift/backend/internal/alerts"
	"github.com/handyswift/backend/internal/auth"
	"github.com/handyswift/backend/internal/bookings"
	"github.com/handyswift/backend/internal/config"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/events"
	"github.com/handyswift/backend/internal/jobs"
	"github.com/handyswift/backend/internal/lifecycle"
	mware "github.com/handyswift/backend/internal/middleware"
	"github.com/handyswift/backend/internal/providers"
	"github.com/handyswift/backend/internal/subscriptions"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db.Init(cfg.DatabaseURL)
	defer db.Close()

	alerts.Init()
	defer alerts.Close()

	if err := events.Init(cfg.AMQPURL); err != nil {
		log.Printf("events disabled: %v", err)
	}
	defer events.Close()

	svc := lifecycle.NewService(lifecycle.NewPgxStore(db.Conn))
	jobsH := jobs.NewHandler(svc)
	bookingsH := bookings.NewHandler(svc)

	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{Timeout: cfg.RequestTimeout}))

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "handyswift"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Auth routes with per-IP rate limiting to protect signup/login from abuse.
	// Redis-backed when REDIS_ADDR is set, in-process otherwise.
	authGroup := e.Group("/api/auth")
	if limiter := mware.NewRedisLimiter(cfg.RedisAddr); limiter != nil {
		authGroup.Use(mware.RateLimitByIP(limiter, cfg.AuthRateLimit))
	} else {
		authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(authRate(cfg.AuthRateLimit))))
	}
	authGroup.POST("/register", auth.Register)
	authGroup.POST("/login", auth.Login)

	// Public provider directory
	e.GET("/api/providers", providers.List)
	e.GET("/api/providers/:id", providers.GetPublicProfile)

	// Protected routes
	api := e.Group("/api")
	api.Use(mware.JWTMiddleware)

	api.GET("/auth/me", auth.Me)
	api.PUT("/auth/profile", auth.UpdateProfile)
	api.POST("/auth/change-password", auth.ChangePassword)
	api.GET("/auth/stats", auth.Stats)

	api.GET("/providers/me", providers.MyProfile, mware.RequireRoles("provider"))
	api.PUT("/providers/me", providers.UpsertMyProfile, mware.RequireRoles("provider"))

	api.POST("/jobs", jobsH.Post)
	api.GET("/jobs", jobsH.List)
	api.GET("/jobs/available/for-provider", jobsH.AvailableForProvider, mware.RequireRoles("provider"))
	api.GET("/jobs/:jobId", jobsH.Get)
	api.POST("/jobs/:jobId/offers", jobsH.SubmitOffer, mware.RequireRoles("provider"))
	api.GET("/jobs/:jobId/offers", jobsH.ListOffers)
	api.PUT("/jobs/:jobId/offers/:offerId/accept", jobsH.AcceptOffer)
	api.PUT("/jobs/:jobId/offers/:offerId/reject", jobsH.RejectOffer)
	api.PUT("/jobs/:jobId/close", jobsH.Close)

	api.GET("/bookings", bookingsH.List)
	api.GET("/bookings/:bookingId", bookingsH.Get)
	api.PUT("/bookings/:bookingId/cancel", bookingsH.Cancel)
	api.POST("/bookings/:bookingId/dispute", bookingsH.OpenDispute)

	api.GET("/activity", activity.List)

	api.GET("/notifications", alerts.ListNotifications)
	api.POST("/notifications/:id/read", alerts.MarkNotificationRead)

	api.POST("/subscriptions", subscriptions.Subscribe, mware.RequireRoles("provider"))
	api.GET("/subscriptions/me", subscriptions.MySubscription, mware.RequireRoles("provider"))

	// Admin routes
	adminGroup := e.Group("/api/admin")
	adminGroup.Use(mware.JWTMiddleware)
	adminGroup.Use(mware.AdminGuard)

	adminGroup.GET("/stats", admin.Stats)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.POST("/users/:id/suspend", admin.SuspendUser)
	adminGroup.POST("/users/:id/activate", admin.ActivateUser)
	adminGroup.POST("/providers/:id/verify", admin.VerifyProvider)
	adminGroup.GET("/jobs", admin.ListJobs)
	adminGroup.GET("/bookings", admin.ListBookings)
	adminGroup.GET("/disputes", admin.ListDisputes)
	adminGroup.POST("/disputes/:id/resolve", admin.ResolveDispute)
	adminGroup.GET("/subscriptions", subscriptions.ListAll)

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func authRate(n int) rate.Limit {
	if n <= 0 {
		return 20
	}
	return rate.Limit(n)
}
