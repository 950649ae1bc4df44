package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/response"
)

// GET /api/admin/stats
func Stats(c echo.Context) error {
	ctx := context.Background()

	var users, providers, activeJobs, closedJobs, pendingOffers, ongoingBookings, openDisputes int

	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM providers`).Scan(&providers)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE status = 'active'`).Scan(&activeJobs)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE status = 'closed'`).Scan(&closedJobs)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM offers WHERE status = 'pending'`).Scan(&pendingOffers)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE status = 'ongoing'`).Scan(&ongoingBookings)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM disputes WHERE status = 'open'`).Scan(&openDisputes)

	return response.JSON(c, http.StatusOK, echo.Map{
		"users":            users,
		"providers":        providers,
		"active_jobs":      activeJobs,
		"closed_jobs":      closedJobs,
		"pending_offers":   pendingOffers,
		"ongoing_bookings": ongoingBookings,
		"open_disputes":    openDisputes,
	})
}
