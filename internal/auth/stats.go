package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/response"
)

// Stats returns the caller's dashboard counters.
// GET /api/auth/stats
func Stats(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "unauthorized"))
	}

	ctx := context.Background()
	var activeJobs, closedJobs, offersSent, ongoingBookings, completedBookings int

	err := db.Conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM jobs WHERE owner_user_id = $1 AND status = 'active'),
            (SELECT COUNT(*) FROM jobs WHERE owner_user_id = $1 AND status = 'closed'),
            (SELECT COUNT(*) FROM offers WHERE provider_id = $1),
            (SELECT COUNT(*) FROM bookings WHERE (user_id = $1 OR provider_id = $1) AND status = 'ongoing'),
            (SELECT COUNT(*) FROM bookings WHERE (user_id = $1 OR provider_id = $1) AND status = 'completed')
    `, userID).Scan(&activeJobs, &closedJobs, &offersSent, &ongoingBookings, &completedBookings)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to load stats", err))
	}

	return response.JSON(c, http.StatusOK, echo.Map{
		"active_jobs":        activeJobs,
		"closed_jobs":        closedJobs,
		"offers_sent":        offersSent,
		"ongoing_bookings":   ongoingBookings,
		"completed_bookings": completedBookings,
	})
}
