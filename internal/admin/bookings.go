package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/response"
)

// GET /api/admin/bookings
func ListBookings(c echo.Context) error {
	query := `
        SELECT b.id::text, b.user_id::text, b.provider_id::text, b.job_id::text,
               b.service_name, b.service_category, b.price, b.status, b.created_at, b.cancelled_at
        FROM bookings b`
	args := []interface{}{}
	if status := c.QueryParam("status"); status != "" {
		args = append(args, status)
		query += ` WHERE b.status = $1`
	}
	query += ` ORDER BY b.created_at DESC LIMIT 200`

	rows, err := db.Conn.Query(context.Background(), query, args...)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "could not fetch bookings", err))
	}
	defer rows.Close()

	items := []echo.Map{}
	for rows.Next() {
		var id, userID, providerID, jobID, name, category, status string
		var price int64
		var createdAt time.Time
		var cancelledAt *time.Time
		if err := rows.Scan(&id, &userID, &providerID, &jobID, &name, &category,
			&price, &status, &createdAt, &cancelledAt); err != nil {
			return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to read booking record", err))
		}
		item := echo.Map{
			"id":               id,
			"user_id":          userID,
			"provider_id":      providerID,
			"job_id":           jobID,
			"service_name":     name,
			"service_category": category,
			"price":            price,
			"status":           status,
			"created_at":       createdAt.UTC().Format(time.RFC3339),
		}
		if cancelledAt != nil {
			item["cancelled_at"] = cancelledAt.UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}
	return response.JSON(c, http.StatusOK, echo.Map{"bookings": items})
}
