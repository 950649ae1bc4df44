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

// GET /api/admin/jobs
func ListJobs(c echo.Context) error {
	query := `
        SELECT j.id::text, j.owner_user_id::text, u.name, j.title, j.category, j.location,
               j.budget, j.budget_type, j.status,
               (SELECT COUNT(*) FROM offers o WHERE o.job_id = j.id) AS offer_count,
               j.created_at
        FROM jobs j JOIN users u ON u.id = j.owner_user_id`
	args := []interface{}{}
	if status := c.QueryParam("status"); status != "" {
		args = append(args, status)
		query += ` WHERE j.status = $1`
	}
	query += ` ORDER BY j.created_at DESC LIMIT 200`

	rows, err := db.Conn.Query(context.Background(), query, args...)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "could not fetch jobs", err))
	}
	defer rows.Close()

	items := []echo.Map{}
	for rows.Next() {
		var id, ownerID, ownerName, title, category, location, budgetType, status string
		var budget int64
		var offerCount int
		var createdAt time.Time
		if err := rows.Scan(&id, &ownerID, &ownerName, &title, &category, &location,
			&budget, &budgetType, &status, &offerCount, &createdAt); err != nil {
			return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to read job record", err))
		}
		items = append(items, echo.Map{
			"id":          id,
			"owner_id":    ownerID,
			"owner_name":  ownerName,
			"title":       title,
			"category":    category,
			"location":    location,
			"budget":      budget,
			"budget_type": budgetType,
			"status":      status,
			"offer_count": offerCount,
			"created_at":  createdAt.UTC().Format(time.RFC3339),
		})
	}
	return response.JSON(c, http.StatusOK, echo.Map{"jobs": items})
}
