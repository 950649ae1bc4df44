package activity

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/response"
)

// List returns the caller's activity feed, newest first.
// GET /api/activity?type=offer_accepted
func List(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "unauthorized"))
	}

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}

	query := `
        SELECT id::text, type, title, COALESCE(description, ''), related_entity_id::text, created_at
        FROM activity_logs WHERE user_id = $1`
	args := []interface{}{userID}
	if t := c.QueryParam("type"); t != "" {
		args = append(args, t)
		query += ` AND type = $2`
	}
	args = append(args, limit, offset)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := db.Conn.Query(context.Background(), query, args...)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to load activity", err))
	}
	defer rows.Close()

	items := []echo.Map{}
	for rows.Next() {
		var id, typ, title, description string
		var relatedID *string
		var createdAt time.Time
		if err := rows.Scan(&id, &typ, &title, &description, &relatedID, &createdAt); err != nil {
			return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to parse activity", err))
		}
		items = append(items, echo.Map{
			"id":                id,
			"type":              typ,
			"title":             title,
			"description":       description,
			"related_entity_id": relatedID,
			"created_at":        createdAt.UTC().Format(time.RFC3339),
		})
	}
	return response.JSON(c, http.StatusOK, echo.Map{"activity": items})
}
