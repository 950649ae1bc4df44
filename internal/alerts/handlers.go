package alerts

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/response"
)

// ListNotifications returns current user's notifications, newest first
func ListNotifications(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "unauthorized"))
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT id::text, type, title, COALESCE(body, ''), reference::text, created_at, read_at
         FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to load notifications", err))
	}
	defer rows.Close()

	items := []echo.Map{}
	for rows.Next() {
		var id, ntype, title, body string
		var reference *string
		var createdAt time.Time
		var readAt *time.Time
		if err := rows.Scan(&id, &ntype, &title, &body, &reference, &createdAt, &readAt); err != nil {
			return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to parse notification", err))
		}
		item := echo.Map{
			"id":         id,
			"type":       ntype,
			"title":      title,
			"body":       body,
			"reference":  reference,
			"created_at": createdAt.UTC().Format(time.RFC3339),
		}
		if readAt != nil {
			item["read_at"] = readAt.UTC().Format(time.RFC3339)
		} else {
			item["read_at"] = nil
		}
		items = append(items, item)
	}
	return response.JSON(c, http.StatusOK, echo.Map{"notifications": items})
}

// MarkNotificationRead marks specific notification as read
func MarkNotificationRead(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "unauthorized"))
	}
	nid := c.Param("id")
	if nid == "" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "missing notification id"))
	}

	res, err := db.Conn.Exec(context.Background(),
		`UPDATE notifications SET read_at = NOW() WHERE id = $1 AND user_id = $2 AND read_at IS NULL`, nid, userID,
	)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to update", err))
	}
	if res.RowsAffected() == 0 {
		return response.Error(c, apperr.New(apperr.CodeNotFound, "not found or already read"))
	}
	return response.Message(c, http.StatusOK, "ok")
}

// CreateNotification inserts an in-app notification item
func CreateNotification(userID, ntype, title, body string, reference *string) error {
	_, err := db.Conn.Exec(context.Background(),
		`INSERT INTO notifications (id, user_id, type, title, body, reference)
         VALUES ($1, $2, $3, $4, $5, $6)`, uuid.New().String(), userID, ntype, title, body, reference,
	)
	return err
}
