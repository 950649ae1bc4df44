package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/response"
)

// Me returns the currently authenticated user's profile.
// GET /api/auth/me
func Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "unauthorized"))
	}

	var (
		id, name, email, role string
		location, phone       *string
		createdAt             time.Time
	)
	err := db.Conn.QueryRow(context.Background(),
		`SELECT id, name, email, role, location, phone, created_at FROM users WHERE id = $1`, userID).
		Scan(&id, &name, &email, &role, &location, &phone, &createdAt)
	if err != nil {
		return response.Error(c, apperr.New(apperr.CodeNotFound, "user not found"))
	}

	return response.JSON(c, http.StatusOK, echo.Map{
		"id":         id,
		"name":       name,
		"email":      email,
		"role":       role,
		"location":   location,
		"phone":      phone,
		"created_at": createdAt.UTC().Format(time.RFC3339),
	})
}
