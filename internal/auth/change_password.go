package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/response"
)

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword verifies the current password before replacing it.
// POST /api/auth/change-password
func ChangePassword(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "unauthorized"))
	}

	req := new(ChangePasswordRequest)
	if err := c.Bind(req); err != nil || req.CurrentPassword == "" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "current_password is required"))
	}
	if len(req.NewPassword) < 6 {
		return response.Error(c, apperr.New(apperr.CodeValidation, "new password must be at least 6 characters"))
	}

	ctx := context.Background()
	var current string
	if err := db.Conn.QueryRow(ctx, `SELECT password FROM users WHERE id = $1`, userID).Scan(&current); err != nil {
		return response.Error(c, apperr.New(apperr.CodeNotFound, "user not found"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(current), []byte(req.CurrentPassword)); err != nil {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "current password is incorrect"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodeInternal, "failed to hash password", err))
	}
	if _, err := db.Conn.Exec(ctx, `UPDATE users SET password = $2 WHERE id = $1`, userID, string(hashed)); err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to update password", err))
	}

	return response.Message(c, http.StatusOK, "password changed")
}
