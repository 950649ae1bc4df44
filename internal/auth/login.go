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

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a signed token.
// POST /api/auth/login
func Login(c echo.Context) error {
	req := new(LoginRequest)
	if err := c.Bind(req); err != nil || req.Email == "" || req.Password == "" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "email and password are required"))
	}

	ctx := context.Background()
	var (
		userID   string
		name     string
		password string
		role     string
		isActive bool
	)
	err := db.Conn.QueryRow(ctx, `
        SELECT id, name, password, role, COALESCE(is_active, TRUE) FROM users WHERE email = $1
    `, req.Email).Scan(&userID, &name, &password, &role, &isActive)
	if err != nil {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "invalid credentials"))
	}
	if !isActive {
		return response.Error(c, apperr.New(apperr.CodeForbidden, "account suspended"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(password), []byte(req.Password)); err != nil {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "invalid credentials"))
	}

	signed, err := issueToken(userID, req.Email, role)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodeInternal, "token generation failed", err))
	}

	return response.JSON(c, http.StatusOK, echo.Map{
		"token": signed,
		"user": echo.Map{
			"id":    userID,
			"name":  name,
			"email": req.Email,
			"role":  role,
		},
	})
}
