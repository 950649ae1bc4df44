package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/handyswift/backend/internal/alerts"
	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/response"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Location string `json:"location"`
	Phone    string `json:"phone"`
}

// Register creates a user account and returns a signed token.
// POST /api/auth/register
func Register(c echo.Context) error {
	req := new(RegisterRequest)
	if err := c.Bind(req); err != nil {
		return response.Error(c, apperr.New(apperr.CodeValidation, "invalid request body"))
	}
	if req.Name == "" || req.Email == "" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "name and email are required"))
	}
	if len(req.Password) < 6 {
		return response.Error(c, apperr.New(apperr.CodeValidation, "password must be at least 6 characters"))
	}
	role := req.Role
	if role == "" {
		role = "user"
	}
	if role != "user" && role != "provider" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "role must be user or provider"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodeInternal, "failed to hash password", err))
	}

	ctx := context.Background()
	userID := uuid.New().String()
	_, err = db.Conn.Exec(ctx, `
        INSERT INTO users (id, name, email, password, role, location, phone, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		userID, req.Name, req.Email, string(hashed), role, req.Location, req.Phone, time.Now())
	if err != nil {
		return response.Error(c, apperr.New(apperr.CodeValidation, "email already registered"))
	}

	signed, err := issueToken(userID, req.Email, role)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodeInternal, "token generation failed", err))
	}

	_ = alerts.EnqueueWelcomeEmail(userID, req.Email, req.Name)

	return response.JSON(c, http.StatusCreated, echo.Map{
		"token": signed,
		"user": echo.Map{
			"id":    userID,
			"name":  req.Name,
			"email": req.Email,
			"role":  role,
		},
	})
}
