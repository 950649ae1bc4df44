package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/response"
)

type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Phone    *string `json:"phone"`
}

// UpdateProfile patches the caller's own profile fields. Only fields present
// in the body change.
// PUT /api/auth/profile
func UpdateProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "unauthorized"))
	}

	req := new(UpdateProfileRequest)
	if err := c.Bind(req); err != nil {
		return response.Error(c, apperr.New(apperr.CodeValidation, "invalid request body"))
	}
	if req.Name == nil && req.Location == nil && req.Phone == nil {
		return response.Error(c, apperr.New(apperr.CodeValidation, "nothing to update"))
	}
	if req.Name != nil && *req.Name == "" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "name cannot be empty"))
	}

	_, err := db.Conn.Exec(context.Background(), `
        UPDATE users SET
            name = COALESCE($2, name),
            location = COALESCE($3, location),
            phone = COALESCE($4, phone)
        WHERE id = $1`,
		userID, req.Name, req.Location, req.Phone)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to update profile", err))
	}

	return response.Message(c, http.StatusOK, "profile updated")
}
