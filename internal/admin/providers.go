package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/alerts"
	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/response"
)

// POST /api/admin/providers/:id/verify
// :id is the provider's user id.
func VerifyProvider(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "provider id required"))
	}

	res, err := db.Conn.Exec(context.Background(),
		`UPDATE providers SET verified = TRUE WHERE user_id = $1`, userID)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to verify provider", err))
	}
	if res.RowsAffected() == 0 {
		return response.Error(c, apperr.New(apperr.CodeNotFound, "provider not found"))
	}

	_ = alerts.CreateNotification(userID, "provider_verified", "Profile verified",
		"Your provider profile has been verified. Verified profiles rank higher in search.", nil)

	return response.JSON(c, http.StatusOK, echo.Map{"message": "provider verified", "user_id": userID})
}
