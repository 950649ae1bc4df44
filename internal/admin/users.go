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

type AdminUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// GET /api/admin/users
func ListUsers(c echo.Context) error {
	ctx := context.Background()

	query := `SELECT id, name, email, role, COALESCE(is_active, TRUE) AS is_active, created_at FROM users`
	args := []interface{}{}
	if role := c.QueryParam("role"); role != "" {
		args = append(args, role)
		query += ` WHERE role = $1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "could not fetch users", err))
	}
	defer rows.Close()

	users := []AdminUser{}
	for rows.Next() {
		var u AdminUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
			return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to read user record", err))
		}
		users = append(users, u)
	}
	return response.JSON(c, http.StatusOK, echo.Map{"users": users})
}

// POST /api/admin/users/:id/suspend
func SuspendUser(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "user id required"))
	}
	res, err := db.Conn.Exec(context.Background(), `UPDATE users SET is_active = FALSE WHERE id = $1`, userID)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to suspend user", err))
	}
	if res.RowsAffected() == 0 {
		return response.Error(c, apperr.New(apperr.CodeNotFound, "user not found"))
	}
	return response.JSON(c, http.StatusOK, echo.Map{"message": "user suspended", "user_id": userID})
}

// POST /api/admin/users/:id/activate
func ActivateUser(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "user id required"))
	}
	res, err := db.Conn.Exec(context.Background(), `UPDATE users SET is_active = TRUE WHERE id = $1`, userID)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to activate user", err))
	}
	if res.RowsAffected() == 0 {
		return response.Error(c, apperr.New(apperr.CodeNotFound, "user not found"))
	}
	return response.JSON(c, http.StatusOK, echo.Map{"message": "user activated", "user_id": userID})
}
