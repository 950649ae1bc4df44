package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/response"
)

// RequireRoles ensures the requester's role is one of the allowed roles.
// Usage: route(..., RequireRoles("provider"))
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if role == "" {
				return response.Error(c, apperr.New(apperr.CodeForbidden, "role missing"))
			}

			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return response.Error(c, apperr.New(apperr.CodeForbidden, "access denied"))
		}
	}
}
