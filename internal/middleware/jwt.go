package middleware

import (
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/response"
)

// JWTMiddleware validates the Bearer token and stores the principal
// (user_id, email, role) on the request context.
func JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, apperr.New(apperr.CodeUnauthorized, "missing authorization header"))
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return response.Error(c, apperr.New(apperr.CodeUnauthorized, "invalid authorization header"))
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, apperr.New(apperr.CodeUnauthorized, "unexpected signing method")
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			return response.Error(c, apperr.New(apperr.CodeUnauthorized, "invalid or expired token"))
		}

		userID, ok := claims["id"].(string)
		if !ok || userID == "" {
			return response.Error(c, apperr.New(apperr.CodeUnauthorized, "invalid token claims"))
		}
		email, _ := claims["email"].(string)
		role, _ := claims["role"].(string)

		c.Set("user_id", userID)
		c.Set("email", email)
		c.Set("role", role)
		return next(c)
	}
}
