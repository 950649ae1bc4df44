package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func invoke(authHeader string, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	_ = handler(c)
	return rec, c
}

func TestJWTMiddlewareSetsPrincipal(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	tok := signToken(t, jwt.MapClaims{
		"id":    "u-1",
		"email": "plumber@example.com",
		"role":  "provider",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	rec, c := invoke("Bearer "+tok, JWTMiddleware)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got, _ := c.Get("user_id").(string); got != "u-1" {
		t.Errorf("user_id = %q", got)
	}
	if got, _ := c.Get("role").(string); got != "provider" {
		t.Errorf("role = %q", got)
	}
}

func TestJWTMiddlewareRejects(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	expired := signToken(t, jwt.MapClaims{
		"id":  "u-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, testSecret)
	wrongKey := signToken(t, jwt.MapClaims{
		"id":  "u-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, "other-secret")
	noID := signToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
		{"expired", "Bearer " + expired},
		{"wrong key", "Bearer " + wrongKey},
		{"no id claim", "Bearer " + noID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := invoke(tc.header, JWTMiddleware)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	providerTok := signToken(t, jwt.MapClaims{
		"id":   "u-1",
		"role": "provider",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, testSecret)
	userTok := signToken(t, jwt.MapClaims{
		"id":   "u-2",
		"role": "user",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	rec, _ := invoke("Bearer "+providerTok, JWTMiddleware, RequireRoles("provider"))
	if rec.Code != http.StatusOK {
		t.Fatalf("provider blocked: %d", rec.Code)
	}
	rec, _ = invoke("Bearer "+userTok, JWTMiddleware, RequireRoles("provider"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user allowed through: %d", rec.Code)
	}
}

func TestAdminGuard(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	adminTok := signToken(t, jwt.MapClaims{
		"id":   "u-9",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, testSecret)
	userTok := signToken(t, jwt.MapClaims{
		"id":   "u-2",
		"role": "user",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	rec, _ := invoke("Bearer "+adminTok, JWTMiddleware, AdminGuard)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin blocked: %d", rec.Code)
	}
	rec, _ = invoke("Bearer "+userTok, JWTMiddleware, AdminGuard)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin allowed through: %d", rec.Code)
	}
}
