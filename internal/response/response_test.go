package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/apperr"
)

func record(t *testing.T, fn func(c echo.Context) error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := fn(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope JSON: %v", err)
	}
	return rec, env
}

func TestJSONEnvelope(t *testing.T) {
	rec, env := record(t, func(c echo.Context) error {
		return JSON(c, http.StatusCreated, echo.Map{"id": "j-1"})
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if !env.Success || env.StatusCode != http.StatusCreated || env.Error != "" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Timestamp == "" {
		t.Fatal("timestamp missing")
	}
}

func TestErrorEnvelopeMapsCodes(t *testing.T) {
	rec, env := record(t, func(c echo.Context) error {
		return Error(c, apperr.New(apperr.CodeInvalidState, "job is already closed"))
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if env.Success || env.Error != "invalid_state" || env.Message != "job is already closed" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestErrorEnvelopeHidesUnknownErrors(t *testing.T) {
	rec, env := record(t, func(c echo.Context) error {
		return Error(c, errors.New("pgx: connection reset"))
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.Message != "internal server error" {
		t.Fatalf("raw error leaked: %q", env.Message)
	}
}
