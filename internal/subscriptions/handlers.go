package subscriptions

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/response"
)

type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

const subscriptionTerm = 30 * 24 * time.Hour

func validPlan(p string) bool {
	return p == "basic" || p == "pro" || p == "elite"
}

// Subscribe starts a plan for the calling provider. Any previous active
// subscription is cancelled in the same transaction.
// POST /api/subscriptions
func Subscribe(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "unauthorized"))
	}

	var req struct {
		Plan string `json:"plan"`
	}
	if err := c.Bind(&req); err != nil || req.Plan == "" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "plan is required"))
	}
	if !validPlan(req.Plan) {
		return response.Error(c, apperr.New(apperr.CodeValidation, "plan must be basic, pro or elite"))
	}

	ctx := context.Background()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to subscribe", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`UPDATE subscriptions SET status = 'cancelled' WHERE user_id = $1 AND status = 'active'`, userID); err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to subscribe", err))
	}

	sub := Subscription{
		ID:        uuid.New().String(),
		UserID:    userID,
		Plan:      req.Plan,
		Status:    "active",
		StartedAt: time.Now().UTC(),
	}
	sub.ExpiresAt = sub.StartedAt.Add(subscriptionTerm)

	if _, err := tx.Exec(ctx,
		`INSERT INTO subscriptions (id, user_id, plan, status, started_at, expires_at)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.UserID, sub.Plan, sub.Status, sub.StartedAt, sub.ExpiresAt); err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to subscribe", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to subscribe", err))
	}
	return response.JSON(c, http.StatusCreated, sub)
}

// MySubscription returns the caller's current subscription. Expired rows are
// reported as expired without being rewritten; the status column catches up on
// the next subscribe.
// GET /api/subscriptions/me
func MySubscription(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "unauthorized"))
	}

	var sub Subscription
	err := db.Conn.QueryRow(context.Background(),
		`SELECT id::text, user_id::text, plan, status, started_at, expires_at
         FROM subscriptions WHERE user_id = $1 AND status = 'active'
         ORDER BY started_at DESC LIMIT 1`, userID).
		Scan(&sub.ID, &sub.UserID, &sub.Plan, &sub.Status, &sub.StartedAt, &sub.ExpiresAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return response.Error(c, apperr.New(apperr.CodeNotFound, "no active subscription"))
		}
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to load subscription", err))
	}
	if sub.ExpiresAt.Before(time.Now().UTC()) {
		sub.Status = "expired"
	}
	return response.JSON(c, http.StatusOK, sub)
}

// ListAll returns every subscription, newest first. Admin only.
// GET /api/admin/subscriptions
func ListAll(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id::text, user_id::text, plan, status, started_at, expires_at
         FROM subscriptions ORDER BY started_at DESC LIMIT 200`)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "could not fetch subscriptions", err))
	}
	defer rows.Close()

	items := []Subscription{}
	for rows.Next() {
		var sub Subscription
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Plan, &sub.Status, &sub.StartedAt, &sub.ExpiresAt); err != nil {
			return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to read subscription record", err))
		}
		items = append(items, sub)
	}
	return response.JSON(c, http.StatusOK, echo.Map{"subscriptions": items})
}
