package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/alerts"
	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/response"
)

type AdminDispute struct {
	ID         string  `json:"id"`
	BookingID  string  `json:"booking_id"`
	FilerID    string  `json:"filer_id"`
	Reason     string  `json:"reason"`
	Status     string  `json:"status"`
	Resolution string  `json:"resolution"`
	Notes      string  `json:"notes"`
	CreatedAt  string  `json:"created_at"`
	ResolvedAt *string `json:"resolved_at"`
}

// GET /api/admin/disputes
func ListDisputes(c echo.Context) error {
	query := `
        SELECT id::text, booking_id::text, filer_id::text, reason, status,
               COALESCE(resolution,'') AS resolution, COALESCE(notes,'') AS notes, created_at, resolved_at
        FROM disputes`
	args := []interface{}{}
	if status := c.QueryParam("status"); status != "" {
		args = append(args, status)
		query += ` WHERE status = $1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Conn.Query(context.Background(), query, args...)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "could not fetch disputes", err))
	}
	defer rows.Close()

	items := []AdminDispute{}
	for rows.Next() {
		var d AdminDispute
		var created time.Time
		var resolved *time.Time
		if err := rows.Scan(&d.ID, &d.BookingID, &d.FilerID, &d.Reason, &d.Status, &d.Resolution, &d.Notes, &created, &resolved); err != nil {
			return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to read dispute record", err))
		}
		d.CreatedAt = created.UTC().Format(time.RFC3339)
		if resolved != nil {
			s := resolved.UTC().Format(time.RFC3339)
			d.ResolvedAt = &s
		}
		items = append(items, d)
	}
	return response.JSON(c, http.StatusOK, echo.Map{"disputes": items})
}

// POST /api/admin/disputes/:id/resolve
// A cancel_booking resolution cancels the disputed booking in the same
// transaction; it only applies to ongoing bookings.
func ResolveDispute(c echo.Context) error {
	adminID, ok := c.Get("user_id").(string)
	if !ok || adminID == "" {
		return response.Error(c, apperr.New(apperr.CodeUnauthorized, "unauthorized"))
	}
	id := c.Param("id")
	if id == "" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "dispute id required"))
	}
	var req struct {
		Resolution string `json:"resolution"` // cancel_booking|uphold|none
		Notes      string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil || req.Resolution == "" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "resolution is required"))
	}
	if req.Resolution != "cancel_booking" && req.Resolution != "uphold" && req.Resolution != "none" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "resolution must be cancel_booking, uphold or none"))
	}

	ctx := context.Background()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to resolve dispute", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var bookingID string
	err = tx.QueryRow(ctx,
		`UPDATE disputes SET status = 'resolved', resolution = $1, notes = $2, resolved_by = $3, resolved_at = NOW()
         WHERE id = $4 AND status = 'open' RETURNING booking_id::text`,
		req.Resolution, req.Notes, adminID, id).Scan(&bookingID)
	if err != nil {
		return response.Error(c, apperr.New(apperr.CodeNotFound, "dispute not found or already resolved"))
	}

	if req.Resolution == "cancel_booking" {
		res, err := tx.Exec(ctx,
			`UPDATE bookings SET status = 'cancelled', cancelled_at = NOW() WHERE id = $1 AND status = 'ongoing'`,
			bookingID)
		if err != nil {
			return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to cancel booking", err))
		}
		if res.RowsAffected() == 0 {
			return response.Error(c, apperr.New(apperr.CodeInvalidState, "booking is not ongoing"))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to resolve dispute", err))
	}

	var userID, providerID string
	_ = db.Conn.QueryRow(ctx, `SELECT user_id::text, provider_id::text FROM bookings WHERE id = $1`, bookingID).
		Scan(&userID, &providerID)
	body := req.Resolution
	if req.Notes != "" {
		body += " - " + req.Notes
	}
	_ = alerts.CreateNotification(userID, "dispute_resolved", "Dispute resolved", body, &id)
	_ = alerts.CreateNotification(providerID, "dispute_resolved", "Dispute resolved", body, &id)

	return response.JSON(c, http.StatusOK, echo.Map{"message": "resolved", "dispute_id": id, "resolution": req.Resolution})
}
