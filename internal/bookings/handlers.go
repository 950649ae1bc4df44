package bookings

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/alerts"
	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/events"
	"github.com/handyswift/backend/internal/lifecycle"
	"github.com/handyswift/backend/internal/response"
)

type Handler struct {
	svc *lifecycle.Service
}

func NewHandler(svc *lifecycle.Service) *Handler {
	return &Handler{svc: svc}
}

func principal(c echo.Context) (string, error) {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return "", apperr.New(apperr.CodeUnauthorized, "unauthorized")
	}
	return userID, nil
}

// List returns bookings the caller participates in, as customer or provider.
// GET /api/bookings?status=ongoing
func (h *Handler) List(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	limit, offset := 20, 0
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	status := lifecycle.BookingStatus(c.QueryParam("status"))
	if status != "" && status != lifecycle.BookingOngoing && status != lifecycle.BookingCompleted && status != lifecycle.BookingCancelled {
		return response.Error(c, apperr.New(apperr.CodeValidation, "status must be ongoing, completed or cancelled"))
	}

	items, err := h.svc.ListBookings(c.Request().Context(), userID, status, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, echo.Map{"bookings": items})
}

// Get returns one booking the caller participates in.
// GET /api/bookings/:bookingId
func (h *Handler) Get(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}
	booking, err := h.svc.GetBooking(c.Request().Context(), userID, c.Param("bookingId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, booking)
}

// Cancel cancels an ongoing booking. Only the customer side may cancel.
// PUT /api/bookings/:bookingId/cancel
func (h *Handler) Cancel(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	booking, err := h.svc.CancelBooking(c.Request().Context(), userID, c.Param("bookingId"))
	if err != nil {
		return response.Error(c, err)
	}

	h.notifyCancelled(booking)
	events.Publish(events.KeyBookingCancelled, echo.Map{
		"booking_id": booking.ID, "user_id": booking.UserID, "provider_id": booking.ProviderID,
	})
	return response.JSON(c, http.StatusOK, booking)
}

// OpenDispute files a dispute against a booking the caller participates in.
// POST /api/bookings/:bookingId/dispute
func (h *Handler) OpenDispute(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil || req.Reason == "" {
		return response.Error(c, apperr.New(apperr.CodeValidation, "reason is required"))
	}

	// Participation check reuses the read path's not_found behaviour.
	booking, err := h.svc.GetBooking(c.Request().Context(), userID, c.Param("bookingId"))
	if err != nil {
		return response.Error(c, err)
	}

	var open int
	err = db.Conn.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM disputes WHERE booking_id = $1 AND status = 'open'`, booking.ID).Scan(&open)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to check disputes", err))
	}
	if open > 0 {
		return response.Error(c, apperr.New(apperr.CodeInvalidState, "booking already has an open dispute"))
	}

	disputeID := uuid.New().String()
	_, err = db.Conn.Exec(context.Background(),
		`INSERT INTO disputes (id, booking_id, filer_id, reason) VALUES ($1, $2, $3, $4)`,
		disputeID, booking.ID, userID, req.Reason,
	)
	if err != nil {
		return response.Error(c, apperr.Wrap(apperr.CodePersistence, "failed to open dispute", err))
	}

	_ = alerts.EnqueueAdminAlert(userID, "warning",
		"Dispute opened on booking "+booking.ID+": "+req.Reason)

	return response.JSON(c, http.StatusCreated, echo.Map{
		"id":         disputeID,
		"booking_id": booking.ID,
		"filer_id":   userID,
		"reason":     req.Reason,
		"status":     "open",
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// notifyCancelled emails the provider and drops an in-app notification.
func (h *Handler) notifyCancelled(b *lifecycle.Booking) {
	var email string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT email FROM users WHERE id = $1`, b.ProviderID).Scan(&email)
	if err != nil {
		return
	}
	_ = alerts.EnqueueBookingCancelled(b.ID, b.UserID, b.ProviderID, email, b.ServiceName, b.Price)
	_ = alerts.CreateNotification(b.ProviderID, "booking_cancelled", "Booking cancelled",
		"The booking for \""+b.ServiceName+"\" was cancelled by the customer.", &b.ID)
}
