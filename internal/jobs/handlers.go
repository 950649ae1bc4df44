package jobs

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/handyswift/backend/internal/alerts"
	"github.com/handyswift/backend/internal/apperr"
	"github.com/handyswift/backend/internal/db"
	"github.com/handyswift/backend/internal/events"
	"github.com/handyswift/backend/internal/lifecycle"
	"github.com/handyswift/backend/internal/providers"
	"github.com/handyswift/backend/internal/response"
)

// Handler exposes the job/offer lifecycle over HTTP. Notification enqueues and
// event publishes happen after the transition commits and never fail the
// request.
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

func page(c echo.Context) (limit, offset int) {
	limit, offset = 20, 0
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
	return limit, offset
}

// Post creates a job.
// POST /api/jobs
func (h *Handler) Post(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	var in lifecycle.PostJobInput
	if err := c.Bind(&in); err != nil {
		return response.Error(c, apperr.New(apperr.CodeValidation, "invalid request body"))
	}

	job, err := h.svc.PostJob(c.Request().Context(), userID, in)
	if err != nil {
		return response.Error(c, err)
	}

	events.Publish(events.KeyJobPosted, echo.Map{
		"job_id": job.ID, "owner_id": job.OwnerUserID, "category": job.Category, "budget": job.Budget,
	})
	return response.JSON(c, http.StatusCreated, job)
}

// List returns the caller's jobs, newest first.
// GET /api/jobs?status=active
func (h *Handler) List(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}
	limit, offset := page(c)
	status := lifecycle.JobStatus(c.QueryParam("status"))
	if status != "" && status != lifecycle.JobActive && status != lifecycle.JobClosed {
		return response.Error(c, apperr.New(apperr.CodeValidation, "status must be active or closed"))
	}

	items, err := h.svc.ListJobs(c.Request().Context(), userID, status, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, echo.Map{"jobs": items})
}

// Get returns one of the caller's jobs.
// GET /api/jobs/:jobId
func (h *Handler) Get(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}
	job, err := h.svc.GetJob(c.Request().Context(), userID, c.Param("jobId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, job)
}

// AvailableForProvider returns open jobs matching the caller's specializations.
// GET /api/jobs/available/for-provider
func (h *Handler) AvailableForProvider(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}
	specs, err := providers.Specializations(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}
	limit, offset := page(c)
	items, err := h.svc.ListOpenJobs(c.Request().Context(), specs, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, echo.Map{"jobs": items})
}

// SubmitOffer records the caller's bid on a job.
// POST /api/jobs/:jobId/offers
func (h *Handler) SubmitOffer(c echo.Context) error {
	providerID, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	var in lifecycle.SubmitOfferInput
	if err := c.Bind(&in); err != nil {
		return response.Error(c, apperr.New(apperr.CodeValidation, "invalid request body"))
	}

	jobID := c.Param("jobId")
	offer, err := h.svc.SubmitOffer(c.Request().Context(), providerID, jobID, in)
	if err != nil {
		return response.Error(c, err)
	}

	h.notifyOfferReceived(jobID, offer)
	events.Publish(events.KeyOfferSubmitted, echo.Map{
		"job_id": jobID, "offer_id": offer.ID, "provider_id": providerID, "price": offer.ProposedPrice,
	})
	return response.JSON(c, http.StatusCreated, offer)
}

// ListOffers returns all offers on one of the caller's jobs.
// GET /api/jobs/:jobId/offers
func (h *Handler) ListOffers(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}
	items, err := h.svc.ListOffers(c.Request().Context(), userID, c.Param("jobId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.JSON(c, http.StatusOK, echo.Map{"offers": items})
}

// AcceptOffer accepts one offer: rejects the other pending offers, closes the
// job and creates the booking in one transaction.
// PUT /api/jobs/:jobId/offers/:offerId/accept
func (h *Handler) AcceptOffer(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}

	offer, booking, err := h.svc.AcceptOffer(c.Request().Context(), userID, c.Param("jobId"), c.Param("offerId"))
	if err != nil {
		return response.Error(c, err)
	}

	h.notifyOfferAccepted(offer, booking)
	events.Publish(events.KeyOfferAccepted, echo.Map{
		"job_id": offer.JobID, "offer_id": offer.ID, "provider_id": offer.ProviderID,
	})
	events.Publish(events.KeyBookingCreated, echo.Map{
		"booking_id": booking.ID, "job_id": booking.JobID, "user_id": booking.UserID,
		"provider_id": booking.ProviderID, "price": booking.Price,
	})
	return response.JSON(c, http.StatusOK, echo.Map{"offer": offer, "booking": booking})
}

// RejectOffer rejects a pending offer. Rejecting an already rejected offer is
// a no-op.
// PUT /api/jobs/:jobId/offers/:offerId/reject
func (h *Handler) RejectOffer(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}
	offer, err := h.svc.RejectOffer(c.Request().Context(), userID, c.Param("jobId"), c.Param("offerId"))
	if err != nil {
		return response.Error(c, err)
	}
	events.Publish(events.KeyOfferRejected, echo.Map{
		"job_id": offer.JobID, "offer_id": offer.ID, "provider_id": offer.ProviderID,
	})
	return response.JSON(c, http.StatusOK, offer)
}

// Close closes a job without accepting any offer; pending offers are rejected.
// PUT /api/jobs/:jobId/close
func (h *Handler) Close(c echo.Context) error {
	userID, err := principal(c)
	if err != nil {
		return response.Error(c, err)
	}
	job, err := h.svc.CloseJob(c.Request().Context(), userID, c.Param("jobId"))
	if err != nil {
		return response.Error(c, err)
	}
	events.Publish(events.KeyJobClosed, echo.Map{"job_id": job.ID, "owner_id": job.OwnerUserID})
	return response.JSON(c, http.StatusOK, job)
}

// notifyOfferReceived emails the job owner and drops an in-app notification.
func (h *Handler) notifyOfferReceived(jobID string, offer *lifecycle.Offer) {
	var ownerID, ownerEmail, title string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT u.id::text, u.email, j.title FROM jobs j JOIN users u ON u.id = j.owner_user_id WHERE j.id = $1`,
		jobID).Scan(&ownerID, &ownerEmail, &title)
	if err != nil {
		return
	}
	_ = alerts.EnqueueOfferReceived(jobID, offer.ID, ownerID, ownerEmail, title, offer.ProposedPrice)
	_ = alerts.CreateNotification(ownerID, "offer_received", "New offer on your job",
		"A provider submitted an offer on \""+title+"\".", &offer.ID)
}

// notifyOfferAccepted emails the winning provider and drops an in-app notification.
func (h *Handler) notifyOfferAccepted(offer *lifecycle.Offer, booking *lifecycle.Booking) {
	var email string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT email FROM users WHERE id = $1`, offer.ProviderID).Scan(&email)
	if err != nil {
		return
	}
	_ = alerts.EnqueueOfferAccepted(offer.JobID, offer.ID, booking.ID, offer.ProviderID, email,
		booking.ServiceName, booking.Price)
	_ = alerts.CreateNotification(offer.ProviderID, "offer_accepted", "Your offer was accepted",
		"A booking was created for \""+booking.ServiceName+"\".", &booking.ID)
}
