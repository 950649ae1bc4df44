package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/handyswift/backend/internal/apperr"
)

// Service owns every job/offer/booking transition. Each multi-step transition
// runs inside one store transaction: it either fully applies or leaves nothing
// behind. Missing and not-owned entities both surface as not_found so the API
// never reveals whether somebody else's entity exists.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: func() time.Time { return time.Now().UTC() }}
}

type PostJobInput struct {
	Title      string     `json:"title"`
	Category   string     `json:"category"`
	Location   string     `json:"location"`
	Budget     int64      `json:"budget"`
	BudgetType BudgetType `json:"budget_type"`
	Timeline   string     `json:"timeline"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

func (in *PostJobInput) validate() error {
	switch {
	case in.Title == "":
		return apperr.New(apperr.CodeValidation, "title is required")
	case in.Category == "":
		return apperr.New(apperr.CodeValidation, "category is required")
	case in.Location == "":
		return apperr.New(apperr.CodeValidation, "location is required")
	case in.Budget <= 0:
		return apperr.New(apperr.CodeValidation, "budget is required")
	case in.Timeline == "":
		return apperr.New(apperr.CodeValidation, "timeline is required")
	}
	if in.BudgetType != "" && in.BudgetType != BudgetFixed && in.BudgetType != BudgetHourly {
		return apperr.New(apperr.CodeValidation, "budget_type must be fixed or hourly")
	}
	return nil
}

// PostJob creates an active job owned by the caller.
func (s *Service) PostJob(ctx context.Context, ownerUserID string, in PostJobInput) (*Job, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	budgetType := in.BudgetType
	if budgetType == "" {
		budgetType = BudgetFixed
	}
	job := &Job{
		ID:          uuid.New().String(),
		OwnerUserID: ownerUserID,
		Title:       in.Title,
		Category:    in.Category,
		Location:    in.Location,
		Budget:      in.Budget,
		BudgetType:  budgetType,
		Timeline:    in.Timeline,
		Status:      JobActive,
		CreatedAt:   s.now(),
		ExpiresAt:   in.ExpiresAt,
	}
	err := s.store.RunInTx(ctx, func(tx Store) error {
		if err := tx.CreateJob(ctx, job); err != nil {
			return err
		}
		return tx.AppendActivity(ctx, s.activity(ownerUserID, ActivityJobPosted,
			"Job posted", fmt.Sprintf("Posted %q in %s", job.Title, job.Category), job.ID))
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// CloseJob closes an active job owned by the caller and rejects every
// pending offer under it.
func (s *Service) CloseJob(ctx context.Context, ownerUserID, jobID string) (*Job, error) {
	var closed *Job
	err := s.store.RunInTx(ctx, func(tx Store) error {
		job, err := s.ownedJobForUpdate(ctx, tx, ownerUserID, jobID)
		if err != nil {
			return err
		}
		if job.Status != JobActive {
			return apperr.New(apperr.CodeInvalidState, "job is not active")
		}
		now := s.now()
		if err := tx.RejectPendingOffers(ctx, jobID, ""); err != nil {
			return err
		}
		if err := tx.CloseJob(ctx, jobID, now); err != nil {
			return err
		}
		if err := tx.AppendActivity(ctx, s.activity(ownerUserID, ActivityJobClosed,
			"Job closed", fmt.Sprintf("Closed %q", job.Title), job.ID)); err != nil {
			return err
		}
		job.Status = JobClosed
		job.ClosedAt = &now
		closed = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

type SubmitOfferInput struct {
	ProposedPrice    int64  `json:"proposed_price"`
	ProposedTimeline string `json:"proposed_timeline"`
	Message          string `json:"message"`
}

// SubmitOffer records a provider's bid on an active job. Bids on closed jobs
// are refused outright; otherwise they could never leave pending.
func (s *Service) SubmitOffer(ctx context.Context, providerID, jobID string, in SubmitOfferInput) (*Offer, error) {
	if in.ProposedPrice <= 0 {
		return nil, apperr.New(apperr.CodeValidation, "proposed_price is required")
	}
	offer := &Offer{
		ID:               uuid.New().String(),
		JobID:            jobID,
		ProviderID:       providerID,
		ProposedPrice:    in.ProposedPrice,
		ProposedTimeline: in.ProposedTimeline,
		Message:          in.Message,
		Status:           OfferPending,
		CreatedAt:        s.now(),
	}
	err := s.store.RunInTx(ctx, func(tx Store) error {
		job, err := tx.GetJobForUpdate(ctx, jobID)
		if err != nil {
			return err
		}
		if job.Status != JobActive {
			return apperr.New(apperr.CodeInvalidState, "job is no longer accepting offers")
		}
		if job.OwnerUserID == providerID {
			return apperr.New(apperr.CodeValidation, "cannot submit an offer on your own job")
		}
		if err := tx.CreateOffer(ctx, offer); err != nil {
			return err
		}
		return tx.AppendActivity(ctx, s.activity(providerID, ActivityOfferSubmitted,
			"Offer submitted", fmt.Sprintf("Offered %d on %q", offer.ProposedPrice, job.Title), offer.ID))
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// AcceptOffer runs the whole acceptance cascade atomically: the target offer
// becomes accepted, every other pending offer is rejected, the job closes and
// one booking is created from the job/offer pair. Retrying the call for an
// offer that already won returns the existing booking instead of a duplicate.
func (s *Service) AcceptOffer(ctx context.Context, ownerUserID, jobID, offerID string) (*Offer, *Booking, error) {
	var (
		accepted *Offer
		booking  *Booking
	)
	err := s.store.RunInTx(ctx, func(tx Store) error {
		job, err := s.ownedJobForUpdate(ctx, tx, ownerUserID, jobID)
		if err != nil {
			return err
		}
		offer, err := tx.GetOffer(ctx, offerID)
		if err != nil {
			return err
		}
		if offer.JobID != jobID {
			return apperr.New(apperr.CodeNotFound, "offer not found")
		}

		if job.Status == JobClosed {
			// Idempotent replay: the offer that closed the job maps to
			// exactly one booking, so hand it back.
			if offer.Status == OfferAccepted {
				existing, err := tx.GetBookingByOffer(ctx, offerID)
				if err != nil {
					return err
				}
				accepted, booking = offer, existing
				return nil
			}
			return apperr.New(apperr.CodeInvalidState, "job is already closed")
		}
		if offer.Status != OfferPending {
			return apperr.New(apperr.CodeInvalidState, "offer is not pending")
		}

		now := s.now()
		if err := tx.SetOfferStatus(ctx, offerID, OfferAccepted); err != nil {
			return err
		}
		if err := tx.RejectPendingOffers(ctx, jobID, offerID); err != nil {
			return err
		}
		if err := tx.CloseJob(ctx, jobID, now); err != nil {
			return err
		}
		b := &Booking{
			ID:              uuid.New().String(),
			UserID:          ownerUserID,
			ProviderID:      offer.ProviderID,
			JobID:           jobID,
			OfferID:         offerID,
			ServiceName:     job.Title,
			ServiceCategory: job.Category,
			Price:           offer.ProposedPrice,
			Status:          BookingOngoing,
			CreatedAt:       now,
		}
		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}
		if err := tx.AppendActivity(ctx, s.activity(ownerUserID, ActivityOfferAccepted,
			"Offer accepted", fmt.Sprintf("Accepted offer of %d on %q", offer.ProposedPrice, job.Title), offerID)); err != nil {
			return err
		}
		if err := tx.AppendActivity(ctx, s.activity(ownerUserID, ActivityBookingCreated,
			"Booking created", fmt.Sprintf("Booked %q for %d", job.Title, offer.ProposedPrice), b.ID)); err != nil {
			return err
		}
		offer.Status = OfferAccepted
		accepted, booking = offer, b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return accepted, booking, nil
}

// RejectOffer marks a single pending offer rejected. No cascade: the job and
// its other offers are untouched. Rejecting an already rejected offer is a
// no-op; rejecting the accepted offer is refused.
func (s *Service) RejectOffer(ctx context.Context, ownerUserID, jobID, offerID string) (*Offer, error) {
	var rejected *Offer
	err := s.store.RunInTx(ctx, func(tx Store) error {
		if _, err := s.ownedJobForUpdate(ctx, tx, ownerUserID, jobID); err != nil {
			return err
		}
		offer, err := tx.GetOffer(ctx, offerID)
		if err != nil {
			return err
		}
		if offer.JobID != jobID {
			return apperr.New(apperr.CodeNotFound, "offer not found")
		}
		if offer.Status == OfferAccepted {
			return apperr.New(apperr.CodeInvalidState, "offer is already accepted")
		}
		if offer.Status == OfferRejected {
			rejected = offer
			return nil
		}
		if err := tx.SetOfferStatus(ctx, offerID, OfferRejected); err != nil {
			return err
		}
		if err := tx.AppendActivity(ctx, s.activity(ownerUserID, ActivityOfferRejected,
			"Offer rejected", "", offerID)); err != nil {
			return err
		}
		offer.Status = OfferRejected
		rejected = offer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// CancelBooking cancels an ongoing booking owned by the caller.
func (s *Service) CancelBooking(ctx context.Context, ownerUserID, bookingID string) (*Booking, error) {
	var cancelled *Booking
	err := s.store.RunInTx(ctx, func(tx Store) error {
		booking, err := tx.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking.UserID != ownerUserID {
			return apperr.New(apperr.CodeNotFound, "booking not found")
		}
		if booking.Status != BookingOngoing {
			return apperr.New(apperr.CodeInvalidState, "booking is not ongoing")
		}
		now := s.now()
		if err := tx.CancelBooking(ctx, bookingID, now); err != nil {
			return err
		}
		if err := tx.AppendActivity(ctx, s.activity(ownerUserID, ActivityBookingCancelled,
			"Booking cancelled", fmt.Sprintf("Cancelled %q", booking.ServiceName), booking.ID)); err != nil {
			return err
		}
		booking.Status = BookingCancelled
		booking.CancelledAt = &now
		cancelled = booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// ---- read side ----

func (s *Service) GetJob(ctx context.Context, ownerUserID, jobID string) (*Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OwnerUserID != ownerUserID {
		return nil, apperr.New(apperr.CodeNotFound, "job not found")
	}
	return job, nil
}

func (s *Service) ListJobs(ctx context.Context, ownerUserID string, status JobStatus, limit, offset int) ([]Job, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.ListJobsByOwner(ctx, ownerUserID, status, limit, offset)
}

// ListOpenJobs returns active jobs, optionally narrowed to the given
// categories (a provider's specializations).
func (s *Service) ListOpenJobs(ctx context.Context, categories []string, limit, offset int) ([]Job, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.ListOpenJobs(ctx, categories, limit, offset)
}

func (s *Service) ListOffers(ctx context.Context, ownerUserID, jobID string) ([]Offer, error) {
	if _, err := s.GetJob(ctx, ownerUserID, jobID); err != nil {
		return nil, err
	}
	return s.store.ListOffersByJob(ctx, jobID)
}

func (s *Service) GetBooking(ctx context.Context, userID, bookingID string) (*Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != userID && booking.ProviderID != userID {
		return nil, apperr.New(apperr.CodeNotFound, "booking not found")
	}
	return booking, nil
}

func (s *Service) ListBookings(ctx context.Context, userID string, status BookingStatus, limit, offset int) ([]Booking, error) {
	limit, offset = clampPage(limit, offset)
	return s.store.ListBookingsByUser(ctx, userID, status, limit, offset)
}

// ---- helpers ----

func (s *Service) ownedJobForUpdate(ctx context.Context, tx Store, ownerUserID, jobID string) (*Job, error) {
	job, err := tx.GetJobForUpdate(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.OwnerUserID != ownerUserID {
		return nil, apperr.New(apperr.CodeNotFound, "job not found")
	}
	return job, nil
}

func (s *Service) activity(userID, typ, title, description, relatedID string) *ActivityEntry {
	return &ActivityEntry{
		ID:              uuid.New().String(),
		UserID:          userID,
		Type:            typ,
		Title:           title,
		Description:     description,
		RelatedEntityID: relatedID,
		CreatedAt:       s.now(),
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
