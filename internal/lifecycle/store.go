package lifecycle

import (
	"context"
	"time"
)

// Store is the persistence surface the lifecycle service runs on. Lookups
// return a not_found apperr when no row matches. RunInTx executes fn against
// a store bound to one transaction; any error aborts the whole unit.
type Store interface {
	RunInTx(ctx context.Context, fn func(Store) error) error

	CreateJob(ctx context.Context, j *Job) error
	GetJob(ctx context.Context, jobID string) (*Job, error)
	// GetJobForUpdate locks the job row for the duration of the enclosing
	// transaction. This lock is what serializes concurrent close/accept.
	GetJobForUpdate(ctx context.Context, jobID string) (*Job, error)
	CloseJob(ctx context.Context, jobID string, closedAt time.Time) error
	ListJobsByOwner(ctx context.Context, ownerID string, status JobStatus, limit, offset int) ([]Job, error)
	ListOpenJobs(ctx context.Context, categories []string, limit, offset int) ([]Job, error)

	CreateOffer(ctx context.Context, o *Offer) error
	GetOffer(ctx context.Context, offerID string) (*Offer, error)
	ListOffersByJob(ctx context.Context, jobID string) ([]Offer, error)
	SetOfferStatus(ctx context.Context, offerID string, status OfferStatus) error
	// RejectPendingOffers flips every pending offer under the job to rejected,
	// except the one named by exceptOfferID (empty rejects all).
	RejectPendingOffers(ctx context.Context, jobID, exceptOfferID string) error

	CreateBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, bookingID string) (*Booking, error)
	GetBookingForUpdate(ctx context.Context, bookingID string) (*Booking, error)
	GetBookingByOffer(ctx context.Context, offerID string) (*Booking, error)
	CancelBooking(ctx context.Context, bookingID string, cancelledAt time.Time) error
	ListBookingsByUser(ctx context.Context, userID string, status BookingStatus, limit, offset int) ([]Booking, error)

	AppendActivity(ctx context.Context, e *ActivityEntry) error
}
