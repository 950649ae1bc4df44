package lifecycle

import "time"

type JobStatus string

const (
	JobActive JobStatus = "active"
	JobClosed JobStatus = "closed"
)

type BudgetType string

const (
	BudgetFixed  BudgetType = "fixed"
	BudgetHourly BudgetType = "hourly"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

type BookingStatus string

const (
	BookingOngoing   BookingStatus = "ongoing"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Job is a work request posted by a user, open for provider offers until closed.
type Job struct {
	ID          string     `json:"id"`
	OwnerUserID string     `json:"owner_user_id"`
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Location    string     `json:"location"`
	Budget      int64      `json:"budget"`
	BudgetType  BudgetType `json:"budget_type"`
	Timeline    string     `json:"timeline"`
	Status      JobStatus  `json:"status"`
	OfferCount  int        `json:"offer_count"`
	CreatedAt   time.Time  `json:"created_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// Offer is a provider's bid on a job.
type Offer struct {
	ID               string      `json:"id"`
	JobID            string      `json:"job_id"`
	ProviderID       string      `json:"provider_id"`
	ProposedPrice    int64       `json:"proposed_price"`
	ProposedTimeline string      `json:"proposed_timeline"`
	Message          string      `json:"message"`
	Status           OfferStatus `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
}

// Booking is a confirmed engagement, created when an offer is accepted.
// JobID/OfferID tie it back to the cascade that produced it.
type Booking struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	ProviderID      string        `json:"provider_id"`
	JobID           string        `json:"job_id"`
	OfferID         string        `json:"offer_id"`
	ServiceName     string        `json:"service_name"`
	ServiceCategory string        `json:"service_category"`
	Price           int64         `json:"price"`
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty"`
}

// Activity entry types written by lifecycle transitions.
const (
	ActivityJobPosted        = "job_posted"
	ActivityJobClosed        = "job_closed"
	ActivityOfferSubmitted   = "offer_submitted"
	ActivityOfferAccepted    = "offer_accepted"
	ActivityOfferRejected    = "offer_rejected"
	ActivityBookingCreated   = "booking_created"
	ActivityBookingCancelled = "booking_cancelled"
)

// ActivityEntry is one row of the append-only audit trail.
type ActivityEntry struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	RelatedEntityID string    `json:"related_entity_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
