package alerts

import "time"

// Task type constants
const (
	TaskWelcomeEmail     = "email:welcome"
	TaskOfferReceived    = "email:offer_received"
	TaskOfferAccepted    = "email:offer_accepted"
	TaskBookingCancelled = "email:booking_cancelled"
	TaskAdminAlert       = "email:admin_alert"
)

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type WelcomeEmailPayload struct {
	UserID   string        `json:"user_id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Sent to the job owner when a provider submits an offer
type OfferReceivedPayload struct {
	JobID    string        `json:"job_id"`
	OfferID  string        `json:"offer_id"`
	OwnerID  string        `json:"owner_id"`
	Email    string        `json:"email"`
	Price    int64         `json:"price"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Sent to the provider when the job owner accepts their offer
type OfferAcceptedPayload struct {
	JobID      string        `json:"job_id"`
	OfferID    string        `json:"offer_id"`
	BookingID  string        `json:"booking_id"`
	ProviderID string        `json:"provider_id"`
	Email      string        `json:"email"`
	Price      int64         `json:"price"`
	Envelope   EmailEnvelope `json:"envelope"`
	SentAt     time.Time     `json:"sent_at"`
}

// Sent to the provider when the booking owner cancels
type BookingCancelledPayload struct {
	BookingID  string        `json:"booking_id"`
	UserID     string        `json:"user_id"`
	ProviderID string        `json:"provider_id"`
	Email      string        `json:"email"`
	Price      int64         `json:"price"`
	Envelope   EmailEnvelope `json:"envelope"`
	SentAt     time.Time     `json:"sent_at"`
}

type AdminAlertPayload struct {
	AdminID  string        `json:"admin_id"`
	Severity string        `json:"severity"` // info|warning|critical
	Message  string        `json:"message"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}
