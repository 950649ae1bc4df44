package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// ensureClient returns a usable client instance
func ensureClient() *asynq.Client {
	if client == nil {
		Init()
	}
	return client
}

// EnqueueWelcomeEmail schedules a welcome email to the user
func EnqueueWelcomeEmail(userID, email, name string) error {
	base := os.Getenv("APP_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	base = strings.TrimRight(base, "/")

	subject := fmt.Sprintf("Welcome to HandySwift, %s!", name)
	body := fmt.Sprintf("Hi %s, thanks for joining HandySwift.\n\nOpen HandySwift: %s\n\nIf the link doesn’t work, copy and paste the URL above.", name, base)

	env := EmailEnvelope{
		To:      email,
		Subject: subject,
		Body:    body,
	}
	payload := WelcomeEmailPayload{UserID: userID, Name: name, Email: email, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskWelcomeEmail, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueOfferReceived notifies the job owner that a provider submitted an offer
func EnqueueOfferReceived(jobID, offerID, ownerID, ownerEmail, jobTitle string, price int64) error {
	env := EmailEnvelope{
		To:      ownerEmail,
		Subject: "New offer on your job",
		Body:    fmt.Sprintf("A provider submitted an offer of %d on \"%s\". Review it in your HandySwift dashboard.", price, jobTitle),
	}
	payload := OfferReceivedPayload{JobID: jobID, OfferID: offerID, OwnerID: ownerID, Email: ownerEmail, Price: price, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskOfferReceived, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueOfferAccepted notifies the provider that their offer was accepted
func EnqueueOfferAccepted(jobID, offerID, bookingID, providerID, providerEmail, jobTitle string, price int64) error {
	env := EmailEnvelope{
		To:      providerEmail,
		Subject: "Your offer was accepted",
		Body:    fmt.Sprintf("Your offer of %d on \"%s\" was accepted. A booking has been created — check HandySwift for details.", price, jobTitle),
	}
	payload := OfferAcceptedPayload{JobID: jobID, OfferID: offerID, BookingID: bookingID, ProviderID: providerID, Email: providerEmail, Price: price, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskOfferAccepted, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueBookingCancelled notifies the provider that the customer cancelled the booking
func EnqueueBookingCancelled(bookingID, userID, providerID, providerEmail, serviceName string, price int64) error {
	env := EmailEnvelope{
		To:      providerEmail,
		Subject: "Booking cancelled by customer",
		Body:    fmt.Sprintf("The booking for \"%s\" (amount %d) was cancelled by the customer.", serviceName, price),
	}
	payload := BookingCancelledPayload{BookingID: bookingID, UserID: userID, ProviderID: providerID, Email: providerEmail, Price: price, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskBookingCancelled, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueAdminAlert sends an alert to admins
func EnqueueAdminAlert(adminID, severity, message string) error {
	env := EmailEnvelope{To: "admin@handyswift.local", Subject: "Admin Alert", Body: message}
	payload := AdminAlertPayload{AdminID: adminID, Severity: severity, Message: message, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskAdminAlert, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("alerts"))
	return err
}
