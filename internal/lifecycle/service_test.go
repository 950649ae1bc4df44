package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/handyswift/backend/internal/apperr"
)

// memStore is an in-memory Store for service tests. RunInTx serializes whole
// transactions behind one mutex; individual methods are only called from a
// single test goroutine otherwise.
type memStore struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	offers   map[string]*Offer
	bookings map[string]*Booking
	activity []ActivityEntry
}

func newMemStore() *memStore {
	return &memStore{
		jobs:     make(map[string]*Job),
		offers:   make(map[string]*Offer),
		bookings: make(map[string]*Booking),
	}
}

func (m *memStore) RunInTx(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m)
}

func (m *memStore) CreateJob(ctx context.Context, j *Job) error {
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *memStore) GetJob(ctx context.Context, jobID string) (*Job, error) {
	j, ok := m.jobs[jobID]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "job not found")
	}
	cp := *j
	cp.OfferCount = 0
	for _, o := range m.offers {
		if o.JobID == jobID {
			cp.OfferCount++
		}
	}
	return &cp, nil
}

func (m *memStore) GetJobForUpdate(ctx context.Context, jobID string) (*Job, error) {
	return m.GetJob(ctx, jobID)
}

func (m *memStore) CloseJob(ctx context.Context, jobID string, closedAt time.Time) error {
	j, ok := m.jobs[jobID]
	if !ok {
		return apperr.New(apperr.CodeNotFound, "job not found")
	}
	if j.Status != JobActive {
		return apperr.New(apperr.CodeInvalidState, "job is not active")
	}
	at := closedAt
	j.Status = JobClosed
	j.ClosedAt = &at
	return nil
}

func (m *memStore) ListJobsByOwner(ctx context.Context, ownerID string, status JobStatus, limit, offset int) ([]Job, error) {
	var items []Job
	for _, j := range m.jobs {
		if j.OwnerUserID == ownerID && (status == "" || j.Status == status) {
			items = append(items, *j)
		}
	}
	return items, nil
}

func (m *memStore) ListOpenJobs(ctx context.Context, categories []string, limit, offset int) ([]Job, error) {
	var items []Job
	for _, j := range m.jobs {
		if j.Status != JobActive {
			continue
		}
		if len(categories) == 0 {
			items = append(items, *j)
			continue
		}
		for _, cat := range categories {
			if j.Category == cat {
				items = append(items, *j)
				break
			}
		}
	}
	return items, nil
}

func (m *memStore) CreateOffer(ctx context.Context, o *Offer) error {
	cp := *o
	m.offers[o.ID] = &cp
	return nil
}

func (m *memStore) GetOffer(ctx context.Context, offerID string) (*Offer, error) {
	o, ok := m.offers[offerID]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "offer not found")
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) ListOffersByJob(ctx context.Context, jobID string) ([]Offer, error) {
	var items []Offer
	for _, o := range m.offers {
		if o.JobID == jobID {
			items = append(items, *o)
		}
	}
	return items, nil
}

func (m *memStore) SetOfferStatus(ctx context.Context, offerID string, status OfferStatus) error {
	o, ok := m.offers[offerID]
	if !ok {
		return apperr.New(apperr.CodeNotFound, "offer not found")
	}
	o.Status = status
	return nil
}

func (m *memStore) RejectPendingOffers(ctx context.Context, jobID, exceptOfferID string) error {
	for _, o := range m.offers {
		if o.JobID == jobID && o.Status == OfferPending && o.ID != exceptOfferID {
			o.Status = OfferRejected
		}
	}
	return nil
}

func (m *memStore) CreateBooking(ctx context.Context, b *Booking) error {
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memStore) GetBooking(ctx context.Context, bookingID string) (*Booking, error) {
	b, ok := m.bookings[bookingID]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "booking not found")
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) GetBookingForUpdate(ctx context.Context, bookingID string) (*Booking, error) {
	return m.GetBooking(ctx, bookingID)
}

func (m *memStore) GetBookingByOffer(ctx context.Context, offerID string) (*Booking, error) {
	for _, b := range m.bookings {
		if b.OfferID == offerID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, apperr.New(apperr.CodeNotFound, "booking not found")
}

func (m *memStore) CancelBooking(ctx context.Context, bookingID string, cancelledAt time.Time) error {
	b, ok := m.bookings[bookingID]
	if !ok {
		return apperr.New(apperr.CodeNotFound, "booking not found")
	}
	if b.Status != BookingOngoing {
		return apperr.New(apperr.CodeInvalidState, "booking is not ongoing")
	}
	at := cancelledAt
	b.Status = BookingCancelled
	b.CancelledAt = &at
	return nil
}

func (m *memStore) ListBookingsByUser(ctx context.Context, userID string, status BookingStatus, limit, offset int) ([]Booking, error) {
	var items []Booking
	for _, b := range m.bookings {
		if (b.UserID == userID || b.ProviderID == userID) && (status == "" || b.Status == status) {
			items = append(items, *b)
		}
	}
	return items, nil
}

func (m *memStore) AppendActivity(ctx context.Context, e *ActivityEntry) error {
	m.activity = append(m.activity, *e)
	return nil
}

func (m *memStore) activityTypes(userID string) []string {
	var types []string
	for _, e := range m.activity {
		if e.UserID == userID {
			types = append(types, e.Type)
		}
	}
	return types
}

const (
	owner     = "owner-1"
	plumberA  = "provider-a"
	plumberB  = "provider-b"
	otherUser = "someone-else"
)

func postSinkJob(t *testing.T, svc *Service) *Job {
	t.Helper()
	job, err := svc.PostJob(context.Background(), owner, PostJobInput{
		Title:    "Fix sink",
		Category: "Plumbing",
		Location: "Lagos",
		Budget:   5000,
		Timeline: "week",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	return job
}

func TestPostJobDefaults(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	job := postSinkJob(t, svc)
	if job.Status != JobActive {
		t.Fatalf("expected active job, got %s", job.Status)
	}
	if job.BudgetType != BudgetFixed {
		t.Fatalf("expected fixed budget type, got %s", job.BudgetType)
	}
	if len(store.activity) != 1 || store.activity[0].Type != ActivityJobPosted {
		t.Fatalf("expected one job_posted activity entry, got %+v", store.activity)
	}
}

func TestPostJobValidation(t *testing.T) {
	svc := NewService(newMemStore())

	cases := []PostJobInput{
		{Category: "Plumbing", Location: "Lagos", Budget: 100, Timeline: "week"},
		{Title: "Fix sink", Location: "Lagos", Budget: 100, Timeline: "week"},
		{Title: "Fix sink", Category: "Plumbing", Budget: 100, Timeline: "week"},
		{Title: "Fix sink", Category: "Plumbing", Location: "Lagos", Timeline: "week"},
		{Title: "Fix sink", Category: "Plumbing", Location: "Lagos", Budget: 100},
		{Title: "Fix sink", Category: "Plumbing", Location: "Lagos", Budget: 100, Timeline: "week", BudgetType: "weekly"},
	}
	for i, in := range cases {
		if _, err := svc.PostJob(context.Background(), owner, in); !apperr.Is(err, apperr.CodeValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestSubmitOfferGuards(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	job := postSinkJob(t, svc)

	if _, err := svc.SubmitOffer(context.Background(), owner, job.ID, SubmitOfferInput{ProposedPrice: 100}); !apperr.Is(err, apperr.CodeValidation) {
		t.Fatalf("expected validation error for self-offer, got %v", err)
	}
	if _, err := svc.SubmitOffer(context.Background(), plumberA, job.ID, SubmitOfferInput{}); !apperr.Is(err, apperr.CodeValidation) {
		t.Fatalf("expected validation error for missing price, got %v", err)
	}
	if _, err := svc.SubmitOffer(context.Background(), plumberA, "missing-job", SubmitOfferInput{ProposedPrice: 100}); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("expected not_found for missing job, got %v", err)
	}

	if _, err := svc.CloseJob(context.Background(), owner, job.ID); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	if _, err := svc.SubmitOffer(context.Background(), plumberA, job.ID, SubmitOfferInput{ProposedPrice: 100}); !apperr.Is(err, apperr.CodeInvalidState) {
		t.Fatalf("expected invalid_state for closed job, got %v", err)
	}
}

func TestCloseJobRejectsPendingOffers(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	job := postSinkJob(t, svc)

	o1, err := svc.SubmitOffer(context.Background(), plumberA, job.ID, SubmitOfferInput{ProposedPrice: 4000})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	o2, err := svc.SubmitOffer(context.Background(), plumberB, job.ID, SubmitOfferInput{ProposedPrice: 4500})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	closed, err := svc.CloseJob(context.Background(), owner, job.ID)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if closed.Status != JobClosed || closed.ClosedAt == nil {
		t.Fatalf("expected closed job with closed_at, got %+v", closed)
	}
	for _, id := range []string{o1.ID, o2.ID} {
		if store.offers[id].Status != OfferRejected {
			t.Fatalf("expected offer %s rejected, got %s", id, store.offers[id].Status)
		}
	}

	if _, err := svc.CloseJob(context.Background(), owner, job.ID); !apperr.Is(err, apperr.CodeInvalidState) {
		t.Fatalf("expected invalid_state closing twice, got %v", err)
	}
}

func TestCloseJobOwnership(t *testing.T) {
	svc := NewService(newMemStore())
	job := postSinkJob(t, svc)

	if _, err := svc.CloseJob(context.Background(), otherUser, job.ID); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("expected not_found for foreign owner, got %v", err)
	}
}

func TestAcceptOfferCascade(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	job := postSinkJob(t, svc)

	low, err := svc.SubmitOffer(ctx, plumberA, job.ID, SubmitOfferInput{ProposedPrice: 4000})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	high, err := svc.SubmitOffer(ctx, plumberB, job.ID, SubmitOfferInput{ProposedPrice: 4500})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	offer, booking, err := svc.AcceptOffer(ctx, owner, job.ID, high.ID)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if offer.Status != OfferAccepted {
		t.Fatalf("expected accepted offer, got %s", offer.Status)
	}
	if store.offers[low.ID].Status != OfferRejected {
		t.Fatalf("expected losing offer rejected, got %s", store.offers[low.ID].Status)
	}
	if store.jobs[job.ID].Status != JobClosed {
		t.Fatalf("expected job closed, got %s", store.jobs[job.ID].Status)
	}
	if booking.Status != BookingOngoing || booking.Price != 4500 {
		t.Fatalf("expected ongoing booking at 4500, got %+v", booking)
	}
	if booking.ServiceName != "Fix sink" || booking.ServiceCategory != "Plumbing" {
		t.Fatalf("expected booking to copy job fields, got %+v", booking)
	}
	if booking.ProviderID != plumberB {
		t.Fatalf("expected booking provider %s, got %s", plumberB, booking.ProviderID)
	}

	accepted := 0
	for _, o := range store.offers {
		switch o.Status {
		case OfferAccepted:
			accepted++
		case OfferPending:
			t.Fatalf("offer %s still pending after acceptance", o.ID)
		}
	}
	if accepted != 1 {
		t.Fatalf("expected exactly one accepted offer, got %d", accepted)
	}

	cancelled, err := svc.CancelBooking(ctx, owner, booking.ID)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cancelled.Status != BookingCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("expected cancelled booking with cancelled_at, got %+v", cancelled)
	}
	types := store.activityTypes(owner)
	if types[len(types)-1] != ActivityBookingCancelled {
		t.Fatalf("expected booking_cancelled activity last, got %v", types)
	}
}

func TestAcceptOfferIdempotentReplay(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	job := postSinkJob(t, svc)

	offer, err := svc.SubmitOffer(ctx, plumberA, job.ID, SubmitOfferInput{ProposedPrice: 4000})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	_, first, err := svc.AcceptOffer(ctx, owner, job.ID, offer.ID)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	_, second, err := svc.AcceptOffer(ctx, owner, job.ID, offer.ID)
	if err != nil {
		t.Fatalf("expected replay to succeed, got %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same booking on replay, got %s and %s", first.ID, second.ID)
	}
	if len(store.bookings) != 1 {
		t.Fatalf("expected exactly one booking, got %d", len(store.bookings))
	}
}

func TestAcceptOfferGuards(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	job := postSinkJob(t, svc)

	winner, err := svc.SubmitOffer(ctx, plumberA, job.ID, SubmitOfferInput{ProposedPrice: 4000})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	loser, err := svc.SubmitOffer(ctx, plumberB, job.ID, SubmitOfferInput{ProposedPrice: 4500})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if _, _, err := svc.AcceptOffer(ctx, otherUser, job.ID, winner.ID); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("expected not_found for foreign owner, got %v", err)
	}
	if _, _, err := svc.AcceptOffer(ctx, owner, job.ID, "missing-offer"); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("expected not_found for missing offer, got %v", err)
	}

	if _, _, err := svc.AcceptOffer(ctx, owner, job.ID, winner.ID); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	// The losing offer was auto-rejected by the cascade; accepting it now
	// must not create a second booking.
	if _, _, err := svc.AcceptOffer(ctx, owner, job.ID, loser.ID); !apperr.Is(err, apperr.CodeInvalidState) {
		t.Fatalf("expected invalid_state for rejected offer, got %v", err)
	}
	if len(store.bookings) != 1 {
		t.Fatalf("expected exactly one booking, got %d", len(store.bookings))
	}
}

func TestAcceptOfferMismatchedJob(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	job := postSinkJob(t, svc)
	other, err := svc.PostJob(ctx, owner, PostJobInput{
		Title: "Paint fence", Category: "Painting", Location: "Lagos", Budget: 2000, Timeline: "month",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	offer, err := svc.SubmitOffer(ctx, plumberA, other.ID, SubmitOfferInput{ProposedPrice: 1500})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if _, _, err := svc.AcceptOffer(ctx, owner, job.ID, offer.ID); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("expected not_found for offer under another job, got %v", err)
	}
}

func TestRejectOffer(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	job := postSinkJob(t, svc)

	offer, err := svc.SubmitOffer(ctx, plumberA, job.ID, SubmitOfferInput{ProposedPrice: 4000})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	rejected, err := svc.RejectOffer(ctx, owner, job.ID, offer.ID)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if rejected.Status != OfferRejected {
		t.Fatalf("expected rejected offer, got %s", rejected.Status)
	}
	if store.jobs[job.ID].Status != JobActive {
		t.Fatal("rejecting one offer must not close the job")
	}

	// Rejecting again is a no-op.
	if _, err := svc.RejectOffer(ctx, owner, job.ID, offer.ID); err != nil {
		t.Fatalf("expected repeated reject to succeed, got %v", err)
	}

	winner, err := svc.SubmitOffer(ctx, plumberB, job.ID, SubmitOfferInput{ProposedPrice: 4500})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if _, _, err := svc.AcceptOffer(ctx, owner, job.ID, winner.ID); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if _, err := svc.RejectOffer(ctx, owner, job.ID, winner.ID); !apperr.Is(err, apperr.CodeInvalidState) {
		t.Fatalf("expected invalid_state rejecting the accepted offer, got %v", err)
	}
}

func TestCancelBookingGuards(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()
	job := postSinkJob(t, svc)

	offer, err := svc.SubmitOffer(ctx, plumberA, job.ID, SubmitOfferInput{ProposedPrice: 4000})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	_, booking, err := svc.AcceptOffer(ctx, owner, job.ID, offer.ID)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if _, err := svc.CancelBooking(ctx, otherUser, booking.ID); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("expected not_found for foreign user, got %v", err)
	}
	if _, err := svc.CancelBooking(ctx, owner, booking.ID); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if _, err := svc.CancelBooking(ctx, owner, booking.ID); !apperr.Is(err, apperr.CodeInvalidState) {
		t.Fatalf("expected invalid_state cancelling twice, got %v", err)
	}
	if store.bookings[booking.ID].Status != BookingCancelled {
		t.Fatal("failed cancel must leave state unchanged")
	}
}

func TestListOpenJobsFiltersByCategory(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()
	postSinkJob(t, svc)
	if _, err := svc.PostJob(ctx, owner, PostJobInput{
		Title: "Paint fence", Category: "Painting", Location: "Lagos", Budget: 2000, Timeline: "month",
	}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	jobs, err := svc.ListOpenJobs(ctx, []string{"Plumbing"}, 0, 0)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(jobs) != 1 || jobs[0].Category != "Plumbing" {
		t.Fatalf("expected only plumbing jobs, got %+v", jobs)
	}
	all, err := svc.ListOpenJobs(ctx, nil, 0, 0)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both jobs without filter, got %d", len(all))
	}
}

func TestListOffersRequiresOwnership(t *testing.T) {
	svc := NewService(newMemStore())
	ctx := context.Background()
	job := postSinkJob(t, svc)
	if _, err := svc.SubmitOffer(ctx, plumberA, job.ID, SubmitOfferInput{ProposedPrice: 4000}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if _, err := svc.ListOffers(ctx, otherUser, job.ID); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("expected not_found for foreign owner, got %v", err)
	}
	offers, err := svc.ListOffers(ctx, owner, job.ID)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("expected one offer, got %d", len(offers))
	}
}
