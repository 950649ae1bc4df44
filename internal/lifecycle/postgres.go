package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/handyswift/backend/internal/apperr"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgxStore implements Store on a pgx pool. Outside RunInTx every call runs on
// the pool; inside, the same methods run on the transaction.
type PgxStore struct {
	pool *pgxpool.Pool
	q    querier
}

func NewPgxStore(pool *pgxpool.Pool) *PgxStore {
	return &PgxStore{pool: pool, q: pool}
}

func (s *PgxStore) RunInTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperr.Wrap(apperr.CodePersistence, "failed to start transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PgxStore{pool: s.pool, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.CodePersistence, "failed to commit transaction", err)
	}
	return nil
}

const jobColumns = `j.id, j.owner_user_id, j.title, j.category, j.location, j.budget, j.budget_type,
        j.timeline, j.status, j.created_at, j.closed_at, j.expires_at,
        (SELECT COUNT(*) FROM offers o WHERE o.job_id = j.id) AS offer_count`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.OwnerUserID, &j.Title, &j.Category, &j.Location, &j.Budget, &j.BudgetType,
		&j.Timeline, &j.Status, &j.CreatedAt, &j.ClosedAt, &j.ExpiresAt, &j.OfferCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.CodeNotFound, "job not found")
		}
		return nil, apperr.Wrap(apperr.CodePersistence, "failed to load job", err)
	}
	return &j, nil
}

func (s *PgxStore) CreateJob(ctx context.Context, j *Job) error {
	_, err := s.q.Exec(ctx, `
        INSERT INTO jobs (id, owner_user_id, title, category, location, budget, budget_type, timeline, status, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		j.ID, j.OwnerUserID, j.Title, j.Category, j.Location, j.Budget, j.BudgetType, j.Timeline, j.Status, j.CreatedAt, j.ExpiresAt)
	if err != nil {
		return apperr.Wrap(apperr.CodePersistence, "failed to create job", err)
	}
	return nil
}

func (s *PgxStore) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return scanJob(s.q.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1`, jobID))
}

func (s *PgxStore) GetJobForUpdate(ctx context.Context, jobID string) (*Job, error) {
	// Lock first, then read with the aggregate; the subquery in jobColumns
	// cannot be combined with FOR UPDATE.
	var id string
	if err := s.q.QueryRow(ctx, `SELECT id FROM jobs WHERE id = $1 FOR UPDATE`, jobID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.CodeNotFound, "job not found")
		}
		return nil, apperr.Wrap(apperr.CodePersistence, "failed to lock job", err)
	}
	return s.GetJob(ctx, jobID)
}

func (s *PgxStore) CloseJob(ctx context.Context, jobID string, closedAt time.Time) error {
	ct, err := s.q.Exec(ctx,
		`UPDATE jobs SET status = 'closed', closed_at = $2 WHERE id = $1 AND status = 'active'`,
		jobID, closedAt)
	if err != nil {
		return apperr.Wrap(apperr.CodePersistence, "failed to close job", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.New(apperr.CodeInvalidState, "job is not active")
	}
	return nil
}

func (s *PgxStore) collectJobs(rows pgx.Rows, err error) ([]Job, error) {
	if err != nil {
		return nil, apperr.Wrap(apperr.CodePersistence, "failed to list jobs", err)
	}
	defer rows.Close()
	var items []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.OwnerUserID, &j.Title, &j.Category, &j.Location, &j.Budget, &j.BudgetType,
			&j.Timeline, &j.Status, &j.CreatedAt, &j.ClosedAt, &j.ExpiresAt, &j.OfferCount); err != nil {
			return nil, apperr.Wrap(apperr.CodePersistence, "failed to scan job", err)
		}
		items = append(items, j)
	}
	return items, nil
}

func (s *PgxStore) ListJobsByOwner(ctx context.Context, ownerID string, status JobStatus, limit, offset int) ([]Job, error) {
	if status != "" {
		return s.collectJobs(s.q.Query(ctx, `SELECT `+jobColumns+` FROM jobs j
            WHERE j.owner_user_id = $1 AND j.status = $2
            ORDER BY j.created_at DESC LIMIT $3 OFFSET $4`, ownerID, status, limit, offset))
	}
	return s.collectJobs(s.q.Query(ctx, `SELECT `+jobColumns+` FROM jobs j
        WHERE j.owner_user_id = $1
        ORDER BY j.created_at DESC LIMIT $2 OFFSET $3`, ownerID, limit, offset))
}

func (s *PgxStore) ListOpenJobs(ctx context.Context, categories []string, limit, offset int) ([]Job, error) {
	if len(categories) > 0 {
		return s.collectJobs(s.q.Query(ctx, `SELECT `+jobColumns+` FROM jobs j
            WHERE j.status = 'active' AND j.category = ANY($1)
            ORDER BY j.created_at DESC LIMIT $2 OFFSET $3`, categories, limit, offset))
	}
	return s.collectJobs(s.q.Query(ctx, `SELECT `+jobColumns+` FROM jobs j
        WHERE j.status = 'active'
        ORDER BY j.created_at DESC LIMIT $1 OFFSET $2`, limit, offset))
}

const offerColumns = `id, job_id, provider_id, proposed_price, proposed_timeline, message, status, created_at`

func scanOffer(row pgx.Row) (*Offer, error) {
	var o Offer
	err := row.Scan(&o.ID, &o.JobID, &o.ProviderID, &o.ProposedPrice, &o.ProposedTimeline, &o.Message, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.CodeNotFound, "offer not found")
		}
		return nil, apperr.Wrap(apperr.CodePersistence, "failed to load offer", err)
	}
	return &o, nil
}

func (s *PgxStore) CreateOffer(ctx context.Context, o *Offer) error {
	_, err := s.q.Exec(ctx, `
        INSERT INTO offers (id, job_id, provider_id, proposed_price, proposed_timeline, message, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.JobID, o.ProviderID, o.ProposedPrice, o.ProposedTimeline, o.Message, o.Status, o.CreatedAt)
	if err != nil {
		return apperr.Wrap(apperr.CodePersistence, "failed to create offer", err)
	}
	return nil
}

func (s *PgxStore) GetOffer(ctx context.Context, offerID string) (*Offer, error) {
	return scanOffer(s.q.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, offerID))
}

func (s *PgxStore) ListOffersByJob(ctx context.Context, jobID string) ([]Offer, error) {
	rows, err := s.q.Query(ctx, `SELECT `+offerColumns+` FROM offers WHERE job_id = $1 ORDER BY created_at DESC`, jobID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodePersistence, "failed to list offers", err)
	}
	defer rows.Close()
	var items []Offer
	for rows.Next() {
		var o Offer
		if err := rows.Scan(&o.ID, &o.JobID, &o.ProviderID, &o.ProposedPrice, &o.ProposedTimeline, &o.Message, &o.Status, &o.CreatedAt); err != nil {
			return nil, apperr.Wrap(apperr.CodePersistence, "failed to scan offer", err)
		}
		items = append(items, o)
	}
	return items, nil
}

func (s *PgxStore) SetOfferStatus(ctx context.Context, offerID string, status OfferStatus) error {
	ct, err := s.q.Exec(ctx, `UPDATE offers SET status = $2 WHERE id = $1`, offerID, status)
	if err != nil {
		return apperr.Wrap(apperr.CodePersistence, "failed to update offer", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.New(apperr.CodeNotFound, "offer not found")
	}
	return nil
}

func (s *PgxStore) RejectPendingOffers(ctx context.Context, jobID, exceptOfferID string) error {
	var err error
	if exceptOfferID != "" {
		_, err = s.q.Exec(ctx,
			`UPDATE offers SET status = 'rejected' WHERE job_id = $1 AND status = 'pending' AND id <> $2`,
			jobID, exceptOfferID)
	} else {
		_, err = s.q.Exec(ctx,
			`UPDATE offers SET status = 'rejected' WHERE job_id = $1 AND status = 'pending'`, jobID)
	}
	if err != nil {
		return apperr.Wrap(apperr.CodePersistence, "failed to reject pending offers", err)
	}
	return nil
}

const bookingColumns = `id, user_id, provider_id, job_id, offer_id, service_name, service_category, price, status, created_at, cancelled_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.UserID, &b.ProviderID, &b.JobID, &b.OfferID, &b.ServiceName, &b.ServiceCategory,
		&b.Price, &b.Status, &b.CreatedAt, &b.CancelledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.CodeNotFound, "booking not found")
		}
		return nil, apperr.Wrap(apperr.CodePersistence, "failed to load booking", err)
	}
	return &b, nil
}

func (s *PgxStore) CreateBooking(ctx context.Context, b *Booking) error {
	_, err := s.q.Exec(ctx, `
        INSERT INTO bookings (id, user_id, provider_id, job_id, offer_id, service_name, service_category, price, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.UserID, b.ProviderID, b.JobID, b.OfferID, b.ServiceName, b.ServiceCategory, b.Price, b.Status, b.CreatedAt)
	if err != nil {
		return apperr.Wrap(apperr.CodePersistence, "failed to create booking", err)
	}
	return nil
}

func (s *PgxStore) GetBooking(ctx context.Context, bookingID string) (*Booking, error) {
	return scanBooking(s.q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID))
}

func (s *PgxStore) GetBookingForUpdate(ctx context.Context, bookingID string) (*Booking, error) {
	return scanBooking(s.q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, bookingID))
}

func (s *PgxStore) GetBookingByOffer(ctx context.Context, offerID string) (*Booking, error) {
	return scanBooking(s.q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE offer_id = $1`, offerID))
}

func (s *PgxStore) CancelBooking(ctx context.Context, bookingID string, cancelledAt time.Time) error {
	ct, err := s.q.Exec(ctx,
		`UPDATE bookings SET status = 'cancelled', cancelled_at = $2 WHERE id = $1 AND status = 'ongoing'`,
		bookingID, cancelledAt)
	if err != nil {
		return apperr.Wrap(apperr.CodePersistence, "failed to cancel booking", err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.New(apperr.CodeInvalidState, "booking is not ongoing")
	}
	return nil
}

func (s *PgxStore) ListBookingsByUser(ctx context.Context, userID string, status BookingStatus, limit, offset int) ([]Booking, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status != "" {
		rows, err = s.q.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
            WHERE (user_id = $1 OR provider_id = $1) AND status = $2
            ORDER BY created_at DESC LIMIT $3 OFFSET $4`, userID, status, limit, offset)
	} else {
		rows, err = s.q.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
            WHERE user_id = $1 OR provider_id = $1
            ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodePersistence, "failed to list bookings", err)
	}
	defer rows.Close()
	var items []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.ProviderID, &b.JobID, &b.OfferID, &b.ServiceName, &b.ServiceCategory,
			&b.Price, &b.Status, &b.CreatedAt, &b.CancelledAt); err != nil {
			return nil, apperr.Wrap(apperr.CodePersistence, "failed to scan booking", err)
		}
		items = append(items, b)
	}
	return items, nil
}

func (s *PgxStore) AppendActivity(ctx context.Context, e *ActivityEntry) error {
	var related any
	if e.RelatedEntityID != "" {
		related = e.RelatedEntityID
	}
	_, err := s.q.Exec(ctx, `
        INSERT INTO activity_logs (id, user_id, type, title, description, related_entity_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.UserID, e.Type, e.Title, e.Description, related, e.CreatedAt)
	if err != nil {
		return apperr.Wrap(apperr.CodePersistence, "failed to append activity", err)
	}
	return nil
}
