package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
)

const peerSessionColumns = `
	id, host_id, title, description, languages, durations, currency,
	price, concessionary_price, per_hour_price, concessionary_per_hour_price,
	access_before_payment, require_request_approval, require_concessionary_approval,
	require_refund_approval, is_published, created_at, updated_at
`

type PeerSessionRepository struct {
	db DBTX
}

func NewPeerSessionRepository(db DBTX) *PeerSessionRepository {
	return &PeerSessionRepository{db: db}
}

func scanPeerSession(row interface{ Scan(dest ...any) error }) (*models.PeerSession, error) {
	var s models.PeerSession
	err := row.Scan(
		&s.ID,
		&s.HostID,
		&s.Title,
		&s.Description,
		&s.Languages,
		&s.Durations,
		&s.Currency,
		&s.Price,
		&s.ConcessionaryPrice,
		&s.PerHourPrice,
		&s.ConcessionaryPerHourPrice,
		&s.AccessBeforePayment,
		&s.RequireRequestApproval,
		&s.RequireConcessionaryApproval,
		&s.RequireRefundApproval,
		&s.IsPublished,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PeerSessionRepository) Create(ctx context.Context, s *models.PeerSession) error {
	query := `
		INSERT INTO peer_sessions (
			host_id, title, description, languages, durations, currency,
			price, concessionary_price, per_hour_price, concessionary_per_hour_price,
			access_before_payment, require_request_approval, require_concessionary_approval,
			require_refund_approval, is_published
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		s.HostID,
		s.Title,
		s.Description,
		s.Languages,
		s.Durations,
		s.Currency,
		s.Price,
		s.ConcessionaryPrice,
		s.PerHourPrice,
		s.ConcessionaryPerHourPrice,
		s.AccessBeforePayment,
		s.RequireRequestApproval,
		s.RequireConcessionaryApproval,
		s.RequireRefundApproval,
		s.IsPublished,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *PeerSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PeerSession, error) {
	query := `SELECT ` + peerSessionColumns + ` FROM peer_sessions WHERE id = $1`
	return scanPeerSession(r.db.QueryRow(ctx, query, id))
}

// Update writes the mutable columns. The host column is deliberately
// absent; callers guard host immutability before reaching here.
func (r *PeerSessionRepository) Update(ctx context.Context, s *models.PeerSession) error {
	query := `
		UPDATE peer_sessions
		SET title = $2, description = $3, languages = $4, durations = $5,
			currency = $6, price = $7, concessionary_price = $8,
			per_hour_price = $9, concessionary_per_hour_price = $10,
			access_before_payment = $11, require_request_approval = $12,
			require_concessionary_approval = $13, require_refund_approval = $14,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		s.ID,
		s.Title,
		s.Description,
		s.Languages,
		s.Durations,
		s.Currency,
		s.Price,
		s.ConcessionaryPrice,
		s.PerHourPrice,
		s.ConcessionaryPerHourPrice,
		s.AccessBeforePayment,
		s.RequireRequestApproval,
		s.RequireConcessionaryApproval,
		s.RequireRefundApproval,
	).Scan(&s.UpdatedAt)
}

func (r *PeerSessionRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	_, err := r.db.Exec(
		ctx,
		`UPDATE peer_sessions SET is_published = $2, updated_at = NOW() WHERE id = $1`,
		id,
		published,
	)
	return err
}

func (r *PeerSessionRepository) ListByHost(ctx context.Context, hostID int64) ([]models.PeerSession, error) {
	query := `SELECT ` + peerSessionColumns + ` FROM peer_sessions WHERE host_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.PeerSession, 0)
	for rows.Next() {
		s, err := scanPeerSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (r *PeerSessionRepository) ListPublished(ctx context.Context) ([]models.PeerSession, error) {
	query := `SELECT ` + peerSessionColumns + ` FROM peer_sessions WHERE is_published ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.PeerSession, 0)
	for rows.Next() {
		s, err := scanPeerSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

type AvailabilityRepository struct {
	db DBTX
}

func NewAvailabilityRepository(db DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) Create(ctx context.Context, a *models.PeerSessionAvailability) error {
	query := `
		INSERT INTO peer_session_availability (
			session_id, starts_at, ends_at, occurrence, occurrence_starts_at, occurrence_ends_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		a.SessionID,
		a.StartsAt,
		a.EndsAt,
		a.Occurrence,
		a.OccurrenceStartsAt,
		a.OccurrenceEndsAt,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *AvailabilityRepository) ListBySession(
	ctx context.Context,
	sessionID uuid.UUID,
) ([]models.PeerSessionAvailability, error) {
	query := `
		SELECT id, session_id, starts_at, ends_at, occurrence, occurrence_starts_at, occurrence_ends_at, created_at
		FROM peer_session_availability
		WHERE session_id = $1
		ORDER BY starts_at ASC
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make([]models.PeerSessionAvailability, 0)
	for rows.Next() {
		var a models.PeerSessionAvailability
		if err := rows.Scan(
			&a.ID,
			&a.SessionID,
			&a.StartsAt,
			&a.EndsAt,
			&a.Occurrence,
			&a.OccurrenceStartsAt,
			&a.OccurrenceEndsAt,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		windows = append(windows, a)
	}
	return windows, rows.Err()
}

func (r *AvailabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM peer_session_availability WHERE id = $1`, id)
	return err
}

// BookedInterval is an approved request's time range, used by the slot
// resolver to subtract already-booked time.
type BookedInterval struct {
	StartsAt time.Time
	EndsAt   time.Time
}

// ListApprovedFutureIntervals returns the time ranges of all approved
// requests against the session that end after the given instant.
func (r *AvailabilityRepository) ListApprovedFutureIntervals(
	ctx context.Context,
	sessionID uuid.UUID,
	after time.Time,
) ([]BookedInterval, error) {
	query := `
		SELECT starts_at, ends_at
		FROM peer_session_requests
		WHERE session_id = $1 AND status = 'approved' AND ends_at > $2
		ORDER BY starts_at ASC
	`
	rows, err := r.db.Query(ctx, query, sessionID, after)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	intervals := make([]BookedInterval, 0)
	for rows.Next() {
		var interval BookedInterval
		if err := rows.Scan(&interval.StartsAt, &interval.EndsAt); err != nil {
			return nil, err
		}
		intervals = append(intervals, interval)
	}
	return intervals, rows.Err()
}
