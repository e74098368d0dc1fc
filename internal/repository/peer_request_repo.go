package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
)

const peerRequestColumns = `
	id, session_id, attendee_id, starts_at, ends_at, status, rejection_message,
	pay_concessionary_price, concessionary_status, refund_status, refunded,
	payment_id, reminder_1d_sent_at, reminder_1h_sent_at, created_at, updated_at
`

type PeerRequestRepository struct {
	db DBTX
}

func NewPeerRequestRepository(db DBTX) *PeerRequestRepository {
	return &PeerRequestRepository{db: db}
}

func scanPeerRequest(row interface{ Scan(dest ...any) error }) (*models.PeerSessionRequest, error) {
	var req models.PeerSessionRequest
	err := row.Scan(
		&req.ID,
		&req.SessionID,
		&req.AttendeeID,
		&req.StartsAt,
		&req.EndsAt,
		&req.Status,
		&req.RejectionMessage,
		&req.PayConcessionaryPrice,
		&req.ConcessionaryStatus,
		&req.RefundStatus,
		&req.Refunded,
		&req.PaymentID,
		&req.Reminder1dSentAt,
		&req.Reminder1hSentAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *PeerRequestRepository) Create(ctx context.Context, req *models.PeerSessionRequest) error {
	query := `
		INSERT INTO peer_session_requests (
			session_id, attendee_id, starts_at, ends_at, status,
			pay_concessionary_price, concessionary_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, refund_status, refunded, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		req.SessionID,
		req.AttendeeID,
		req.StartsAt,
		req.EndsAt,
		req.Status,
		req.PayConcessionaryPrice,
		req.ConcessionaryStatus,
	).Scan(&req.ID, &req.RefundStatus, &req.Refunded, &req.CreatedAt, &req.UpdatedAt)
}

func (r *PeerRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PeerSessionRequest, error) {
	query := `SELECT ` + peerRequestColumns + ` FROM peer_session_requests WHERE id = $1`
	return scanPeerRequest(r.db.QueryRow(ctx, query, id))
}

func (r *PeerRequestRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.PeerSessionRequest, error) {
	query := `SELECT ` + peerRequestColumns + ` FROM peer_session_requests WHERE id = $1 FOR UPDATE`
	return scanPeerRequest(r.db.QueryRow(ctx, query, id))
}

func (r *PeerRequestRepository) ListBySession(
	ctx context.Context,
	sessionID uuid.UUID,
) ([]models.PeerSessionRequest, error) {
	query := `SELECT ` + peerRequestColumns + ` FROM peer_session_requests WHERE session_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, sessionID)
}

func (r *PeerRequestRepository) ListByAttendee(
	ctx context.Context,
	attendeeID int64,
) ([]models.PeerSessionRequest, error) {
	query := `SELECT ` + peerRequestColumns + ` FROM peer_session_requests WHERE attendee_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, attendeeID)
}

func (r *PeerRequestRepository) list(ctx context.Context, query string, args ...any) ([]models.PeerSessionRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.PeerSessionRequest, 0)
	for rows.Next() {
		req, err := scanPeerRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// HasApprovedOverlap reports whether the attendee already holds an approved
// request against the session overlapping [startsAt, endsAt). Callers run
// this under the session's advisory lock before inserting or approving.
func (r *PeerRequestRepository) HasApprovedOverlap(
	ctx context.Context,
	sessionID uuid.UUID,
	attendeeID int64,
	startsAt time.Time,
	endsAt time.Time,
	excludeID uuid.UUID,
) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM peer_session_requests
			WHERE session_id = $1
			  AND attendee_id = $2
			  AND id <> $5
			  AND status = 'approved'
			  AND starts_at < $4
			  AND ends_at > $3
		)
	`
	var overlap bool
	if err := r.db.QueryRow(ctx, query, sessionID, attendeeID, startsAt, endsAt, excludeID).Scan(&overlap); err != nil {
		return false, err
	}
	return overlap, nil
}

func (r *PeerRequestRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	currentStatus string,
	nextStatus string,
	rejectionMessage *string,
) (*models.PeerSessionRequest, error) {
	query := `
		UPDATE peer_session_requests
		SET status = $3, rejection_message = COALESCE($4, rejection_message), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + peerRequestColumns
	return scanPeerRequest(r.db.QueryRow(ctx, query, id, currentStatus, nextStatus, rejectionMessage))
}

func (r *PeerRequestRepository) UpdateConcessionaryStatus(
	ctx context.Context,
	id uuid.UUID,
	status string,
) error {
	_, err := r.db.Exec(
		ctx,
		`UPDATE peer_session_requests SET concessionary_status = $2, updated_at = NOW() WHERE id = $1`,
		id,
		status,
	)
	return err
}

func (r *PeerRequestRepository) SetRefundPending(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(
		ctx,
		`UPDATE peer_session_requests SET refund_status = 'pending', updated_at = NOW() WHERE id = $1`,
		id,
	)
	return err
}

func (r *PeerRequestRepository) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(
		ctx,
		`UPDATE peer_session_requests SET refunded = TRUE, refund_status = 'approved', updated_at = NOW() WHERE id = $1`,
		id,
	)
	return err
}

func (r *PeerRequestRepository) SetPaymentID(ctx context.Context, id uuid.UUID, paymentID string) error {
	_, err := r.db.Exec(
		ctx,
		`UPDATE peer_session_requests SET payment_id = $2, updated_at = NOW() WHERE id = $1`,
		id,
		paymentID,
	)
	return err
}

func (r *PeerRequestRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, window string) error {
	column := "reminder_1h_sent_at"
	if window == "1d" {
		column = "reminder_1d_sent_at"
	}
	_, err := r.db.Exec(
		ctx,
		`UPDATE peer_session_requests SET `+column+` = NOW(), updated_at = NOW() WHERE id = $1`,
		id,
	)
	return err
}

// ReminderCandidate joins an approved future request with its session title
// and participants for reminder and meeting-link generation.
type ReminderCandidate struct {
	Request      models.PeerSessionRequest
	SessionTitle string
	HostID       int64
	MeetingLink  *string
}

// ListDueForReminders returns approved requests against published sessions
// starting inside [from, until) whose reminder for the window has not been
// sent yet.
func (r *PeerRequestRepository) ListDueForReminders(
	ctx context.Context,
	from time.Time,
	until time.Time,
	window string,
) ([]ReminderCandidate, error) {
	column := "reminder_1h_sent_at"
	if window == "1d" {
		column = "reminder_1d_sent_at"
	}
	query := `
		SELECT ` + prefixedPeerRequestColumns + `, s.title, s.host_id, ss.meeting_link
		FROM peer_session_requests r
		JOIN peer_sessions s ON s.id = r.session_id
		LEFT JOIN peer_scheduled_sessions ss ON ss.request_id = r.id
		WHERE r.status = 'approved'
		  AND s.is_published
		  AND r.starts_at >= $1
		  AND r.starts_at < $2
		  AND r.` + column + ` IS NULL
		ORDER BY r.starts_at ASC
	`
	rows, err := r.db.Query(ctx, query, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]ReminderCandidate, 0)
	for rows.Next() {
		var c ReminderCandidate
		if err := rows.Scan(
			&c.Request.ID,
			&c.Request.SessionID,
			&c.Request.AttendeeID,
			&c.Request.StartsAt,
			&c.Request.EndsAt,
			&c.Request.Status,
			&c.Request.RejectionMessage,
			&c.Request.PayConcessionaryPrice,
			&c.Request.ConcessionaryStatus,
			&c.Request.RefundStatus,
			&c.Request.Refunded,
			&c.Request.PaymentID,
			&c.Request.Reminder1dSentAt,
			&c.Request.Reminder1hSentAt,
			&c.Request.CreatedAt,
			&c.Request.UpdatedAt,
			&c.SessionTitle,
			&c.HostID,
			&c.MeetingLink,
		); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// ListApprovedWithoutLink returns approved requests starting inside
// [from, until) whose scheduled session exists but has no meeting link yet.
func (r *PeerRequestRepository) ListApprovedWithoutLink(
	ctx context.Context,
	from time.Time,
	until time.Time,
) ([]ReminderCandidate, error) {
	query := `
		SELECT ` + prefixedPeerRequestColumns + `, s.title, s.host_id, ss.meeting_link
		FROM peer_session_requests r
		JOIN peer_sessions s ON s.id = r.session_id
		JOIN peer_scheduled_sessions ss ON ss.request_id = r.id
		WHERE r.status = 'approved'
		  AND ss.meeting_link IS NULL
		  AND r.starts_at >= $1
		  AND r.starts_at < $2
		ORDER BY r.starts_at ASC
	`
	rows, err := r.db.Query(ctx, query, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]ReminderCandidate, 0)
	for rows.Next() {
		var c ReminderCandidate
		if err := rows.Scan(
			&c.Request.ID,
			&c.Request.SessionID,
			&c.Request.AttendeeID,
			&c.Request.StartsAt,
			&c.Request.EndsAt,
			&c.Request.Status,
			&c.Request.RejectionMessage,
			&c.Request.PayConcessionaryPrice,
			&c.Request.ConcessionaryStatus,
			&c.Request.RefundStatus,
			&c.Request.Refunded,
			&c.Request.PaymentID,
			&c.Request.Reminder1dSentAt,
			&c.Request.Reminder1hSentAt,
			&c.Request.CreatedAt,
			&c.Request.UpdatedAt,
			&c.SessionTitle,
			&c.HostID,
			&c.MeetingLink,
		); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

const prefixedPeerRequestColumns = `
	r.id, r.session_id, r.attendee_id, r.starts_at, r.ends_at, r.status, r.rejection_message,
	r.pay_concessionary_price, r.concessionary_status, r.refund_status, r.refunded,
	r.payment_id, r.reminder_1d_sent_at, r.reminder_1h_sent_at, r.created_at, r.updated_at
`

type ScheduledSessionRepository struct {
	db DBTX
}

func NewScheduledSessionRepository(db DBTX) *ScheduledSessionRepository {
	return &ScheduledSessionRepository{db: db}
}

func (r *ScheduledSessionRepository) Create(ctx context.Context, requestID uuid.UUID) (*models.PeerScheduledSession, error) {
	query := `
		INSERT INTO peer_scheduled_sessions (request_id)
		VALUES ($1)
		ON CONFLICT (request_id) DO NOTHING
		RETURNING id, request_id, meeting_link, created_at
	`
	var s models.PeerScheduledSession
	err := r.db.QueryRow(ctx, query, requestID).Scan(&s.ID, &s.RequestID, &s.MeetingLink, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ScheduledSessionRepository) GetByRequestID(ctx context.Context, requestID uuid.UUID) (*models.PeerScheduledSession, error) {
	query := `
		SELECT id, request_id, meeting_link, created_at
		FROM peer_scheduled_sessions
		WHERE request_id = $1
	`
	var s models.PeerScheduledSession
	err := r.db.QueryRow(ctx, query, requestID).Scan(&s.ID, &s.RequestID, &s.MeetingLink, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ScheduledSessionRepository) SetMeetingLink(ctx context.Context, requestID uuid.UUID, link string) error {
	_, err := r.db.Exec(
		ctx,
		`UPDATE peer_scheduled_sessions SET meeting_link = $2 WHERE request_id = $1 AND meeting_link IS NULL`,
		requestID,
		link,
	)
	return err
}
