package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
)

const groupRequestColumns = `
	id, session_id, attendee_id, status, rejection_message,
	pay_concessionary_price, concessionary_status, refund_status, refunded,
	payment_id, created_at, updated_at
`

type GroupRequestRepository struct {
	db DBTX
}

func NewGroupRequestRepository(db DBTX) *GroupRequestRepository {
	return &GroupRequestRepository{db: db}
}

func scanGroupRequest(row interface{ Scan(dest ...any) error }) (*models.GroupSessionRequest, error) {
	var req models.GroupSessionRequest
	err := row.Scan(
		&req.ID,
		&req.SessionID,
		&req.AttendeeID,
		&req.Status,
		&req.RejectionMessage,
		&req.PayConcessionaryPrice,
		&req.ConcessionaryStatus,
		&req.RefundStatus,
		&req.Refunded,
		&req.PaymentID,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *GroupRequestRepository) Create(ctx context.Context, req *models.GroupSessionRequest) error {
	query := `
		INSERT INTO group_session_requests (
			session_id, attendee_id, status, pay_concessionary_price, concessionary_status
		)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, refund_status, refunded, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		req.SessionID,
		req.AttendeeID,
		req.Status,
		req.PayConcessionaryPrice,
		req.ConcessionaryStatus,
	).Scan(&req.ID, &req.RefundStatus, &req.Refunded, &req.CreatedAt, &req.UpdatedAt)
}

func (r *GroupRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GroupSessionRequest, error) {
	query := `SELECT ` + groupRequestColumns + ` FROM group_session_requests WHERE id = $1`
	return scanGroupRequest(r.db.QueryRow(ctx, query, id))
}

func (r *GroupRequestRepository) GetBySessionAndAttendee(
	ctx context.Context,
	sessionID uuid.UUID,
	attendeeID int64,
) (*models.GroupSessionRequest, error) {
	query := `SELECT ` + groupRequestColumns + ` FROM group_session_requests WHERE session_id = $1 AND attendee_id = $2`
	return scanGroupRequest(r.db.QueryRow(ctx, query, sessionID, attendeeID))
}

func (r *GroupRequestRepository) ListBySession(
	ctx context.Context,
	sessionID uuid.UUID,
) ([]models.GroupSessionRequest, error) {
	query := `SELECT ` + groupRequestColumns + ` FROM group_session_requests WHERE session_id = $1 ORDER BY created_at ASC`
	return r.list(ctx, query, sessionID)
}

func (r *GroupRequestRepository) ListByAttendee(
	ctx context.Context,
	attendeeID int64,
) ([]models.GroupSessionRequest, error) {
	query := `SELECT ` + groupRequestColumns + ` FROM group_session_requests WHERE attendee_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, attendeeID)
}

func (r *GroupRequestRepository) list(ctx context.Context, query string, args ...any) ([]models.GroupSessionRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.GroupSessionRequest, 0)
	for rows.Next() {
		req, err := scanGroupRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func (r *GroupRequestRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	currentStatus string,
	nextStatus string,
	rejectionMessage *string,
) (*models.GroupSessionRequest, error) {
	query := `
		UPDATE group_session_requests
		SET status = $3, rejection_message = COALESCE($4, rejection_message), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + groupRequestColumns
	return scanGroupRequest(r.db.QueryRow(ctx, query, id, currentStatus, nextStatus, rejectionMessage))
}

func (r *GroupRequestRepository) SetRefundPending(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(
		ctx,
		`UPDATE group_session_requests SET refund_status = 'pending', updated_at = NOW() WHERE id = $1`,
		id,
	)
	return err
}

func (r *GroupRequestRepository) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(
		ctx,
		`UPDATE group_session_requests SET refunded = TRUE, refund_status = 'approved', updated_at = NOW() WHERE id = $1`,
		id,
	)
	return err
}

func (r *GroupRequestRepository) SetPaymentID(ctx context.Context, id uuid.UUID, paymentID string) error {
	_, err := r.db.Exec(
		ctx,
		`UPDATE group_session_requests SET payment_id = $2, updated_at = NOW() WHERE id = $1`,
		id,
		paymentID,
	)
	return err
}
