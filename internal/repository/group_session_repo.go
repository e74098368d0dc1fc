package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
)

const groupSessionColumns = `
	id, host_id, title, description, language, starts_at, ends_at, capacity,
	currency, price, concessionary_price, access_before_payment,
	require_request_approval, require_concessionary_approval, require_refund_approval,
	meeting_link, is_published, reminder_1d_sent_at, reminder_1h_sent_at,
	created_at, updated_at
`

type GroupSessionRepository struct {
	db DBTX
}

func NewGroupSessionRepository(db DBTX) *GroupSessionRepository {
	return &GroupSessionRepository{db: db}
}

func scanGroupSession(row interface{ Scan(dest ...any) error }) (*models.GroupSession, error) {
	var s models.GroupSession
	err := row.Scan(
		&s.ID,
		&s.HostID,
		&s.Title,
		&s.Description,
		&s.Language,
		&s.StartsAt,
		&s.EndsAt,
		&s.Capacity,
		&s.Currency,
		&s.Price,
		&s.ConcessionaryPrice,
		&s.AccessBeforePayment,
		&s.RequireRequestApproval,
		&s.RequireConcessionaryApproval,
		&s.RequireRefundApproval,
		&s.MeetingLink,
		&s.IsPublished,
		&s.Reminder1dSentAt,
		&s.Reminder1hSentAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GroupSessionRepository) Create(ctx context.Context, s *models.GroupSession) error {
	query := `
		INSERT INTO group_sessions (
			host_id, title, description, language, starts_at, ends_at, capacity,
			currency, price, concessionary_price, access_before_payment,
			require_request_approval, require_concessionary_approval, require_refund_approval,
			is_published
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
		s.Language,
		s.StartsAt,
		s.EndsAt,
		s.Capacity,
		s.Currency,
		s.Price,
		s.ConcessionaryPrice,
		s.AccessBeforePayment,
		s.RequireRequestApproval,
		s.RequireConcessionaryApproval,
		s.RequireRefundApproval,
		s.IsPublished,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *GroupSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.GroupSession, error) {
	query := `SELECT ` + groupSessionColumns + ` FROM group_sessions WHERE id = $1`
	return scanGroupSession(r.db.QueryRow(ctx, query, id))
}

// Update writes the mutable columns; host is fixed at creation.
func (r *GroupSessionRepository) Update(ctx context.Context, s *models.GroupSession) error {
	query := `
		UPDATE group_sessions
		SET title = $2, description = $3, language = $4, starts_at = $5, ends_at = $6,
			capacity = $7, currency = $8, price = $9, concessionary_price = $10,
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
		s.Language,
		s.StartsAt,
		s.EndsAt,
		s.Capacity,
		s.Currency,
		s.Price,
		s.ConcessionaryPrice,
		s.AccessBeforePayment,
		s.RequireRequestApproval,
		s.RequireConcessionaryApproval,
		s.RequireRefundApproval,
	).Scan(&s.UpdatedAt)
}

func (r *GroupSessionRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	_, err := r.db.Exec(
		ctx,
		`UPDATE group_sessions SET is_published = $2, updated_at = NOW() WHERE id = $1`,
		id,
		published,
	)
	return err
}

func (r *GroupSessionRepository) SetMeetingLink(ctx context.Context, id uuid.UUID, link string) error {
	_, err := r.db.Exec(
		ctx,
		`UPDATE group_sessions SET meeting_link = $2, updated_at = NOW() WHERE id = $1 AND meeting_link IS NULL`,
		id,
		link,
	)
	return err
}

func (r *GroupSessionRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, window string) error {
	column := "reminder_1h_sent_at"
	if window == "1d" {
		column = "reminder_1d_sent_at"
	}
	_, err := r.db.Exec(
		ctx,
		`UPDATE group_sessions SET `+column+` = NOW(), updated_at = NOW() WHERE id = $1`,
		id,
	)
	return err
}

func (r *GroupSessionRepository) ApprovedCount(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM group_session_requests
		WHERE session_id = $1 AND status = 'approved'
	`
	var count int
	if err := r.db.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GroupSessionRepository) ListPublished(ctx context.Context) ([]models.GroupSession, error) {
	query := `SELECT ` + groupSessionColumns + ` FROM group_sessions WHERE is_published ORDER BY starts_at ASC`
	return r.list(ctx, query)
}

func (r *GroupSessionRepository) ListByHost(ctx context.Context, hostID int64) ([]models.GroupSession, error) {
	query := `SELECT ` + groupSessionColumns + ` FROM group_sessions WHERE host_id = $1 ORDER BY starts_at ASC`
	return r.list(ctx, query, hostID)
}

// ListDueWithoutLink returns published group sessions starting inside
// [from, until) that have no meeting link yet.
func (r *GroupSessionRepository) ListDueWithoutLink(
	ctx context.Context,
	from time.Time,
	until time.Time,
) ([]models.GroupSession, error) {
	query := `
		SELECT ` + groupSessionColumns + `
		FROM group_sessions
		WHERE is_published AND meeting_link IS NULL AND starts_at >= $1 AND starts_at < $2
		ORDER BY starts_at ASC
	`
	return r.list(ctx, query, from, until)
}

// ListDueForReminders returns published group sessions starting inside
// [from, until) whose reminder for the window has not been sent.
func (r *GroupSessionRepository) ListDueForReminders(
	ctx context.Context,
	from time.Time,
	until time.Time,
	window string,
) ([]models.GroupSession, error) {
	column := "reminder_1h_sent_at"
	if window == "1d" {
		column = "reminder_1d_sent_at"
	}
	query := `
		SELECT ` + groupSessionColumns + `
		FROM group_sessions
		WHERE is_published AND starts_at >= $1 AND starts_at < $2 AND ` + column + ` IS NULL
		ORDER BY starts_at ASC
	`
	return r.list(ctx, query, from, until)
}

func (r *GroupSessionRepository) list(ctx context.Context, query string, args ...any) ([]models.GroupSession, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.GroupSession, 0)
	for rows.Next() {
		s, err := scanGroupSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}
