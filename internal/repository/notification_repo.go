package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
)

type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, subject, body, link_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, read, sent_at
	`
	return r.db.QueryRow(ctx, query, n.UserID, n.Subject, n.Body, n.LinkURL).
		Scan(&n.ID, &n.Read, &n.SentAt)
}

func (r *NotificationRepository) ListByUser(
	ctx context.Context,
	userID int64,
	limit int,
	offset int,
) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, subject, body, link_url, read, sent_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY sent_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Subject, &n.Body, &n.LinkURL, &n.Read, &n.SentAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, userID int64) (bool, error) {
	tag, err := r.db.Exec(
		ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		id,
		userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

type SettingsRepository struct {
	db DBTX
}

func NewSettingsRepository(db DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) GetNotificationSettings(
	ctx context.Context,
	userID int64,
) (*models.NotificationSettings, error) {
	query := `
		SELECT user_id, requested_session, responded_session, cancelled_session,
			session_reminders, payment_made, payment_refunded, updated_at
		FROM notification_settings
		WHERE user_id = $1
	`
	var s models.NotificationSettings
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.UserID,
		&s.RequestedSession,
		&s.RespondedSession,
		&s.CancelledSession,
		&s.SessionReminders,
		&s.PaymentMade,
		&s.PaymentRefunded,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) UpsertNotificationSettings(
	ctx context.Context,
	s *models.NotificationSettings,
) error {
	query := `
		INSERT INTO notification_settings (
			user_id, requested_session, responded_session, cancelled_session,
			session_reminders, payment_made, payment_refunded
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			requested_session = EXCLUDED.requested_session,
			responded_session = EXCLUDED.responded_session,
			cancelled_session = EXCLUDED.cancelled_session,
			session_reminders = EXCLUDED.session_reminders,
			payment_made = EXCLUDED.payment_made,
			payment_refunded = EXCLUDED.payment_refunded,
			updated_at = NOW()
		RETURNING updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		s.UserID,
		s.RequestedSession,
		s.RespondedSession,
		s.CancelledSession,
		s.SessionReminders,
		s.PaymentMade,
		s.PaymentRefunded,
	).Scan(&s.UpdatedAt)
}

func (r *SettingsRepository) GetPeerNotificationSettings(
	ctx context.Context,
	userID int64,
) (*models.PeerNotificationSettings, error) {
	query := `
		SELECT user_id, published_session, session_requested, session_booked,
			session_cancelled, session_reminders, payment_received,
			refund_requested, payment_refunded, updated_at
		FROM peer_notification_settings
		WHERE user_id = $1
	`
	var s models.PeerNotificationSettings
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.UserID,
		&s.PublishedSession,
		&s.SessionRequested,
		&s.SessionBooked,
		&s.SessionCancelled,
		&s.SessionReminders,
		&s.PaymentReceived,
		&s.RefundRequested,
		&s.PaymentRefunded,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) UpsertPeerNotificationSettings(
	ctx context.Context,
	s *models.PeerNotificationSettings,
) error {
	query := `
		INSERT INTO peer_notification_settings (
			user_id, published_session, session_requested, session_booked,
			session_cancelled, session_reminders, payment_received,
			refund_requested, payment_refunded
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			published_session = EXCLUDED.published_session,
			session_requested = EXCLUDED.session_requested,
			session_booked = EXCLUDED.session_booked,
			session_cancelled = EXCLUDED.session_cancelled,
			session_reminders = EXCLUDED.session_reminders,
			payment_received = EXCLUDED.payment_received,
			refund_requested = EXCLUDED.refund_requested,
			payment_refunded = EXCLUDED.payment_refunded,
			updated_at = NOW()
		RETURNING updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		s.UserID,
		s.PublishedSession,
		s.SessionRequested,
		s.SessionBooked,
		s.SessionCancelled,
		s.SessionReminders,
		s.PaymentReceived,
		s.RefundRequested,
		s.PaymentRefunded,
	).Scan(&s.UpdatedAt)
}

func (r *SettingsRepository) GetPeerFilterSettings(
	ctx context.Context,
	userID int64,
) (*models.PeerFilterSettings, error) {
	query := `
		SELECT user_id, filters, updated_at
		FROM peer_filter_settings
		WHERE user_id = $1
	`
	var s models.PeerFilterSettings
	err := r.db.QueryRow(ctx, query, userID).Scan(&s.UserID, &s.Filters, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) UpsertPeerFilterSettings(
	ctx context.Context,
	s *models.PeerFilterSettings,
) error {
	query := `
		INSERT INTO peer_filter_settings (user_id, filters)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			filters = EXCLUDED.filters,
			updated_at = NOW()
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, s.UserID, s.Filters).Scan(&s.UpdatedAt)
}

func (r *SettingsRepository) GetPeerPrivacySettings(
	ctx context.Context,
	userID int64,
) (*models.PeerPrivacySettings, error) {
	query := `
		SELECT user_id, show_calendar, show_peer_session_details, updated_at
		FROM peer_privacy_settings
		WHERE user_id = $1
	`
	var s models.PeerPrivacySettings
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.UserID,
		&s.ShowCalendar,
		&s.ShowPeerSessionDetails,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SettingsRepository) UpsertPeerPrivacySettings(
	ctx context.Context,
	s *models.PeerPrivacySettings,
) error {
	query := `
		INSERT INTO peer_privacy_settings (user_id, show_calendar, show_peer_session_details)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			show_calendar = EXCLUDED.show_calendar,
			show_peer_session_details = EXCLUDED.show_peer_session_details,
			updated_at = NOW()
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query, s.UserID, s.ShowCalendar, s.ShowPeerSessionDetails).
		Scan(&s.UpdatedAt)
}
