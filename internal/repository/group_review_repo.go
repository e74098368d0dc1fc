package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
)

const groupReviewColumns = `
	id, session_id, request_id, attendee_id, rating, content, created_at, updated_at
`

type GroupReviewRepository struct {
	db DBTX
}

func NewGroupReviewRepository(db DBTX) *GroupReviewRepository {
	return &GroupReviewRepository{db: db}
}

func scanGroupReview(row interface{ Scan(dest ...any) error }) (*models.GroupSessionReview, error) {
	var review models.GroupSessionReview
	err := row.Scan(
		&review.ID,
		&review.SessionID,
		&review.RequestID,
		&review.AttendeeID,
		&review.Rating,
		&review.Content,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *GroupReviewRepository) Create(ctx context.Context, review *models.GroupSessionReview) error {
	query := `
		INSERT INTO group_session_reviews (session_id, request_id, attendee_id, rating, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		review.SessionID,
		review.RequestID,
		review.AttendeeID,
		review.Rating,
		review.Content,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
}

func (r *GroupReviewRepository) ListBySession(
	ctx context.Context,
	sessionID uuid.UUID,
) ([]models.GroupSessionReview, error) {
	query := `SELECT ` + groupReviewColumns + ` FROM group_session_reviews WHERE session_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]models.GroupSessionReview, 0)
	for rows.Next() {
		review, err := scanGroupReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}
	return reviews, rows.Err()
}
