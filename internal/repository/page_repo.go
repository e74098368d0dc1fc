package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
)

type PageRepository struct {
	db DBTX
}

func NewPageRepository(db DBTX) *PageRepository {
	return &PageRepository{db: db}
}

func (r *PageRepository) Create(ctx context.Context, p *models.SessionPage) error {
	query := `
		INSERT INTO session_pages (session_kind, session_id, slug)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_kind, session_id) DO UPDATE SET slug = EXCLUDED.slug
		RETURNING id, created_at
	`
	return r.db.QueryRow(ctx, query, p.SessionKind, p.SessionID, p.Slug).
		Scan(&p.ID, &p.CreatedAt)
}

func (r *PageRepository) GetBySession(
	ctx context.Context,
	kind string,
	sessionID uuid.UUID,
) (*models.SessionPage, error) {
	query := `
		SELECT id, session_kind, session_id, slug, created_at
		FROM session_pages
		WHERE session_kind = $1 AND session_id = $2
	`
	var p models.SessionPage
	err := r.db.QueryRow(ctx, query, kind, sessionID).
		Scan(&p.ID, &p.SessionKind, &p.SessionID, &p.Slug, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
