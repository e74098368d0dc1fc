package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/repository"
)

// PageService is the boundary to the page layer. The core only tells it to
// ensure a detail page exists for a session; the page layer only answers
// with the session's public URL.
type PageService struct {
	pageRepo *repository.PageRepository
	siteURL  string
}

func NewPageService(pageRepo *repository.PageRepository, siteURL string) *PageService {
	return &PageService{pageRepo: pageRepo, siteURL: strings.TrimRight(siteURL, "/")}
}

// EnsurePage creates (or refreshes) the detail page for a session and
// returns its public URL.
func (s *PageService) EnsurePage(
	ctx context.Context,
	kind string,
	sessionID uuid.UUID,
	title string,
) (string, error) {
	page := &models.SessionPage{
		SessionKind: kind,
		SessionID:   sessionID,
		Slug:        slugify(title, sessionID),
	}
	if err := s.pageRepo.Create(ctx, page); err != nil {
		return "", err
	}
	return s.publicURL(page), nil
}

// PublicURL returns the session's detail page URL, or an empty string when
// no page exists yet.
func (s *PageService) PublicURL(ctx context.Context, kind string, sessionID uuid.UUID) (string, error) {
	page, err := s.pageRepo.GetBySession(ctx, kind, sessionID)
	if err != nil {
		return "", err
	}
	return s.publicURL(page), nil
}

func (s *PageService) publicURL(page *models.SessionPage) string {
	return fmt.Sprintf("%s/sessions/%s", s.siteURL, page.Slug)
}

// slugify lowercases the title, collapses runs of non-alphanumerics into
// single hyphens and suffixes a short id fragment to keep slugs unique.
func slugify(title string, id uuid.UUID) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	short := strings.SplitN(id.String(), "-", 2)[0]
	if slug == "" {
		return short
	}
	return slug + "-" + short
}
