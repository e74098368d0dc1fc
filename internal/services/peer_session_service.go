package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/repository"
)

// Prices are capped at 9,999,999 minor units; higher values need a
// different currency.
const maxPrice = 9_999_999

type PeerSessionService struct {
	sessionRepo *repository.PeerSessionRepository
	pages       *PageService
	notifier    *Notifier
	logger      *zap.Logger
}

func NewPeerSessionService(
	sessionRepo *repository.PeerSessionRepository,
	pages *PageService,
	notifier *Notifier,
	logger *zap.Logger,
) *PeerSessionService {
	return &PeerSessionService{
		sessionRepo: sessionRepo,
		pages:       pages,
		notifier:    notifier,
		logger:      logger,
	}
}

type PeerSessionInput struct {
	Title                        string
	Description                  *string
	Languages                    string
	Durations                    string
	Currency                     string
	Price                        int64
	ConcessionaryPrice           *int64
	PerHourPrice                 *int64
	ConcessionaryPerHourPrice    *int64
	AccessBeforePayment          bool
	RequireRequestApproval       bool
	RequireConcessionaryApproval bool
	RequireRefundApproval        bool
}

func validPrice(p int64) bool {
	return p >= 0 && p <= maxPrice
}

func validateSessionPricing(price int64, optional ...*int64) error {
	if !validPrice(price) {
		return ErrInvalidInput
	}
	for _, p := range optional {
		if p != nil && !validPrice(*p) {
			return ErrInvalidInput
		}
	}
	return nil
}

func (s *PeerSessionService) validate(input PeerSessionInput) (*models.PeerSession, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrInvalidInput
	}
	if err := validateSessionPricing(
		input.Price,
		input.ConcessionaryPrice,
		input.PerHourPrice,
		input.ConcessionaryPerHourPrice,
	); err != nil {
		return nil, err
	}

	session := &models.PeerSession{
		Title:                        title,
		Description:                  input.Description,
		Languages:                    strings.TrimSpace(input.Languages),
		Durations:                    strings.TrimSpace(input.Durations),
		Currency:                     strings.ToUpper(strings.TrimSpace(input.Currency)),
		Price:                        input.Price,
		ConcessionaryPrice:           input.ConcessionaryPrice,
		PerHourPrice:                 input.PerHourPrice,
		ConcessionaryPerHourPrice:    input.ConcessionaryPerHourPrice,
		AccessBeforePayment:          input.AccessBeforePayment,
		RequireRequestApproval:       input.RequireRequestApproval,
		RequireConcessionaryApproval: input.RequireConcessionaryApproval,
		RequireRefundApproval:        input.RequireRefundApproval,
	}
	if len(session.Currency) != 3 {
		return nil, ErrInvalidInput
	}
	if len(session.DurationOptions()) == 0 {
		return nil, ErrInvalidInput
	}
	// A free session can never withhold access pending payment.
	if session.IsFree() && !session.AccessBeforePayment {
		return nil, ErrInvalidInput
	}
	return session, nil
}

func (s *PeerSessionService) CreateSession(
	ctx context.Context,
	actorID int64,
	role string,
	input PeerSessionInput,
) (*models.PeerSession, error) {
	if role != models.RolePeer && role != models.RoleNeuromancer {
		return nil, ErrForbidden
	}
	session, err := s.validate(input)
	if err != nil {
		return nil, err
	}
	session.HostID = actorID
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return session, nil
}

func (s *PeerSessionService) GetSession(ctx context.Context, id uuid.UUID) (*models.PeerSession, error) {
	return s.sessionRepo.GetByID(ctx, id)
}

func (s *PeerSessionService) ListByHost(ctx context.Context, hostID int64) ([]models.PeerSession, error) {
	return s.sessionRepo.ListByHost(ctx, hostID)
}

// UpdateSession rewrites the mutable fields. The host is fixed at creation;
// an attempt to reassign it is rejected with ErrImmutableField rather than
// being silently dropped.
func (s *PeerSessionService) UpdateSession(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
	hostID int64,
	input PeerSessionInput,
) (*models.PeerSession, error) {
	existing, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageSession(role, actorID, existing.HostID) {
		return nil, ErrForbidden
	}
	if hostID != 0 && hostID != existing.HostID {
		return nil, repository.ErrImmutableField
	}

	updated, err := s.validate(input)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.HostID = existing.HostID
	updated.IsPublished = existing.IsPublished
	updated.CreatedAt = existing.CreatedAt
	if err := s.sessionRepo.Update(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Publish makes the session visible, ensures its detail page exists and
// notifies the host. Published (host, title) pairs are unique.
func (s *PeerSessionService) Publish(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
) (*models.PeerSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageSession(role, actorID, session.HostID) {
		return nil, ErrForbidden
	}
	if session.IsFree() && !session.AccessBeforePayment {
		return nil, ErrInvalidInput
	}

	if err := s.sessionRepo.SetPublished(ctx, id, true); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	session.IsPublished = true

	pageURL, err := s.pages.EnsurePage(ctx, models.SessionKindPeer, session.ID, session.Title)
	if err != nil {
		s.logger.Error("failed to create session page",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
	}
	var link *string
	if pageURL != "" {
		link = &pageURL
	}
	s.notifier.SessionPublished(ctx, session.HostID, session.Title, link)
	return session, nil
}

func (s *PeerSessionService) Unpublish(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
) (*models.PeerSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManageSession(role, actorID, session.HostID) {
		return nil, ErrForbidden
	}
	if err := s.sessionRepo.SetPublished(ctx, id, false); err != nil {
		return nil, err
	}
	session.IsPublished = false
	return session, nil
}
