package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/repository"
)

type GroupSessionService struct {
	sessionRepo *repository.GroupSessionRepository
	pages       *PageService
	notifier    *Notifier
	logger      *zap.Logger
}

func NewGroupSessionService(
	sessionRepo *repository.GroupSessionRepository,
	pages *PageService,
	notifier *Notifier,
	logger *zap.Logger,
) *GroupSessionService {
	return &GroupSessionService{
		sessionRepo: sessionRepo,
		pages:       pages,
		notifier:    notifier,
		logger:      logger,
	}
}

type GroupSessionInput struct {
	Title                        string
	Description                  *string
	Language                     string
	StartsAt                     time.Time
	EndsAt                       time.Time
	Capacity                     int
	Currency                     string
	Price                        int64
	ConcessionaryPrice           *int64
	AccessBeforePayment          bool
	RequireRequestApproval       bool
	RequireConcessionaryApproval bool
	RequireRefundApproval        bool
}

func (s *GroupSessionService) validate(input GroupSessionInput) (*models.GroupSession, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || input.Capacity < 1 {
		return nil, ErrInvalidInput
	}
	duration := input.EndsAt.Sub(input.StartsAt)
	if duration < models.GroupSessionMinDuration || duration > models.GroupSessionMaxDuration {
		return nil, ErrInvalidInput
	}
	if err := validateSessionPricing(input.Price, input.ConcessionaryPrice); err != nil {
		return nil, err
	}

	session := &models.GroupSession{
		Title:                        title,
		Description:                  input.Description,
		Language:                     strings.TrimSpace(input.Language),
		StartsAt:                     input.StartsAt,
		EndsAt:                       input.EndsAt,
		Capacity:                     input.Capacity,
		Currency:                     strings.ToUpper(strings.TrimSpace(input.Currency)),
		Price:                        input.Price,
		ConcessionaryPrice:           input.ConcessionaryPrice,
		AccessBeforePayment:          input.AccessBeforePayment,
		RequireRequestApproval:       input.RequireRequestApproval,
		RequireConcessionaryApproval: input.RequireConcessionaryApproval,
		RequireRefundApproval:        input.RequireRefundApproval,
	}
	if len(session.Currency) != 3 {
		return nil, ErrInvalidInput
	}
	if session.IsFree() && !session.AccessBeforePayment {
		return nil, ErrInvalidInput
	}
	return session, nil
}

func (s *GroupSessionService) CreateSession(
	ctx context.Context,
	actorID int64,
	role string,
	input GroupSessionInput,
) (*models.GroupSession, error) {
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

func (s *GroupSessionService) GetSession(ctx context.Context, id uuid.UUID) (*models.GroupSession, error) {
	return s.sessionRepo.GetByID(ctx, id)
}

func (s *GroupSessionService) ListByHost(ctx context.Context, hostID int64) ([]models.GroupSession, error) {
	return s.sessionRepo.ListByHost(ctx, hostID)
}

func (s *GroupSessionService) UpdateSession(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
	hostID int64,
	input GroupSessionInput,
) (*models.GroupSession, error) {
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
	updated.MeetingLink = existing.MeetingLink
	updated.IsPublished = existing.IsPublished
	updated.CreatedAt = existing.CreatedAt
	if err := s.sessionRepo.Update(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *GroupSessionService) Publish(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
) (*models.GroupSession, error) {
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

	pageURL, err := s.pages.EnsurePage(ctx, models.SessionKindGroup, session.ID, session.Title)
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

func (s *GroupSessionService) Unpublish(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
) (*models.GroupSession, error) {
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
