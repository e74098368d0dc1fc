package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/repository"
)

type ReviewService struct {
	sessionRepo *repository.GroupSessionRepository
	requestRepo *repository.GroupRequestRepository
	reviewRepo  *repository.GroupReviewRepository
	logger      *zap.Logger
}

func NewReviewService(
	sessionRepo *repository.GroupSessionRepository,
	requestRepo *repository.GroupRequestRepository,
	reviewRepo *repository.GroupReviewRepository,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		sessionRepo: sessionRepo,
		requestRepo: requestRepo,
		reviewRepo:  reviewRepo,
		logger:      logger,
	}
}

type CreateReviewInput struct {
	SessionID uuid.UUID
	Rating    int
	Content   string
}

func validReviewInput(input CreateReviewInput) bool {
	if input.Rating < models.ReviewMinRating || input.Rating > models.ReviewMaxRating {
		return false
	}
	return strings.TrimSpace(input.Content) != ""
}

// CreateReview records an attendee's review of a group session they were
// approved for. Reviews open once the session has ended; one per attendee
// per session.
func (s *ReviewService) CreateReview(
	ctx context.Context,
	attendeeID int64,
	role string,
	input CreateReviewInput,
) (*models.GroupSessionReview, error) {
	if role != models.RoleSupportSeeker {
		return nil, ErrForbidden
	}
	if !validReviewInput(input) {
		return nil, ErrInvalidInput
	}
	session, err := s.sessionRepo.GetByID(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if session.EndsAt.After(time.Now()) {
		return nil, ErrInvalidStateTransition
	}
	request, err := s.requestRepo.GetBySessionAndAttendee(ctx, input.SessionID, attendeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	if request.Status != models.RequestStatusApproved {
		return nil, ErrForbidden
	}

	review := &models.GroupSessionReview{
		SessionID:  input.SessionID,
		RequestID:  request.ID,
		AttendeeID: attendeeID,
		Rating:     input.Rating,
		Content:    strings.TrimSpace(input.Content),
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	s.logger.Info("group session reviewed",
		zap.String("session_id", session.ID.String()),
		zap.Int("rating", review.Rating))
	return review, nil
}

// ListBySession returns the session's reviews, newest first.
func (s *ReviewService) ListBySession(
	ctx context.Context,
	sessionID uuid.UUID,
) ([]models.GroupSessionReview, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.reviewRepo.ListBySession(ctx, sessionID)
}
