package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/repository"
)

// GroupRequestAmount computes what the attendee owes to join a group
// session, in the session currency's minor unit.
func GroupRequestAmount(session *models.GroupSession, req *models.GroupSessionRequest) int64 {
	if req.PayConcessionaryPrice && req.ConcessionaryStatus == models.SubStatusApproved {
		if session.ConcessionaryPrice != nil {
			return *session.ConcessionaryPrice
		}
		return 0
	}
	return session.Price
}

type GroupRequestService struct {
	db             *pgxpool.Pool
	sessionRepo    *repository.GroupSessionRepository
	requestRepo    *repository.GroupRequestRepository
	userRepo       *repository.UserRepository
	stripeAccounts *repository.StripeAccountRepository
	payments       PaymentClient
	pages          *PageService
	notifier       *Notifier
	logger         *zap.Logger
}

func NewGroupRequestService(
	db *pgxpool.Pool,
	sessionRepo *repository.GroupSessionRepository,
	requestRepo *repository.GroupRequestRepository,
	userRepo *repository.UserRepository,
	stripeAccounts *repository.StripeAccountRepository,
	payments PaymentClient,
	pages *PageService,
	notifier *Notifier,
	logger *zap.Logger,
) *GroupRequestService {
	return &GroupRequestService{
		db:             db,
		sessionRepo:    sessionRepo,
		requestRepo:    requestRepo,
		userRepo:       userRepo,
		stripeAccounts: stripeAccounts,
		payments:       payments,
		pages:          pages,
		notifier:       notifier,
		logger:         logger,
	}
}

type JoinGroupSessionInput struct {
	SessionID             uuid.UUID
	PayConcessionaryPrice bool
}

// Join requests a place in a group session. The capacity check and the
// insert run under the session's advisory lock so a full session cannot
// admit two racing joiners past its capacity.
func (s *GroupRequestService) Join(
	ctx context.Context,
	attendeeID int64,
	role string,
	input JoinGroupSessionInput,
) (*models.GroupSessionRequest, error) {
	if role != models.RoleSupportSeeker {
		return nil, ErrForbidden
	}
	session, err := s.sessionRepo.GetByID(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsPublished {
		return nil, ErrSessionNotPublished
	}

	request := &models.GroupSessionRequest{
		SessionID:             input.SessionID,
		AttendeeID:            attendeeID,
		Status:                models.RequestStatusPending,
		PayConcessionaryPrice: input.PayConcessionaryPrice,
		ConcessionaryStatus:   models.SubStatusPending,
	}
	if !session.RequireRequestApproval {
		request.Status = models.RequestStatusApproved
	}
	if input.PayConcessionaryPrice && !session.RequireConcessionaryApproval {
		request.ConcessionaryStatus = models.SubStatusApproved
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey(session.ID)); err != nil {
		return nil, err
	}

	if request.Status == models.RequestStatusApproved {
		count, err := repository.NewGroupSessionRepository(tx).ApprovedCount(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		if count >= session.Capacity {
			return nil, ErrCapacityFull
		}
	}
	if err := repository.NewGroupRequestRepository(tx).Create(ctx, request); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	pageURL := s.sessionPageURL(ctx, session.ID)
	s.notifier.SessionRequested(ctx, session.HostID, s.displayName(ctx, attendeeID), session.Title, pageURL)
	if request.Status == models.RequestStatusApproved {
		s.notifier.RequestApproved(ctx, attendeeID, session.Title, pageURL)
	}
	return request, nil
}

func (s *GroupRequestService) ListBySession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID uuid.UUID,
) ([]models.GroupSessionRequest, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canManageSession(role, actorID, session.HostID) {
		return nil, ErrForbidden
	}
	return s.requestRepo.ListBySession(ctx, sessionID)
}

func (s *GroupRequestService) ListMine(ctx context.Context, attendeeID int64) ([]models.GroupSessionRequest, error) {
	return s.requestRepo.ListByAttendee(ctx, attendeeID)
}

// Approve admits a pending attendee. Capacity is re-checked under the
// session's advisory lock before the status flips.
func (s *GroupRequestService) Approve(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
) (*models.GroupSessionRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	session, err := s.sessionRepo.GetByID(ctx, request.SessionID)
	if err != nil {
		return nil, err
	}
	if !canManageSession(role, actorID, session.HostID) {
		return nil, ErrForbidden
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey(session.ID)); err != nil {
		return nil, err
	}

	count, err := repository.NewGroupSessionRepository(tx).ApprovedCount(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if count >= session.Capacity {
		return nil, ErrCapacityFull
	}

	updated, err := repository.NewGroupRequestRepository(tx).UpdateStatus(
		ctx, id, models.RequestStatusPending, models.RequestStatusApproved, nil,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.RequestApproved(ctx, updated.AttendeeID, session.Title, s.sessionPageURL(ctx, session.ID))
	return updated, nil
}

func (s *GroupRequestService) Reject(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
	message *string,
) (*models.GroupSessionRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	session, err := s.sessionRepo.GetByID(ctx, request.SessionID)
	if err != nil {
		return nil, err
	}
	if !canManageSession(role, actorID, session.HostID) {
		return nil, ErrForbidden
	}

	updated, err := s.requestRepo.UpdateStatus(
		ctx, id, models.RequestStatusPending, models.RequestStatusRejected, message,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	s.notifier.RequestRejected(ctx, updated.AttendeeID, session.Title, message)
	return updated, nil
}

func (s *GroupRequestService) Withdraw(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
) (*models.GroupSessionRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	session, err := s.sessionRepo.GetByID(ctx, request.SessionID)
	if err != nil {
		return nil, err
	}
	if request.AttendeeID != actorID && !canManageSession(role, actorID, session.HostID) {
		return nil, ErrForbidden
	}
	if request.Status != models.RequestStatusPending && request.Status != models.RequestStatusApproved {
		return nil, ErrInvalidStateTransition
	}

	updated, err := s.requestRepo.UpdateStatus(
		ctx, id, request.Status, models.RequestStatusWithdrawn, nil,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.notifier.RequestRevoked(ctx, updated.AttendeeID, session.Title)

	if updated.PaymentID == nil || updated.Refunded {
		return updated, nil
	}
	if session.RequireRefundApproval {
		if err := s.requestRepo.SetRefundPending(ctx, id); err != nil {
			return nil, err
		}
		updated.RefundStatus = models.SubStatusPending
		s.notifier.RefundRequested(ctx, session.HostID, session.Title, s.sessionPageURL(ctx, session.ID))
		return updated, nil
	}
	if err := s.processRefund(ctx, updated, session); err != nil {
		return updated, err
	}
	return updated, nil
}

func (s *GroupRequestService) ApproveRefund(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
) (*models.GroupSessionRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	session, err := s.sessionRepo.GetByID(ctx, request.SessionID)
	if err != nil {
		return nil, err
	}
	if !canManageSession(role, actorID, session.HostID) {
		return nil, ErrForbidden
	}
	if request.RefundStatus != models.SubStatusPending {
		return nil, ErrInvalidStateTransition
	}
	if request.PaymentID == nil {
		return nil, ErrNoPayment
	}
	if request.Refunded {
		return nil, ErrAlreadyRefunded
	}
	if err := s.processRefund(ctx, request, session); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *GroupRequestService) processRefund(
	ctx context.Context,
	request *models.GroupSessionRequest,
	session *models.GroupSession,
) error {
	status, err := s.payments.Refund(ctx, *request.PaymentID)
	if err != nil {
		s.logger.Error("refund failed",
			zap.String("request_id", request.ID.String()),
			zap.Error(err))
		return ErrPaymentFailed
	}
	if status != refundSucceeded {
		s.logger.Warn("refund not completed",
			zap.String("request_id", request.ID.String()),
			zap.String("status", status))
		return ErrPaymentFailed
	}
	if err := s.requestRepo.MarkRefunded(ctx, request.ID); err != nil {
		return err
	}
	request.Refunded = true
	request.RefundStatus = models.SubStatusApproved
	s.notifier.RefundApproved(ctx, request.AttendeeID, session.Title)
	return nil
}

func (s *GroupRequestService) Pay(
	ctx context.Context,
	attendeeID int64,
	id uuid.UUID,
) (string, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if request.AttendeeID != attendeeID {
		return "", ErrForbidden
	}
	if request.Status != models.RequestStatusApproved {
		return "", ErrInvalidStateTransition
	}
	if request.PaymentID != nil {
		return "", ErrConflict
	}
	session, err := s.sessionRepo.GetByID(ctx, request.SessionID)
	if err != nil {
		return "", err
	}
	amount := GroupRequestAmount(session, request)
	if amount <= 0 {
		return "", ErrInvalidInput
	}

	var destination string
	account, err := s.stripeAccounts.GetByUserID(ctx, session.HostID)
	if err == nil {
		destination = account.AccountID
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	link, err := s.payments.CreatePaymentLink(ctx, PaymentLinkInput{
		Amount:             amount,
		Currency:           session.Currency,
		DestinationAccount: destination,
		Metadata: map[string]string{
			"request_id":    request.ID.String(),
			"session_title": session.Title,
		},
	})
	if err != nil {
		s.logger.Error("payment link creation failed",
			zap.String("request_id", request.ID.String()),
			zap.Error(err))
		return "", ErrPaymentFailed
	}
	if err := s.requestRepo.SetPaymentID(ctx, id, link.ID); err != nil {
		return "", err
	}

	display := amountDisplay(amount, session.Currency)
	s.notifier.PaymentMade(ctx, attendeeID, session.Title, display)
	s.notifier.PaymentReceived(ctx, session.HostID, session.Title, display)
	return link.URL, nil
}

func (s *GroupRequestService) sessionPageURL(ctx context.Context, sessionID uuid.UUID) *string {
	url, err := s.pages.PublicURL(ctx, models.SessionKindGroup, sessionID)
	if err != nil || url == "" {
		return nil
	}
	return &url
}

func (s *GroupRequestService) displayName(ctx context.Context, userID int64) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "A support seeker"
	}
	return user.Username
}
