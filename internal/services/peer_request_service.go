package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/repository"
)

// refundSucceeded is the processor's terminal status for a completed refund.
const refundSucceeded = "succeeded"

const minRequestDuration = 5 * time.Minute

// advisoryLockKey folds a session id into the bigint keyspace of
// pg_advisory_xact_lock so concurrent bookings against one session
// serialize.
func advisoryLockKey(id uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(id[:])
	return int64(h.Sum64())
}

// PeerRequestAmount computes what the attendee owes for a request, in the
// session currency's minor unit. A granted concession charges the
// concessionary rate; per-hour rates scale with the booked duration and take
// precedence over the flat price. Fractional minor units round to nearest.
func PeerRequestAmount(session *models.PeerSession, req *models.PeerSessionRequest) int64 {
	hours := req.EndsAt.Sub(req.StartsAt).Hours()
	if req.PayConcessionaryPrice && req.ConcessionaryStatus == models.SubStatusApproved {
		if session.ConcessionaryPerHourPrice != nil {
			return int64(math.Round(hours * float64(*session.ConcessionaryPerHourPrice)))
		}
		if session.ConcessionaryPrice != nil {
			return *session.ConcessionaryPrice
		}
		return 0
	}
	if session.PerHourPrice != nil {
		return int64(math.Round(hours * float64(*session.PerHourPrice)))
	}
	return session.Price
}

func amountDisplay(amount int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(amount)/100, currency)
}

type PeerRequestService struct {
	db             *pgxpool.Pool
	sessionRepo    *repository.PeerSessionRepository
	requestRepo    *repository.PeerRequestRepository
	scheduledRepo  *repository.ScheduledSessionRepository
	userRepo       *repository.UserRepository
	stripeAccounts *repository.StripeAccountRepository
	payments       PaymentClient
	pages          *PageService
	notifier       *Notifier
	logger         *zap.Logger
}

func NewPeerRequestService(
	db *pgxpool.Pool,
	sessionRepo *repository.PeerSessionRepository,
	requestRepo *repository.PeerRequestRepository,
	scheduledRepo *repository.ScheduledSessionRepository,
	userRepo *repository.UserRepository,
	stripeAccounts *repository.StripeAccountRepository,
	payments PaymentClient,
	pages *PageService,
	notifier *Notifier,
	logger *zap.Logger,
) *PeerRequestService {
	return &PeerRequestService{
		db:             db,
		sessionRepo:    sessionRepo,
		requestRepo:    requestRepo,
		scheduledRepo:  scheduledRepo,
		userRepo:       userRepo,
		stripeAccounts: stripeAccounts,
		payments:       payments,
		pages:          pages,
		notifier:       notifier,
		logger:         logger,
	}
}

type CreatePeerRequestInput struct {
	SessionID             uuid.UUID
	StartsAt              time.Time
	EndsAt                time.Time
	PayConcessionaryPrice bool
}

func validRequestDuration(session *models.PeerSession, startsAt, endsAt time.Time) bool {
	duration := endsAt.Sub(startsAt)
	if duration < minRequestDuration {
		return false
	}
	for _, minutes := range session.DurationOptions() {
		if duration == time.Duration(minutes)*time.Minute {
			return true
		}
	}
	return false
}

// CreateRequest books a request against a published session. The insert and
// the overlap check run in one transaction under the session's advisory
// lock, so two racing requests for the same interval cannot both be
// approved. Without request approval configured the request is approved
// immediately and its scheduled session created.
func (s *PeerRequestService) CreateRequest(
	ctx context.Context,
	attendeeID int64,
	role string,
	input CreatePeerRequestInput,
) (*models.PeerSessionRequest, error) {
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
	if !input.EndsAt.After(input.StartsAt) || input.StartsAt.Before(time.Now()) {
		return nil, ErrInvalidInput
	}
	if !validRequestDuration(session, input.StartsAt, input.EndsAt) {
		return nil, ErrInvalidInput
	}

	request := &models.PeerSessionRequest{
		SessionID:             input.SessionID,
		AttendeeID:            attendeeID,
		StartsAt:              input.StartsAt,
		EndsAt:                input.EndsAt,
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

	txRequests := repository.NewPeerRequestRepository(tx)
	overlap, err := txRequests.HasApprovedOverlap(
		ctx, session.ID, attendeeID, input.StartsAt, input.EndsAt, uuid.Nil,
	)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrConflict
	}
	if err := txRequests.Create(ctx, request); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	if request.Status == models.RequestStatusApproved {
		if _, err := repository.NewScheduledSessionRepository(tx).Create(ctx, request.ID); err != nil {
			return nil, err
		}
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

func (s *PeerRequestService) GetRequest(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
) (*models.PeerSessionRequest, error) {
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
	return request, nil
}

func (s *PeerRequestService) ListBySession(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID uuid.UUID,
) ([]models.PeerSessionRequest, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canManageSession(role, actorID, session.HostID) {
		return nil, ErrForbidden
	}
	return s.requestRepo.ListBySession(ctx, sessionID)
}

func (s *PeerRequestService) ListMine(ctx context.Context, attendeeID int64) ([]models.PeerSessionRequest, error) {
	return s.requestRepo.ListByAttendee(ctx, attendeeID)
}

// Approve moves a pending request to approved and creates its scheduled
// session. The status flip is conditional on the current status, so a
// concurrent approval or withdrawal surfaces as ErrInvalidStateTransition.
func (s *PeerRequestService) Approve(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
) (*models.PeerSessionRequest, error) {
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

	txRequests := repository.NewPeerRequestRepository(tx)
	overlap, err := txRequests.HasApprovedOverlap(
		ctx, session.ID, request.AttendeeID, request.StartsAt, request.EndsAt, request.ID,
	)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrConflict
	}

	updated, err := txRequests.UpdateStatus(
		ctx, id, models.RequestStatusPending, models.RequestStatusApproved, nil,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	if _, err := repository.NewScheduledSessionRepository(tx).Create(ctx, id); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.notifier.RequestApproved(ctx, updated.AttendeeID, session.Title, s.sessionPageURL(ctx, session.ID))
	return updated, nil
}

func (s *PeerRequestService) Reject(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
	message *string,
) (*models.PeerSessionRequest, error) {
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

func (s *PeerRequestService) ApproveConcession(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
	granted bool,
) (*models.PeerSessionRequest, error) {
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
	if !request.PayConcessionaryPrice || request.ConcessionaryStatus != models.SubStatusPending {
		return nil, ErrInvalidStateTransition
	}

	next := models.SubStatusRejected
	if granted {
		next = models.SubStatusApproved
	}
	if err := s.requestRepo.UpdateConcessionaryStatus(ctx, id, next); err != nil {
		return nil, err
	}
	request.ConcessionaryStatus = next
	return request, nil
}

// Withdraw revokes a pending or approved request. If a payment exists and
// has not been refunded, the refund is either processed immediately or, when
// the session requires refund approval, parked pending the host's decision.
// A processor failure leaves the refund state untouched and is reported as
// ErrPaymentFailed alongside the withdrawn request.
func (s *PeerRequestService) Withdraw(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
) (*models.PeerSessionRequest, error) {
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

// RequestRefund lets the attendee ask for their money back outside a
// withdrawal, for example after a no-show.
func (s *PeerRequestService) RequestRefund(
	ctx context.Context,
	attendeeID int64,
	id uuid.UUID,
) (*models.PeerSessionRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.AttendeeID != attendeeID {
		return nil, ErrForbidden
	}
	if request.PaymentID == nil {
		return nil, ErrNoPayment
	}
	if request.Refunded {
		return nil, ErrAlreadyRefunded
	}
	session, err := s.sessionRepo.GetByID(ctx, request.SessionID)
	if err != nil {
		return nil, err
	}

	if session.RequireRefundApproval {
		if err := s.requestRepo.SetRefundPending(ctx, id); err != nil {
			return nil, err
		}
		request.RefundStatus = models.SubStatusPending
		s.notifier.RefundRequested(ctx, session.HostID, session.Title, s.sessionPageURL(ctx, session.ID))
		return request, nil
	}
	if err := s.processRefund(ctx, request, session); err != nil {
		return request, err
	}
	return request, nil
}

// ApproveRefund processes a refund the attendee is waiting on. Only refunds
// in the pending sub-state can be approved.
func (s *PeerRequestService) ApproveRefund(
	ctx context.Context,
	actorID int64,
	role string,
	id uuid.UUID,
) (*models.PeerSessionRequest, error) {
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

func (s *PeerRequestService) processRefund(
	ctx context.Context,
	request *models.PeerSessionRequest,
	session *models.PeerSession,
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

// Pay creates a hosted checkout link for an approved request and records
// the payment identifier against it.
func (s *PeerRequestService) Pay(
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
	amount := PeerRequestAmount(session, request)
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

func (s *PeerRequestService) sessionPageURL(ctx context.Context, sessionID uuid.UUID) *string {
	url, err := s.pages.PublicURL(ctx, models.SessionKindPeer, sessionID)
	if err != nil || url == "" {
		return nil
	}
	return &url
}

func (s *PeerRequestService) displayName(ctx context.Context, userID int64) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "A support seeker"
	}
	return user.Username
}
