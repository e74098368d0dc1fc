package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/repository"
)

// Reminder windows. Each window is marked sent per request or session, so
// a rerun over the same interval never duplicates a reminder.
const (
	Window1d = "1d"
	Window1h = "1h"
)

// Meeting links are generated this far ahead of the session start, so the
// one-hour reminder already carries the link.
const meetingLinkLead = time.Hour

type peerReminderSource interface {
	ListDueForReminders(ctx context.Context, from, until time.Time, window string) ([]repository.ReminderCandidate, error)
	ListApprovedWithoutLink(ctx context.Context, from, until time.Time) ([]repository.ReminderCandidate, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, window string) error
}

type scheduledLinkStore interface {
	SetMeetingLink(ctx context.Context, requestID uuid.UUID, link string) error
}

type groupReminderSource interface {
	ListDueWithoutLink(ctx context.Context, from, until time.Time) ([]models.GroupSession, error)
	ListDueForReminders(ctx context.Context, from, until time.Time, window string) ([]models.GroupSession, error)
	SetMeetingLink(ctx context.Context, id uuid.UUID, link string) error
	MarkReminderSent(ctx context.Context, id uuid.UUID, window string) error
}

type groupAttendeeSource interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.GroupSessionRequest, error)
}

type reminderNotifier interface {
	SessionReminder(ctx context.Context, userID int64, isHost bool, title, window string, linkURL *string)
}

// ReminderService generates meeting links for imminent sessions and sends
// the one-day and one-hour reminders. All failures are logged and skipped;
// the next run retries anything still due.
type ReminderService struct {
	peerRequests  peerReminderSource
	scheduled     scheduledLinkStore
	groupSessions groupReminderSource
	groupRequests groupAttendeeSource
	meetings      MeetingClient
	notifier      reminderNotifier
	logger        *zap.Logger
}

func NewReminderService(
	peerRequests peerReminderSource,
	scheduled scheduledLinkStore,
	groupSessions groupReminderSource,
	groupRequests groupAttendeeSource,
	meetings MeetingClient,
	notifier reminderNotifier,
	logger *zap.Logger,
) *ReminderService {
	return &ReminderService{
		peerRequests:  peerRequests,
		scheduled:     scheduled,
		groupSessions: groupSessions,
		groupRequests: groupRequests,
		meetings:      meetings,
		notifier:      notifier,
		logger:        logger,
	}
}

// Run executes one scheduler pass as of now. Links are generated before
// reminders so the one-hour reminder includes the room URL.
func (s *ReminderService) Run(ctx context.Context, now time.Time) {
	s.EnsureMeetingLinks(ctx, now)
	s.SendReminders(ctx, now)
}

func (s *ReminderService) EnsureMeetingLinks(ctx context.Context, now time.Time) {
	until := now.Add(meetingLinkLead)

	peerDue, err := s.peerRequests.ListApprovedWithoutLink(ctx, now, until)
	if err != nil {
		s.logger.Error("failed to list peer sessions needing links", zap.Error(err))
	}
	for _, candidate := range peerDue {
		room, err := s.meetings.CreateRoom(
			ctx, candidate.Request.StartsAt, candidate.Request.EndsAt, "peer-session",
		)
		if err != nil {
			s.logger.Error("failed to create meeting room",
				zap.String("request_id", candidate.Request.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.scheduled.SetMeetingLink(ctx, candidate.Request.ID, room.RoomURL); err != nil {
			s.logger.Error("failed to store meeting link",
				zap.String("request_id", candidate.Request.ID.String()),
				zap.Error(err))
		}
	}

	groupDue, err := s.groupSessions.ListDueWithoutLink(ctx, now, until)
	if err != nil {
		s.logger.Error("failed to list group sessions needing links", zap.Error(err))
	}
	for _, session := range groupDue {
		room, err := s.meetings.CreateRoom(ctx, session.StartsAt, session.EndsAt, "group-session")
		if err != nil {
			s.logger.Error("failed to create meeting room",
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.groupSessions.SetMeetingLink(ctx, session.ID, room.RoomURL); err != nil {
			s.logger.Error("failed to store meeting link",
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
		}
	}
}

func (s *ReminderService) SendReminders(ctx context.Context, now time.Time) {
	s.sendWindow(ctx, now, now.Add(24*time.Hour), Window1d)
	s.sendWindow(ctx, now, now.Add(time.Hour), Window1h)
}

func (s *ReminderService) sendWindow(ctx context.Context, from, until time.Time, window string) {
	peerDue, err := s.peerRequests.ListDueForReminders(ctx, from, until, window)
	if err != nil {
		s.logger.Error("failed to list due peer reminders",
			zap.String("window", window),
			zap.Error(err))
	}
	for _, candidate := range peerDue {
		s.notifier.SessionReminder(ctx, candidate.Request.AttendeeID, false, candidate.SessionTitle, window, candidate.MeetingLink)
		s.notifier.SessionReminder(ctx, candidate.HostID, true, candidate.SessionTitle, window, candidate.MeetingLink)
		if err := s.peerRequests.MarkReminderSent(ctx, candidate.Request.ID, window); err != nil {
			s.logger.Error("failed to mark peer reminder sent",
				zap.String("request_id", candidate.Request.ID.String()),
				zap.Error(err))
		}
	}

	groupDue, err := s.groupSessions.ListDueForReminders(ctx, from, until, window)
	if err != nil {
		s.logger.Error("failed to list due group reminders",
			zap.String("window", window),
			zap.Error(err))
	}
	for _, session := range groupDue {
		s.notifier.SessionReminder(ctx, session.HostID, true, session.Title, window, session.MeetingLink)
		requests, err := s.groupRequests.ListBySession(ctx, session.ID)
		if err != nil {
			s.logger.Error("failed to list group attendees",
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
			continue
		}
		for _, request := range requests {
			if request.Status != models.RequestStatusApproved {
				continue
			}
			s.notifier.SessionReminder(ctx, request.AttendeeID, false, session.Title, window, session.MeetingLink)
		}
		if err := s.groupSessions.MarkReminderSent(ctx, session.ID, window); err != nil {
			s.logger.Error("failed to mark group reminder sent",
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
		}
	}
}
