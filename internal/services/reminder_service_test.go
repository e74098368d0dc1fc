package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/repository"
)

type stubPeerReminderSource struct {
	due         map[string][]repository.ReminderCandidate
	withoutLink []repository.ReminderCandidate
	marked      []struct {
		id     uuid.UUID
		window string
	}
}

func (s *stubPeerReminderSource) ListDueForReminders(ctx context.Context, from, until time.Time, window string) ([]repository.ReminderCandidate, error) {
	return s.due[window], nil
}

func (s *stubPeerReminderSource) ListApprovedWithoutLink(ctx context.Context, from, until time.Time) ([]repository.ReminderCandidate, error) {
	return s.withoutLink, nil
}

func (s *stubPeerReminderSource) MarkReminderSent(ctx context.Context, id uuid.UUID, window string) error {
	s.marked = append(s.marked, struct {
		id     uuid.UUID
		window string
	}{id, window})
	return nil
}

type stubScheduledLinkStore struct {
	links map[uuid.UUID]string
}

func (s *stubScheduledLinkStore) SetMeetingLink(ctx context.Context, requestID uuid.UUID, link string) error {
	if s.links == nil {
		s.links = make(map[uuid.UUID]string)
	}
	s.links[requestID] = link
	return nil
}

type stubGroupReminderSource struct {
	due         map[string][]models.GroupSession
	withoutLink []models.GroupSession
	links       map[uuid.UUID]string
	marked      []struct {
		id     uuid.UUID
		window string
	}
}

func (s *stubGroupReminderSource) ListDueWithoutLink(ctx context.Context, from, until time.Time) ([]models.GroupSession, error) {
	return s.withoutLink, nil
}

func (s *stubGroupReminderSource) ListDueForReminders(ctx context.Context, from, until time.Time, window string) ([]models.GroupSession, error) {
	return s.due[window], nil
}

func (s *stubGroupReminderSource) SetMeetingLink(ctx context.Context, id uuid.UUID, link string) error {
	if s.links == nil {
		s.links = make(map[uuid.UUID]string)
	}
	s.links[id] = link
	return nil
}

func (s *stubGroupReminderSource) MarkReminderSent(ctx context.Context, id uuid.UUID, window string) error {
	s.marked = append(s.marked, struct {
		id     uuid.UUID
		window string
	}{id, window})
	return nil
}

type stubGroupAttendeeSource struct {
	requests []models.GroupSessionRequest
}

func (s *stubGroupAttendeeSource) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.GroupSessionRequest, error) {
	return s.requests, nil
}

type stubMeetingClient struct {
	rooms    int
	prefixes []string
	err      error
}

func (s *stubMeetingClient) CreateRoom(ctx context.Context, start, end time.Time, roomPrefix string) (*MeetingRoom, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.rooms++
	s.prefixes = append(s.prefixes, roomPrefix)
	return &MeetingRoom{RoomURL: "https://example.whereby.com/room"}, nil
}

type reminderCall struct {
	userID int64
	isHost bool
	title  string
	window string
}

type stubReminderNotifier struct {
	calls []reminderCall
}

func (s *stubReminderNotifier) SessionReminder(ctx context.Context, userID int64, isHost bool, title, window string, linkURL *string) {
	s.calls = append(s.calls, reminderCall{userID, isHost, title, window})
}

func TestEnsureMeetingLinksCreatesAndStoresRooms(t *testing.T) {
	requestID := mustUUID(t, "11111111-1111-4111-8111-111111111111")
	sessionID := mustUUID(t, "22222222-2222-4222-8222-222222222222")
	now := mustTime(t, "2026-09-08T09:00:00Z")

	peers := &stubPeerReminderSource{withoutLink: []repository.ReminderCandidate{{
		Request: models.PeerSessionRequest{
			ID:       requestID,
			StartsAt: now.Add(30 * time.Minute),
			EndsAt:   now.Add(90 * time.Minute),
		},
	}}}
	scheduled := &stubScheduledLinkStore{}
	groups := &stubGroupReminderSource{withoutLink: []models.GroupSession{{
		ID:       sessionID,
		StartsAt: now.Add(45 * time.Minute),
		EndsAt:   now.Add(105 * time.Minute),
	}}}
	meetings := &stubMeetingClient{}

	service := NewReminderService(peers, scheduled, groups, &stubGroupAttendeeSource{}, meetings, &stubReminderNotifier{}, zap.NewNop())
	service.EnsureMeetingLinks(context.Background(), now)

	if meetings.rooms != 2 {
		t.Fatalf("Expected 2 rooms created, got %d", meetings.rooms)
	}
	if scheduled.links[requestID] == "" {
		t.Errorf("Expected meeting link stored for peer request")
	}
	if groups.links[sessionID] == "" {
		t.Errorf("Expected meeting link stored for group session")
	}
	if len(meetings.prefixes) != 2 || meetings.prefixes[0] != "peer-session" || meetings.prefixes[1] != "group-session" {
		t.Errorf("Unexpected room prefixes %v", meetings.prefixes)
	}
}

func TestEnsureMeetingLinksSkipsFailedRoomCreation(t *testing.T) {
	now := mustTime(t, "2026-09-08T09:00:00Z")
	peers := &stubPeerReminderSource{withoutLink: []repository.ReminderCandidate{{
		Request: models.PeerSessionRequest{ID: mustUUID(t, "11111111-1111-4111-8111-111111111111")},
	}}}
	scheduled := &stubScheduledLinkStore{}
	meetings := &stubMeetingClient{err: context.DeadlineExceeded}

	service := NewReminderService(peers, scheduled, &stubGroupReminderSource{}, &stubGroupAttendeeSource{}, meetings, &stubReminderNotifier{}, zap.NewNop())
	service.EnsureMeetingLinks(context.Background(), now)

	if len(scheduled.links) != 0 {
		t.Errorf("Expected no stored link after room creation failure, got %v", scheduled.links)
	}
}

func TestSendRemindersNotifiesBothPartiesAndMarksSent(t *testing.T) {
	requestID := mustUUID(t, "11111111-1111-4111-8111-111111111111")
	now := mustTime(t, "2026-09-08T09:00:00Z")

	peers := &stubPeerReminderSource{due: map[string][]repository.ReminderCandidate{
		Window1d: {{
			Request:      models.PeerSessionRequest{ID: requestID, AttendeeID: 7},
			SessionTitle: "Listening hour",
			HostID:       3,
		}},
	}}
	notifier := &stubReminderNotifier{}

	service := NewReminderService(peers, &stubScheduledLinkStore{}, &stubGroupReminderSource{}, &stubGroupAttendeeSource{}, &stubMeetingClient{}, notifier, zap.NewNop())
	service.SendReminders(context.Background(), now)

	if len(notifier.calls) != 2 {
		t.Fatalf("Expected attendee and host reminders, got %d calls", len(notifier.calls))
	}
	attendee, host := notifier.calls[0], notifier.calls[1]
	if attendee.userID != 7 || attendee.isHost {
		t.Errorf("Expected attendee reminder first, got %+v", attendee)
	}
	if host.userID != 3 || !host.isHost {
		t.Errorf("Expected host reminder second, got %+v", host)
	}
	if attendee.window != Window1d {
		t.Errorf("Expected window %q, got %q", Window1d, attendee.window)
	}
	if len(peers.marked) != 1 || peers.marked[0].id != requestID || peers.marked[0].window != Window1d {
		t.Errorf("Expected reminder marked sent for %v/%s, got %v", requestID, Window1d, peers.marked)
	}
}

func TestSendRemindersGroupNotifiesApprovedAttendeesOnly(t *testing.T) {
	sessionID := mustUUID(t, "22222222-2222-4222-8222-222222222222")
	now := mustTime(t, "2026-09-08T09:00:00Z")

	groups := &stubGroupReminderSource{due: map[string][]models.GroupSession{
		Window1h: {{ID: sessionID, HostID: 3, Title: "Circle"}},
	}}
	attendees := &stubGroupAttendeeSource{requests: []models.GroupSessionRequest{
		{AttendeeID: 7, Status: models.RequestStatusApproved},
		{AttendeeID: 8, Status: models.RequestStatusPending},
		{AttendeeID: 9, Status: models.RequestStatusApproved},
	}}
	notifier := &stubReminderNotifier{}

	service := NewReminderService(&stubPeerReminderSource{}, &stubScheduledLinkStore{}, groups, attendees, &stubMeetingClient{}, notifier, zap.NewNop())
	service.SendReminders(context.Background(), now)

	// Host plus the two approved attendees.
	if len(notifier.calls) != 3 {
		t.Fatalf("Expected 3 reminders, got %d: %+v", len(notifier.calls), notifier.calls)
	}
	for _, call := range notifier.calls {
		if call.userID == 8 {
			t.Errorf("Pending attendee 8 should not be reminded")
		}
	}
	if len(groups.marked) != 1 || groups.marked[0].window != Window1h {
		t.Errorf("Expected group reminder marked for %s, got %v", Window1h, groups.marked)
	}
}

func TestSendRemindersNothingDueIsQuiet(t *testing.T) {
	notifier := &stubReminderNotifier{}
	service := NewReminderService(&stubPeerReminderSource{}, &stubScheduledLinkStore{}, &stubGroupReminderSource{}, &stubGroupAttendeeSource{}, &stubMeetingClient{}, notifier, zap.NewNop())

	service.Run(context.Background(), mustTime(t, "2026-09-08T09:00:00Z"))

	if len(notifier.calls) != 0 {
		t.Errorf("Expected no reminders, got %+v", notifier.calls)
	}
}
