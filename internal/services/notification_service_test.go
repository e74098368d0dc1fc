package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
)

type stubNotificationStore struct {
	created []*models.Notification
	err     error
}

func (s *stubNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, n)
	return nil
}

type stubPreferenceReader struct {
	settings     *models.NotificationSettings
	peerSettings *models.PeerNotificationSettings
	err          error
}

func (s *stubPreferenceReader) GetNotificationSettings(ctx context.Context, userID int64) (*models.NotificationSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.settings, nil
}

func (s *stubPreferenceReader) GetPeerNotificationSettings(ctx context.Context, userID int64) (*models.PeerNotificationSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.peerSettings, nil
}

type stubEmailLookup struct {
	user *models.User
	err  error
}

func (s *stubEmailLookup) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

type stubMailer struct {
	sent []struct {
		to      string
		subject string
	}
	err error
}

func (s *stubMailer) Send(to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, struct {
		to      string
		subject string
	}{to, subject})
	return nil
}

type stubBroadcaster struct {
	pushed []int64
}

func (s *stubBroadcaster) Push(userID int64, notification *models.Notification) {
	s.pushed = append(s.pushed, userID)
}

func notifierFixture(prefs *stubPreferenceReader) (*Notifier, *stubNotificationStore, *stubMailer, *stubBroadcaster) {
	store := &stubNotificationStore{}
	mailer := &stubMailer{}
	hub := &stubBroadcaster{}
	users := &stubEmailLookup{user: &models.User{ID: 7, Email: "seeker@example.com"}}
	return NewNotifier(prefs, store, users, mailer, hub, zap.NewNop()), store, mailer, hub
}

func seekerPrefs(value string) *stubPreferenceReader {
	return &stubPreferenceReader{settings: &models.NotificationSettings{
		RequestedSession: value,
		RespondedSession: value,
		CancelledSession: value,
		SessionReminders: value,
		PaymentMade:      value,
		PaymentRefunded:  value,
	}}
}

func TestNotifierNonePreferenceDeliversNothing(t *testing.T) {
	notifier, store, mailer, hub := notifierFixture(seekerPrefs(models.NotifyNone))

	notifier.RequestApproved(context.Background(), 7, "Listening hour", nil)

	if len(store.created) != 0 {
		t.Errorf("Expected no stored notification, got %d", len(store.created))
	}
	if len(mailer.sent) != 0 {
		t.Errorf("Expected no email, got %d", len(mailer.sent))
	}
	if len(hub.pushed) != 0 {
		t.Errorf("Expected no websocket push, got %d", len(hub.pushed))
	}
}

func TestNotifierWebOnlyStoresAndPushes(t *testing.T) {
	notifier, store, mailer, hub := notifierFixture(seekerPrefs(models.NotifyWebOnly))

	notifier.RequestApproved(context.Background(), 7, "Listening hour", nil)

	if len(store.created) != 1 {
		t.Fatalf("Expected 1 stored notification, got %d", len(store.created))
	}
	if store.created[0].UserID != 7 {
		t.Errorf("Expected notification for user 7, got %d", store.created[0].UserID)
	}
	if store.created[0].Subject != models.SubjectSession {
		t.Errorf("Expected subject %q, got %q", models.SubjectSession, store.created[0].Subject)
	}
	if len(hub.pushed) != 1 || hub.pushed[0] != 7 {
		t.Errorf("Expected websocket push to user 7, got %v", hub.pushed)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("Expected no email for web_only, got %d", len(mailer.sent))
	}
}

func TestNotifierEmailOnlySendsMailWithoutStoring(t *testing.T) {
	notifier, store, mailer, hub := notifierFixture(seekerPrefs(models.NotifyEmail))

	notifier.RequestApproved(context.Background(), 7, "Listening hour", nil)

	if len(store.created) != 0 {
		t.Errorf("Expected no stored notification for email preference, got %d", len(store.created))
	}
	if len(hub.pushed) != 0 {
		t.Errorf("Expected no websocket push for email preference, got %v", hub.pushed)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("Expected 1 email, got %d", len(mailer.sent))
	}
	if mailer.sent[0].to != "seeker@example.com" {
		t.Errorf("Expected email to seeker@example.com, got %q", mailer.sent[0].to)
	}
}

func TestNotifierAllDeliversBothChannels(t *testing.T) {
	notifier, store, mailer, hub := notifierFixture(seekerPrefs(models.NotifyAll))

	notifier.RequestApproved(context.Background(), 7, "Listening hour", nil)

	if len(store.created) != 1 {
		t.Errorf("Expected 1 stored notification, got %d", len(store.created))
	}
	if len(mailer.sent) != 1 {
		t.Errorf("Expected 1 email, got %d", len(mailer.sent))
	}
	if len(hub.pushed) != 1 {
		t.Errorf("Expected 1 websocket push, got %d", len(hub.pushed))
	}
}

func TestNotifierMissingSettingsDefaultsToWebOnly(t *testing.T) {
	notifier, store, mailer, _ := notifierFixture(&stubPreferenceReader{err: pgx.ErrNoRows})

	notifier.RequestApproved(context.Background(), 7, "Listening hour", nil)

	if len(store.created) != 1 {
		t.Errorf("Expected web notification when no settings row exists, got %d", len(store.created))
	}
	if len(mailer.sent) != 0 {
		t.Errorf("Expected no email when no settings row exists, got %d", len(mailer.sent))
	}
}

func TestNotifierHostEventsUsePeerSettings(t *testing.T) {
	prefs := &stubPreferenceReader{
		peerSettings: &models.PeerNotificationSettings{SessionRequested: models.NotifyNone},
	}
	notifier, store, mailer, _ := notifierFixture(prefs)

	notifier.SessionRequested(context.Background(), 3, "alex", "Listening hour", nil)

	if len(store.created) != 0 || len(mailer.sent) != 0 {
		t.Errorf("Expected host's none preference to suppress delivery, got %d stored, %d mailed",
			len(store.created), len(mailer.sent))
	}
}

func TestNotifierMailerFailureIsSwallowed(t *testing.T) {
	notifier, store, mailer, _ := notifierFixture(seekerPrefs(models.NotifyAll))
	mailer.err = errors.New("smtp: connection refused")

	notifier.RequestApproved(context.Background(), 7, "Listening hour", nil)

	if len(store.created) != 1 {
		t.Errorf("Expected web notification despite mail failure, got %d", len(store.created))
	}
}
