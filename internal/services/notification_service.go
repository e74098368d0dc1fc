package services

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
)

// Mailer sends plain-text mail. Failures are logged by the notifier, never
// propagated; a broken mail relay must not fail a booking.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}

// Broadcaster pushes a stored notification to the user's live websocket
// connections, if any.
type Broadcaster interface {
	Push(userID int64, notification *models.Notification)
}

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

type preferenceReader interface {
	GetNotificationSettings(ctx context.Context, userID int64) (*models.NotificationSettings, error)
	GetPeerNotificationSettings(ctx context.Context, userID int64) (*models.PeerNotificationSettings, error)
}

type emailLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Notifier fans out platform events to users, gated per event type by their
// notification preference: a web notification row for web_only/all, an
// email for email/all, nothing for none.
type Notifier struct {
	settings      preferenceReader
	notifications notificationStore
	users         emailLookup
	mailer        Mailer
	hub           Broadcaster
	logger        *zap.Logger
}

func NewNotifier(
	settings preferenceReader,
	notifications notificationStore,
	users emailLookup,
	mailer Mailer,
	hub Broadcaster,
	logger *zap.Logger,
) *Notifier {
	return &Notifier{
		settings:      settings,
		notifications: notifications,
		users:         users,
		mailer:        mailer,
		hub:           hub,
		logger:        logger,
	}
}

func (n *Notifier) deliver(
	ctx context.Context,
	userID int64,
	preference string,
	subject string,
	emailSubject string,
	body string,
	linkURL *string,
) {
	if preference == models.NotifyNone {
		return
	}

	if preference == models.NotifyWebOnly || preference == models.NotifyAll {
		notification := &models.Notification{
			UserID:  userID,
			Subject: subject,
			Body:    body,
			LinkURL: linkURL,
		}
		if err := n.notifications.Create(ctx, notification); err != nil {
			n.logger.Error("failed to store notification",
				zap.Int64("user_id", userID),
				zap.String("subject", subject),
				zap.Error(err))
		} else if n.hub != nil {
			n.hub.Push(userID, notification)
		}
	}

	if preference == models.NotifyEmail || preference == models.NotifyAll {
		user, err := n.users.GetByID(ctx, userID)
		if err != nil {
			n.logger.Error("failed to load user for email",
				zap.Int64("user_id", userID),
				zap.Error(err))
			return
		}
		if err := n.mailer.Send(user.Email, emailSubject, body); err != nil {
			n.logger.Error("failed to send notification email",
				zap.Int64("user_id", userID),
				zap.String("email", user.Email),
				zap.Error(err))
		}
	}
}

// seekerPreference reads one field off the user's notification settings,
// defaulting to web-only when no row exists.
func (n *Notifier) seekerPreference(
	ctx context.Context,
	userID int64,
	pick func(*models.NotificationSettings) string,
) string {
	settings, err := n.settings.GetNotificationSettings(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			n.logger.Warn("failed to load notification settings", zap.Int64("user_id", userID), zap.Error(err))
		}
		return models.NotifyWebOnly
	}
	return pick(settings)
}

func (n *Notifier) peerPreference(
	ctx context.Context,
	userID int64,
	pick func(*models.PeerNotificationSettings) string,
) string {
	settings, err := n.settings.GetPeerNotificationSettings(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			n.logger.Warn("failed to load peer notification settings", zap.Int64("user_id", userID), zap.Error(err))
		}
		return models.NotifyWebOnly
	}
	return pick(settings)
}

func (n *Notifier) SessionPublished(ctx context.Context, hostID int64, title string, linkURL *string) {
	pref := n.peerPreference(ctx, hostID, func(s *models.PeerNotificationSettings) string {
		return s.PublishedSession
	})
	n.deliver(ctx, hostID, pref, models.SubjectSession,
		"Your session is live",
		fmt.Sprintf("Your session %q has been published and is now visible to support seekers.", title),
		linkURL)
}

func (n *Notifier) SessionRequested(ctx context.Context, hostID int64, attendeeName, title string, linkURL *string) {
	pref := n.peerPreference(ctx, hostID, func(s *models.PeerNotificationSettings) string {
		return s.SessionRequested
	})
	n.deliver(ctx, hostID, pref, models.SubjectSession,
		"New session request",
		fmt.Sprintf("%s has requested to book %q.", attendeeName, title),
		linkURL)
}

func (n *Notifier) RequestApproved(ctx context.Context, attendeeID int64, title string, linkURL *string) {
	pref := n.seekerPreference(ctx, attendeeID, func(s *models.NotificationSettings) string {
		return s.RespondedSession
	})
	n.deliver(ctx, attendeeID, pref, models.SubjectSession,
		"Session request approved",
		fmt.Sprintf("Your request for %q has been approved.", title),
		linkURL)
}

func (n *Notifier) RequestRejected(ctx context.Context, attendeeID int64, title string, message *string) {
	body := fmt.Sprintf("Your request for %q has been rejected.", title)
	if message != nil && *message != "" {
		body = fmt.Sprintf("%s Message from the host: %s", body, *message)
	}
	pref := n.seekerPreference(ctx, attendeeID, func(s *models.NotificationSettings) string {
		return s.RespondedSession
	})
	n.deliver(ctx, attendeeID, pref, models.SubjectSession, "Session request rejected", body, nil)
}

func (n *Notifier) RequestRevoked(ctx context.Context, attendeeID int64, title string) {
	pref := n.seekerPreference(ctx, attendeeID, func(s *models.NotificationSettings) string {
		return s.CancelledSession
	})
	n.deliver(ctx, attendeeID, pref, models.SubjectSession,
		"Session request withdrawn",
		fmt.Sprintf("Your request for %q has been withdrawn.", title),
		nil)
}

func (n *Notifier) RefundRequested(ctx context.Context, hostID int64, title string, linkURL *string) {
	pref := n.peerPreference(ctx, hostID, func(s *models.PeerNotificationSettings) string {
		return s.RefundRequested
	})
	n.deliver(ctx, hostID, pref, models.SubjectPayment,
		"Refund approval needed",
		fmt.Sprintf("A refund for %q is awaiting your approval.", title),
		linkURL)
}

func (n *Notifier) RefundApproved(ctx context.Context, attendeeID int64, title string) {
	pref := n.seekerPreference(ctx, attendeeID, func(s *models.NotificationSettings) string {
		return s.PaymentRefunded
	})
	n.deliver(ctx, attendeeID, pref, models.SubjectPayment,
		"Refund processed",
		fmt.Sprintf("Your payment for %q has been refunded.", title),
		nil)
}

func (n *Notifier) PaymentMade(ctx context.Context, attendeeID int64, title, amountDisplay string) {
	pref := n.seekerPreference(ctx, attendeeID, func(s *models.NotificationSettings) string {
		return s.PaymentMade
	})
	n.deliver(ctx, attendeeID, pref, models.SubjectPayment,
		"Payment confirmed",
		fmt.Sprintf("Your payment of %s for %q was received.", amountDisplay, title),
		nil)
}

func (n *Notifier) PaymentReceived(ctx context.Context, hostID int64, title, amountDisplay string) {
	pref := n.peerPreference(ctx, hostID, func(s *models.PeerNotificationSettings) string {
		return s.PaymentReceived
	})
	n.deliver(ctx, hostID, pref, models.SubjectPayment,
		"Payment received",
		fmt.Sprintf("You received a payment of %s for %q.", amountDisplay, title),
		nil)
}

func (n *Notifier) SessionReminder(ctx context.Context, userID int64, isHost bool, title, window string, linkURL *string) {
	var pref string
	if isHost {
		pref = n.peerPreference(ctx, userID, func(s *models.PeerNotificationSettings) string {
			return s.SessionReminders
		})
	} else {
		pref = n.seekerPreference(ctx, userID, func(s *models.NotificationSettings) string {
			return s.SessionReminders
		})
	}
	when := "in 1 hour"
	if window == "1d" {
		when = "tomorrow"
	}
	n.deliver(ctx, userID, pref, models.SubjectReminder,
		"Upcoming session reminder",
		fmt.Sprintf("Your session %q starts %s.", title, when),
		linkURL)
}
