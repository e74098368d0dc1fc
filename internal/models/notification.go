package models

import (
	"time"

	"github.com/google/uuid"
)

// Per-event notification preference.
const (
	NotifyNone    = "none"
	NotifyWebOnly = "web_only"
	NotifyEmail   = "email"
	NotifyAll     = "all"
)

// Notification subjects shown in the in-app feed.
const (
	SubjectSession  = "session"
	SubjectPayment  = "payment"
	SubjectReminder = "reminder"
	SubjectAccount  = "account"
)

type Notification struct {
	ID      uuid.UUID `json:"id"`
	UserID  int64     `json:"user_id"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	LinkURL *string   `json:"link_url,omitempty"`
	Read    bool      `json:"read"`
	SentAt  time.Time `json:"sent_at"`
}

// NotificationSettings gate support-seeker facing events. Missing rows fall
// back to web-only delivery.
type NotificationSettings struct {
	UserID           int64     `json:"user_id"`
	RequestedSession string    `json:"requested_session"`
	RespondedSession string    `json:"responded_session"`
	CancelledSession string    `json:"cancelled_session"`
	SessionReminders string    `json:"session_reminders"`
	PaymentMade      string    `json:"payment_made"`
	PaymentRefunded  string    `json:"payment_refunded"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PeerNotificationSettings gate host facing events.
type PeerNotificationSettings struct {
	UserID           int64     `json:"user_id"`
	PublishedSession string    `json:"published_session"`
	SessionRequested string    `json:"session_requested"`
	SessionBooked    string    `json:"session_booked"`
	SessionCancelled string    `json:"session_cancelled"`
	SessionReminders string    `json:"session_reminders"`
	PaymentReceived  string    `json:"payment_received"`
	RefundRequested  string    `json:"refund_requested"`
	PaymentRefunded  string    `json:"payment_refunded"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PeerFilterSettings hold a user's saved feed filters so their browse view
// survives across sessions. The filters blob is opaque to the server.
type PeerFilterSettings struct {
	UserID    int64          `json:"user_id"`
	Filters   map[string]any `json:"filters,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// PeerPrivacySettings control what other users may see about a peer host.
type PeerPrivacySettings struct {
	UserID                 int64     `json:"user_id"`
	ShowCalendar           bool      `json:"show_calendar"`
	ShowPeerSessionDetails bool      `json:"show_peer_session_details"`
	UpdatedAt              time.Time `json:"updated_at"`
}
