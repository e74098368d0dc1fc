package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PeerSession is a one-to-one session offering hosted by a peer. Prices are
// in the currency's minor unit. The host cannot change after creation.
type PeerSession struct {
	ID                           uuid.UUID `json:"id"`
	HostID                       int64     `json:"host_id"`
	Title                        string    `json:"title"`
	Description                  *string   `json:"description,omitempty"`
	Languages                    string    `json:"languages"`
	Durations                    string    `json:"durations"`
	Currency                     string    `json:"currency"`
	Price                        int64     `json:"price"`
	ConcessionaryPrice           *int64    `json:"concessionary_price,omitempty"`
	PerHourPrice                 *int64    `json:"per_hour_price,omitempty"`
	ConcessionaryPerHourPrice    *int64    `json:"concessionary_per_hour_price,omitempty"`
	AccessBeforePayment          bool      `json:"access_before_payment"`
	RequireRequestApproval       bool      `json:"require_request_approval"`
	RequireConcessionaryApproval bool      `json:"require_concessionary_approval"`
	RequireRefundApproval        bool      `json:"require_refund_approval"`
	IsPublished                  bool      `json:"is_published"`
	CreatedAt                    time.Time `json:"created_at"`
	UpdatedAt                    time.Time `json:"updated_at"`
}

// DurationOptions parses the comma-separated bookable durations in minutes.
// Malformed entries are skipped.
func (s *PeerSession) DurationOptions() []int {
	parts := strings.Split(s.Durations, ",")
	durations := make([]int, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || value <= 0 {
			continue
		}
		durations = append(durations, value)
	}
	return durations
}

// IsFree reports whether no price variant can ever charge the attendee.
func (s *PeerSession) IsFree() bool {
	if s.Price > 0 {
		return false
	}
	if s.PerHourPrice != nil && *s.PerHourPrice > 0 {
		return false
	}
	if s.ConcessionaryPrice != nil && *s.ConcessionaryPrice > 0 {
		return false
	}
	if s.ConcessionaryPerHourPrice != nil && *s.ConcessionaryPerHourPrice > 0 {
		return false
	}
	return true
}

// PeerSessionAvailability is a time window during which a peer session may
// be requested. With Occurrence set the window repeats over the occurrence
// date range; the range start defaults to now and the end to start + 1 year.
type PeerSessionAvailability struct {
	ID                 uuid.UUID  `json:"id"`
	SessionID          uuid.UUID  `json:"session_id"`
	StartsAt           time.Time  `json:"starts_at"`
	EndsAt             time.Time  `json:"ends_at"`
	Occurrence         *string    `json:"occurrence,omitempty"`
	OccurrenceStartsAt *time.Time `json:"occurrence_starts_at,omitempty"`
	OccurrenceEndsAt   *time.Time `json:"occurrence_ends_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// PeerSessionRequest is a support seeker's request to book a concrete
// [starts_at, ends_at) interval against a peer session. Attendee and session
// cannot change after creation.
type PeerSessionRequest struct {
	ID                    uuid.UUID  `json:"id"`
	SessionID             uuid.UUID  `json:"session_id"`
	AttendeeID            int64      `json:"attendee_id"`
	StartsAt              time.Time  `json:"starts_at"`
	EndsAt                time.Time  `json:"ends_at"`
	Status                string     `json:"status"`
	RejectionMessage      *string    `json:"rejection_message,omitempty"`
	PayConcessionaryPrice bool       `json:"pay_concessionary_price"`
	ConcessionaryStatus   string     `json:"concessionary_status"`
	RefundStatus          string     `json:"refund_status"`
	Refunded              bool       `json:"refunded"`
	PaymentID             *string    `json:"payment_id,omitempty"`
	Reminder1dSentAt      *time.Time `json:"-"`
	Reminder1hSentAt      *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// PeerScheduledSession is created when a peer session request is approved.
// The meeting link is generated shortly before the session starts.
type PeerScheduledSession struct {
	ID          uuid.UUID `json:"id"`
	RequestID   uuid.UUID `json:"request_id"`
	MeetingLink *string   `json:"meeting_link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
