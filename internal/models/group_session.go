package models

import (
	"time"

	"github.com/google/uuid"
)

// Group session duration bounds, enforced in validation and by a database
// check constraint.
const (
	GroupSessionMinDuration = 5 * time.Minute
	GroupSessionMaxDuration = 120 * time.Minute
)

// GroupSession is a single scheduled occurrence that several support
// seekers may attend, up to its capacity. The host cannot change after
// creation.
type GroupSession struct {
	ID                           uuid.UUID `json:"id"`
	HostID                       int64     `json:"host_id"`
	Title                        string    `json:"title"`
	Description                  *string   `json:"description,omitempty"`
	Language                     string    `json:"language"`
	StartsAt                     time.Time `json:"starts_at"`
	EndsAt                       time.Time `json:"ends_at"`
	Capacity                     int       `json:"capacity"`
	Currency                     string    `json:"currency"`
	Price                        int64     `json:"price"`
	ConcessionaryPrice           *int64    `json:"concessionary_price,omitempty"`
	AccessBeforePayment          bool      `json:"access_before_payment"`
	RequireRequestApproval       bool      `json:"require_request_approval"`
	RequireConcessionaryApproval bool      `json:"require_concessionary_approval"`
	RequireRefundApproval        bool      `json:"require_refund_approval"`
	MeetingLink                  *string   `json:"meeting_link,omitempty"`
	IsPublished                  bool      `json:"is_published"`
	Reminder1dSentAt             *time.Time `json:"-"`
	Reminder1hSentAt             *time.Time `json:"-"`
	CreatedAt                    time.Time `json:"created_at"`
	UpdatedAt                    time.Time `json:"updated_at"`
}

func (s *GroupSession) IsFree() bool {
	if s.Price > 0 {
		return false
	}
	return s.ConcessionaryPrice == nil || *s.ConcessionaryPrice == 0
}

// Review rating bounds, enforced in validation and by a database check
// constraint.
const (
	ReviewMinRating = 1
	ReviewMaxRating = 5
)

// GroupSessionReview is an attendee's rating of a group session they
// joined. One review per attendee per session, written after the session
// has ended; the session, request and attendee cannot change afterwards.
type GroupSessionReview struct {
	ID         uuid.UUID `json:"id"`
	SessionID  uuid.UUID `json:"session_id"`
	RequestID  uuid.UUID `json:"request_id"`
	AttendeeID int64     `json:"attendee_id"`
	Rating     int       `json:"rating"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GroupSessionRequest is a support seeker's request to join a group
// session. One request per attendee per session.
type GroupSessionRequest struct {
	ID                    uuid.UUID `json:"id"`
	SessionID             uuid.UUID `json:"session_id"`
	AttendeeID            int64     `json:"attendee_id"`
	Status                string    `json:"status"`
	RejectionMessage      *string   `json:"rejection_message,omitempty"`
	PayConcessionaryPrice bool      `json:"pay_concessionary_price"`
	ConcessionaryStatus   string    `json:"concessionary_status"`
	RefundStatus          string    `json:"refund_status"`
	Refunded              bool      `json:"refunded"`
	PaymentID             *string   `json:"payment_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
