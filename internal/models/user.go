package models

import "time"

// Role groups. Neuromancers are platform admins and may act on any
// session; peers host sessions; support seekers book them.
const (
	RoleSupportSeeker = "support_seeker"
	RolePeer          = "peer"
	RoleNeuromancer   = "neuromancer"
)

type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Certificate records that a peer's supporting qualification was checked.
// A nil expiry never lapses.
type Certificate struct {
	UserID    int64      `json:"user_id"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (c *Certificate) ValidAt(now time.Time) bool {
	return c.ExpiresAt == nil || c.ExpiresAt.After(now)
}

type Profile struct {
	UserID      int64     `json:"user_id"`
	DisplayName *string   `json:"display_name"`
	Bio         *string   `json:"bio"`
	Languages   *string   `json:"languages"`
	Country     *string   `json:"country"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StripeAccount links a peer host to their connected payout account.
// Only the account identifier is stored; everything else lives with the
// payment processor.
type StripeAccount struct {
	UserID    int64     `json:"user_id"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}
