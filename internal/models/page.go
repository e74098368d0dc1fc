package models

import (
	"time"

	"github.com/google/uuid"
)

// Session kinds referenced by detail pages and the feed.
const (
	SessionKindPeer  = "peer"
	SessionKindGroup = "group"
)

// SessionPage maps a session to its public detail-page slug. The page layer
// needs only two facts from the core: that the session exists and whether
// it is published; the core needs only the public URL back.
type SessionPage struct {
	ID          uuid.UUID `json:"id"`
	SessionKind string    `json:"session_kind"`
	SessionID   uuid.UUID `json:"session_id"`
	Slug        string    `json:"slug"`
	CreatedAt   time.Time `json:"created_at"`
}
