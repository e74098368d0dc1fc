package models

// Request approval status. Requests start pending unless the session does
// not require approval, in which case they self-promote to approved at
// creation time.
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
	RequestStatusWithdrawn = "withdrawn"
)

// Concessionary and refund sub-statuses share the pending/approved/rejected
// shape with the request status but advance independently of it.
const (
	SubStatusPending  = "pending"
	SubStatusApproved = "approved"
	SubStatusRejected = "rejected"
)

// Availability recurrence cadence.
const (
	OccurrenceDaily   = "daily"
	OccurrenceWeekly  = "weekly"
	OccurrenceMonthly = "monthly"
)

func ValidOccurrence(v string) bool {
	switch v {
	case OccurrenceDaily, OccurrenceWeekly, OccurrenceMonthly:
		return true
	}
	return false
}
