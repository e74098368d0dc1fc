package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/repository"
)

// Recurring availability with no explicit occurrence end recurs for one
// year from its start, so expansion stays bounded.
const defaultOccurrenceSpan = 365 * 24 * time.Hour

// Interval is a half-open [Start, End) bookable time range.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// expandAvailability turns one availability row into its candidate
// intervals as of now. A row without a cadence yields its window verbatim.
// A recurring row projects the window's time-of-day onto every Nth
// occurrence date inside the occurrence range; a projected window whose end
// does not land after its start is treated as spanning midnight and gains a
// day. Every occurrence is derived from the range start, never from the
// previous occurrence, so a month-end anchor clamps to short months instead
// of drifting.
func expandAvailability(a models.PeerSessionAvailability, now time.Time) []Interval {
	if a.Occurrence == nil {
		return []Interval{{Start: a.StartsAt, End: a.EndsAt}}
	}

	rangeStart := now
	if a.OccurrenceStartsAt != nil {
		rangeStart = *a.OccurrenceStartsAt
	}
	rangeEnd := rangeStart.Add(defaultOccurrenceSpan)
	if a.OccurrenceEndsAt != nil {
		rangeEnd = *a.OccurrenceEndsAt
	}

	intervals := make([]Interval, 0)
	for n := 0; ; n++ {
		cursor := occurrenceDate(rangeStart, *a.Occurrence, n)
		if !cursor.Before(rangeEnd) {
			break
		}
		start := time.Date(
			cursor.Year(), cursor.Month(), cursor.Day(),
			a.StartsAt.Hour(), a.StartsAt.Minute(), a.StartsAt.Second(), 0,
			a.StartsAt.Location(),
		)
		end := time.Date(
			cursor.Year(), cursor.Month(), cursor.Day(),
			a.EndsAt.Hour(), a.EndsAt.Minute(), a.EndsAt.Second(), 0,
			a.EndsAt.Location(),
		)
		if !end.After(start) {
			end = end.AddDate(0, 0, 1)
		}
		intervals = append(intervals, Interval{Start: start, End: end})
	}
	return intervals
}

func occurrenceDate(anchor time.Time, occurrence string, n int) time.Time {
	switch occurrence {
	case models.OccurrenceDaily:
		return anchor.AddDate(0, 0, n)
	case models.OccurrenceMonthly:
		return addMonthsClamped(anchor, n)
	default:
		return anchor.AddDate(0, 0, 7*n)
	}
}

// addMonthsClamped advances by whole months, clamping the anchor's
// day-of-month to the target month's length: Jan 31 + 1 month is Feb 28
// (or 29), not Mar 3.
func addMonthsClamped(anchor time.Time, months int) time.Time {
	first := time.Date(
		anchor.Year(), anchor.Month(), 1,
		anchor.Hour(), anchor.Minute(), anchor.Second(), 0,
		anchor.Location(),
	).AddDate(0, months, 0)
	day := anchor.Day()
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(
		first.Year(), first.Month(), day,
		anchor.Hour(), anchor.Minute(), anchor.Second(), 0,
		anchor.Location(),
	)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// subtractInterval removes booked from candidate. Four cases: disjoint
// keeps the candidate whole, a booked range strictly inside splits it in
// two, an overlap at one edge keeps the other remainder, full coverage
// drops the candidate.
func subtractInterval(candidate Interval, booked repository.BookedInterval) []Interval {
	if !booked.StartsAt.Before(candidate.End) || !booked.EndsAt.After(candidate.Start) {
		return []Interval{candidate}
	}
	coversStart := !booked.StartsAt.After(candidate.Start)
	coversEnd := !booked.EndsAt.Before(candidate.End)
	switch {
	case coversStart && coversEnd:
		return nil
	case coversStart:
		return []Interval{{Start: booked.EndsAt, End: candidate.End}}
	case coversEnd:
		return []Interval{{Start: candidate.Start, End: booked.StartsAt}}
	default:
		return []Interval{
			{Start: candidate.Start, End: booked.StartsAt},
			{Start: booked.EndsAt, End: candidate.End},
		}
	}
}

// ResolveSlots expands every availability row, drops candidates that have
// already ended, and subtracts every booked interval from the rest.
// Overlapping availability rows are not merged; callers tolerate
// overlapping slots from independent rows.
func ResolveSlots(
	availability []models.PeerSessionAvailability,
	booked []repository.BookedInterval,
	now time.Time,
) []Interval {
	slots := make([]Interval, 0)
	for _, window := range availability {
		expanded := expandAvailability(window, now)
		candidates := make([]Interval, 0, len(expanded))
		for _, candidate := range expanded {
			if candidate.End.After(now) {
				candidates = append(candidates, candidate)
			}
		}
		for _, b := range booked {
			remaining := make([]Interval, 0, len(candidates))
			for _, candidate := range candidates {
				remaining = append(remaining, subtractInterval(candidate, b)...)
			}
			candidates = remaining
		}
		slots = append(slots, candidates...)
	}
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})
	return slots
}

type AvailabilityService struct {
	sessionRepo      *repository.PeerSessionRepository
	availabilityRepo *repository.AvailabilityRepository
}

func NewAvailabilityService(
	sessionRepo *repository.PeerSessionRepository,
	availabilityRepo *repository.AvailabilityRepository,
) *AvailabilityService {
	return &AvailabilityService{
		sessionRepo:      sessionRepo,
		availabilityRepo: availabilityRepo,
	}
}

type CreateAvailabilityInput struct {
	SessionID          uuid.UUID
	StartsAt           time.Time
	EndsAt             time.Time
	Occurrence         *string
	OccurrenceStartsAt *time.Time
	OccurrenceEndsAt   *time.Time
}

func (s *AvailabilityService) CreateAvailability(
	ctx context.Context,
	actorID int64,
	role string,
	input CreateAvailabilityInput,
) (*models.PeerSessionAvailability, error) {
	session, err := s.sessionRepo.GetByID(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if !canManageSession(role, actorID, session.HostID) {
		return nil, ErrForbidden
	}
	if !input.EndsAt.After(input.StartsAt) && input.Occurrence == nil {
		return nil, ErrInvalidInput
	}
	if input.Occurrence != nil && !models.ValidOccurrence(*input.Occurrence) {
		return nil, ErrInvalidInput
	}

	window := &models.PeerSessionAvailability{
		SessionID:          input.SessionID,
		StartsAt:           input.StartsAt,
		EndsAt:             input.EndsAt,
		Occurrence:         input.Occurrence,
		OccurrenceStartsAt: input.OccurrenceStartsAt,
		OccurrenceEndsAt:   input.OccurrenceEndsAt,
	}
	if err := s.availabilityRepo.Create(ctx, window); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return window, nil
}

func (s *AvailabilityService) DeleteAvailability(
	ctx context.Context,
	actorID int64,
	role string,
	sessionID uuid.UUID,
	availabilityID uuid.UUID,
) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if !canManageSession(role, actorID, session.HostID) {
		return ErrForbidden
	}
	return s.availabilityRepo.Delete(ctx, availabilityID)
}

// AvailableSlots derives the currently bookable intervals for a session:
// every availability window expanded, minus every approved future request.
func (s *AvailabilityService) AvailableSlots(
	ctx context.Context,
	sessionID uuid.UUID,
) ([]Interval, error) {
	windows, err := s.availabilityRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	booked, err := s.availabilityRepo.ListApprovedFutureIntervals(ctx, sessionID, now)
	if err != nil {
		return nil, err
	}
	return ResolveSlots(windows, booked, now), nil
}
