package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/repository"
)

// FeedFilters narrows the published-session feed. Zero-value kind toggles
// include both kinds; unavailable peer sessions and full group sessions are
// hidden unless explicitly requested.
type FeedFilters struct {
	IncludePeer         bool
	IncludeGroup        bool
	IncludeUnavailable  bool
	IncludeFullCapacity bool
	Language            string
}

// FeedItem is one feed entry. Exactly one of PeerSession and GroupSession
// is set, matching Kind.
type FeedItem struct {
	Kind         string               `json:"kind"`
	PeerSession  *models.PeerSession  `json:"peer_session,omitempty"`
	GroupSession *models.GroupSession `json:"group_session,omitempty"`
	Available    bool                 `json:"available"`
	SpotsLeft    int                  `json:"spots_left,omitempty"`
	StartsAt     *time.Time           `json:"starts_at,omitempty"`
}

func languageMatches(languages, wanted string) bool {
	if wanted == "" {
		return true
	}
	for _, l := range strings.Split(languages, ",") {
		if strings.EqualFold(strings.TrimSpace(l), wanted) {
			return true
		}
	}
	return false
}

// filterFeed applies the filters to already-built items and orders the
// result: dated entries by start time, undated peer offerings after them.
func filterFeed(items []FeedItem, filters FeedFilters) []FeedItem {
	includePeer := filters.IncludePeer || !filters.IncludeGroup
	includeGroup := filters.IncludeGroup || !filters.IncludePeer

	kept := make([]FeedItem, 0, len(items))
	for _, item := range items {
		switch item.Kind {
		case models.SessionKindPeer:
			if !includePeer {
				continue
			}
			if !item.Available && !filters.IncludeUnavailable {
				continue
			}
			if !languageMatches(item.PeerSession.Languages, filters.Language) {
				continue
			}
		case models.SessionKindGroup:
			if !includeGroup {
				continue
			}
			if item.SpotsLeft <= 0 && !filters.IncludeFullCapacity {
				continue
			}
			if !languageMatches(item.GroupSession.Language, filters.Language) {
				continue
			}
		default:
			continue
		}
		kept = append(kept, item)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i].StartsAt, kept[j].StartsAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return kept
}

type FeedService struct {
	peerSessions  *repository.PeerSessionRepository
	groupSessions *repository.GroupSessionRepository
	availability  *AvailabilityService
	logger        *zap.Logger
}

func NewFeedService(
	peerSessions *repository.PeerSessionRepository,
	groupSessions *repository.GroupSessionRepository,
	availability *AvailabilityService,
	logger *zap.Logger,
) *FeedService {
	return &FeedService{
		peerSessions:  peerSessions,
		groupSessions: groupSessions,
		availability:  availability,
		logger:        logger,
	}
}

// Feed builds the published-session feed. Peer availability comes from the
// slot resolver; a resolver failure for one session marks it unavailable
// rather than failing the whole feed.
func (s *FeedService) Feed(ctx context.Context, filters FeedFilters) ([]FeedItem, error) {
	peers, err := s.peerSessions.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.groupSessions.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	items := make([]FeedItem, 0, len(peers)+len(groups))
	for i := range peers {
		session := peers[i]
		item := FeedItem{Kind: models.SessionKindPeer, PeerSession: &session}
		slots, err := s.availability.AvailableSlots(ctx, session.ID)
		if err != nil {
			s.logger.Warn("failed to resolve slots for feed",
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
		} else {
			for _, slot := range slots {
				if slot.End.After(now) {
					item.Available = true
					next := slot.Start
					item.StartsAt = &next
					break
				}
			}
		}
		items = append(items, item)
	}
	for i := range groups {
		session := groups[i]
		if !session.EndsAt.After(now) {
			continue
		}
		item := FeedItem{
			Kind:         models.SessionKindGroup,
			GroupSession: &session,
			Available:    true,
			StartsAt:     &session.StartsAt,
		}
		count, err := s.groupSessions.ApprovedCount(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		item.SpotsLeft = session.Capacity - count
		if item.SpotsLeft < 0 {
			item.SpotsLeft = 0
		}
		items = append(items, item)
	}
	return filterFeed(items, filters), nil
}
