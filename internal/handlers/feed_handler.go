package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/baldwinboy/neuromancers-community-platform/internal/services"
)

type feedApplicationService interface {
	Feed(ctx context.Context, filters services.FeedFilters) ([]services.FeedItem, error)
}

type FeedHandler struct {
	service feedApplicationService
}

func NewFeedHandler(service *services.FeedService) *FeedHandler {
	return &FeedHandler{service: service}
}

func queryBool(c *fiber.Ctx, key string) bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(key))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// Feed lists published sessions. Kind toggles default to both kinds;
// unavailable and full sessions are hidden unless requested.
func (h *FeedHandler) Feed(c *fiber.Ctx) error {
	filters := services.FeedFilters{
		IncludePeer:         queryBool(c, "include_peer"),
		IncludeGroup:        queryBool(c, "include_group"),
		IncludeUnavailable:  queryBool(c, "include_unavailable"),
		IncludeFullCapacity: queryBool(c, "include_full_capacity"),
		Language:            strings.TrimSpace(c.Query("language")),
	}

	items, err := h.service.Feed(c.Context(), filters)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"feed": items})
}
