package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/services"
)

type availabilityApplicationService interface {
	CreateAvailability(ctx context.Context, actorID int64, role string, input services.CreateAvailabilityInput) (*models.PeerSessionAvailability, error)
	DeleteAvailability(ctx context.Context, actorID int64, role string, sessionID, availabilityID uuid.UUID) error
	AvailableSlots(ctx context.Context, sessionID uuid.UUID) ([]services.Interval, error)
}

type AvailabilityHandler struct {
	service availabilityApplicationService
}

func NewAvailabilityHandler(service *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

type createAvailabilityRequest struct {
	StartsAt           string  `json:"starts_at"`
	EndsAt             string  `json:"ends_at"`
	Occurrence         *string `json:"occurrence"`
	OccurrenceStartsAt *string `json:"occurrence_starts_at"`
	OccurrenceEndsAt   *string `json:"occurrence_ends_at"`
}

func parseOptionalTime(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (h *AvailabilityHandler) CreateAvailability(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req createAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartsAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "starts_at must be a valid RFC3339 timestamp"})
	}
	endsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndsAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "ends_at must be a valid RFC3339 timestamp"})
	}
	occurrenceStartsAt, err := parseOptionalTime(req.OccurrenceStartsAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "occurrence_starts_at must be a valid RFC3339 timestamp"})
	}
	occurrenceEndsAt, err := parseOptionalTime(req.OccurrenceEndsAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "occurrence_ends_at must be a valid RFC3339 timestamp"})
	}

	window, err := h.service.CreateAvailability(c.Context(), userID, role, services.CreateAvailabilityInput{
		SessionID:          sessionID,
		StartsAt:           startsAt,
		EndsAt:             endsAt,
		Occurrence:         req.Occurrence,
		OccurrenceStartsAt: occurrenceStartsAt,
		OccurrenceEndsAt:   occurrenceEndsAt,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"availability": window})
}

func (h *AvailabilityHandler) DeleteAvailability(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}
	availabilityID, err := parseUUIDParam(c, "availabilityId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid availability id"})
	}

	if err := h.service.DeleteAvailability(c.Context(), userID, role, sessionID, availabilityID); err != nil {
		return mapServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListSlots returns the currently bookable intervals for a session.
func (h *AvailabilityHandler) ListSlots(c *fiber.Ctx) error {
	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	slots, err := h.service.AvailableSlots(c.Context(), sessionID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"slots": slots})
}
