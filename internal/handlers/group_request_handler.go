package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/services"
)

type groupRequestApplicationService interface {
	Join(ctx context.Context, attendeeID int64, role string, input services.JoinGroupSessionInput) (*models.GroupSessionRequest, error)
	ListBySession(ctx context.Context, actorID int64, role string, sessionID uuid.UUID) ([]models.GroupSessionRequest, error)
	ListMine(ctx context.Context, attendeeID int64) ([]models.GroupSessionRequest, error)
	Approve(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.GroupSessionRequest, error)
	Reject(ctx context.Context, actorID int64, role string, id uuid.UUID, message *string) (*models.GroupSessionRequest, error)
	Withdraw(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.GroupSessionRequest, error)
	ApproveRefund(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.GroupSessionRequest, error)
	Pay(ctx context.Context, attendeeID int64, id uuid.UUID) (string, error)
}

type GroupRequestHandler struct {
	service groupRequestApplicationService
}

func NewGroupRequestHandler(service *services.GroupRequestService) *GroupRequestHandler {
	return &GroupRequestHandler{service: service}
}

type joinGroupSessionRequest struct {
	PayConcessionaryPrice bool `json:"pay_concessionary_price"`
}

func (h *GroupRequestHandler) Join(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req joinGroupSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	request, err := h.service.Join(c.Context(), userID, role, services.JoinGroupSessionInput{
		SessionID:             sessionID,
		PayConcessionaryPrice: req.PayConcessionaryPrice,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"request": request})
}

func (h *GroupRequestHandler) ListBySession(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	requests, err := h.service.ListBySession(c.Context(), userID, role, sessionID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

func (h *GroupRequestHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	requests, err := h.service.ListMine(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"requests": requests})
}

func (h *GroupRequestHandler) Approve(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	request, err := h.service.Approve(c.Context(), userID, role, id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"request": request})
}

func (h *GroupRequestHandler) Reject(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var req rejectRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	request, err := h.service.Reject(c.Context(), userID, role, id, req.Message)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"request": request})
}

func (h *GroupRequestHandler) Withdraw(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	request, err := h.service.Withdraw(c.Context(), userID, role, id)
	if err != nil {
		if errors.Is(err, services.ErrPaymentFailed) && request != nil {
			return c.JSON(fiber.Map{
				"request": request,
				"warning": "Request withdrawn but the refund could not be processed",
			})
		}
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"request": request})
}

func (h *GroupRequestHandler) ApproveRefund(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	request, err := h.service.ApproveRefund(c.Context(), userID, role, id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"request": request})
}

func (h *GroupRequestHandler) Pay(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	paymentURL, err := h.service.Pay(c.Context(), userID, id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"payment_url": paymentURL})
}
