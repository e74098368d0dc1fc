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

type groupSessionApplicationService interface {
	CreateSession(ctx context.Context, actorID int64, role string, input services.GroupSessionInput) (*models.GroupSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.GroupSession, error)
	ListByHost(ctx context.Context, hostID int64) ([]models.GroupSession, error)
	UpdateSession(ctx context.Context, actorID int64, role string, id uuid.UUID, hostID int64, input services.GroupSessionInput) (*models.GroupSession, error)
	Publish(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.GroupSession, error)
	Unpublish(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.GroupSession, error)
}

type GroupSessionHandler struct {
	service groupSessionApplicationService
}

func NewGroupSessionHandler(service *services.GroupSessionService) *GroupSessionHandler {
	return &GroupSessionHandler{service: service}
}

type groupSessionRequest struct {
	HostID                       int64   `json:"host_id"`
	Title                        string  `json:"title"`
	Description                  *string `json:"description"`
	Language                     string  `json:"language"`
	StartsAt                     string  `json:"starts_at"`
	EndsAt                       string  `json:"ends_at"`
	Capacity                     int     `json:"capacity"`
	Currency                     string  `json:"currency"`
	Price                        int64   `json:"price"`
	ConcessionaryPrice           *int64  `json:"concessionary_price"`
	AccessBeforePayment          bool    `json:"access_before_payment"`
	RequireRequestApproval       bool    `json:"require_request_approval"`
	RequireConcessionaryApproval bool    `json:"require_concessionary_approval"`
	RequireRefundApproval        bool    `json:"require_refund_approval"`
}

func (r groupSessionRequest) toInput() (services.GroupSessionInput, error) {
	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(r.StartsAt))
	if err != nil {
		return services.GroupSessionInput{}, err
	}
	endsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(r.EndsAt))
	if err != nil {
		return services.GroupSessionInput{}, err
	}
	return services.GroupSessionInput{
		Title:                        r.Title,
		Description:                  r.Description,
		Language:                     r.Language,
		StartsAt:                     startsAt,
		EndsAt:                       endsAt,
		Capacity:                     r.Capacity,
		Currency:                     r.Currency,
		Price:                        r.Price,
		ConcessionaryPrice:           r.ConcessionaryPrice,
		AccessBeforePayment:          r.AccessBeforePayment,
		RequireRequestApproval:       r.RequireRequestApproval,
		RequireConcessionaryApproval: r.RequireConcessionaryApproval,
		RequireRefundApproval:        r.RequireRefundApproval,
	}, nil
}

func (h *GroupSessionHandler) CreateSession(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	var req groupSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	input, err := req.toInput()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "starts_at and ends_at must be valid RFC3339 timestamps"})
	}

	session, err := h.service.CreateSession(c.Context(), userID, role, input)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *GroupSessionHandler) GetSession(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.GetSession(c.Context(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *GroupSessionHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	sessions, err := h.service.ListByHost(c.Context(), userID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *GroupSessionHandler) UpdateSession(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req groupSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	input, err := req.toInput()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "starts_at and ends_at must be valid RFC3339 timestamps"})
	}

	session, err := h.service.UpdateSession(c.Context(), userID, role, id, req.HostID, input)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *GroupSessionHandler) Publish(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.Publish(c.Context(), userID, role, id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *GroupSessionHandler) Unpublish(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.Unpublish(c.Context(), userID, role, id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}
