package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/services"
)

type peerSessionApplicationService interface {
	CreateSession(ctx context.Context, actorID int64, role string, input services.PeerSessionInput) (*models.PeerSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.PeerSession, error)
	ListByHost(ctx context.Context, hostID int64) ([]models.PeerSession, error)
	UpdateSession(ctx context.Context, actorID int64, role string, id uuid.UUID, hostID int64, input services.PeerSessionInput) (*models.PeerSession, error)
	Publish(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.PeerSession, error)
	Unpublish(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.PeerSession, error)
}

type PeerSessionHandler struct {
	service peerSessionApplicationService
}

func NewPeerSessionHandler(service *services.PeerSessionService) *PeerSessionHandler {
	return &PeerSessionHandler{service: service}
}

type peerSessionRequest struct {
	HostID                       int64   `json:"host_id"`
	Title                        string  `json:"title"`
	Description                  *string `json:"description"`
	Languages                    string  `json:"languages"`
	Durations                    string  `json:"durations"`
	Currency                     string  `json:"currency"`
	Price                        int64   `json:"price"`
	ConcessionaryPrice           *int64  `json:"concessionary_price"`
	PerHourPrice                 *int64  `json:"per_hour_price"`
	ConcessionaryPerHourPrice    *int64  `json:"concessionary_per_hour_price"`
	AccessBeforePayment          bool    `json:"access_before_payment"`
	RequireRequestApproval       bool    `json:"require_request_approval"`
	RequireConcessionaryApproval bool    `json:"require_concessionary_approval"`
	RequireRefundApproval        bool    `json:"require_refund_approval"`
}

func (r peerSessionRequest) toInput() services.PeerSessionInput {
	return services.PeerSessionInput{
		Title:                        r.Title,
		Description:                  r.Description,
		Languages:                    r.Languages,
		Durations:                    r.Durations,
		Currency:                     r.Currency,
		Price:                        r.Price,
		ConcessionaryPrice:           r.ConcessionaryPrice,
		PerHourPrice:                 r.PerHourPrice,
		ConcessionaryPerHourPrice:    r.ConcessionaryPerHourPrice,
		AccessBeforePayment:          r.AccessBeforePayment,
		RequireRequestApproval:       r.RequireRequestApproval,
		RequireConcessionaryApproval: r.RequireConcessionaryApproval,
		RequireRefundApproval:        r.RequireRefundApproval,
	}
}

func (h *PeerSessionHandler) CreateSession(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	var req peerSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}

	session, err := h.service.CreateSession(c.Context(), userID, role, req.toInput())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *PeerSessionHandler) GetSession(c *fiber.Ctx) error {
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

func (h *PeerSessionHandler) ListMine(c *fiber.Ctx) error {
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

func (h *PeerSessionHandler) UpdateSession(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req peerSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	session, err := h.service.UpdateSession(c.Context(), userID, role, id, req.HostID, req.toInput())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"session": session})
}

func (h *PeerSessionHandler) Publish(c *fiber.Ctx) error {
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

func (h *PeerSessionHandler) Unpublish(c *fiber.Ctx) error {
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
