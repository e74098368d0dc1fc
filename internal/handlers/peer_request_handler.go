package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/services"
)

type peerRequestApplicationService interface {
	CreateRequest(ctx context.Context, attendeeID int64, role string, input services.CreatePeerRequestInput) (*models.PeerSessionRequest, error)
	GetRequest(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.PeerSessionRequest, error)
	ListBySession(ctx context.Context, actorID int64, role string, sessionID uuid.UUID) ([]models.PeerSessionRequest, error)
	ListMine(ctx context.Context, attendeeID int64) ([]models.PeerSessionRequest, error)
	Approve(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.PeerSessionRequest, error)
	Reject(ctx context.Context, actorID int64, role string, id uuid.UUID, message *string) (*models.PeerSessionRequest, error)
	ApproveConcession(ctx context.Context, actorID int64, role string, id uuid.UUID, granted bool) (*models.PeerSessionRequest, error)
	Withdraw(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.PeerSessionRequest, error)
	RequestRefund(ctx context.Context, attendeeID int64, id uuid.UUID) (*models.PeerSessionRequest, error)
	ApproveRefund(ctx context.Context, actorID int64, role string, id uuid.UUID) (*models.PeerSessionRequest, error)
	Pay(ctx context.Context, attendeeID int64, id uuid.UUID) (string, error)
}

type PeerRequestHandler struct {
	service peerRequestApplicationService
}

func NewPeerRequestHandler(service *services.PeerRequestService) *PeerRequestHandler {
	return &PeerRequestHandler{service: service}
}

type createPeerRequestRequest struct {
	StartsAt              string `json:"starts_at"`
	EndsAt                string `json:"ends_at"`
	PayConcessionaryPrice bool   `json:"pay_concessionary_price"`
}

type rejectRequestRequest struct {
	Message *string `json:"message"`
}

type concessionDecisionRequest struct {
	Granted bool `json:"granted"`
}

func (h *PeerRequestHandler) CreateRequest(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	sessionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req createPeerRequestRequest
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

	request, err := h.service.CreateRequest(c.Context(), userID, role, services.CreatePeerRequestInput{
		SessionID:             sessionID,
		StartsAt:              startsAt,
		EndsAt:                endsAt,
		PayConcessionaryPrice: req.PayConcessionaryPrice,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"request": request})
}

func (h *PeerRequestHandler) GetRequest(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	request, err := h.service.GetRequest(c.Context(), userID, role, id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"request": request})
}

func (h *PeerRequestHandler) ListBySession(c *fiber.Ctx) error {
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

func (h *PeerRequestHandler) ListMine(c *fiber.Ctx) error {
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

func (h *PeerRequestHandler) Approve(c *fiber.Ctx) error {
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

func (h *PeerRequestHandler) Reject(c *fiber.Ctx) error {
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

func (h *PeerRequestHandler) ApproveConcession(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	var req concessionDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	request, err := h.service.ApproveConcession(c.Context(), userID, role, id, req.Granted)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"request": request})
}

// Withdraw revokes the request. When an automatic refund fails at the
// provider the withdrawal itself stands, so the response still carries the
// request together with a warning.
func (h *PeerRequestHandler) Withdraw(c *fiber.Ctx) error {
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

func (h *PeerRequestHandler) RequestRefund(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request id"})
	}

	request, err := h.service.RequestRefund(c.Context(), userID, id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"request": request})
}

func (h *PeerRequestHandler) ApproveRefund(c *fiber.Ctx) error {
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

func (h *PeerRequestHandler) Pay(c *fiber.Ctx) error {
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
