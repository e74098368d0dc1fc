package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/repository"
)

type certificateStore interface {
	Issue(ctx context.Context, cert *models.Certificate) error
	GetByUserID(ctx context.Context, userID int64) (*models.Certificate, error)
}

type ProfileHandler struct {
	profileRepo    *repository.ProfileRepository
	stripeAccounts *repository.StripeAccountRepository
	certificates   certificateStore
}

func NewProfileHandler(
	profileRepo *repository.ProfileRepository,
	stripeAccounts *repository.StripeAccountRepository,
	certificates *repository.CertificateRepository,
) *ProfileHandler {
	return &ProfileHandler{
		profileRepo:    profileRepo,
		stripeAccounts: stripeAccounts,
		certificates:   certificates,
	}
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Languages   *string `json:"languages"`
	Country     *string `json:"country"`
}

type connectStripeRequest struct {
	AccountID string `json:"account_id"`
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.profileRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
	}

	return c.JSON(fiber.Map{"profile": profile})
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	profile := &models.Profile{
		UserID:      userID,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Languages:   req.Languages,
		Country:     req.Country,
	}
	if err := h.profileRepo.Update(c.Context(), profile); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{"profile": profile})
}

// ConnectStripeAccount records the peer's connected payout account id. The
// account itself is created and verified on the processor's side.
func (h *ProfileHandler) ConnectStripeAccount(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, ok := currentRole(c)
	if !ok || (role != models.RolePeer && role != models.RoleNeuromancer) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	var req connectStripeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	req.AccountID = strings.TrimSpace(req.AccountID)
	if req.AccountID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "account_id is required"})
	}

	if err := h.stripeAccounts.Upsert(c.Context(), userID, req.AccountID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save account"})
	}

	return c.JSON(fiber.Map{"account_id": req.AccountID})
}

type issueCertificateRequest struct {
	ExpiresAt *string `json:"expires_at"`
}

// GetCertificate returns the caller's qualification certificate, if one has
// been issued.
func (h *ProfileHandler) GetCertificate(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	cert, err := h.certificates.GetByUserID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No certificate issued"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load certificate"})
	}
	return c.JSON(fiber.Map{"certificate": cert, "valid": cert.ValidAt(time.Now())})
}

// IssueCertificate records that a neuromancer has checked a user's
// supporting qualification. Re-issuing refreshes the expiry.
func (h *ProfileHandler) IssueCertificate(c *fiber.Ctx) error {
	role, ok := currentRole(c)
	if !ok || role != models.RoleNeuromancer {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	targetID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || targetID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	// The body is optional; without one the certificate never expires.
	var req issueCertificateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}
	cert := &models.Certificate{UserID: targetID}
	if req.ExpiresAt != nil {
		expiresAt, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.ExpiresAt))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "expires_at must be a valid RFC3339 timestamp"})
		}
		cert.ExpiresAt = &expiresAt
	}

	if err := h.certificates.Issue(c.Context(), cert); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue certificate"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"certificate": cert})
}
