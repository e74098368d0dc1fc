package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
	"github.com/baldwinboy/neuromancers-community-platform/internal/repository"
)

type SettingsHandler struct {
	settingsRepo *repository.SettingsRepository
}

func NewSettingsHandler(settingsRepo *repository.SettingsRepository) *SettingsHandler {
	return &SettingsHandler{settingsRepo: settingsRepo}
}

func validPreference(value string) bool {
	switch value {
	case models.NotifyNone, models.NotifyWebOnly, models.NotifyEmail, models.NotifyAll:
		return true
	default:
		return false
	}
}

// defaultNotificationSettings is what users get before they save anything:
// every event delivered as a web notification.
func defaultNotificationSettings(userID int64) *models.NotificationSettings {
	return &models.NotificationSettings{
		UserID:           userID,
		RequestedSession: models.NotifyWebOnly,
		RespondedSession: models.NotifyWebOnly,
		CancelledSession: models.NotifyWebOnly,
		SessionReminders: models.NotifyWebOnly,
		PaymentMade:      models.NotifyWebOnly,
		PaymentRefunded:  models.NotifyWebOnly,
	}
}

func defaultPeerNotificationSettings(userID int64) *models.PeerNotificationSettings {
	return &models.PeerNotificationSettings{
		UserID:           userID,
		PublishedSession: models.NotifyWebOnly,
		SessionRequested: models.NotifyWebOnly,
		SessionBooked:    models.NotifyWebOnly,
		SessionCancelled: models.NotifyWebOnly,
		SessionReminders: models.NotifyWebOnly,
		PaymentReceived:  models.NotifyWebOnly,
		RefundRequested:  models.NotifyWebOnly,
		PaymentRefunded:  models.NotifyWebOnly,
	}
}

func (h *SettingsHandler) GetNotificationSettings(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	settings, err := h.settingsRepo.GetNotificationSettings(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(fiber.Map{"settings": defaultNotificationSettings(userID)})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load settings"})
	}
	return c.JSON(fiber.Map{"settings": settings})
}

func (h *SettingsHandler) UpdateNotificationSettings(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	settings := defaultNotificationSettings(userID)
	if err := c.BodyParser(settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	settings.UserID = userID
	for _, value := range []string{
		settings.RequestedSession,
		settings.RespondedSession,
		settings.CancelledSession,
		settings.SessionReminders,
		settings.PaymentMade,
		settings.PaymentRefunded,
	} {
		if !validPreference(value) {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "Preferences must be none, web_only, email or all"})
		}
	}

	if err := h.settingsRepo.UpsertNotificationSettings(c.Context(), settings); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save settings"})
	}
	return c.JSON(fiber.Map{"settings": settings})
}

func (h *SettingsHandler) GetPeerNotificationSettings(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)
	if role != models.RolePeer && role != models.RoleNeuromancer {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	settings, err := h.settingsRepo.GetPeerNotificationSettings(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(fiber.Map{"settings": defaultPeerNotificationSettings(userID)})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load settings"})
	}
	return c.JSON(fiber.Map{"settings": settings})
}

func (h *SettingsHandler) UpdatePeerNotificationSettings(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)
	if role != models.RolePeer && role != models.RoleNeuromancer {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	settings := defaultPeerNotificationSettings(userID)
	if err := c.BodyParser(settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	settings.UserID = userID
	for _, value := range []string{
		settings.PublishedSession,
		settings.SessionRequested,
		settings.SessionBooked,
		settings.SessionCancelled,
		settings.SessionReminders,
		settings.PaymentReceived,
		settings.RefundRequested,
		settings.PaymentRefunded,
	} {
		if !validPreference(value) {
			return c.Status(fiber.StatusBadRequest).
				JSON(fiber.Map{"error": "Preferences must be none, web_only, email or all"})
		}
	}

	if err := h.settingsRepo.UpsertPeerNotificationSettings(c.Context(), settings); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save settings"})
	}
	return c.JSON(fiber.Map{"settings": settings})
}

// Peer filter settings are a user's saved feed filters. The server stores
// the blob verbatim; only the client interprets it.
func (h *SettingsHandler) GetPeerFilterSettings(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	settings, err := h.settingsRepo.GetPeerFilterSettings(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(fiber.Map{"settings": &models.PeerFilterSettings{UserID: userID}})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load settings"})
	}
	return c.JSON(fiber.Map{"settings": settings})
}

func (h *SettingsHandler) UpdatePeerFilterSettings(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	settings := &models.PeerFilterSettings{}
	if err := c.BodyParser(settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	settings.UserID = userID

	if err := h.settingsRepo.UpsertPeerFilterSettings(c.Context(), settings); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save settings"})
	}
	return c.JSON(fiber.Map{"settings": settings})
}

func (h *SettingsHandler) GetPeerPrivacySettings(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)
	if role != models.RolePeer && role != models.RoleNeuromancer {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	settings, err := h.settingsRepo.GetPeerPrivacySettings(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(fiber.Map{"settings": &models.PeerPrivacySettings{
				UserID:                 userID,
				ShowCalendar:           true,
				ShowPeerSessionDetails: true,
			}})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load settings"})
	}
	return c.JSON(fiber.Map{"settings": settings})
}

func (h *SettingsHandler) UpdatePeerPrivacySettings(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	role, _ := currentRole(c)
	if role != models.RolePeer && role != models.RoleNeuromancer {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	settings := &models.PeerPrivacySettings{
		UserID:                 userID,
		ShowCalendar:           true,
		ShowPeerSessionDetails: true,
	}
	if err := c.BodyParser(settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	settings.UserID = userID

	if err := h.settingsRepo.UpsertPeerPrivacySettings(c.Context(), settings); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save settings"})
	}
	return c.JSON(fiber.Map{"settings": settings})
}
