package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/baldwinboy/neuromancers-community-platform/internal/repository"
	"github.com/baldwinboy/neuromancers-community-platform/internal/services"
)

func currentUserID(c *fiber.Ctx) (int64, bool) {
	userID, ok := c.Locals("user_id").(int64)
	return userID, ok
}

func currentRole(c *fiber.Ctx) (string, bool) {
	role, ok := c.Locals("role").(string)
	return role, ok
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// mapServiceError translates the service sentinels into HTTP responses.
// Payment-provider failures map to 502 so clients can distinguish them from
// their own mistakes.
func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	case errors.Is(err, repository.ErrImmutableField):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Field cannot be changed after creation"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Conflicts with an existing booking"})
	case errors.Is(err, services.ErrCapacityFull):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Session is at capacity"})
	case errors.Is(err, services.ErrAlreadyRefunded):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment already refunded"})
	case errors.Is(err, services.ErrSessionNotPublished):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Session is not published"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Invalid state transition"})
	case errors.Is(err, services.ErrNoPayment):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "No payment to refund"})
	case errors.Is(err, services.ErrPaymentFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Payment provider error"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}
