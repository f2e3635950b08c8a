package handlers

import (
	"errors"

	"bounty-escrow-system/services"

	"github.com/gofiber/fiber/v2"
)

// fail maps the service error taxonomy onto HTTP statuses. Inconsistency
// errors deliberately do not surface as ordinary failures: the caller is
// told reconciliation is pending rather than shown a retryable-looking
// error.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrStorageUnavailable), errors.Is(err, services.ErrLedgerUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "upstream temporarily unavailable, try again",
		})
	case errors.Is(err, services.ErrInconsistent):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":          "settlement recorded partially; reconciliation pending",
			"reconciliation": true,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
