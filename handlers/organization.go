package handlers

import (
	"bounty-escrow-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupOrganizationRoutes wires the organization registry API. Registration
// is open to any gateway-authenticated caller; the wallet in the body is the
// identity being registered, matching the legacy API shape.
func SetupOrganizationRoutes(app *fiber.App, dir *services.OrganizationDirectory) {
	app.Post("/register-org", func(c *fiber.Ctx) error {
		var req struct {
			OrgName       string `json:"orgName"`
			PGPKey        string `json:"pgpKey"`
			WalletAddress string `json:"walletAddress"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		if err := dir.Register(c.Context(), req.WalletAddress, req.OrgName, req.PGPKey); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"success":       true,
			"message":       "Organization registered successfully",
			"walletAddress": services.CanonicalWallet(req.WalletAddress),
		})
	})

	app.Get("/orgs", func(c *fiber.Ctx) error {
		orgs, err := dir.List(c.Context())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"organizations": orgs})
	})
}
