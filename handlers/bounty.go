package handlers

import (
	"strconv"

	"bounty-escrow-system/middleware"
	"bounty-escrow-system/models"
	"bounty-escrow-system/services"
	"bounty-escrow-system/store"

	"github.com/gofiber/fiber/v2"
)

// SetupBountyRoutes wires bounty and claim endpoints. Reads are public
// (behind gateway auth); everything that mutates state requires the wallet
// context and threads that identity into the services explicitly.
func SetupBountyRoutes(
	app *fiber.App,
	ledger *services.BountyLedger,
	registry *services.ClaimRegistry,
	pipeline *services.SubmissionPipeline,
	engine *services.ReviewEngine,
	dir *services.OrganizationDirectory,
) {
	app.Get("/bounties", func(c *fiber.Ctx) error {
		f := store.BountyFilter{Creator: c.Query("creator")}
		switch c.Query("status") {
		case "open":
			f.Status = models.BountyStatusOpen
		case "closed":
			f.Status = models.BountyStatusClosed
		case "":
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be open or closed"})
		}
		bounties, err := ledger.List(c.Context(), f)
		if err != nil {
			return fail(c, err)
		}
		if bounties == nil {
			bounties = []models.Bounty{}
		}
		return c.JSON(fiber.Map{"bounties": bounties})
	})

	app.Get("/bounties/:id", func(c *fiber.Ctx) error {
		id, ok := parseID(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid bounty or claim id"})
		}
		b, err := ledger.Get(c.Context(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(b)
	})

	app.Get("/bounties/:id/claims", func(c *fiber.Ctx) error {
		id, ok := parseID(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid bounty or claim id"})
		}
		claims, err := registry.ListByBounty(c.Context(), id)
		if err != nil {
			return fail(c, err)
		}
		if claims == nil {
			claims = []models.Claim{}
		}
		return c.JSON(fiber.Map{"claims": claims})
	})

	app.Get("/claims/:id", func(c *fiber.Ctx) error {
		id, ok := parseID(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid bounty or claim id"})
		}
		claim, err := registry.Get(c.Context(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(claim)
	})

	secured := app.Group("/", middleware.WalletContextMiddleware())

	secured.Post("/bounties", func(c *fiber.Ctx) error {
		creator := c.Locals("wallet_address").(string)
		var req struct {
			Title        string `json:"title"`
			RewardToken  string `json:"rewardToken"`
			RewardAmount int64  `json:"rewardAmount"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		id, err := ledger.Create(c.Context(), creator, req.Title, req.RewardToken, req.RewardAmount)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	})

	secured.Post("/bounties/:id/cancel", func(c *fiber.Ctx) error {
		caller := c.Locals("wallet_address").(string)
		id, ok := parseID(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid bounty or claim id"})
		}
		if err := engine.CancelBounty(c.Context(), id, caller); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "message": "Bounty cancelled and escrow refunded"})
	})

	secured.Post("/bounties/:id/claims", func(c *fiber.Ctx) error {
		submitter := c.Locals("wallet_address").(string)
		id, ok := parseID(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid bounty or claim id"})
		}
		var req struct {
			Teaser      string `json:"teaser"`
			FullMessage string `json:"fullMessage"`
			PGPKey      string `json:"pgpKey"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		// The submitter may paste the organization's key explicitly;
		// otherwise resolve it from the directory via the bounty creator.
		// No key either way means the labeled fallback encoding.
		recipientKey := req.PGPKey
		if recipientKey == "" {
			if b, err := ledger.Get(c.Context(), id); err == nil {
				if org, err := dir.Get(c.Context(), b.Creator); err == nil {
					recipientKey = org.PGPPublicKey
				}
			}
		}

		claimID, err := pipeline.SubmitClaim(c.Context(), id, submitter, req.Teaser, req.FullMessage, recipientKey)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": claimID})
	})

	secured.Post("/claims/:id/approve", func(c *fiber.Ctx) error {
		reviewer := c.Locals("wallet_address").(string)
		id, ok := parseID(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid bounty or claim id"})
		}
		if err := engine.ApproveClaim(c.Context(), id, reviewer); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "message": "Claim approved, funds released"})
	})

	secured.Post("/claims/:id/reject", func(c *fiber.Ctx) error {
		reviewer := c.Locals("wallet_address").(string)
		id, ok := parseID(c, "id")
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid bounty or claim id"})
		}
		if err := engine.RejectClaim(c.Context(), id, reviewer); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "message": "Claim rejected"})
	})
}

func parseID(c *fiber.Ctx, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
