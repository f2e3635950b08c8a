package handlers

import (
	"errors"
	"log"

	"bounty-escrow-system/services"
	"bounty-escrow-system/storage"

	"github.com/gofiber/fiber/v2"
)

// SetupSubmissionRoutes wires the legacy free-form submission log and the
// content upload endpoint.
func SetupSubmissionRoutes(app *fiber.App, logSvc *services.SubmissionLog, blobs storage.Store) {
	app.Post("/submit", func(c *fiber.Ctx) error {
		var req struct {
			CID string `json:"cid"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := logSvc.Append(c.Context(), req.CID); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "message": "Submission saved successfully"})
	})

	app.Get("/submissions", func(c *fiber.Ctx) error {
		subs, err := logSvc.List(c.Context())
		if err != nil {
			return fail(c, err)
		}
		if subs == nil {
			subs = []string{}
		}
		return c.JSON(fiber.Map{"submissions": subs})
	})

	// Upload stores raw content and returns its identifier. If the blob
	// store is unavailable the handler degrades: it returns the locally
	// computed identifier, flagged so the caller knows the bytes are not
	// durably stored yet.
	app.Post("/upload", func(c *fiber.Ctx) error {
		var req struct {
			Content  string `json:"content"`
			Filename string `json:"filename"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Content == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Content is required"})
		}

		cid, err := blobs.Put(c.Context(), []byte(req.Content))
		if err != nil {
			if errors.Is(err, storage.ErrUnavailable) {
				local := storage.ContentID([]byte(req.Content))
				log.Printf("[UPLOAD] store unavailable, returning local identifier %s (filename=%q)", local, req.Filename)
				return c.JSON(fiber.Map{
					"cid":      local,
					"degraded": true,
					"message":  "Content store unavailable; identifier computed locally, content not yet persisted",
				})
			}
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"cid":      cid,
			"degraded": false,
			"message":  "Content stored successfully",
		})
	})
}
