package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// WalletContextMiddleware extracts the caller's wallet identity forwarded by
// the Gateway after wallet-signature verification. The connected-wallet
// notion of the front end becomes an explicit identity parameter here; no
// handler reads ambient session state. Routes that mutate bounty or claim
// state reject requests without it.
func WalletContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// c.Get returns a string aliasing fasthttp's reusable request buffer;
		// this value outlives the request (it is stored in bounty and claim
		// records), so it must be copied before retention.
		wallet := strings.Clone(strings.ToLower(strings.TrimSpace(c.Get("X-Wallet-Address"))))
		if wallet == "" {
			log.Printf("[WALLET_CTX] X-Wallet-Address required but missing on %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Wallet-Address — request must come through gateway with a verified wallet",
			})
		}

		c.Locals("wallet_address", wallet)
		return c.Next()
	}
}
