package httphandler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *HttpHandler) Mount(router fiber.Router) error {
	r := router.Group("/v1/settlement")

	r.Post("/accounts/deposit", h.Deposit)
	r.Get("/accounts/:account/balance", h.GetAccountBalance)

	r.Post("/contracts", h.Deploy)
	r.Get("/contracts/:address", h.GetContract)
	r.Put("/contracts/:address/sponsoring", h.SetSponsoring)
	r.Put("/contracts/:address/allowlist", h.SetAllowlisted)
	r.Post("/contracts/:address/withdraw", h.Withdraw)
	r.Post("/contracts/:address/create-and-mint", h.CreateAndMint)
	r.Post("/contracts/:address/mint-token", h.MintToken)
	r.Post("/contracts/:address/create-event", h.CreateEvent)
	r.Post("/contracts/:address/mint-in-event", h.MintInEvent)
	r.Post("/contracts/:address/batch-settle", h.BatchSettle)
	r.Get("/contracts/:address/creations", h.GetRecentCreations)

	r.Get("/events/:collection", h.GetEvent)
	return nil
}
