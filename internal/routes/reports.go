package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tier-pay/tier_pay/internal/reporting"
)

// RegisterReportingRoutes wires the read-only dashboard endpoints.
func RegisterReportingRoutes(r fiber.Router, h *reporting.Handler) {
	group := r.Group("/reports")
	group.Get("/wallets", h.Wallets)
	group.Get("/team", h.Team)
	group.Get("/subordinates", h.Subordinates)
	group.Get("/fees", h.Fees)
}
