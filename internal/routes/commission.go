package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tier-pay/tier_pay/internal/commission"
)

// RegisterCommissionRoutes wires the hooks the order fulfillment workflow
// calls once per qualifying sale.
func RegisterCommissionRoutes(r fiber.Router, h *commission.Handler) {
	group := r.Group("/commissions")
	group.Post("/seller", h.CreditSeller)
	group.Post("/supervisor", h.CreditSupervisor)
	group.Post("/regional-lead", h.CreditRegionalLead)
	group.Post("/release", h.Release)
}
