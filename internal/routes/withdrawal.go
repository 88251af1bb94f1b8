package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tier-pay/tier_pay/internal/withdrawal"
)

// RegisterWithdrawalRoutes wires withdrawal creation, listing and review.
func RegisterWithdrawalRoutes(r fiber.Router, h *withdrawal.Handler) {
	group := r.Group("/withdrawals")
	group.Post("", h.Create)
	group.Get("", h.History)
	group.Get("/pending", h.Pending)
	group.Post("/:requestId/review", h.Review)
}
