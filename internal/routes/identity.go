package routes

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tier-pay/tier_pay/internal/identity"
	"github.com/tier-pay/tier_pay/internal/ledger"
)

// RegisterIdentityRoutes wires identity endpoints and lazily provisions a
// wallet on registration.
func RegisterIdentityRoutes(r fiber.Router, ids *identity.Service, wallets ledger.Store, logger *slog.Logger) {
	r.Post("/identity/register", func(c *fiber.Ctx) error {
		var req struct {
			Name     string `json:"name"`
			Phone    string `json:"phone"`
			Password string `json:"password"`
			Role     string `json:"role"`
			ParentID string `json:"parent_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		user, err := ids.Register(c.UserContext(), identity.RegisterInput{
			Name:     req.Name,
			Phone:    req.Phone,
			Password: req.Password,
			Role:     req.Role,
			ParentID: req.ParentID,
		})
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if wallets != nil {
			if err := wallets.EnsureWallet(c.UserContext(), user.ID); err != nil && logger != nil {
				logger.Warn("provision wallet", "user_id", user.ID, "error", err)
			}
		}
		if logger != nil {
			logger.Info("identity.register completed",
				slog.String("user_id", user.ID),
				slog.String("phone", user.Phone),
				slog.String("role", user.Role),
				slog.Int("status", http.StatusCreated),
			)
		}
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"user_id":   user.ID,
			"name":      user.Name,
			"phone":     user.Phone,
			"role":      user.Role,
			"parent_id": user.ParentID,
		})
	})
}
