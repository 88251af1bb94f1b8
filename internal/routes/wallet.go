package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tier-pay/tier_pay/internal/identity"
	"github.com/tier-pay/tier_pay/internal/ledger"
	"github.com/tier-pay/tier_pay/internal/withdrawal"
)

// RegisterWalletRoutes exposes the current user's wallet view: balances,
// recent ledger entries and withdrawal history.
func RegisterWalletRoutes(r fiber.Router, wallets ledger.Store, withdrawals *withdrawal.Manager, idRepo identity.Repository) {
	r.Get("/wallet/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		user, err := idRepo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusNotFound, "user not found")
		}

		if err := wallets.EnsureWallet(c.UserContext(), uid); err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		bal, err := wallets.Balances(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		entries, err := wallets.RecentEntries(c.UserContext(), uid, 20)
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
		history, err := withdrawals.History(c.UserContext(), withdrawal.HistoryFilter{Owner: uid})
		if err != nil {
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}

		entryViews := make([]fiber.Map, 0, len(entries))
		for _, e := range entries {
			entryViews = append(entryViews, fiber.Map{
				"id":         e.ID,
				"type":       e.Type,
				"sale_ref":   e.SaleRef,
				"amount":     e.Amount,
				"created_at": e.CreatedAt,
			})
		}
		historyViews := make([]fiber.Map, 0, len(history))
		for _, req := range history {
			historyViews = append(historyViews, fiber.Map{
				"id":         req.ID,
				"amount":     req.Amount,
				"fee":        req.Fee,
				"status":     req.Status,
				"created_at": req.CreatedAt,
			})
		}

		return c.Status(http.StatusOK).JSON(fiber.Map{
			"user": fiber.Map{
				"id":    user.ID,
				"name":  user.Name,
				"phone": user.Phone,
				"role":  user.Role,
			},
			"wallet": fiber.Map{
				"total_balance":     bal.Total,
				"available_balance": bal.Available,
				"withheld_balance":  bal.Withheld,
				"as_of":             bal.AsOf,
			},
			"recent_entries": entryViews,
			"withdrawals":    historyViews,
		})
	})
}
