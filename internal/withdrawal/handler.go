package withdrawal

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tier-pay/tier_pay/internal/identity"
	"github.com/tier-pay/tier_pay/internal/ledger"
)

// Handler exposes withdrawal endpoints.
type Handler struct {
	manager *Manager
}

// NewHandler constructs a withdrawal HTTP handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

type createRequest struct {
	Amount        int64  `json:"amount"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
}

type requestResponse struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Amount     int64      `json:"amount"`
	Fee        int64      `json:"fee"`
	NetAmount  int64      `json:"net_amount"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ReviewedBy string     `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

func toResponse(req Request) requestResponse {
	return requestResponse{
		ID:         req.ID,
		OwnerID:    req.Owner,
		Amount:     req.Amount,
		Fee:        req.Fee,
		NetAmount:  req.NetAmount,
		Status:     req.Status,
		CreatedAt:  req.CreatedAt,
		ReviewedBy: req.ReviewedBy,
		ReviewedAt: req.ReviewedAt,
	}
}

// Create opens a payout request for the authenticated user.
func (h *Handler) Create(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	created, err := h.manager.Create(c.UserContext(), CreateInput{
		Owner:  uid,
		Amount: req.Amount,
		Bank: ledger.BankDetails{
			BankName:      req.BankName,
			AccountNumber: req.AccountNumber,
			AccountHolder: req.AccountHolder,
		},
	})
	if err != nil {
		var rateErr *RateLimitError
		var fundsErr *InsufficientFundsError
		switch {
		case errors.As(err, &rateErr):
			return fiber.NewError(http.StatusTooManyRequests, rateErr.Error())
		case errors.As(err, &fundsErr):
			return fiber.NewError(http.StatusBadRequest, fundsErr.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusCreated).JSON(toResponse(created))
}

type reviewRequest struct {
	Action string `json:"action"`
}

// Review approves or rejects a pending request. Admin only.
func (h *Handler) Review(c *fiber.Ctx) error {
	reviewer, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(string)
	if role != identity.RoleAdmin {
		return fiber.NewError(http.StatusForbidden, "review requires the admin role")
	}

	var req reviewRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	reviewed, err := h.manager.Review(c.UserContext(), c.Params("requestId"), req.Action, reviewer)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInvalidState):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(toResponse(reviewed))
}

// Pending lists requests awaiting review. Admin only.
func (h *Handler) Pending(c *fiber.Ctx) error {
	role, _ := c.Locals("role").(string)
	if role != identity.RoleAdmin {
		return fiber.NewError(http.StatusForbidden, "listing requires the admin role")
	}

	pending, err := h.manager.Pending(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]requestResponse, 0, len(pending))
	for _, req := range pending {
		out = append(out, toResponse(req))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// History lists requests filtered by date range, name and role.
func (h *Handler) History(c *fiber.Ctx) error {
	filter := HistoryFilter{
		Status: c.Query("status"),
		Role:   c.Query("role"),
		Name:   c.Query("name"),
	}
	if role, _ := c.Locals("role").(string); role != identity.RoleAdmin {
		// Non-admins only see their own history.
		filter.Owner, _ = c.Locals("user_id").(string)
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid from timestamp")
		}
		filter.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid to timestamp")
		}
		filter.To = t
	}

	history, err := h.manager.History(c.UserContext(), filter)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]requestResponse, 0, len(history))
	for _, req := range history {
		out = append(out, toResponse(req))
	}
	return c.Status(http.StatusOK).JSON(out)
}
