package commission

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tier-pay/tier_pay/internal/orders"
)

// Handler exposes the crediting hooks invoked by the order fulfillment
// workflow. The workflow calls all three legs and then marks the order paid;
// retries of any leg are safe.
type Handler struct {
	distributor *Distributor
}

// NewHandler constructs a commission handler.
func NewHandler(distributor *Distributor) *Handler {
	return &Handler{distributor: distributor}
}

type creditRequest struct {
	SellerID string `json:"seller_id"`
	SaleRef  string `json:"sale_ref"`
	Quantity int64  `json:"quantity"`
}

type releaseRequest struct {
	OwnerID string `json:"owner_id"`
	SaleRef string `json:"sale_ref"`
	Amount  int64  `json:"amount"`
}

type creditResponse struct {
	Credited  bool   `json:"credited"`
	OwnerID   string `json:"owner_id,omitempty"`
	Total     int64  `json:"total"`
	Available int64  `json:"available"`
	Withheld  int64  `json:"withheld"`
}

// CreditSeller credits the front-line seller for a sale.
func (h *Handler) CreditSeller(c *fiber.Ctx) error {
	return h.credit(c, h.distributor.CreditSeller)
}

// CreditSupervisor credits the seller's supervisor for a sale.
func (h *Handler) CreditSupervisor(c *fiber.Ctx) error {
	return h.credit(c, h.distributor.CreditSupervisor)
}

// CreditRegionalLead credits the regional lead for a sale.
func (h *Handler) CreditRegionalLead(c *fiber.Ctx) error {
	return h.credit(c, h.distributor.CreditRegionalLead)
}

func (h *Handler) credit(c *fiber.Ctx, credit func(ctx context.Context, sellerID, saleRef string, quantity int64) (Result, error)) error {
	var req creditRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.SellerID == "" || req.SaleRef == "" || req.Quantity <= 0 {
		return fiber.NewError(http.StatusBadRequest, "seller_id, sale_ref and a positive quantity are required")
	}

	res, err := credit(c.UserContext(), req.SellerID, req.SaleRef, req.Quantity)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return fiber.NewError(http.StatusNotFound, "order not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(creditResponse{
		Credited:  res.Credited,
		OwnerID:   res.Owner,
		Total:     res.Total,
		Available: res.Available,
		Withheld:  res.Withheld,
	})
}

// Release moves a withheld seller share into the available balance.
func (h *Handler) Release(c *fiber.Ctx) error {
	var req releaseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.distributor.ReleaseWithheld(c.UserContext(), req.OwnerID, req.SaleRef, req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(creditResponse{
		Credited:  res.Credited,
		OwnerID:   res.Owner,
		Available: res.Available,
		Withheld:  res.Withheld,
	})
}
