package reporting

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tier-pay/tier_pay/internal/identity"
)

// Handler exposes read-only reporting endpoints.
type Handler struct {
	reader Reader
}

// NewHandler constructs a reporting HTTP handler.
func NewHandler(reader Reader) *Handler {
	return &Handler{reader: reader}
}

type summaryResponse struct {
	OwnerID   string `json:"owner_id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Total     int64  `json:"total_balance"`
	Available int64  `json:"available_balance"`
	Withheld  int64  `json:"withheld_balance"`
}

func toSummary(s WalletSummary) summaryResponse {
	return summaryResponse{
		OwnerID:   s.OwnerID,
		Name:      s.Name,
		Role:      s.Role,
		Total:     s.Total,
		Available: s.Available,
		Withheld:  s.Withheld,
	}
}

// Wallets lists wallets filtered by role. Admin only.
func (h *Handler) Wallets(c *fiber.Ctx) error {
	if role, _ := c.Locals("role").(string); role != identity.RoleAdmin {
		return fiber.NewError(http.StatusForbidden, "wallet listing requires the admin role")
	}

	role := c.Query("role")
	if !identity.ValidRole(role) {
		return fiber.NewError(http.StatusBadRequest, "unknown role filter")
	}
	summaries, err := h.reader.WalletsByRole(c.UserContext(), role)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]summaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toSummary(s))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Team shows the authenticated supervisor their sellers' balances and last
// commission timestamps.
func (h *Handler) Team(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if role, _ := c.Locals("role").(string); role != identity.RoleSupervisor && role != identity.RoleAdmin {
		return fiber.NewError(http.StatusForbidden, "team view requires the supervisor role")
	}
	if v := c.Query("supervisor_id"); v != "" {
		uid = v
	}

	members, err := h.reader.SupervisorTeam(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	type memberResponse struct {
		summaryResponse
		LastCommissionAt *time.Time `json:"last_commission_at,omitempty"`
	}
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, memberResponse{summaryResponse: toSummary(m.WalletSummary), LastCommissionAt: m.LastCommissionAt})
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Subordinates shows a regional lead the balances of their whole subtree.
func (h *Handler) Subordinates(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if role, _ := c.Locals("role").(string); role != identity.RoleRegionalLead && role != identity.RoleAdmin {
		return fiber.NewError(http.StatusForbidden, "subordinate view requires the regional lead role")
	}
	if v := c.Query("regional_lead_id"); v != "" {
		uid = v
	}

	groups, err := h.reader.SubordinateTree(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	type entryResponse struct {
		Type      string    `json:"type"`
		SaleRef   string    `json:"sale_ref"`
		Amount    int64     `json:"amount"`
		CreatedAt time.Time `json:"created_at"`
	}
	type sellerResponse struct {
		summaryResponse
		RecentEntries []entryResponse `json:"recent_entries"`
	}
	type groupResponse struct {
		Supervisor summaryResponse  `json:"supervisor"`
		Sellers    []sellerResponse `json:"sellers"`
	}
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		gr := groupResponse{Supervisor: toSummary(g.Supervisor), Sellers: make([]sellerResponse, 0, len(g.Sellers))}
		for _, s := range g.Sellers {
			sr := sellerResponse{summaryResponse: toSummary(s.WalletSummary), RecentEntries: make([]entryResponse, 0, len(s.RecentEntries))}
			for _, e := range s.RecentEntries {
				sr.RecentEntries = append(sr.RecentEntries, entryResponse{
					Type:      e.Type,
					SaleRef:   e.SaleRef,
					Amount:    e.Amount,
					CreatedAt: e.CreatedAt,
				})
			}
			gr.Sellers = append(gr.Sellers, sr)
		}
		out = append(out, gr)
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Fees aggregates withdrawal fees per period. Admin only.
func (h *Handler) Fees(c *fiber.Ctx) error {
	if role, _ := c.Locals("role").(string); role != identity.RoleAdmin {
		return fiber.NewError(http.StatusForbidden, "fee statistics require the admin role")
	}

	bucket := c.Query("bucket", BucketDay)
	buckets, err := h.reader.FeeStats(c.UserContext(), bucket)
	if err != nil {
		if errors.Is(err, ErrUnknownBucket) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	type bucketResponse struct {
		Period   string `json:"period"`
		Requests int    `json:"requests"`
		FeeTotal int64  `json:"fee_total"`
	}
	out := make([]bucketResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, bucketResponse{Period: b.Period, Requests: b.Requests, FeeTotal: b.FeeTotal})
	}
	return c.Status(http.StatusOK).JSON(out)
}
