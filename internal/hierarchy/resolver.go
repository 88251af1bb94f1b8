// Package hierarchy resolves the referral chain above a seller and the
// commission rates owed to each tier for a sale. Missing links and missing
// rates degrade to zero outcomes rather than errors.
package hierarchy

import (
	"context"
	"strings"

	"github.com/tier-pay/tier_pay/internal/identity"
	"github.com/tier-pay/tier_pay/internal/orders"
)

// Chain holds the accounts above a seller. Either field may be empty when the
// parent link is absent; crediting for that tier is then skipped.
type Chain struct {
	SupervisorID   string
	RegionalLeadID string
}

// TierRates holds the per-unit commission rate owed to each tier for a device
// category. A missing category resolves to all-zero rates.
type TierRates struct {
	Seller       int64
	Supervisor   int64
	RegionalLead int64
}

// RateStore looks up tier rates by device category.
type RateStore interface {
	// ForCategory returns the rates for a category (matched case-insensitively)
	// and whether the category is known.
	ForCategory(ctx context.Context, category string) (TierRates, bool, error)
}

// Resolver walks parent links and rate tables.
type Resolver struct {
	users  identity.Repository
	rates  RateStore
	orders orders.Reader
}

// NewResolver builds a hierarchy resolver.
func NewResolver(users identity.Repository, rates RateStore, orderReader orders.Reader) *Resolver {
	return &Resolver{users: users, rates: rates, orders: orderReader}
}

// Chain resolves the supervisor and regional lead above a seller. Absent
// parent links yield empty identifiers, not errors.
func (r *Resolver) Chain(ctx context.Context, sellerID string) (Chain, error) {
	seller, err := r.users.FindByID(ctx, sellerID)
	if err != nil {
		return Chain{}, err
	}

	var chain Chain
	if seller.ParentID == "" {
		return chain, nil
	}

	supervisor, err := r.users.FindByID(ctx, seller.ParentID)
	if err != nil {
		// Dangling parent link: treat the tier as absent.
		return chain, nil
	}
	chain.SupervisorID = supervisor.ID
	chain.RegionalLeadID = supervisor.ParentID
	return chain, nil
}

// Rates resolves the tier rates applicable to a sale via its device category.
// Unknown categories resolve to zero rates for every tier.
func (r *Resolver) Rates(ctx context.Context, saleRef string) (TierRates, error) {
	order, err := r.orders.Get(ctx, saleRef)
	if err != nil {
		return TierRates{}, err
	}

	category := strings.ToLower(strings.TrimSpace(order.Category()))
	if category == "" {
		return TierRates{}, nil
	}

	rates, ok, err := r.rates.ForCategory(ctx, category)
	if err != nil {
		return TierRates{}, err
	}
	if !ok {
		return TierRates{}, nil
	}
	return rates, nil
}
