// Package commission turns a completed sale into durable, non-duplicable
// balance changes across the three referral tiers.
package commission

import (
	"context"
	"fmt"

	"github.com/tier-pay/tier_pay/internal/hierarchy"
	"github.com/tier-pay/tier_pay/internal/ledger"
	"github.com/tier-pay/tier_pay/internal/notification"
	"github.com/tier-pay/tier_pay/internal/orders"
)

// Distributor credits the seller, supervisor and regional lead for one sale.
// Every entry point is independently idempotent: a retry of one leg never
// re-credits another, and a duplicate call yields a zero-effect result.
type Distributor struct {
	store    ledger.Store
	resolver *hierarchy.Resolver
	orders   orders.Reader
	notifier notification.Notifier
}

// NewDistributor builds a commission distributor.
func NewDistributor(store ledger.Store, resolver *hierarchy.Resolver, orderReader orders.Reader, notifier notification.Notifier) *Distributor {
	return &Distributor{store: store, resolver: resolver, orders: orderReader, notifier: notifier}
}

// Result describes the outcome of one crediting call. Credited is false for
// every zero-effect outcome: already-paid orders, duplicate deliveries,
// missing hierarchy links and unknown rate categories.
type Result struct {
	Credited  bool
	Owner     string
	Total     int64
	Available int64
	Withheld  int64
}

// splitAvailable computes the immediately spendable portion of a split-policy
// total: floor(total * 0.4) in integer arithmetic, so available + withheld
// always reconstructs the total exactly.
func splitAvailable(total int64) int64 {
	return total * 40 / 100
}

// CreditSeller credits the front-line seller under the split policy: 40% of
// the total lands in the available balance, the remainder is withheld.
func (d *Distributor) CreditSeller(ctx context.Context, sellerID, saleRef string, quantity int64) (Result, error) {
	order, err := d.orders.Get(ctx, saleRef)
	if err != nil {
		return Result{}, err
	}
	if order.CommissionPaid {
		return Result{}, nil
	}

	rates, err := d.resolver.Rates(ctx, saleRef)
	if err != nil {
		return Result{}, err
	}
	total := rates.Seller * quantity
	if total <= 0 {
		return Result{}, nil
	}

	available := splitAvailable(total)
	withheld := total - available

	credited, err := d.store.Credit(ctx, sellerID, []ledger.Entry{
		ledger.GrossCommission(sellerID, saleRef, total),
		ledger.AvailableShare(sellerID, saleRef, available),
		ledger.WithheldShare(sellerID, saleRef, withheld),
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{Credited: credited, Owner: sellerID, Total: total, Available: available, Withheld: withheld}
	if credited {
		d.notify(ctx, sellerID, saleRef, total)
	}
	return res, nil
}

// CreditSupervisor credits the seller's supervisor under the full policy. A
// missing parent link yields a zero-effect result, not an error.
func (d *Distributor) CreditSupervisor(ctx context.Context, sellerID, saleRef string, quantity int64) (Result, error) {
	return d.creditUpline(ctx, sellerID, saleRef, quantity, tierSupervisor)
}

// CreditRegionalLead credits the regional lead above the seller's supervisor
// under the full policy. A missing link yields a zero-effect result.
func (d *Distributor) CreditRegionalLead(ctx context.Context, sellerID, saleRef string, quantity int64) (Result, error) {
	return d.creditUpline(ctx, sellerID, saleRef, quantity, tierRegionalLead)
}

type uplineTier int

const (
	tierSupervisor uplineTier = iota
	tierRegionalLead
)

func (d *Distributor) creditUpline(ctx context.Context, sellerID, saleRef string, quantity int64, tier uplineTier) (Result, error) {
	order, err := d.orders.Get(ctx, saleRef)
	if err != nil {
		return Result{}, err
	}
	if order.CommissionPaid {
		return Result{}, nil
	}

	chain, err := d.resolver.Chain(ctx, sellerID)
	if err != nil {
		return Result{}, err
	}
	rates, err := d.resolver.Rates(ctx, saleRef)
	if err != nil {
		return Result{}, err
	}

	var owner string
	var rate int64
	switch tier {
	case tierSupervisor:
		owner, rate = chain.SupervisorID, rates.Supervisor
	case tierRegionalLead:
		owner, rate = chain.RegionalLeadID, rates.RegionalLead
	}
	if owner == "" {
		return Result{}, nil
	}

	total := rate * quantity
	if total <= 0 {
		return Result{}, nil
	}

	credited, err := d.store.Credit(ctx, owner, []ledger.Entry{
		ledger.DirectCommission(owner, saleRef, total),
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{Credited: credited, Owner: owner, Total: total, Available: total}
	if credited {
		d.notify(ctx, owner, saleRef, total)
	}
	return res, nil
}

// ReleaseWithheld moves a sale's withheld seller share into the available
// balance. Keyed by the sale reference, so a repeated release is a no-op.
func (d *Distributor) ReleaseWithheld(ctx context.Context, owner, saleRef string, amount int64) (Result, error) {
	if amount <= 0 {
		return Result{}, fmt.Errorf("release amount must be positive")
	}

	credited, err := d.store.Credit(ctx, owner, []ledger.Entry{
		ledger.WithheldRelease(owner, saleRef, amount),
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Credited: credited, Owner: owner, Available: amount, Withheld: -amount}, nil
}

func (d *Distributor) notify(ctx context.Context, owner, saleRef string, amount int64) {
	if d.notifier == nil {
		return
	}
	_ = d.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindCommissionCredited,
		Destination: owner,
		Body:        fmt.Sprintf("Commission of %d credited for sale %s", amount, saleRef),
	})
}
