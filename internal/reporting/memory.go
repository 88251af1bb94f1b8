package reporting

import (
	"context"
	"sort"

	"github.com/tier-pay/tier_pay/internal/identity"
	"github.com/tier-pay/tier_pay/internal/ledger"
	"github.com/tier-pay/tier_pay/internal/withdrawal"
)

// MemoryReader composes the in-memory stores into a reporting reader for tests.
type MemoryReader struct {
	users       identity.Repository
	led         *ledger.InMemoryStore
	withdrawals *withdrawal.MemoryStore
}

// NewMemoryReader builds an in-memory reporting reader.
func NewMemoryReader(users identity.Repository, led *ledger.InMemoryStore, withdrawals *withdrawal.MemoryStore) *MemoryReader {
	return &MemoryReader{users: users, led: led, withdrawals: withdrawals}
}

func (r *MemoryReader) summaryFor(ctx context.Context, user identity.User) WalletSummary {
	s := WalletSummary{OwnerID: user.ID, Name: user.Name, Role: user.Role}
	if bal, err := r.led.Balances(ctx, user.ID); err == nil {
		s.Total = bal.Total
		s.Available = bal.Available
		s.Withheld = bal.Withheld
	}
	return s
}

// WalletsByRole lists wallets owned by users with the given role.
func (r *MemoryReader) WalletsByRole(ctx context.Context, role string) ([]WalletSummary, error) {
	var out []WalletSummary
	for _, owner := range r.led.Owners() {
		user, err := r.users.FindByID(ctx, owner)
		if err != nil || user.Role != role {
			continue
		}
		out = append(out, r.summaryFor(ctx, user))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SupervisorTeam lists a supervisor's sellers with balances and last
// commission time.
func (r *MemoryReader) SupervisorTeam(ctx context.Context, supervisorID string) ([]TeamMember, error) {
	sellers, err := r.users.Children(ctx, supervisorID)
	if err != nil {
		return nil, err
	}

	var members []TeamMember
	for _, seller := range sellers {
		m := TeamMember{WalletSummary: r.summaryFor(ctx, seller)}
		entries, err := r.led.RecentEntries(ctx, seller.ID, 1000)
		if err == nil {
			for _, e := range entries {
				if e.Type == ledger.TypeGrossCommission {
					t := e.CreatedAt
					m.LastCommissionAt = &t
					break
				}
			}
		}
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members, nil
}

// SubordinateTree lists the supervisors under a regional lead with their
// sellers' balances and recent ledger entries.
func (r *MemoryReader) SubordinateTree(ctx context.Context, regionalLeadID string) ([]TeamGroup, error) {
	supervisors, err := r.users.Children(ctx, regionalLeadID)
	if err != nil {
		return nil, err
	}

	var groups []TeamGroup
	for _, sup := range supervisors {
		group := TeamGroup{Supervisor: r.summaryFor(ctx, sup)}
		sellers, err := r.users.Children(ctx, sup.ID)
		if err != nil {
			return nil, err
		}
		for _, seller := range sellers {
			ts := TeamSeller{WalletSummary: r.summaryFor(ctx, seller)}
			entries, err := r.led.RecentEntries(ctx, seller.ID, subtreeEntryLimit)
			if err == nil {
				for _, e := range entries {
					ts.RecentEntries = append(ts.RecentEntries, EntrySummary{
						Type:      e.Type,
						SaleRef:   e.SaleRef,
						Amount:    e.Amount,
						CreatedAt: e.CreatedAt,
					})
				}
			}
			group.Sellers = append(group.Sellers, ts)
		}
		sort.Slice(group.Sellers, func(i, j int) bool { return group.Sellers[i].Name < group.Sellers[j].Name })
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Supervisor.Name < groups[j].Supervisor.Name })
	return groups, nil
}

// FeeStats aggregates withdrawal fees per period.
func (r *MemoryReader) FeeStats(_ context.Context, bucket string) ([]FeeBucket, error) {
	if !ValidBucket(bucket) {
		return nil, ErrUnknownBucket
	}

	totals := make(map[string]*FeeBucket)
	for _, req := range r.withdrawals.All() {
		label := PeriodLabel(req.CreatedAt, bucket)
		b, ok := totals[label]
		if !ok {
			b = &FeeBucket{Period: label}
			totals[label] = b
		}
		b.Requests++
		b.FeeTotal += req.Fee
	}

	out := make([]FeeBucket, 0, len(totals))
	for _, b := range totals {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out, nil
}
