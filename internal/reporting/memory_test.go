package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tier-pay/tier_pay/internal/identity"
	"github.com/tier-pay/tier_pay/internal/ledger"
	"github.com/tier-pay/tier_pay/internal/withdrawal"
)

type env struct {
	users       identity.Repository
	led         *ledger.InMemoryStore
	withdrawals *withdrawal.MemoryStore
	reader      *MemoryReader
}

func newEnv() *env {
	users := identity.NewMemoryRepository()
	led := ledger.NewInMemory()
	withdrawals := withdrawal.NewMemoryStore(led, users)
	return &env{
		users:       users,
		led:         led,
		withdrawals: withdrawals,
		reader:      NewMemoryReader(users, led, withdrawals),
	}
}

func (e *env) addUser(t *testing.T, name, role, parentID string) string {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()
	if err := e.users.Create(ctx, identity.User{ID: id, Name: name, Phone: id[:12], Role: role, ParentID: parentID}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	e.led.EnsureWallet(ctx, id)
	return id
}

func TestWalletsByRole(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	sellerID := e.addUser(t, "Ama", identity.RoleSeller, "")
	e.addUser(t, "Sup", identity.RoleSupervisor, "")
	ledger.SeedBalances(e.led, sellerID, 10_000, 4_000, 6_000)

	summaries, err := e.reader.WalletsByRole(ctx, identity.RoleSeller)
	if err != nil {
		t.Fatalf("wallets by role: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 seller wallet, got %d", len(summaries))
	}
	s := summaries[0]
	if s.OwnerID != sellerID || s.Total != 10_000 || s.Available != 4_000 || s.Withheld != 6_000 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestSupervisorTeam(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	supID := e.addUser(t, "Sup", identity.RoleSupervisor, "")
	sellerA := e.addUser(t, "Ama", identity.RoleSeller, supID)
	sellerB := e.addUser(t, "Bintou", identity.RoleSeller, supID)

	if _, err := e.led.Credit(ctx, sellerA, []ledger.Entry{
		ledger.GrossCommission(sellerA, "sale-1", 10_000),
		ledger.AvailableShare(sellerA, "sale-1", 4_000),
		ledger.WithheldShare(sellerA, "sale-1", 6_000),
	}); err != nil {
		t.Fatalf("credit: %v", err)
	}

	team, err := e.reader.SupervisorTeam(ctx, supID)
	if err != nil {
		t.Fatalf("supervisor team: %v", err)
	}
	if len(team) != 2 {
		t.Fatalf("expected 2 members, got %d", len(team))
	}

	// Sorted by name: Ama has a commission, Bintou does not.
	if team[0].OwnerID != sellerA || team[0].LastCommissionAt == nil {
		t.Fatalf("expected last commission time for %s: %+v", sellerA, team[0])
	}
	if team[1].OwnerID != sellerB || team[1].LastCommissionAt != nil {
		t.Fatalf("expected no commission time for %s: %+v", sellerB, team[1])
	}
}

func TestSubordinateTree(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	leadID := e.addUser(t, "Lead", identity.RoleRegionalLead, "")
	supA := e.addUser(t, "Alpha", identity.RoleSupervisor, leadID)
	supB := e.addUser(t, "Beta", identity.RoleSupervisor, leadID)
	seller := e.addUser(t, "Ama", identity.RoleSeller, supA)

	if _, err := e.led.Credit(ctx, seller, []ledger.Entry{
		ledger.GrossCommission(seller, "sale-1", 10_000),
		ledger.AvailableShare(seller, "sale-1", 4_000),
		ledger.WithheldShare(seller, "sale-1", 6_000),
	}); err != nil {
		t.Fatalf("credit: %v", err)
	}

	groups, err := e.reader.SubordinateTree(ctx, leadID)
	if err != nil {
		t.Fatalf("subordinate tree: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Supervisor.OwnerID != supA || len(groups[0].Sellers) != 1 || groups[0].Sellers[0].OwnerID != seller {
		t.Fatalf("unexpected first group: %+v", groups[0])
	}
	if groups[1].Supervisor.OwnerID != supB || len(groups[1].Sellers) != 0 {
		t.Fatalf("unexpected second group: %+v", groups[1])
	}

	// Each seller carries their recent ledger activity, most recent first.
	entries := groups[0].Sellers[0].RecentEntries
	if len(entries) != 3 {
		t.Fatalf("expected 3 recent entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.SaleRef != "sale-1" {
			t.Fatalf("unexpected entry: %+v", entry)
		}
	}
	if entries[0].Type != ledger.TypeWithheldShare {
		t.Fatalf("expected most recent entry first, got %+v", entries[0])
	}
}

func TestFeeStats(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	owner := e.addUser(t, "Lead", identity.RoleRegionalLead, "")
	ledger.SeedBalances(e.led, owner, 50_000, 50_000, 0)

	mgr := withdrawal.NewManager(e.withdrawals, e.led, e.users, nil, 100)
	if _, err := mgr.Create(ctx, withdrawal.CreateInput{Owner: owner, Amount: 1_000}); err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	if _, err := mgr.Create(ctx, withdrawal.CreateInput{Owner: owner, Amount: 2_000}); err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}

	for _, bucket := range []string{BucketDay, BucketWeek, BucketMonth, BucketYear} {
		stats, err := e.reader.FeeStats(ctx, bucket)
		if err != nil {
			t.Fatalf("fee stats %s: %v", bucket, err)
		}
		if len(stats) != 1 {
			t.Fatalf("bucket %s: expected 1 period, got %d", bucket, len(stats))
		}
		if stats[0].Requests != 2 || stats[0].FeeTotal != 200 {
			t.Fatalf("bucket %s: unexpected stats %+v", bucket, stats[0])
		}
	}

	if _, err := e.reader.FeeStats(ctx, "hour"); err != ErrUnknownBucket {
		t.Fatalf("expected unknown bucket error, got %v", err)
	}
}

func TestPeriodLabels(t *testing.T) {
	at, err := time.Parse(time.RFC3339, "2026-01-02T10:00:00Z")
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}

	cases := map[string]string{
		BucketDay:   "2026-01-02",
		BucketWeek:  "2026-W01",
		BucketMonth: "2026-01",
		BucketYear:  "2026",
	}
	for bucket, want := range cases {
		if got := PeriodLabel(at, bucket); got != want {
			t.Fatalf("bucket %s: expected %s, got %s", bucket, want, got)
		}
	}
}
