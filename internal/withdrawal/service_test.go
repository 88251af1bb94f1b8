package withdrawal

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/tier-pay/tier_pay/internal/identity"
	"github.com/tier-pay/tier_pay/internal/ledger"
)

const testFee = int64(100)

func newManager(t *testing.T) (*Manager, *ledger.InMemoryStore, identity.Repository) {
	t.Helper()
	led := ledger.NewInMemory()
	users := identity.NewMemoryRepository()
	store := NewMemoryStore(led, users)
	return NewManager(store, led, users, nil, testFee), led, users
}

func addUser(t *testing.T, users identity.Repository, role string) string {
	t.Helper()
	id := uuid.NewString()
	if err := users.Create(context.Background(), identity.User{ID: id, Name: "User " + id[:8], Phone: id[:12], Role: role}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func TestCreateDebitsAmountPlusFee(t *testing.T) {
	mgr, led, users := newManager(t)
	ctx := context.Background()
	owner := addUser(t, users, identity.RoleSeller)
	led.EnsureWallet(ctx, owner)
	ledger.SeedBalances(led, owner, 10_000, 10_000, 0)

	req, err := mgr.Create(ctx, CreateInput{Owner: owner, Amount: 5_000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != StatusPending {
		t.Fatalf("expected pending request, got %s", req.Status)
	}
	if req.Fee != testFee || req.NetAmount != 5_000 || req.TotalCost() != 5_100 {
		t.Fatalf("unexpected amounts: %+v", req)
	}

	bal, _ := led.Balances(ctx, owner)
	if bal.Total != 4_900 || bal.Available != 4_900 {
		t.Fatalf("expected 5100 debited, got %+v", bal)
	}
}

func TestCreateInsufficientFunds(t *testing.T) {
	mgr, led, users := newManager(t)
	ctx := context.Background()
	owner := addUser(t, users, identity.RoleRegionalLead)
	led.EnsureWallet(ctx, owner)
	ledger.SeedBalances(led, owner, 5_000, 5_000, 0)

	// 5000 available cannot cover 5000 + fee.
	_, err := mgr.Create(ctx, CreateInput{Owner: owner, Amount: 5_000})
	var insufficient *InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient funds error, got %v", err)
	}
	if insufficient.Shortfall() != testFee {
		t.Fatalf("expected shortfall %d, got %d", testFee, insufficient.Shortfall())
	}

	bal, _ := led.Balances(ctx, owner)
	if bal.Available != 5_000 {
		t.Fatalf("failed create must not debit: %+v", bal)
	}
}

func TestCreateWithheldDoesNotCoverWithdrawal(t *testing.T) {
	mgr, led, users := newManager(t)
	ctx := context.Background()
	owner := addUser(t, users, identity.RoleRegionalLead)
	led.EnsureWallet(ctx, owner)
	ledger.SeedBalances(led, owner, 10_000, 2_000, 8_000)

	_, err := mgr.Create(ctx, CreateInput{Owner: owner, Amount: 5_000})
	var insufficient *InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("withheld funds must not be spendable, got %v", err)
	}
}

func TestCreateRejectsNonPositiveAmount(t *testing.T) {
	mgr, _, users := newManager(t)
	owner := addUser(t, users, identity.RoleSeller)
	if _, err := mgr.Create(context.Background(), CreateInput{Owner: owner, Amount: 0}); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestCreateRateLimitsSellerAndSupervisor(t *testing.T) {
	for _, role := range []string{identity.RoleSeller, identity.RoleSupervisor} {
		mgr, led, users := newManager(t)
		ctx := context.Background()
		owner := addUser(t, users, role)
		led.EnsureWallet(ctx, owner)
		ledger.SeedBalances(led, owner, 50_000, 50_000, 0)

		first, err := mgr.Create(ctx, CreateInput{Owner: owner, Amount: 1_000})
		if err != nil {
			t.Fatalf("%s: first create: %v", role, err)
		}

		// Reject the first request; the monthly limit still counts it.
		if _, err := mgr.Review(ctx, first.ID, ActionReject, "admin-1"); err != nil {
			t.Fatalf("%s: reject: %v", role, err)
		}

		_, err = mgr.Create(ctx, CreateInput{Owner: owner, Amount: 1_000})
		var limited *RateLimitError
		if !errors.As(err, &limited) {
			t.Fatalf("%s: expected rate limit error, got %v", role, err)
		}
		if limited.Role != role {
			t.Fatalf("expected role %s in error, got %s", role, limited.Role)
		}
	}
}

func TestCreateRateLimitHoldsUnderConcurrency(t *testing.T) {
	mgr, led, users := newManager(t)
	ctx := context.Background()
	owner := addUser(t, users, identity.RoleSeller)
	led.EnsureWallet(ctx, owner)
	ledger.SeedBalances(led, owner, 100_000, 100_000, 0)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Create(ctx, CreateInput{Owner: owner, Amount: 1_000})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, limited int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			var rateErr *RateLimitError
			if !errors.As(err, &rateErr) {
				t.Fatalf("unexpected error: %v", err)
			}
			limited++
		}
	}
	if successes != 1 || limited != workers-1 {
		t.Fatalf("expected exactly one request to land, got %d successes and %d limited", successes, limited)
	}

	bal, _ := led.Balances(ctx, owner)
	if bal.Available != 100_000-1_100 {
		t.Fatalf("expected a single debit, got %+v", bal)
	}
}

func TestCreateRegionalLeadNotRateLimited(t *testing.T) {
	mgr, led, users := newManager(t)
	ctx := context.Background()
	owner := addUser(t, users, identity.RoleRegionalLead)
	led.EnsureWallet(ctx, owner)
	ledger.SeedBalances(led, owner, 50_000, 50_000, 0)

	if _, err := mgr.Create(ctx, CreateInput{Owner: owner, Amount: 1_000}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := mgr.Create(ctx, CreateInput{Owner: owner, Amount: 1_000}); err != nil {
		t.Fatalf("regional lead second create in same month must pass: %v", err)
	}
}

func TestApproveKeepsDebit(t *testing.T) {
	mgr, led, users := newManager(t)
	ctx := context.Background()
	owner := addUser(t, users, identity.RoleSeller)
	led.EnsureWallet(ctx, owner)
	ledger.SeedBalances(led, owner, 10_000, 10_000, 0)

	req, err := mgr.Create(ctx, CreateInput{Owner: owner, Amount: 5_000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reviewed, err := mgr.Review(ctx, req.ID, ActionApprove, "admin-1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if reviewed.Status != StatusApproved || reviewed.ReviewedBy != "admin-1" || reviewed.ReviewedAt == nil {
		t.Fatalf("unexpected reviewed request: %+v", reviewed)
	}

	bal, _ := led.Balances(ctx, owner)
	if bal.Available != 4_900 {
		t.Fatalf("approval must keep the debit: %+v", bal)
	}
}

func TestRejectRefundsAmountPlusFee(t *testing.T) {
	mgr, led, users := newManager(t)
	ctx := context.Background()
	owner := addUser(t, users, identity.RoleSeller)
	led.EnsureWallet(ctx, owner)
	ledger.SeedBalances(led, owner, 10_000, 10_000, 0)

	req, err := mgr.Create(ctx, CreateInput{Owner: owner, Amount: 5_000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reviewed, err := mgr.Review(ctx, req.ID, ActionReject, "admin-1")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if reviewed.Status != StatusRejected {
		t.Fatalf("unexpected status %s", reviewed.Status)
	}

	bal, _ := led.Balances(ctx, owner)
	if bal.Total != 10_000 || bal.Available != 10_000 {
		t.Fatalf("rejection must refund amount plus fee: %+v", bal)
	}
}

func TestReviewTerminalStateIsFinal(t *testing.T) {
	mgr, led, users := newManager(t)
	ctx := context.Background()
	owner := addUser(t, users, identity.RoleRegionalLead)
	led.EnsureWallet(ctx, owner)
	ledger.SeedBalances(led, owner, 10_000, 10_000, 0)

	req, err := mgr.Create(ctx, CreateInput{Owner: owner, Amount: 1_000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := mgr.Review(ctx, req.ID, ActionApprove, "admin-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := mgr.Review(ctx, req.ID, ActionReject, "admin-1"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if _, err := mgr.Review(ctx, req.ID, ActionApprove, "admin-1"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state on re-approve, got %v", err)
	}
}

func TestReviewUnknownRequest(t *testing.T) {
	mgr, _, _ := newManager(t)
	if _, err := mgr.Review(context.Background(), uuid.NewString(), ActionApprove, "admin-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReviewUnknownAction(t *testing.T) {
	mgr, _, _ := newManager(t)
	if _, err := mgr.Review(context.Background(), uuid.NewString(), "escalate", "admin-1"); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestCreatePersistsBankDetails(t *testing.T) {
	mgr, led, users := newManager(t)
	ctx := context.Background()
	owner := addUser(t, users, identity.RoleRegionalLead)
	led.EnsureWallet(ctx, owner)
	ledger.SeedBalances(led, owner, 10_000, 10_000, 0)

	bank := ledger.BankDetails{BankName: "Ecobank", AccountNumber: "99887766", AccountHolder: "R. Lead"}
	req, err := mgr.Create(ctx, CreateInput{Owner: owner, Amount: 1_000, Bank: bank})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Bank != bank {
		t.Fatalf("bank not carried on request: %+v", req.Bank)
	}

	// The details stick to the wallet and back later requests by default.
	bal, _ := led.Balances(ctx, owner)
	if bal.Bank != bank {
		t.Fatalf("bank not persisted on wallet: %+v", bal.Bank)
	}

	second, err := mgr.Create(ctx, CreateInput{Owner: owner, Amount: 1_000})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.Bank != bank {
		t.Fatalf("expected wallet bank fallback, got %+v", second.Bank)
	}
}

func TestPendingAndHistory(t *testing.T) {
	mgr, led, users := newManager(t)
	ctx := context.Background()
	owner := addUser(t, users, identity.RoleRegionalLead)
	led.EnsureWallet(ctx, owner)
	ledger.SeedBalances(led, owner, 50_000, 50_000, 0)

	first, _ := mgr.Create(ctx, CreateInput{Owner: owner, Amount: 1_000})
	second, _ := mgr.Create(ctx, CreateInput{Owner: owner, Amount: 2_000})
	if _, err := mgr.Review(ctx, first.ID, ActionApprove, "admin-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	pending, err := mgr.Pending(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("unexpected pending set: %+v", pending)
	}

	history, err := mgr.History(ctx, HistoryFilter{Owner: owner})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(history))
	}

	approved, err := mgr.History(ctx, HistoryFilter{Owner: owner, Status: StatusApproved})
	if err != nil {
		t.Fatalf("history by status: %v", err)
	}
	if len(approved) != 1 || approved[0].ID != first.ID {
		t.Fatalf("unexpected approved history: %+v", approved)
	}
}
