package ledger

import (
	"context"
	"sync"
	"testing"
)

func TestCreditMaintainsInvariant(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	credited, err := s.Credit(ctx, "seller-1", []Entry{
		GrossCommission("seller-1", "sale-1", 30_000),
		AvailableShare("seller-1", "sale-1", 12_000),
		WithheldShare("seller-1", "sale-1", 18_000),
	})
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if !credited {
		t.Fatalf("expected fresh credit to report credited")
	}

	bal, err := s.Balances(ctx, "seller-1")
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if bal.Total != 30_000 || bal.Available != 12_000 || bal.Withheld != 18_000 {
		t.Fatalf("unexpected balances: %+v", bal)
	}
	if bal.Total != bal.Available+bal.Withheld {
		t.Fatalf("invariant broken: %+v", bal)
	}
}

func TestCreditIsIdempotent(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	entries := []Entry{
		GrossCommission("seller-1", "sale-1", 10_000),
		AvailableShare("seller-1", "sale-1", 4_000),
		WithheldShare("seller-1", "sale-1", 6_000),
	}
	if _, err := s.Credit(ctx, "seller-1", entries); err != nil {
		t.Fatalf("first credit: %v", err)
	}

	credited, err := s.Credit(ctx, "seller-1", entries)
	if err != nil {
		t.Fatalf("duplicate credit must not error: %v", err)
	}
	if credited {
		t.Fatalf("duplicate credit must be a no-op")
	}

	bal, _ := s.Balances(ctx, "seller-1")
	if bal.Total != 10_000 {
		t.Fatalf("duplicate credit changed balances: %+v", bal)
	}

	entries2, err := s.RecentEntries(ctx, "seller-1", 50)
	if err != nil {
		t.Fatalf("recent entries: %v", err)
	}
	if len(entries2) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries2))
	}
}

func TestCreditConcurrentDuplicates(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	creditedCount := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			credited, err := s.Credit(ctx, "seller-1", []Entry{
				GrossCommission("seller-1", "sale-1", 5_000),
				AvailableShare("seller-1", "sale-1", 2_000),
				WithheldShare("seller-1", "sale-1", 3_000),
			})
			if err != nil {
				t.Errorf("credit failed: %v", err)
			}
			creditedCount <- credited
		}()
	}
	wg.Wait()
	close(creditedCount)

	wins := 0
	for credited := range creditedCount {
		if credited {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning credit, got %d", wins)
	}

	bal, _ := s.Balances(ctx, "seller-1")
	if bal.Total != 5_000 || bal.Available != 2_000 || bal.Withheld != 3_000 {
		t.Fatalf("unexpected balances after concurrent credits: %+v", bal)
	}
}

func TestApplyDeltaRefusesOverdraft(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	s.EnsureWallet(ctx, "seller-1")
	SeedBalances(s, "seller-1", 1_000, 1_000, 0)

	if err := s.ApplyDelta(ctx, "seller-1", Delta{Total: -2_000, Available: -2_000}); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	bal, _ := s.Balances(ctx, "seller-1")
	if bal.Available != 1_000 {
		t.Fatalf("failed debit must not change balances: %+v", bal)
	}
}

func TestWithheldReleaseCannotExceedWithheld(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	s.EnsureWallet(ctx, "seller-1")
	SeedBalances(s, "seller-1", 10_000, 4_000, 6_000)

	if _, err := s.Credit(ctx, "seller-1", []Entry{
		WithheldRelease("seller-1", "sale-1", 9_000),
	}); err != ErrInsufficientFunds {
		t.Fatalf("expected insufficient funds on over-release, got %v", err)
	}

	credited, err := s.Credit(ctx, "seller-1", []Entry{
		WithheldRelease("seller-1", "sale-1", 6_000),
	})
	if err != nil || !credited {
		t.Fatalf("release failed: credited=%v err=%v", credited, err)
	}

	bal, _ := s.Balances(ctx, "seller-1")
	if bal.Total != 10_000 || bal.Available != 10_000 || bal.Withheld != 0 {
		t.Fatalf("unexpected balances after release: %+v", bal)
	}
}

func TestBalancesUnknownWallet(t *testing.T) {
	s := NewInMemory()
	if _, err := s.Balances(context.Background(), "nobody"); err != ErrWalletNotFound {
		t.Fatalf("expected wallet not found, got %v", err)
	}
}

func TestSetBankDetails(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	s.EnsureWallet(ctx, "seller-1")

	bank := BankDetails{BankName: "UBA", AccountNumber: "0123456789", AccountHolder: "A. Seller"}
	if err := s.SetBankDetails(ctx, "seller-1", bank); err != nil {
		t.Fatalf("set bank details: %v", err)
	}

	bal, _ := s.Balances(ctx, "seller-1")
	if bal.Bank != bank {
		t.Fatalf("bank details not persisted: %+v", bal.Bank)
	}
}
