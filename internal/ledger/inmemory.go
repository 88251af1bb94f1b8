package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type walletRecord struct {
	total     int64
	available int64
	withheld  int64
	bank      BankDetails
}

// InMemoryStore is a concurrency-safe in-memory wallet and ledger store used
// in unit tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	wallets map[string]*walletRecord
	entries []Entry
	keys    map[string]struct{}
}

// NewInMemory creates an in-memory store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		wallets: make(map[string]*walletRecord),
		keys:    make(map[string]struct{}),
	}
}

func entryKey(owner, entryType, saleRef string) string {
	return owner + "|" + entryType + "|" + saleRef
}

// EnsureWallet creates a zero-balance wallet if none exists.
func (s *InMemoryStore) EnsureWallet(_ context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLocked(owner)
	return nil
}

func (s *InMemoryStore) ensureLocked(owner string) *walletRecord {
	w, ok := s.wallets[owner]
	if !ok {
		w = &walletRecord{}
		s.wallets[owner] = w
	}
	return w
}

// Balances returns a snapshot of the owner's wallet.
func (s *InMemoryStore) Balances(_ context.Context, owner string) (Balances, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[owner]
	if !ok {
		return Balances{}, ErrWalletNotFound
	}
	return Balances{
		Owner:     owner,
		Total:     w.total,
		Available: w.available,
		Withheld:  w.withheld,
		Bank:      w.bank,
		AsOf:      time.Now().UTC(),
	}, nil
}

// SetBankDetails stores the payout destination.
func (s *InMemoryStore) SetBankDetails(_ context.Context, owner string, bank BankDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[owner]
	if !ok {
		return ErrWalletNotFound
	}
	w.bank = bank
	return nil
}

// Credit records the entries idempotently and applies the delta of those that
// were newly inserted.
func (s *InMemoryStore) Credit(_ context.Context, owner string, entries []Entry) (bool, error) {
	if len(entries) == 0 {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.ensureLocked(owner)

	var delta Delta
	var fresh []Entry
	for _, e := range entries {
		if _, exists := s.keys[entryKey(e.Owner, e.Type, e.SaleRef)]; exists {
			continue
		}
		fresh = append(fresh, e)
		delta = delta.add(e.Delta)
	}

	if delta.IsZero() {
		return false, nil
	}
	if w.available+delta.Available < 0 || w.withheld+delta.Withheld < 0 {
		return false, ErrInsufficientFunds
	}

	for _, e := range fresh {
		s.keys[entryKey(e.Owner, e.Type, e.SaleRef)] = struct{}{}
		e.ID = uuid.NewString()
		e.CreatedAt = time.Now().UTC()
		s.entries = append(s.entries, e)
	}

	w.total += delta.Total
	w.available += delta.Available
	w.withheld += delta.Withheld
	return true, nil
}

// ApplyDelta adjusts the wallet balances, refusing debits past zero.
func (s *InMemoryStore) ApplyDelta(_ context.Context, owner string, delta Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[owner]
	if !ok {
		return ErrWalletNotFound
	}
	if w.available+delta.Available < 0 || w.withheld+delta.Withheld < 0 {
		return ErrInsufficientFunds
	}
	w.total += delta.Total
	w.available += delta.Available
	w.withheld += delta.Withheld
	return nil
}

// RecentEntries returns the owner's entries, most recent first.
func (s *InMemoryStore) RecentEntries(_ context.Context, owner string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Entry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].Owner == owner {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

// Owners lists every wallet owner. Used by the in-memory reporting reader.
func (s *InMemoryStore) Owners() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owners := make([]string, 0, len(s.wallets))
	for owner := range s.wallets {
		owners = append(owners, owner)
	}
	return owners
}
