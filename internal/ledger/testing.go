package ledger

// SeedBalances is a test helper that force-sets the balances of a wallet when
// using the in-memory store.
func SeedBalances(s Store, owner string, total, available, withheld int64) {
	if mem, ok := s.(*InMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		w := mem.ensureLocked(owner)
		w.total = total
		w.available = available
		w.withheld = withheld
	}
}
