package hierarchy

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRateStore reads commission rates from the commission_rates table.
type PostgresRateStore struct {
	db *pgxpool.Pool
}

// NewPostgresRateStore builds a Postgres-backed rate store.
func NewPostgresRateStore(db *pgxpool.Pool) *PostgresRateStore {
	return &PostgresRateStore{db: db}
}

// ForCategory looks up the tier rates for a device category, matching
// case-insensitively.
func (s *PostgresRateStore) ForCategory(ctx context.Context, category string) (TierRates, bool, error) {
	row := s.db.QueryRow(ctx, `SELECT seller_rate, supervisor_rate, regional_lead_rate
        FROM commission_rates WHERE lower(category) = lower($1)`, category)
	var rates TierRates
	if err := row.Scan(&rates.Seller, &rates.Supervisor, &rates.RegionalLead); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TierRates{}, false, nil
		}
		return TierRates{}, false, err
	}
	return rates, true, nil
}

// MemoryRateStore is an in-memory rate table for tests.
type MemoryRateStore struct {
	mu    sync.RWMutex
	rates map[string]TierRates
}

// NewMemoryRateStore builds an empty in-memory rate store.
func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{rates: make(map[string]TierRates)}
}

// Set stores the rates for a category.
func (s *MemoryRateStore) Set(category string, rates TierRates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[strings.ToLower(category)] = rates
}

// ForCategory looks up the rates for a category, case-insensitively.
func (s *MemoryRateStore) ForCategory(_ context.Context, category string) (TierRates, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rates, ok := s.rates[strings.ToLower(category)]
	return rates, ok, nil
}
