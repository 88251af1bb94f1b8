package withdrawal

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tier-pay/tier_pay/internal/identity"
	"github.com/tier-pay/tier_pay/internal/ledger"
)

// MemoryStore is an in-memory withdrawal store for tests, sharing balances
// with the in-memory ledger store.
type MemoryStore struct {
	mu       sync.RWMutex
	led      *ledger.InMemoryStore
	users    identity.Repository
	requests map[string]Request
}

// NewMemoryStore builds an in-memory withdrawal store over the given ledger
// store and user repository.
func NewMemoryStore(led *ledger.InMemoryStore, users identity.Repository) *MemoryStore {
	return &MemoryStore{led: led, users: users, requests: make(map[string]Request)}
}

// Create inserts the pending request and debits the wallet. The monthly-limit
// count happens under the same lock as the insert.
func (s *MemoryStore) Create(ctx context.Context, req Request, limited bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limited && s.countInMonthLocked(req.Owner, req.CreatedAt) > 0 {
		return ErrMonthlyLimit
	}

	bal, err := s.led.Balances(ctx, req.Owner)
	if err != nil {
		return err
	}
	cost := req.TotalCost()
	if bal.Available < cost {
		return &InsufficientFundsError{Available: bal.Available, Required: cost}
	}
	if err := s.led.ApplyDelta(ctx, req.Owner, ledger.Delta{Total: -cost, Available: -cost}); err != nil {
		return err
	}

	req.Status = StatusPending
	s.requests[req.ID] = req
	return nil
}

// Get fetches one request.
func (s *MemoryStore) Get(_ context.Context, id string) (Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return req, nil
}

// Approve marks a pending request approved.
func (s *MemoryStore) Approve(_ context.Context, id, reviewerID string) (Request, error) {
	return s.review(id, reviewerID, StatusApproved, nil)
}

// Reject marks a pending request rejected and refunds the debit.
func (s *MemoryStore) Reject(ctx context.Context, id, reviewerID string) (Request, error) {
	return s.review(id, reviewerID, StatusRejected, func(req Request) error {
		_, err := s.led.Credit(ctx, req.Owner, []ledger.Entry{
			ledger.WithdrawalRefund(req.Owner, req.ID, req.TotalCost()),
		})
		return err
	})
}

func (s *MemoryStore) review(id, reviewerID, status string, refund func(Request) error) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	if req.Status != StatusPending {
		return Request{}, ErrInvalidState
	}

	if refund != nil {
		if err := refund(req); err != nil {
			return Request{}, err
		}
	}

	now := time.Now().UTC()
	req.Status = status
	req.ReviewedBy = reviewerID
	req.ReviewedAt = &now
	s.requests[id] = req
	return req, nil
}

func (s *MemoryStore) countInMonthLocked(owner string, at time.Time) int {
	year, month := at.UTC().Year(), at.UTC().Month()
	count := 0
	for _, req := range s.requests {
		created := req.CreatedAt.UTC()
		if req.Owner == owner && created.Year() == year && created.Month() == month {
			count++
		}
	}
	return count
}

// ListPending returns pending requests, oldest first.
func (s *MemoryStore) ListPending(_ context.Context) ([]Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Request
	for _, req := range s.requests {
		if req.Status == StatusPending {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// History returns requests matching the filter, most recent first.
func (s *MemoryStore) History(ctx context.Context, filter HistoryFilter) ([]Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Request
	for _, req := range s.requests {
		if filter.Owner != "" && req.Owner != filter.Owner {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && req.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !req.CreatedAt.Before(filter.To) {
			continue
		}
		if filter.Role != "" || filter.Name != "" {
			user, err := s.users.FindByID(ctx, req.Owner)
			if err != nil {
				continue
			}
			if filter.Role != "" && user.Role != filter.Role {
				continue
			}
			if filter.Name != "" && !strings.Contains(strings.ToLower(user.Name), strings.ToLower(filter.Name)) {
				continue
			}
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// All returns every request. Used by the in-memory reporting reader.
func (s *MemoryStore) All() []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Request, 0, len(s.requests))
	for _, req := range s.requests {
		out = append(out, req)
	}
	return out
}
