package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tier-pay/tier_pay/internal/identity"
	"github.com/tier-pay/tier_pay/internal/ledger"
	"github.com/tier-pay/tier_pay/internal/notification"
)

// Manager runs the withdrawal workflow: create a fee-adjusted payout request
// against the available balance, then approve or reject it once.
type Manager struct {
	store    Store
	wallets  ledger.Store
	users    identity.Repository
	notifier notification.Notifier
	fee      int64
}

// NewManager builds a withdrawal manager with the configured flat fee.
func NewManager(store Store, wallets ledger.Store, users identity.Repository, notifier notification.Notifier, fee int64) *Manager {
	return &Manager{store: store, wallets: wallets, users: users, notifier: notifier, fee: fee}
}

// CreateInput captures a new payout request.
type CreateInput struct {
	Owner  string
	Amount int64
	Bank   ledger.BankDetails
}

// monthlyLimited reports whether the role is restricted to one withdrawal per
// calendar month.
func monthlyLimited(role string) bool {
	return role == identity.RoleSeller || role == identity.RoleSupervisor
}

// Create opens a pending request, debiting amount + fee from the available
// balance in one transaction.
func (m *Manager) Create(ctx context.Context, input CreateInput) (Request, error) {
	if input.Amount <= 0 {
		return Request{}, fmt.Errorf("amount must be positive")
	}

	user, err := m.users.FindByID(ctx, input.Owner)
	if err != nil {
		return Request{}, err
	}

	now := time.Now().UTC()

	if err := m.wallets.EnsureWallet(ctx, input.Owner); err != nil {
		return Request{}, err
	}

	bank := input.Bank
	if bank == (ledger.BankDetails{}) {
		bal, err := m.wallets.Balances(ctx, input.Owner)
		if err != nil {
			return Request{}, err
		}
		bank = bal.Bank
	} else if err := m.wallets.SetBankDetails(ctx, input.Owner, bank); err != nil {
		return Request{}, err
	}

	req := Request{
		ID:        uuid.NewString(),
		Owner:     input.Owner,
		Amount:    input.Amount,
		Fee:       m.fee,
		NetAmount: input.Amount,
		Bank:      bank,
		Status:    StatusPending,
		CreatedAt: now,
	}

	// The store enforces the limit inside its creation transaction, so two
	// concurrent requests in the same month cannot both land.
	if err := m.store.Create(ctx, req, monthlyLimited(user.Role)); err != nil {
		if errors.Is(err, ErrMonthlyLimit) {
			return Request{}, &RateLimitError{Role: user.Role, Year: now.Year(), Month: now.Month()}
		}
		return Request{}, err
	}

	if m.notifier != nil {
		_ = m.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindWithdrawalRequested,
			Destination: req.Owner,
			Body:        fmt.Sprintf("Withdrawal of %d requested (fee %d)", req.Amount, req.Fee),
		})
	}

	return req, nil
}

// Review transitions a pending request to its terminal state. Approval keeps
// the creation-time debit; rejection refunds amount + fee in full.
func (m *Manager) Review(ctx context.Context, requestID, action, reviewerID string) (Request, error) {
	var (
		req Request
		err error
	)
	switch action {
	case ActionApprove:
		req, err = m.store.Approve(ctx, requestID, reviewerID)
	case ActionReject:
		req, err = m.store.Reject(ctx, requestID, reviewerID)
	default:
		return Request{}, fmt.Errorf("unknown review action %q", action)
	}
	if err != nil {
		return Request{}, err
	}

	if m.notifier != nil {
		_ = m.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindWithdrawalReviewed,
			Destination: req.Owner,
			Body:        fmt.Sprintf("Withdrawal %s was %s", req.ID, req.Status),
		})
	}

	return req, nil
}

// Pending lists requests awaiting review, oldest first.
func (m *Manager) Pending(ctx context.Context) ([]Request, error) {
	return m.store.ListPending(ctx)
}

// History lists requests matching the filter, most recent first.
func (m *Manager) History(ctx context.Context, filter HistoryFilter) ([]Request, error) {
	return m.store.History(ctx, filter)
}
