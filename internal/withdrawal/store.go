package withdrawal

import (
	"context"
)

// Store persists withdrawal requests. Implementations keep every mutation in a
// single atomic unit with the wallet balance change it implies: creation
// debits amount + fee, rejection refunds it.
type Store interface {
	// Create inserts the request as pending and debits the owner's available
	// balance by TotalCost within one transaction. When limited is true the
	// same transaction counts the owner's requests in the calendar month of
	// req.CreatedAt (UTC, any status) and returns ErrMonthlyLimit if one
	// already exists, so two concurrent creations cannot both pass the check.
	// Returns *InsufficientFundsError when the balance cannot cover the debit.
	Create(ctx context.Context, req Request, limited bool) error

	// Get fetches one request.
	Get(ctx context.Context, id string) (Request, error)

	// Approve marks a pending request approved. The creation-time debit stands.
	Approve(ctx context.Context, id, reviewerID string) (Request, error)

	// Reject marks a pending request rejected and refunds amount + fee to the
	// available balance, recording a refund ledger entry keyed by the request
	// identifier.
	Reject(ctx context.Context, id, reviewerID string) (Request, error)

	// ListPending returns all pending requests, oldest first.
	ListPending(ctx context.Context) ([]Request, error)

	// History returns reviewed and pending requests matching the filter,
	// most recent first.
	History(ctx context.Context, filter HistoryFilter) ([]Request, error)
}
