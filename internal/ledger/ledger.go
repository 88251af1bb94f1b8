package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientFunds occurs when a debit would push the available balance
	// below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrWalletNotFound indicates no wallet exists for the owner.
	ErrWalletNotFound = errors.New("wallet not found")
)

// Entry type tags. Together with the owner and sale reference they form the
// idempotency key that makes re-delivered crediting instructions safe.
const (
	TypeGrossCommission  = "gross_commission"
	TypeAvailableShare   = "available_share"
	TypeWithheldShare    = "withheld_share"
	TypeWithdrawalRefund = "withdrawal_refund"
	TypeWithheldRelease  = "withheld_release"
)

// Delta describes a balance change across the wallet sub-balances. Constructors
// in this package build deltas that keep total == available + withheld when the
// entries of one crediting call are applied together.
type Delta struct {
	Total     int64
	Available int64
	Withheld  int64
}

// IsZero reports whether the delta changes nothing.
func (d Delta) IsZero() bool {
	return d.Total == 0 && d.Available == 0 && d.Withheld == 0
}

func (d Delta) add(other Delta) Delta {
	return Delta{
		Total:     d.Total + other.Total,
		Available: d.Available + other.Available,
		Withheld:  d.Withheld + other.Withheld,
	}
}

// Entry is one immutable balance-affecting event. The unique key
// (owner, type, sale_ref) is enforced by the store; attempting to record the
// same entry twice is an expected no-op, never an error.
type Entry struct {
	ID        string
	Owner     string
	Type      string
	SaleRef   string
	Amount    int64
	Note      string
	Delta     Delta
	CreatedAt time.Time
}

// GrossCommission records the full commission amount of a sale against the
// owner's total balance. The available/withheld split is carried by the
// companion share entries.
func GrossCommission(owner, saleRef string, amount int64) Entry {
	return Entry{Owner: owner, Type: TypeGrossCommission, SaleRef: saleRef, Amount: amount, Delta: Delta{Total: amount}}
}

// AvailableShare records the immediately spendable portion of a split credit.
func AvailableShare(owner, saleRef string, amount int64) Entry {
	return Entry{Owner: owner, Type: TypeAvailableShare, SaleRef: saleRef, Amount: amount, Delta: Delta{Available: amount}}
}

// WithheldShare records the deferred portion of a split credit.
func WithheldShare(owner, saleRef string, amount int64) Entry {
	return Entry{Owner: owner, Type: TypeWithheldShare, SaleRef: saleRef, Amount: amount, Delta: Delta{Withheld: amount}}
}

// DirectCommission records a full-policy credit: the entire amount lands in the
// available balance with a single entry.
func DirectCommission(owner, saleRef string, amount int64) Entry {
	return Entry{Owner: owner, Type: TypeGrossCommission, SaleRef: saleRef, Amount: amount, Delta: Delta{Total: amount, Available: amount}}
}

// WithdrawalRefund returns the debited amount of a rejected withdrawal to the
// available balance. The request identifier doubles as the sale reference so a
// retried rejection never refunds twice.
func WithdrawalRefund(owner, requestID string, amount int64) Entry {
	return Entry{Owner: owner, Type: TypeWithdrawalRefund, SaleRef: requestID, Amount: amount, Delta: Delta{Total: amount, Available: amount}}
}

// WithheldRelease moves a previously withheld share into the available balance.
// Balance-neutral on the total.
func WithheldRelease(owner, saleRef string, amount int64) Entry {
	return Entry{Owner: owner, Type: TypeWithheldRelease, SaleRef: saleRef, Amount: amount, Delta: Delta{Available: amount, Withheld: -amount}}
}

// BankDetails holds the payout destination attached to a wallet.
type BankDetails struct {
	BankName      string
	AccountNumber string
	AccountHolder string
}

// Balances is a point-in-time view of one wallet. The store maintains
// Total == Available + Withheld at all times.
type Balances struct {
	Owner     string
	Total     int64
	Available int64
	Withheld  int64
	Bank      BankDetails
	AsOf      time.Time
}

// Store is the wallet and ledger contract implemented by the Postgres and
// in-memory backends.
type Store interface {
	// EnsureWallet creates a zero-balance wallet for the owner if none exists.
	// Safe under concurrent first touch.
	EnsureWallet(ctx context.Context, owner string) error

	// Balances returns the owner's balances without taking a lock.
	Balances(ctx context.Context, owner string) (Balances, error)

	// SetBankDetails stores the payout destination on the wallet.
	SetBankDetails(ctx context.Context, owner string, bank BankDetails) error

	// Credit atomically records the given entries and applies the summed delta
	// of those that were newly inserted. Entries whose idempotency key already
	// exists are silently skipped; when nothing new was inserted the balance
	// update is skipped entirely and credited is false.
	Credit(ctx context.Context, owner string, entries []Entry) (credited bool, err error)

	// ApplyDelta applies a balance change under a row lock. Returns
	// ErrInsufficientFunds when the available balance would go negative.
	ApplyDelta(ctx context.Context, owner string, delta Delta) error

	// RecentEntries returns the owner's ledger entries, most recent first.
	RecentEntries(ctx context.Context, owner string, limit int) ([]Entry, error)
}
