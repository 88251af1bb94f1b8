package withdrawal

import (
	"time"

	"github.com/tier-pay/tier_pay/internal/ledger"
)

// Request statuses. A request is created pending and transitions exactly once
// to approved or rejected; terminal states are final.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Review actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Request is one payout attempt against a wallet's available balance. The
// debit of Amount + Fee happens at creation time; approval keeps it, rejection
// refunds it in full.
type Request struct {
	ID         string
	Owner      string
	Amount     int64
	Fee        int64
	NetAmount  int64
	Bank       ledger.BankDetails
	Status     string
	CreatedAt  time.Time
	ReviewedBy string
	ReviewedAt *time.Time
}

// TotalCost is the amount debited from the available balance at creation.
func (r Request) TotalCost() int64 {
	return r.Amount + r.Fee
}

// HistoryFilter narrows withdrawal history queries.
type HistoryFilter struct {
	Owner  string
	Status string
	Role   string
	Name   string
	From   time.Time
	To     time.Time
}
