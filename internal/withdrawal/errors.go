package withdrawal

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates the request identifier matches no row.
	ErrNotFound = errors.New("withdrawal request not found")

	// ErrInvalidState indicates a review of a request that is no longer pending.
	ErrInvalidState = errors.New("withdrawal request is not pending")

	// ErrMonthlyLimit is returned by stores when a limited creation finds an
	// existing request in the same calendar month. The manager wraps it into a
	// RateLimitError carrying the role.
	ErrMonthlyLimit = errors.New("withdrawal already requested this month")
)

// RateLimitError is returned when a role restricted to one withdrawal per
// calendar month submits a second request in the same month, regardless of the
// first request's status.
type RateLimitError struct {
	Role  string
	Year  int
	Month time.Month
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("role %s is limited to one withdrawal per month (already requested in %s %d)", e.Role, e.Month, e.Year)
}

// InsufficientFundsError is returned when the available balance cannot cover
// the requested amount plus the flat fee.
type InsufficientFundsError struct {
	Available int64
	Required  int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %d, required %d", e.Available, e.Required)
}

// Shortfall is the amount missing from the available balance.
func (e *InsufficientFundsError) Shortfall() int64 {
	return e.Required - e.Available
}
