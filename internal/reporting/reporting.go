// Package reporting provides read-only rollups over wallets, ledger entries
// and withdrawal requests. Nothing here mutates state; views may lag a
// concurrent commit, which is acceptable.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Fee statistics buckets.
const (
	BucketDay   = "day"
	BucketWeek  = "week"
	BucketMonth = "month"
	BucketYear  = "year"
)

// ErrUnknownBucket indicates an unsupported fee statistics bucket.
var ErrUnknownBucket = errors.New("unknown fee statistics bucket")

// ValidBucket reports whether the bucket name is supported.
func ValidBucket(bucket string) bool {
	switch bucket {
	case BucketDay, BucketWeek, BucketMonth, BucketYear:
		return true
	default:
		return false
	}
}

// WalletSummary pairs a user with their balances.
type WalletSummary struct {
	OwnerID   string
	Name      string
	Role      string
	Total     int64
	Available int64
	Withheld  int64
}

// TeamMember is a seller in a supervisor's team with their last commission time.
type TeamMember struct {
	WalletSummary
	LastCommissionAt *time.Time
}

// EntrySummary is a compact ledger entry view carried by reports.
type EntrySummary struct {
	Type      string
	SaleRef   string
	Amount    int64
	CreatedAt time.Time
}

// TeamSeller is a seller in a subordinate tree: balances plus their most
// recent ledger entries.
type TeamSeller struct {
	WalletSummary
	RecentEntries []EntrySummary
}

// TeamGroup is one supervisor and their sellers under a regional lead.
type TeamGroup struct {
	Supervisor WalletSummary
	Sellers    []TeamSeller
}

// subtreeEntryLimit caps the recent entries returned per seller in the
// subordinate tree.
const subtreeEntryLimit = 5

// FeeBucket aggregates withdrawal fees over one period.
type FeeBucket struct {
	Period   string
	Requests int
	FeeTotal int64
}

// Reader is the read-only reporting contract.
type Reader interface {
	// WalletsByRole lists every wallet whose owner has the given role.
	WalletsByRole(ctx context.Context, role string) ([]WalletSummary, error)

	// SupervisorTeam lists a supervisor's sellers with balances and the
	// timestamp of their most recent commission credit.
	SupervisorTeam(ctx context.Context, supervisorID string) ([]TeamMember, error)

	// SubordinateTree lists the supervisors under a regional lead, each with
	// their sellers' balances.
	SubordinateTree(ctx context.Context, regionalLeadID string) ([]TeamGroup, error)

	// FeeStats aggregates withdrawal fees bucketed by day, week, month or year.
	FeeStats(ctx context.Context, bucket string) ([]FeeBucket, error)
}

// PeriodLabel formats a timestamp into the canonical label for a bucket.
func PeriodLabel(t time.Time, bucket string) string {
	t = t.UTC()
	switch bucket {
	case BucketDay:
		return t.Format("2006-01-02")
	case BucketWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case BucketMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006")
	}
}
