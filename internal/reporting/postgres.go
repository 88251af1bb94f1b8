package reporting

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresReader serves reporting rollups straight from PostgreSQL.
type PostgresReader struct {
	db *pgxpool.Pool
}

// NewPostgresReader builds a Postgres-backed reporting reader.
func NewPostgresReader(db *pgxpool.Pool) *PostgresReader {
	return &PostgresReader{db: db}
}

const summarySelect = `SELECT u.id::text, u.name, u.role,
    COALESCE(w.total_balance, 0), COALESCE(w.available_balance, 0), COALESCE(w.withheld_balance, 0)
    FROM users u
    LEFT JOIN wallets w ON w.owner_id = u.id::text`

// WalletsByRole lists wallets owned by users with the given role.
func (r *PostgresReader) WalletsByRole(ctx context.Context, role string) ([]WalletSummary, error) {
	rows, err := r.db.Query(ctx, summarySelect+` WHERE u.role = $1 ORDER BY u.name`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// SupervisorTeam lists a supervisor's sellers with their balances and most
// recent commission credit.
func (r *PostgresReader) SupervisorTeam(ctx context.Context, supervisorID string) ([]TeamMember, error) {
	rows, err := r.db.Query(ctx, `SELECT u.id::text, u.name, u.role,
        COALESCE(w.total_balance, 0), COALESCE(w.available_balance, 0), COALESCE(w.withheld_balance, 0),
        (SELECT MAX(e.created_at) FROM ledger_entries e
            WHERE e.owner_id = u.id::text AND e.entry_type = 'gross_commission')
        FROM users u
        LEFT JOIN wallets w ON w.owner_id = u.id::text
        WHERE u.parent_id = $1::uuid
        ORDER BY u.name`, supervisorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []TeamMember
	for rows.Next() {
		var m TeamMember
		var last *time.Time
		if err := rows.Scan(&m.OwnerID, &m.Name, &m.Role, &m.Total, &m.Available, &m.Withheld, &last); err != nil {
			return nil, err
		}
		if last != nil {
			t := last.UTC()
			m.LastCommissionAt = &t
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// SubordinateTree lists the supervisors under a regional lead with their
// sellers' balances and recent ledger entries.
func (r *PostgresReader) SubordinateTree(ctx context.Context, regionalLeadID string) ([]TeamGroup, error) {
	rows, err := r.db.Query(ctx, summarySelect+` WHERE u.parent_id = $1::uuid ORDER BY u.name`, regionalLeadID)
	if err != nil {
		return nil, err
	}
	supervisors, err := scanSummaries(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	groups := make([]TeamGroup, 0, len(supervisors))
	for _, sup := range supervisors {
		sellerRows, err := r.db.Query(ctx, summarySelect+` WHERE u.parent_id = $1::uuid ORDER BY u.name`, sup.OwnerID)
		if err != nil {
			return nil, err
		}
		sellers, err := scanSummaries(sellerRows)
		sellerRows.Close()
		if err != nil {
			return nil, err
		}

		group := TeamGroup{Supervisor: sup, Sellers: make([]TeamSeller, 0, len(sellers))}
		for _, seller := range sellers {
			ts := TeamSeller{WalletSummary: seller}
			ts.RecentEntries, err = r.recentEntries(ctx, seller.OwnerID)
			if err != nil {
				return nil, err
			}
			group.Sellers = append(group.Sellers, ts)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (r *PostgresReader) recentEntries(ctx context.Context, ownerID string) ([]EntrySummary, error) {
	rows, err := r.db.Query(ctx, `SELECT entry_type, sale_ref, amount, created_at
        FROM ledger_entries WHERE owner_id = $1
        ORDER BY created_at DESC, id DESC LIMIT $2`, ownerID, subtreeEntryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntrySummary
	for rows.Next() {
		var e EntrySummary
		var createdAt time.Time
		if err := rows.Scan(&e.Type, &e.SaleRef, &e.Amount, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = createdAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// FeeStats aggregates withdrawal fees per period.
func (r *PostgresReader) FeeStats(ctx context.Context, bucket string) ([]FeeBucket, error) {
	if !ValidBucket(bucket) {
		return nil, ErrUnknownBucket
	}

	var format string
	switch bucket {
	case BucketDay:
		format = "YYYY-MM-DD"
	case BucketWeek:
		format = `IYYY-"W"IW`
	case BucketMonth:
		format = "YYYY-MM"
	case BucketYear:
		format = "YYYY"
	}

	rows, err := r.db.Query(ctx, `SELECT to_char(date_trunc($1, created_at AT TIME ZONE 'UTC'), $2),
        COUNT(*), COALESCE(SUM(fee), 0)
        FROM withdrawal_requests
        GROUP BY 1 ORDER BY 1 DESC`, bucket, format)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []FeeBucket
	for rows.Next() {
		var b FeeBucket
		if err := rows.Scan(&b.Period, &b.Requests, &b.FeeTotal); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func scanSummaries(rows pgx.Rows) ([]WalletSummary, error) {
	var out []WalletSummary
	for rows.Next() {
		var s WalletSummary
		if err := rows.Scan(&s.OwnerID, &s.Name, &s.Role, &s.Total, &s.Available, &s.Withheld); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
