package withdrawal

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tier-pay/tier_pay/internal/ledger"
)

// PostgresStore persists withdrawal requests in PostgreSQL. Balance changes
// ride in the same transaction as the request row, holding the wallet row
// lock, so a failure anywhere leaves no partial effect.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed withdrawal store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, owner_id, amount, fee, net_amount,
    COALESCE(bank_name, ''), COALESCE(bank_account, ''), COALESCE(bank_holder, ''),
    status, created_at, COALESCE(reviewed_by, ''), reviewed_at`

// Create inserts the pending request and debits the wallet atomically. The
// monthly-limit count runs inside the same transaction, after the wallet row
// lock has serialized concurrent creations for the owner.
func (s *PostgresStore) Create(ctx context.Context, req Request, limited bool) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var available int64
	if err := tx.QueryRow(ctx, `SELECT available_balance FROM wallets WHERE owner_id = $1 FOR UPDATE`, req.Owner).Scan(&available); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.ErrWalletNotFound
		}
		return err
	}

	if limited {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM withdrawal_requests
            WHERE owner_id = $1
            AND date_trunc('month', created_at AT TIME ZONE 'UTC') = date_trunc('month', $2::timestamptz AT TIME ZONE 'UTC')`,
			req.Owner, req.CreatedAt.UTC()).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return ErrMonthlyLimit
		}
	}

	cost := req.TotalCost()
	if available < cost {
		return &InsufficientFundsError{Available: available, Required: cost}
	}

	requestID, err := uuid.Parse(req.ID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO withdrawal_requests
        (id, owner_id, amount, fee, net_amount, bank_name, bank_account, bank_holder, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		requestID, req.Owner, req.Amount, req.Fee, req.NetAmount,
		req.Bank.BankName, req.Bank.AccountNumber, req.Bank.AccountHolder,
		StatusPending, req.CreatedAt.UTC()); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE wallets SET
        total_balance = total_balance - $1,
        available_balance = available_balance - $1,
        updated_at = now()
        WHERE owner_id = $2`, cost, req.Owner); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Get fetches one request by identifier.
func (s *PostgresStore) Get(ctx context.Context, id string) (Request, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return Request{}, ErrNotFound
	}
	return scanRequest(s.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM withdrawal_requests WHERE id = $1`, requestID))
}

// Approve marks a pending request approved. No balance change: the debit
// already happened at creation.
func (s *PostgresStore) Approve(ctx context.Context, id, reviewerID string) (Request, error) {
	return s.review(ctx, id, reviewerID, StatusApproved)
}

// Reject marks a pending request rejected and refunds the full debit.
func (s *PostgresStore) Reject(ctx context.Context, id, reviewerID string) (Request, error) {
	return s.review(ctx, id, reviewerID, StatusRejected)
}

func (s *PostgresStore) review(ctx context.Context, id, reviewerID, status string) (Request, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return Request{}, ErrNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Request{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	req, err := scanRequest(tx.QueryRow(ctx, `SELECT `+requestColumns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, requestID))
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, ErrInvalidState
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx, `UPDATE withdrawal_requests SET status = $1, reviewed_by = $2, reviewed_at = $3
        WHERE id = $4`, status, reviewerID, now, requestID); err != nil {
		return Request{}, err
	}

	if status == StatusRejected {
		if _, err := tx.Exec(ctx, `SELECT owner_id FROM wallets WHERE owner_id = $1 FOR UPDATE`, req.Owner); err != nil {
			return Request{}, err
		}
		refund := ledger.WithdrawalRefund(req.Owner, req.ID, req.TotalCost())
		cmd, err := tx.Exec(ctx, `INSERT INTO ledger_entries (id, owner_id, entry_type, sale_ref, amount, note, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT (owner_id, entry_type, sale_ref) DO NOTHING`,
			uuid.New(), refund.Owner, refund.Type, refund.SaleRef, refund.Amount, refund.Note, now)
		if err != nil {
			return Request{}, err
		}
		if cmd.RowsAffected() == 1 {
			if _, err := tx.Exec(ctx, `UPDATE wallets SET
                total_balance = total_balance + $1,
                available_balance = available_balance + $1,
                updated_at = now()
                WHERE owner_id = $2`, refund.Amount, req.Owner); err != nil {
				return Request{}, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Request{}, err
	}

	req.Status = status
	req.ReviewedBy = reviewerID
	req.ReviewedAt = &now
	return req, nil
}

// ListPending returns all pending requests, oldest first.
func (s *PostgresStore) ListPending(ctx context.Context) ([]Request, error) {
	rows, err := s.db.Query(ctx, `SELECT `+requestColumns+` FROM withdrawal_requests
        WHERE status = $1 ORDER BY created_at`, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

// History returns requests matching the filter, most recent first. Name and
// role filters join against the users table.
func (s *PostgresStore) History(ctx context.Context, filter HistoryFilter) ([]Request, error) {
	query := `SELECT w.id, w.owner_id, w.amount, w.fee, w.net_amount,
        COALESCE(w.bank_name, ''), COALESCE(w.bank_account, ''), COALESCE(w.bank_holder, ''),
        w.status, w.created_at, COALESCE(w.reviewed_by, ''), w.reviewed_at
        FROM withdrawal_requests w
        JOIN users u ON u.id::text = w.owner_id
        WHERE 1=1`
	args := []any{}

	if filter.Owner != "" {
		args = append(args, filter.Owner)
		query += ` AND w.owner_id = $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND w.status = $` + strconv.Itoa(len(args))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		query += ` AND u.role = $` + strconv.Itoa(len(args))
	}
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		query += ` AND u.name ILIKE $` + strconv.Itoa(len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From.UTC())
		query += ` AND w.created_at >= $` + strconv.Itoa(len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.UTC())
		query += ` AND w.created_at < $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY w.created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func scanRequest(row pgx.Row) (Request, error) {
	var (
		id         uuid.UUID
		createdAt  time.Time
		reviewedAt *time.Time
		req        Request
	)
	if err := row.Scan(&id, &req.Owner, &req.Amount, &req.Fee, &req.NetAmount,
		&req.Bank.BankName, &req.Bank.AccountNumber, &req.Bank.AccountHolder,
		&req.Status, &createdAt, &req.ReviewedBy, &reviewedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, err
	}
	req.ID = id.String()
	req.CreatedAt = createdAt.UTC()
	if reviewedAt != nil {
		t := reviewedAt.UTC()
		req.ReviewedAt = &t
	}
	return req, nil
}

func scanRequests(rows pgx.Rows) ([]Request, error) {
	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
