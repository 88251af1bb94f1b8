package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists wallets and ledger entries in PostgreSQL. The unique
// index over (owner_id, entry_type, sale_ref) on ledger_entries is the
// mechanism that makes duplicate crediting instructions at-most-once.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed wallet and ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureWallet guarantees a zero-balance wallet exists for the owner.
func (s *PostgresStore) EnsureWallet(ctx context.Context, owner string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO wallets (owner_id, total_balance, available_balance, withheld_balance, created_at, updated_at)
        VALUES ($1, 0, 0, 0, now(), now())
        ON CONFLICT (owner_id) DO NOTHING`, owner)
	return err
}

// Balances reads the wallet without locking it.
func (s *PostgresStore) Balances(ctx context.Context, owner string) (Balances, error) {
	row := s.db.QueryRow(ctx, `SELECT total_balance, available_balance, withheld_balance,
        COALESCE(bank_name, ''), COALESCE(bank_account, ''), COALESCE(bank_holder, '')
        FROM wallets WHERE owner_id = $1`, owner)
	b := Balances{Owner: owner}
	if err := row.Scan(&b.Total, &b.Available, &b.Withheld, &b.Bank.BankName, &b.Bank.AccountNumber, &b.Bank.AccountHolder); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balances{}, ErrWalletNotFound
		}
		return Balances{}, err
	}
	b.AsOf = time.Now().UTC()
	return b, nil
}

// SetBankDetails updates the payout destination on the wallet.
func (s *PostgresStore) SetBankDetails(ctx context.Context, owner string, bank BankDetails) error {
	cmd, err := s.db.Exec(ctx, `UPDATE wallets SET bank_name = $1, bank_account = $2, bank_holder = $3, updated_at = now()
        WHERE owner_id = $4`, bank.BankName, bank.AccountNumber, bank.AccountHolder, owner)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}

// Credit records the entries and applies the combined delta of the newly
// inserted ones inside a single transaction holding the wallet row lock.
func (s *PostgresStore) Credit(ctx context.Context, owner string, entries []Entry) (bool, error) {
	if len(entries) == 0 {
		return false, nil
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := lockWallet(ctx, tx, owner); err != nil {
		return false, err
	}

	var delta Delta
	for _, e := range entries {
		cmd, err := tx.Exec(ctx, `INSERT INTO ledger_entries (id, owner_id, entry_type, sale_ref, amount, note, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT (owner_id, entry_type, sale_ref) DO NOTHING`,
			uuid.New(), e.Owner, e.Type, e.SaleRef, e.Amount, e.Note, time.Now().UTC())
		if err != nil {
			return false, err
		}
		if cmd.RowsAffected() == 1 {
			delta = delta.add(e.Delta)
		}
	}

	if delta.IsZero() {
		// Duplicate delivery: nothing inserted, balances untouched.
		return false, tx.Commit(ctx)
	}

	if err := applyDelta(ctx, tx, owner, delta); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

// ApplyDelta adjusts the wallet balances under a row lock.
func (s *PostgresStore) ApplyDelta(ctx context.Context, owner string, delta Delta) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := lockWallet(ctx, tx, owner); err != nil {
		return err
	}
	if err := applyDelta(ctx, tx, owner, delta); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RecentEntries lists the owner's entries most recent first.
func (s *PostgresStore) RecentEntries(ctx context.Context, owner string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `SELECT id, owner_id, entry_type, sale_ref, amount, note, created_at
        FROM ledger_entries WHERE owner_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var id uuid.UUID
		var createdAt time.Time
		if err := rows.Scan(&id, &e.Owner, &e.Type, &e.SaleRef, &e.Amount, &e.Note, &createdAt); err != nil {
			return nil, err
		}
		e.ID = id.String()
		e.CreatedAt = createdAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func lockWallet(ctx context.Context, tx pgx.Tx, owner string) error {
	_, err := tx.Exec(ctx, `INSERT INTO wallets (owner_id, total_balance, available_balance, withheld_balance, created_at, updated_at)
        VALUES ($1, 0, 0, 0, now(), now())
        ON CONFLICT (owner_id) DO NOTHING`, owner)
	if err != nil {
		return err
	}
	var ownerID string
	if err := tx.QueryRow(ctx, `SELECT owner_id FROM wallets WHERE owner_id = $1 FOR UPDATE`, owner).Scan(&ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWalletNotFound
		}
		return err
	}
	return nil
}

func applyDelta(ctx context.Context, tx pgx.Tx, owner string, delta Delta) error {
	var available, withheld int64
	if err := tx.QueryRow(ctx, `SELECT available_balance, withheld_balance FROM wallets WHERE owner_id = $1`, owner).Scan(&available, &withheld); err != nil {
		return err
	}
	if available+delta.Available < 0 || withheld+delta.Withheld < 0 {
		return ErrInsufficientFunds
	}
	_, err := tx.Exec(ctx, `UPDATE wallets SET
        total_balance = total_balance + $1,
        available_balance = available_balance + $2,
        withheld_balance = withheld_balance + $3,
        updated_at = now()
        WHERE owner_id = $4`, delta.Total, delta.Available, delta.Withheld, owner)
	return err
}
