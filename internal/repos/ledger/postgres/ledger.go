package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lightech/balance-beam/internal/repos/ledger"
)

var _ ledger.Ledger = (*ledgerRepo)(nil)

type ledgerRepo struct{ db *sql.DB }

func New(db *sql.DB) *ledgerRepo {
	return &ledgerRepo{db: db}
}

// Append inserts one operation record; the database assigns id and
// timestamp. There is no update or delete counterpart.
func (r *ledgerRepo) Append(tx *sql.Tx, e ledger.Entry) (int64, error) {
	var id int64

	err := tx.QueryRow(`
		INSERT INTO balance_operations
			(account_id, counterparty, amount, operation_type, success, error_text)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, NULLIF($6, ''))
		RETURNING id
	`, e.AccountID, e.Counterparty, e.Amount, string(e.Kind), e.Success, e.ErrorText).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append operation: %w", err)
	}

	return id, nil
}

// ListRecent returns at most limit entries for the account, newest first.
// Ties on timestamp break by id descending, so ordering is stable within
// a transaction that appended several rows in the same instant.
func (r *ledgerRepo) ListRecent(ctx context.Context, accountID uint64, limit int) ([]ledger.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, COALESCE(counterparty, ''), amount,
		       operation_type, success, COALESCE(error_text, ''), created_at
		FROM balance_operations
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry

	for rows.Next() {
		var e ledger.Entry
		var kind string

		err = rows.Scan(&e.ID, &e.AccountID, &e.Counterparty, &e.Amount,
			&kind, &e.Success, &e.ErrorText, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}

		e.Kind = ledger.Kind(kind)
		entries = append(entries, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}

	return entries, nil
}
