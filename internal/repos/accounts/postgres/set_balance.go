package accounts

import (
	"database/sql"
	"fmt"

	"github.com/lightech/balance-beam/internal/repos/accounts"
)

// SetBalance overwrites the balance of a row the caller has already locked
// with LockForUpdate in the same transaction.
func (r *accountsRepo) SetBalance(tx *sql.Tx, accountID uint64, balance int64) error {
	res, err := tx.Exec(`
		UPDATE accounts
		SET balance = $2
		WHERE id = $1
	`, accountID, balance)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return accounts.ErrAccountNotFound
	}

	return nil
}
