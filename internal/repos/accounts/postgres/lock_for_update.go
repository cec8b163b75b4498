package accounts

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lightech/balance-beam/internal/repos/accounts"
)

// LockForUpdate takes an exclusive row lock and returns the account as of
// the lock acquisition. The lock is released when tx commits or rolls back.
func (r *accountsRepo) LockForUpdate(tx *sql.Tx, accountID uint64) (accounts.Account, error) {
	var acc accounts.Account

	err := tx.QueryRow(`
		SELECT id, email, balance
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID).Scan(&acc.ID, &acc.Email, &acc.Balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accounts.Account{}, accounts.ErrAccountNotFound
		}

		return accounts.Account{}, fmt.Errorf("lock account: %w", err)
	}

	return acc, nil
}
