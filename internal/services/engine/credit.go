package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lightech/balance-beam/internal/infra/pgutils"
)

// Credit adds amount (minor units, > 0) to the account and records a
// successful INCREASE entry, all in one transaction under the row lock.
// counterparty is an optional snapshot label of whoever initiated the
// top-up; pass "" when there is none.
func (e *Engine) Credit(ctx context.Context, accountID uint64, amount int64, counterparty string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var newBalance int64

	err := pgutils.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		acc, err := e.accounts.LockForUpdate(tx, accountID)
		if err != nil {
			return fmt.Errorf("lock account: %w", err)
		}

		newBalance, err = e.credit(tx, acc, amount, counterparty)
		if err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return 0, classifyStore(err)
	}

	return newBalance, nil
}
