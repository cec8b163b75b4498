package accounts

import (
	"context"
	"fmt"

	"github.com/lightech/balance-beam/internal/repos/accounts"
)

func (r *accountsRepo) Exists(ctx context.Context, accountID uint64) error {
	var exists bool

	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)
	`, accountID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}

	if !exists {
		return accounts.ErrAccountNotFound
	}

	return nil
}
