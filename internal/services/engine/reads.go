package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lightech/balance-beam/internal/repos/ledger"
)

// CheckBalance returns the balance in minor units. Plain read, no lock:
// it may trail an engine transaction that is committing concurrently.
func (e *Engine) CheckBalance(ctx context.Context, accountID uint64) (int64, error) {
	balance, err := e.accounts.GetBalance(ctx, accountID)
	if err != nil {
		return 0, classifyStore(fmt.Errorf("get balance: %w", err))
	}

	return balance, nil
}

// CheckBalanceMajor returns the balance in major units (minor / 100) as
// an exact decimal. Read-only convenience over CheckBalance.
func (e *Engine) CheckBalanceMajor(ctx context.Context, accountID uint64) (decimal.Decimal, error) {
	minor, err := e.CheckBalance(ctx, accountID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return decimal.New(minor, -2), nil
}

// RecentHistory returns the account's newest ledger entries, most recent
// first. limit <= 0 falls back to the default of 5. Unknown accounts are
// an error, not an empty history.
func (e *Engine) RecentHistory(ctx context.Context, accountID uint64, limit int) ([]ledger.Entry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	err := e.accounts.Exists(ctx, accountID)
	if err != nil {
		return nil, classifyStore(fmt.Errorf("check account exists: %w", err))
	}

	entries, err := e.ledger.ListRecent(ctx, accountID, limit)
	if err != nil {
		return nil, classifyStore(fmt.Errorf("list recent: %w", err))
	}

	return entries, nil
}
