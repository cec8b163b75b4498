// Package engine is the balance-mutation core. It is the only component
// that combines account balance writes with ledger appends, and it owns
// the consistency rules: every mutation happens under a row lock inside
// one transaction, and every attempt, successful or rejected, leaves
// exactly one ledger record on the initiating account.
package engine

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/lightech/balance-beam/internal/events"
	"github.com/lightech/balance-beam/internal/repos/accounts"
	pgaccounts "github.com/lightech/balance-beam/internal/repos/accounts/postgres"
	"github.com/lightech/balance-beam/internal/repos/ledger"
	pgledger "github.com/lightech/balance-beam/internal/repos/ledger/postgres"
)

const defaultHistoryLimit = 5

type Engine struct {
	db       *sql.DB
	accounts accounts.Accounts
	ledger   ledger.Ledger
	events   events.Publisher
}

// New wires the engine against Postgres-backed stores. pub may be nil,
// in which case events are discarded.
func New(db *sql.DB, pub events.Publisher) *Engine {
	if pub == nil {
		pub = events.Noop{}
	}

	return &Engine{
		db:       db,
		accounts: pgaccounts.New(db),
		ledger:   pgledger.New(db),
		events:   pub,
	}
}

// credit applies a balance increase to an already-locked account and
// appends the successful INCREASE record.
func (e *Engine) credit(tx *sql.Tx, acc accounts.Account, amount int64, counterparty string) (int64, error) {
	if acc.Balance > math.MaxInt64-amount {
		return 0, ErrOverflow
	}

	newBalance := acc.Balance + amount

	err := e.accounts.SetBalance(tx, acc.ID, newBalance)
	if err != nil {
		return 0, fmt.Errorf("set balance: %w", err)
	}

	_, err = e.ledger.Append(tx, ledger.Entry{
		AccountID:    acc.ID,
		Counterparty: counterparty,
		Amount:       amount,
		Kind:         ledger.KindIncrease,
		Success:      true,
	})
	if err != nil {
		return 0, fmt.Errorf("append credit entry: %w", err)
	}

	return newBalance, nil
}

// debit applies a balance decrease to an already-locked account and
// appends the successful TRANSFER record (negative amount encodes the
// direction). Sufficiency is the caller's check: Transfer verifies the
// balance before calling debit, so a committed debit never goes negative.
func (e *Engine) debit(tx *sql.Tx, acc accounts.Account, amount int64, counterparty string) (int64, error) {
	newBalance := acc.Balance - amount

	err := e.accounts.SetBalance(tx, acc.ID, newBalance)
	if err != nil {
		return 0, fmt.Errorf("set balance: %w", err)
	}

	_, err = e.ledger.Append(tx, ledger.Entry{
		AccountID:    acc.ID,
		Counterparty: counterparty,
		Amount:       -amount,
		Kind:         ledger.KindTransfer,
		Success:      true,
	})
	if err != nil {
		return 0, fmt.Errorf("append debit entry: %w", err)
	}

	return newBalance, nil
}
