package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrAccountNotFound = errors.New("account not found")

// Account is a row snapshot taken under a FOR UPDATE lock. Balance is in
// minor units and never goes negative on a committed operation.
type Account struct {
	ID      uint64
	Email   string
	Balance int64
}

// Label renders the denormalized counterparty snapshot stored on ledger
// entries. It is a point-in-time string, not a live reference, so history
// stays intact if the account is later renamed or removed.
func (a Account) Label() string {
	return fmt.Sprintf("%s, id: %d", a.Email, a.ID)
}

// Accounts holds the single mutable balance per account.
//
// LockForUpdate and SetBalance take the transaction handle explicitly:
// a balance write is impossible without an open transaction, and the row
// lock lives exactly as long as that transaction.
type Accounts interface {
	Exists(ctx context.Context, accountID uint64) error
	GetBalance(ctx context.Context, accountID uint64) (int64, error)
	LockForUpdate(tx *sql.Tx, accountID uint64) (Account, error)
	SetBalance(tx *sql.Tx, accountID uint64, balance int64) error
}
