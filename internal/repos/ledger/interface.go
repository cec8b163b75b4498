package ledger

import (
	"context"
	"database/sql"
	"time"
)

// Kind labels an operation record.
type Kind string

const (
	// KindIncrease is the credit side: a unilateral top-up or the
	// receiving half of a transfer.
	KindIncrease Kind = "INCREASE"
	// KindTransfer is the successful debit half of a transfer; the
	// negative amount carries the direction.
	KindTransfer Kind = "TRANSFER"
	// KindDecrease marks a rejected debit attempt. The row records the
	// requested (negative) amount even though no balance changed.
	KindDecrease Kind = "DECREASE"
)

// Entry is one immutable operation record. The store assigns ID and
// CreatedAt on append; nothing mutates or deletes an entry afterwards.
type Entry struct {
	ID           int64
	AccountID    uint64
	Counterparty string // "" when the operation has no other party
	Amount       int64  // signed, minor units; positive credit, negative debit
	Kind         Kind
	Success      bool
	ErrorText    string // "" on success
	CreatedAt    time.Time
}

// Ledger durably appends operation records. It performs no business
// validation of its own; that is the engine's job.
type Ledger interface {
	Append(tx *sql.Tx, e Entry) (int64, error)
	ListRecent(ctx context.Context, accountID uint64, limit int) ([]Entry, error)
}
