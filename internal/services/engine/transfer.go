package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/lightech/balance-beam/internal/events"
	"github.com/lightech/balance-beam/internal/infra/pgutils"
	"github.com/lightech/balance-beam/internal/repos/accounts"
	"github.com/lightech/balance-beam/internal/repos/ledger"
)

// rejection captures a business-rule refusal detected under the lock, so
// the audit row can be written after the mutating transaction rolls back.
type rejection struct {
	account      accounts.Account
	counterparty string
	reason       error
	errText      string
}

// Transfer moves amount (minor units, > 0) from sender to recipient.
//
// The whole protocol runs in one transaction: both rows are locked, the
// business rules are checked, and either both balance changes commit with
// their two ledger entries or nothing commits. A rejected attempt (self
// transfer, insufficient balance) rolls the mutating transaction back and
// then durably appends a single failed entry on the sender in a separate
// transaction before the typed error is returned.
//
// Returns the sender's resulting balance.
func (e *Engine) Transfer(ctx context.Context, senderID, recipientID uint64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	var (
		newBalance int64
		rej        *rejection
	)

	err := pgutils.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		sender, recipient, err := e.lockPair(tx, senderID, recipientID)
		if err != nil {
			return err
		}

		if senderID == recipientID {
			rej = &rejection{
				account:      sender,
				counterparty: recipient.Label(),
				reason:       ErrSelfTransfer,
				errText:      "cannot transfer to self",
			}

			return ErrSelfTransfer
		}

		if sender.Balance < amount {
			rej = &rejection{
				account:      sender,
				counterparty: sender.Label(),
				reason:       ErrInsufficientFunds,
				errText: fmt.Sprintf("insufficient balance: %d available, %d requested",
					sender.Balance, amount),
			}

			return ErrInsufficientFunds
		}

		if recipient.Balance > math.MaxInt64-amount {
			return ErrOverflow
		}

		newBalance, err = e.debit(tx, sender, amount, recipient.Label())
		if err != nil {
			return fmt.Errorf("debit sender: %w", err)
		}

		_, err = e.credit(tx, recipient, amount, sender.Label())
		if err != nil {
			return fmt.Errorf("credit recipient: %w", err)
		}

		return nil
	})
	if err != nil {
		if rej != nil {
			e.recordRejection(ctx, *rej, amount)

			return 0, rej.reason
		}

		return 0, classifyStore(err)
	}

	e.publishTransfer(senderID, recipientID, amount, newBalance)

	return newBalance, nil
}

// lockPair locks both rows in ascending id order regardless of transfer
// direction. Opposite transfers (A->B and B->A) therefore contend on the
// same first lock and can never wait on each other in a cycle.
func (e *Engine) lockPair(tx *sql.Tx, senderID, recipientID uint64) (sender, recipient accounts.Account, err error) {
	if senderID == recipientID {
		acc, lerr := e.accounts.LockForUpdate(tx, senderID)
		if lerr != nil {
			return accounts.Account{}, accounts.Account{}, fmt.Errorf("lock account: %w", lerr)
		}

		return acc, acc, nil
	}

	firstID, secondID := senderID, recipientID
	if recipientID < senderID {
		firstID, secondID = recipientID, senderID
	}

	first, err := e.accounts.LockForUpdate(tx, firstID)
	if err != nil {
		return accounts.Account{}, accounts.Account{}, fmt.Errorf("lock account %d: %w", firstID, err)
	}

	second, err := e.accounts.LockForUpdate(tx, secondID)
	if err != nil {
		return accounts.Account{}, accounts.Account{}, fmt.Errorf("lock account %d: %w", secondID, err)
	}

	if first.ID == senderID {
		return first, second, nil
	}

	return second, first, nil
}

// recordRejection appends the failed-attempt entry in its own committed
// transaction. The row records the requested (negative) amount even
// though no balance changed. Best effort: if even this write fails the
// business error still reaches the caller, with the audit loss logged.
func (e *Engine) recordRejection(ctx context.Context, rej rejection, amount int64) {
	err := pgutils.WithTx(ctx, e.db, func(tx *sql.Tx) error {
		_, aerr := e.ledger.Append(tx, ledger.Entry{
			AccountID:    rej.account.ID,
			Counterparty: rej.counterparty,
			Amount:       -amount,
			Kind:         ledger.KindDecrease,
			Success:      false,
			ErrorText:    rej.errText,
		})

		return aerr
	})
	if err != nil {
		slog.Error("record rejected transfer",
			"account_id", rej.account.ID,
			"amount", amount,
			"error", err)
	}
}

func (e *Engine) publishTransfer(senderID, recipientID uint64, amount, senderBalance int64) {
	ev := events.TransferCompleted{
		EventID:       uuid.NewString(),
		SenderID:      senderID,
		RecipientID:   recipientID,
		AmountMinor:   amount,
		SenderBalance: senderBalance,
		OccurredAt:    time.Now().UTC(),
	}

	err := e.events.Publish(events.TopicTransferCompleted, ev)
	if err != nil {
		slog.Warn("publish transfer event", "event_id", ev.EventID, "error", err)
	}
}
