package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lightech/balance-beam/internal/infra/pgtestutil"
	"github.com/lightech/balance-beam/internal/repos/ledger"
)

// End-to-end engine behavior against a real database: row locks,
// rollback semantics and the rejected-attempt audit trail are exercised
// for real here, not mocked.

func TestEngine_CreditAndTransfer_Scenario(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedAccount(t, db, 1, "alice@example.com", 10_000)
	pgtestutil.SeedAccount(t, db, 2, "bob@example.com", 2_000)

	svc := New(db, nil)
	ctx := t.Context()

	// Credit: 10000 + 500 = 10500, one successful INCREASE entry.
	balance, err := svc.Credit(ctx, 1, 500, "")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if balance != 10_500 {
		t.Fatalf("after credit: want 10500, got %d", balance)
	}

	history, err := svc.RecentHistory(ctx, 1, 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Amount != 500 ||
		history[0].Kind != ledger.KindIncrease || !history[0].Success {
		t.Fatalf("unexpected credit entry: %+v", history)
	}

	// Transfer: 10500-3000=7500 / 2000+3000=5000, one entry per side.
	balance, err = svc.Transfer(ctx, 1, 2, 3_000)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if balance != 7_500 {
		t.Fatalf("sender balance: want 7500, got %d", balance)
	}

	recipientBalance, err := svc.CheckBalance(ctx, 2)
	if err != nil {
		t.Fatalf("check recipient: %v", err)
	}
	if recipientBalance != 5_000 {
		t.Fatalf("recipient balance: want 5000, got %d", recipientBalance)
	}

	senderHistory, err := svc.RecentHistory(ctx, 1, 1)
	if err != nil {
		t.Fatalf("sender history: %v", err)
	}
	if senderHistory[0].Amount != -3_000 || senderHistory[0].Kind != ledger.KindTransfer {
		t.Fatalf("sender debit entry: %+v", senderHistory[0])
	}
	if senderHistory[0].Counterparty != "bob@example.com, id: 2" {
		t.Fatalf("counterparty snapshot: %q", senderHistory[0].Counterparty)
	}

	recipientHistory, err := svc.RecentHistory(ctx, 2, 1)
	if err != nil {
		t.Fatalf("recipient history: %v", err)
	}
	if recipientHistory[0].Amount != 3_000 || recipientHistory[0].Kind != ledger.KindIncrease {
		t.Fatalf("recipient credit entry: %+v", recipientHistory[0])
	}
}

func TestEngine_Transfer_RejectionsAuditedWithoutMutation(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedAccount(t, db, 1, "alice@example.com", 100)
	pgtestutil.SeedAccount(t, db, 2, "bob@example.com", 50)

	svc := New(db, nil)
	ctx := t.Context()

	// Insufficient funds: balances untouched, one failed entry on sender.
	_, err := svc.Transfer(ctx, 1, 2, 500)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}

	balance, err := svc.CheckBalance(ctx, 1)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if balance != 100 {
		t.Fatalf("sender mutated on rejection: %d", balance)
	}

	history, err := svc.RecentHistory(ctx, 1, 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("want exactly one audit entry, got %d", len(history))
	}
	e := history[0]
	if e.Success || e.Amount != -500 || e.Kind != ledger.KindDecrease || e.ErrorText == "" {
		t.Fatalf("unexpected rejection entry: %+v", e)
	}

	// Self transfer: same contract.
	_, err = svc.Transfer(ctx, 2, 2, 10)
	if !errors.Is(err, ErrSelfTransfer) {
		t.Fatalf("want ErrSelfTransfer, got %v", err)
	}

	balance, err = svc.CheckBalance(ctx, 2)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if balance != 50 {
		t.Fatalf("balance mutated on self transfer: %d", balance)
	}

	history, err = svc.RecentHistory(ctx, 2, 5)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Success {
		t.Fatalf("want one failed entry, got %+v", history)
	}
}

// Opposite-direction transfers must all complete (the canonical lock
// order makes a deadlock structurally impossible) and conserve the total.
func TestEngine_Transfer_OppositeDirectionsNoDeadlock(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedAccount(t, db, 1, "alice@example.com", 100_000)
	pgtestutil.SeedAccount(t, db, 2, "bob@example.com", 100_000)

	svc := New(db, nil)

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Second)
	defer cancel()

	const pairs = 10

	var wg sync.WaitGroup
	errCh := make(chan error, pairs*2)

	for i := 0; i < pairs; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()

			_, err := svc.Transfer(ctx, 1, 2, 100)
			if err != nil {
				errCh <- err
			}
		}()

		go func() {
			defer wg.Done()

			_, err := svc.Transfer(ctx, 2, 1, 100)
			if err != nil {
				errCh <- err
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("transfers did not complete: possible deadlock")
	}

	close(errCh)
	for err := range errCh {
		t.Errorf("transfer error: %v", err)
	}

	a, err := svc.CheckBalance(ctx, 1)
	if err != nil {
		t.Fatalf("check a: %v", err)
	}
	b, err := svc.CheckBalance(ctx, 2)
	if err != nil {
		t.Fatalf("check b: %v", err)
	}

	if a+b != 200_000 {
		t.Fatalf("total not conserved: %d + %d = %d", a, b, a+b)
	}
	if a != 100_000 || b != 100_000 {
		t.Fatalf("symmetric transfers should cancel out: a=%d b=%d", a, b)
	}
}
