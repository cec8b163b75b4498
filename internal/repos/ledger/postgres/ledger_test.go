package ledger

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lightech/balance-beam/internal/infra/pgtestutil"
	"github.com/lightech/balance-beam/internal/repos/ledger"
)

func appendEntry(t *testing.T, db *sql.DB, repo *ledgerRepo, e ledger.Entry) int64 {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := repo.Append(tx, e)
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	return id
}

func TestLedger_Append_AssignsIdentityAndTimestamp(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedAccount(t, db, 1, "owner@example.com", 0)

	repo := New(db)

	before := time.Now().Add(-time.Minute)

	id1 := appendEntry(t, db, repo, ledger.Entry{
		AccountID: 1,
		Amount:    500,
		Kind:      ledger.KindIncrease,
		Success:   true,
	})
	id2 := appendEntry(t, db, repo, ledger.Entry{
		AccountID:    1,
		Counterparty: "peer@example.com, id: 2",
		Amount:       -200,
		Kind:         ledger.KindTransfer,
		Success:      true,
	})

	if id2 <= id1 {
		t.Fatalf("ids not monotonic: first %d, second %d", id1, id2)
	}

	entries, err := repo.ListRecent(t.Context(), 1, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(entries))
	}

	// Newest first
	if entries[0].ID != id2 || entries[1].ID != id1 {
		t.Fatalf("order mismatch: got ids %d, %d", entries[0].ID, entries[1].ID)
	}

	for _, e := range entries {
		if e.CreatedAt.Before(before) {
			t.Fatalf("server timestamp not assigned: %v", e.CreatedAt)
		}
	}

	if entries[0].Counterparty != "peer@example.com, id: 2" {
		t.Fatalf("counterparty mismatch: %q", entries[0].Counterparty)
	}
	if entries[1].Counterparty != "" {
		t.Fatalf("expected empty counterparty, got %q", entries[1].Counterparty)
	}
}

func TestLedger_Append_FailedAttemptRecord(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedAccount(t, db, 1, "owner@example.com", 100)

	repo := New(db)

	appendEntry(t, db, repo, ledger.Entry{
		AccountID:    1,
		Counterparty: "owner@example.com, id: 1",
		Amount:       -500,
		Kind:         ledger.KindDecrease,
		Success:      false,
		ErrorText:    "insufficient balance: 100 available, 500 requested",
	})

	entries, err := repo.ListRecent(t.Context(), 1, 5)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("want 1 entry, got %d", len(entries))
	}

	e := entries[0]
	if e.Success {
		t.Fatal("entry should be marked failed")
	}
	if e.Amount != -500 {
		t.Fatalf("amount: want -500, got %d", e.Amount)
	}
	if e.Kind != ledger.KindDecrease {
		t.Fatalf("kind: want DECREASE, got %s", e.Kind)
	}
	if e.ErrorText == "" {
		t.Fatal("error text missing")
	}
}

func TestLedger_ListRecent_LimitAndTieBreak(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedAccount(t, db, 1, "owner@example.com", 0)
	pgtestutil.SeedAccount(t, db, 2, "other@example.com", 0)

	repo := New(db)

	// Same transaction -> identical created_at (now() is fixed per tx),
	// so ordering falls back to id descending.
	tx, err := db.BeginTx(t.Context(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	var ids []int64
	for i := 0; i < 7; i++ {
		id, aerr := repo.Append(tx, ledger.Entry{
			AccountID: 1,
			Amount:    int64(100 + i),
			Kind:      ledger.KindIncrease,
			Success:   true,
		})
		if aerr != nil {
			t.Fatalf("append %d: %v", i, aerr)
		}
		ids = append(ids, id)
	}
	// An entry on another account must never show up.
	_, err = repo.Append(tx, ledger.Entry{
		AccountID: 2,
		Amount:    999,
		Kind:      ledger.KindIncrease,
		Success:   true,
	})
	if err != nil {
		t.Fatalf("append other account: %v", err)
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	entries, err := repo.ListRecent(t.Context(), 1, 5)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("limit not applied: want 5, got %d", len(entries))
	}

	for i, e := range entries {
		wantID := ids[len(ids)-1-i]
		if e.ID != wantID {
			t.Fatalf("position %d: want id %d, got %d", i, wantID, e.ID)
		}
		if e.AccountID != 1 {
			t.Fatalf("foreign entry leaked into listing: account %d", e.AccountID)
		}
	}

	// Pure read: a second call returns the same sequence.
	again, err := repo.ListRecent(t.Context(), 1, 5)
	if err != nil {
		t.Fatalf("second list: %v", err)
	}
	for i := range entries {
		if entries[i].ID != again[i].ID {
			t.Fatalf("repeated read differs at %d", i)
		}
	}
}

func TestLedger_DeleteProtectedByForeignKey(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	pgtestutil.SeedAccount(t, db, 1, "owner@example.com", 0)

	repo := New(db)

	appendEntry(t, db, repo, ledger.Entry{
		AccountID: 1,
		Amount:    100,
		Kind:      ledger.KindIncrease,
		Success:   true,
	})

	_, err := db.Exec(`DELETE FROM accounts WHERE id = 1`)
	if err == nil {
		t.Fatal("account with ledger rows must not be deletable")
	}
}
