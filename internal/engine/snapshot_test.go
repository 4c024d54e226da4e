package engine

import (
	"context"
	"testing"

	"kumbara/internal/core"
	"kumbara/internal/store/memory"
)

func TestRoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	s := newTestService(t, Config{Store: st})
	addIncome(t, s, 250000, "salary", core.NewDate(2024, 5, 1))
	tx := addExpense(t, s, 15000, "food", core.NewDate(2024, 5, 10))
	if _, err := s.AddBudget(ctx, "food", core.Month("2024-05"), core.Money{Cents: 100000}); err != nil {
		t.Fatal(err)
	}
	addExpense(t, s, 5000, "food", core.NewDate(2024, 5, 12))

	// A fresh engine over the same store sees the same state.
	restored := newTestService(t, Config{Store: st})

	txs := restored.Transactions()
	if len(txs) != 3 {
		t.Fatalf("restored %d transactions, want 3", len(txs))
	}
	got, err := restored.Transaction(tx.ID)
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if got.Amount.Cents != 15000 || got.CategoryID != "food" || got.Date.String() != "2024-05-10" {
		t.Errorf("restored transaction = %+v", got)
	}
	if !got.CreatedAt.Equal(tx.CreatedAt) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt, tx.CreatedAt)
	}

	income, expense := restored.Totals()
	if income.Cents != 250000 || expense.Cents != 20000 {
		t.Errorf("totals = (%d, %d), want (250000, 20000)", income.Cents, expense.Cents)
	}

	b, ok := restored.FindBudget("food", core.Month("2024-05"))
	if !ok {
		t.Fatal("budget not restored")
	}
	if b.Spent.Cents != 5000 {
		t.Errorf("restored spent = %d, want 5000", b.Spent.Cents)
	}
}

func TestRoundTripPreservesTieOrder(t *testing.T) {
	st := memory.New()
	s := newTestService(t, Config{Store: st})

	a := addExpense(t, s, 100, "market", core.NewDate(2024, 5, 10))
	b := addExpense(t, s, 200, "market", core.NewDate(2024, 5, 10))

	restored := newTestService(t, Config{Store: st})
	txs := restored.Transactions()
	if len(txs) != 2 || txs[0].ID != a.ID || txs[1].ID != b.ID {
		t.Errorf("tie order not preserved across restart: got [%s %s]", txs[0].ID, txs[1].ID)
	}
}

func TestHydrateEmptyStore(t *testing.T) {
	s := newTestService(t, Config{Store: memory.New()})
	if len(s.Transactions()) != 0 {
		t.Errorf("expected empty ledger")
	}
	income, expense := s.Totals()
	if income.Cents != 0 || expense.Cents != 0 {
		t.Errorf("totals = (%d, %d), want zero", income.Cents, expense.Cents)
	}
}

func TestHydrateCorruptBlobStartsEmpty(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	if err := st.Set(ctx, ledgerKey, "{not json"); err != nil {
		t.Fatal(err)
	}
	if err := st.Set(ctx, budgetsKey, `{"budgets":[{"id":"b1","month":"not-a-month"}]}`); err != nil {
		t.Fatal(err)
	}

	s := newTestService(t, Config{Store: st})
	if len(s.Transactions()) != 0 {
		t.Errorf("corrupt ledger should hydrate empty")
	}
	if _, ok := s.FindBudget("food", core.Month("2024-05")); ok {
		t.Errorf("corrupt budgets should hydrate empty")
	}

	// The engine stays writable after discarding corrupt snapshots.
	addExpense(t, s, 100, "market", core.NewDate(2024, 5, 1))
	if len(s.Transactions()) != 1 {
		t.Errorf("engine unusable after corrupt hydrate")
	}
}

func TestBudgetBlobOnlyWrittenWhenTouched(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := newTestService(t, Config{Store: st})

	// No budget exists, so an expense writes only the ledger blob.
	addExpense(t, s, 100, "market", core.NewDate(2024, 5, 1))
	if _, ok, _ := st.Get(ctx, budgetsKey); ok {
		t.Fatal("budgets blob written without a matching budget")
	}

	if _, err := s.AddBudget(ctx, "market", core.Month("2024-05"), core.Money{Cents: 1000}); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := st.Get(ctx, budgetsKey); !ok {
		t.Fatal("budgets blob missing after AddBudget")
	}
}

func TestFlushWritesBothBlobs(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	s := newTestService(t, Config{Store: st})

	if err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, ok, _ := st.Get(ctx, ledgerKey); !ok {
		t.Error("ledger blob missing after Flush")
	}
	if _, ok, _ := st.Get(ctx, budgetsKey); !ok {
		t.Error("budgets blob missing after Flush")
	}
}
