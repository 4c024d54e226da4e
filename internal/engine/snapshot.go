package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kumbara/internal/core"
	applog "kumbara/internal/log"
)

// Snapshot wire records. Dates travel as strings (2006-01-02 for the
// attributed date, RFC3339 for bookkeeping timestamps) and are parsed back
// explicitly; the blobs are plain JSON and not self-describing beyond that.

type ledgerSnapshot struct {
	Transactions []transactionRecord `json:"transactions"`
	TotalIncome  int64               `json:"totalIncome"`
	TotalExpense int64               `json:"totalExpense"`
}

type transactionRecord struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Amount      int64  `json:"amount"`
	CategoryID  string `json:"categoryId"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	PhotoRef    string `json:"photoRef,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type budgetSnapshot struct {
	Budgets []budgetRecord `json:"budgets"`
}

type budgetRecord struct {
	ID         string `json:"id"`
	CategoryID string `json:"categoryId"`
	Month      string `json:"month"`
	Amount     int64  `json:"amount"`
	Spent      int64  `json:"spent"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// persist serializes the touched store(s) to the durable store. The
// in-memory state is already mutated by the time this runs and is never
// rolled back; a failed write is reported as a *PersistenceError so the
// caller can retry or warn that changes may not be saved.
func (s *Service) persist(ctx context.Context, ledger, budgets bool) error {
	if s.store == nil {
		return nil
	}
	if ledger {
		blob, err := json.Marshal(s.encodeLedger())
		if err != nil {
			return &PersistenceError{Key: ledgerKey, Err: err}
		}
		if err := s.store.Set(ctx, ledgerKey, string(blob)); err != nil {
			s.log.ErrorContext(ctx, "durable write failed", applog.FieldKey, ledgerKey, applog.FieldError, err)
			return &PersistenceError{Key: ledgerKey, Err: err}
		}
	}
	if budgets {
		blob, err := json.Marshal(s.encodeBudgets())
		if err != nil {
			return &PersistenceError{Key: budgetsKey, Err: err}
		}
		if err := s.store.Set(ctx, budgetsKey, string(blob)); err != nil {
			s.log.ErrorContext(ctx, "durable write failed", applog.FieldKey, budgetsKey, applog.FieldError, err)
			return &PersistenceError{Key: budgetsKey, Err: err}
		}
	}
	return nil
}

// hydrate restores state from the durable store. Absent or unreadable blobs
// mean no prior state; corruption is logged and skipped rather than fatal.
func (s *Service) hydrate(ctx context.Context) {
	if s.store == nil {
		return
	}

	if blob, ok, err := s.store.Get(ctx, ledgerKey); err != nil {
		s.log.WarnContext(ctx, "ledger snapshot unreadable, starting empty", applog.FieldError, err)
	} else if ok {
		if err := s.decodeLedger([]byte(blob)); err != nil {
			s.log.WarnContext(ctx, "ledger snapshot corrupt, starting empty", applog.FieldError, err)
			s.transactions = nil
			s.totalIncome = 0
			s.totalExpense = 0
		}
	}

	if blob, ok, err := s.store.Get(ctx, budgetsKey); err != nil {
		s.log.WarnContext(ctx, "budget snapshot unreadable, starting empty", applog.FieldError, err)
	} else if ok {
		if err := s.decodeBudgets([]byte(blob)); err != nil {
			s.log.WarnContext(ctx, "budget snapshot corrupt, starting empty", applog.FieldError, err)
			s.budgets = nil
		}
	}

	s.log.InfoContext(ctx, "engine hydrated",
		applog.FieldTransactionCount, len(s.transactions),
		applog.FieldBudgetCount, len(s.budgets))
}

func (s *Service) encodeLedger() ledgerSnapshot {
	snap := ledgerSnapshot{
		Transactions: make([]transactionRecord, len(s.transactions)),
		TotalIncome:  s.totalIncome,
		TotalExpense: s.totalExpense,
	}
	for i, t := range s.transactions {
		snap.Transactions[i] = transactionRecord{
			ID:          t.ID,
			Type:        string(t.Type),
			Amount:      t.Amount.Cents,
			CategoryID:  t.CategoryID,
			Date:        t.Date.String(),
			Description: t.Description,
			PhotoRef:    t.PhotoRef,
			CreatedAt:   t.CreatedAt.Format(time.RFC3339Nano),
			UpdatedAt:   t.UpdatedAt.Format(time.RFC3339Nano),
		}
	}
	return snap
}

func (s *Service) decodeLedger(blob []byte) error {
	var snap ledgerSnapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return fmt.Errorf("unmarshal ledger snapshot: %w", err)
	}
	txs := make([]core.Transaction, len(snap.Transactions))
	for i, r := range snap.Transactions {
		date, err := core.ParseDate(r.Date)
		if err != nil {
			return fmt.Errorf("transaction %s: parse date %q: %w", r.ID, r.Date, err)
		}
		createdAt, err := parseTimestamp(r.CreatedAt)
		if err != nil {
			return fmt.Errorf("transaction %s: parse createdAt: %w", r.ID, err)
		}
		updatedAt, err := parseTimestamp(r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("transaction %s: parse updatedAt: %w", r.ID, err)
		}
		txs[i] = core.Transaction{
			ID:          r.ID,
			Type:        core.TransactionType(r.Type),
			Amount:      core.Money{Cents: r.Amount},
			CategoryID:  r.CategoryID,
			Date:        date,
			Description: r.Description,
			PhotoRef:    r.PhotoRef,
			CreatedAt:   createdAt,
			UpdatedAt:   updatedAt,
		}
	}
	s.transactions = txs
	s.totalIncome = snap.TotalIncome
	s.totalExpense = snap.TotalExpense
	return nil
}

func (s *Service) encodeBudgets() budgetSnapshot {
	snap := budgetSnapshot{Budgets: make([]budgetRecord, len(s.budgets))}
	for i, b := range s.budgets {
		snap.Budgets[i] = budgetRecord{
			ID:         b.ID,
			CategoryID: b.CategoryID,
			Month:      b.Month.String(),
			Amount:     b.Amount.Cents,
			Spent:      b.Spent.Cents,
			CreatedAt:  b.CreatedAt.Format(time.RFC3339Nano),
			UpdatedAt:  b.UpdatedAt.Format(time.RFC3339Nano),
		}
	}
	return snap
}

func (s *Service) decodeBudgets(blob []byte) error {
	var snap budgetSnapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return fmt.Errorf("unmarshal budget snapshot: %w", err)
	}
	budgets := make([]core.Budget, len(snap.Budgets))
	for i, r := range snap.Budgets {
		month, err := core.ParseMonth(r.Month)
		if err != nil {
			return fmt.Errorf("budget %s: parse month %q: %w", r.ID, r.Month, err)
		}
		createdAt, err := parseTimestamp(r.CreatedAt)
		if err != nil {
			return fmt.Errorf("budget %s: parse createdAt: %w", r.ID, err)
		}
		updatedAt, err := parseTimestamp(r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("budget %s: parse updatedAt: %w", r.ID, err)
		}
		budgets[i] = core.Budget{
			ID:         r.ID,
			CategoryID: r.CategoryID,
			Month:      month,
			Amount:     core.Money{Cents: r.Amount},
			Spent:      core.Money{Cents: r.Spent},
			CreatedAt:  createdAt,
			UpdatedAt:  updatedAt,
		}
	}
	s.budgets = budgets
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
