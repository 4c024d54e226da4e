// Package engine implements the ledger and budget aggregation engine.
//
// One Service owns both the transaction ledger and the budget registry
// behind a single mutation entry point. Derived aggregates (running income
// and expense totals, per-budget spent amounts) are maintained incrementally
// on every mutation: a change is always reversed with the record's original
// values and reapplied with the updated ones, never re-set directly. After a
// successful in-memory mutation the full state of the touched store is
// serialized to the durable store; a failed write surfaces as a
// *PersistenceError without rolling the in-memory change back.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"kumbara/internal/core"
	applog "kumbara/internal/log"
	"kumbara/internal/store"
)

// Fixed durable store keys for the two serialized snapshots.
const (
	ledgerKey  = "ledger"
	budgetsKey = "budgets"
)

// CategoryLookup is the injected category catalog port. A missing category
// must never break an aggregation; joins tolerate absence.
type CategoryLookup interface {
	Category(id string) (core.Category, bool)
}

// Config wires the engine's collaborators.
type Config struct {
	Store   store.DurableStore
	Catalog CategoryLookup
	Logger  *applog.Logger

	// BackfillOnCreate controls whether creating a budget scans existing
	// expense transactions for its category and month to seed Spent. Off by
	// default: a new budget tracks only what happens after it exists.
	BackfillOnCreate bool

	// Clock and IDFunc exist for tests; zero values mean time.Now and
	// random UUIDs.
	Clock  func() time.Time
	IDFunc func() string
}

// TransactionInput carries the caller-provided fields of a new transaction.
// ID and timestamps are assigned by the engine.
type TransactionInput struct {
	Type        core.TransactionType
	Amount      core.Money
	CategoryID  string
	Date        core.Date
	Description string
	PhotoRef    string
}

// Service is the coordinating engine. All exported methods are safe for
// concurrent use; a single mutex makes each mutation, including its budget
// delta, atomic relative to any read.
type Service struct {
	mu      sync.Mutex
	store   store.DurableStore
	catalog CategoryLookup
	log     *applog.Logger

	backfillOnCreate bool
	clock            func() time.Time
	newID            func() string

	// transactions are kept ordered by date descending, ties in insertion
	// order. Totals are maintained incrementally alongside.
	transactions []core.Transaction
	totalIncome  int64
	totalExpense int64

	budgets []core.Budget
}

// New builds a Service and hydrates it from the durable store. A missing or
// unreadable snapshot means no prior state and is not fatal.
func New(ctx context.Context, cfg Config) (*Service, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	s := &Service{
		store:            cfg.Store,
		catalog:          cfg.Catalog,
		log:              logger.WithComponent(applog.ComponentEngine),
		backfillOnCreate: cfg.BackfillOnCreate,
		clock:            cfg.Clock,
		newID:            cfg.IDFunc,
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	s.hydrate(ctx)
	return s, nil
}

// AddTransaction creates a transaction, updates the running totals, applies
// the budget delta for expenses, and persists. Returns the created record.
func (s *Service) AddTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock().UTC()
	t := core.Transaction{
		ID:          s.newID(),
		Type:        in.Type,
		Amount:      in.Amount,
		CategoryID:  in.CategoryID,
		Date:        in.Date,
		Description: in.Description,
		PhotoRef:    in.PhotoRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.transactions = append(s.transactions, t)
	s.sortLedger()
	s.adjustTotals(t.Type, t.Amount.Cents)

	budgetTouched := false
	if t.Type == core.Expense {
		budgetTouched = s.applyBudgetDelta(t.CategoryID, core.MonthOf(t.Date), t.Amount.Cents)
	}

	s.log.DebugContext(ctx, "transaction added",
		applog.FieldTransactionID, t.ID,
		applog.FieldTransactionType, string(t.Type),
		applog.FieldAmountCents, t.Amount.Cents,
		applog.FieldCategoryID, t.CategoryID)

	return t, s.persist(ctx, true, budgetTouched)
}

// UpdateTransaction applies a sparse patch to an existing transaction. The
// old expense impact is reversed with the record's original category, month
// and amount before the patched values are applied, so a budget's spent
// amount moves by the delta rather than accumulating.
func (s *Service) UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findTransaction(id)
	if idx < 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	old := s.transactions[idx]

	// Reverse the old contribution first, with the original values.
	s.adjustTotals(old.Type, -old.Amount.Cents)
	budgetTouched := false
	if old.Type == core.Expense {
		budgetTouched = s.applyBudgetDelta(old.CategoryID, core.MonthOf(old.Date), -old.Amount.Cents)
	}

	next := patch.Apply(old)
	next.UpdatedAt = s.clock().UTC()
	s.transactions[idx] = next
	if patch.Date != nil && !next.Date.Equal(old.Date.Time) {
		s.sortLedger()
	}

	// Reapply with the updated values.
	s.adjustTotals(next.Type, next.Amount.Cents)
	if next.Type == core.Expense {
		touched := s.applyBudgetDelta(next.CategoryID, core.MonthOf(next.Date), next.Amount.Cents)
		budgetTouched = budgetTouched || touched
	}

	s.log.DebugContext(ctx, "transaction updated", applog.FieldTransactionID, id)

	return next, s.persist(ctx, true, budgetTouched)
}

// RemoveTransaction deletes a transaction and reverses its contribution to
// the totals and, for expenses, to its budget. A second remove of the same
// id fails with core.ErrNotFound and changes nothing.
func (s *Service) RemoveTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findTransaction(id)
	if idx < 0 {
		return core.ErrNotFound
	}
	old := s.transactions[idx]
	s.transactions = append(s.transactions[:idx], s.transactions[idx+1:]...)

	s.adjustTotals(old.Type, -old.Amount.Cents)
	budgetTouched := false
	if old.Type == core.Expense {
		budgetTouched = s.applyBudgetDelta(old.CategoryID, core.MonthOf(old.Date), -old.Amount.Cents)
	}

	s.log.DebugContext(ctx, "transaction removed", applog.FieldTransactionID, id)

	return s.persist(ctx, true, budgetTouched)
}

// Transaction returns a copy of one transaction by id.
func (s *Service) Transaction(id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findTransaction(id)
	if idx < 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return s.transactions[idx], nil
}

// Transactions returns a copy of the ledger, ordered by date descending
// with ties in insertion order.
func (s *Service) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// Totals returns the running income and expense sums.
func (s *Service) Totals() (income, expense core.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Money{Cents: s.totalIncome}, core.Money{Cents: s.totalExpense}
}

// AddBudget creates a budget for a category and month. At most one budget
// may exist per key; an existing one fails with core.ErrDuplicateBudget so
// the caller can offer update-or-replace instead.
func (s *Service) AddBudget(ctx context.Context, categoryID string, month core.Month, amount core.Money) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.findBudgetByKey(categoryID, month); idx >= 0 {
		return core.Budget{}, core.ErrDuplicateBudget
	}

	now := s.clock().UTC()
	b := core.Budget{
		ID:         s.newID(),
		CategoryID: categoryID,
		Month:      month,
		Amount:     amount,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if s.backfillOnCreate {
		b.Spent = core.Money{Cents: s.sumExpenses(categoryID, month)}
	}
	s.budgets = append(s.budgets, b)

	s.log.DebugContext(ctx, "budget added",
		applog.FieldBudgetID, b.ID,
		applog.FieldCategoryID, categoryID,
		applog.FieldMonth, month.String(),
		applog.FieldAmountCents, amount.Cents)

	return b, s.persist(ctx, false, true)
}

// UpdateBudget applies a sparse patch to a budget. Overspend is a displayed
// state, not an error, so Spent is never validated against Amount.
func (s *Service) UpdateBudget(ctx context.Context, id string, patch core.BudgetPatch) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findBudget(id)
	if idx < 0 {
		return core.Budget{}, core.ErrNotFound
	}
	next := patch.Apply(s.budgets[idx])
	next.UpdatedAt = s.clock().UTC()
	s.budgets[idx] = next

	s.log.DebugContext(ctx, "budget updated", applog.FieldBudgetID, id)

	return next, s.persist(ctx, false, true)
}

// DeleteBudget removes a budget. Transactions are untouched; there is no
// cascade.
func (s *Service) DeleteBudget(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findBudget(id)
	if idx < 0 {
		return core.ErrNotFound
	}
	s.budgets = append(s.budgets[:idx], s.budgets[idx+1:]...)

	s.log.DebugContext(ctx, "budget deleted", applog.FieldBudgetID, id)

	return s.persist(ctx, false, true)
}

// FindBudget returns the budget for a category and month, if any.
func (s *Service) FindBudget(categoryID string, month core.Month) (core.Budget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findBudgetByKey(categoryID, month)
	if idx < 0 {
		return core.Budget{}, false
	}
	return s.budgets[idx], true
}

// Budget returns a copy of one budget by id.
func (s *Service) Budget(id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findBudget(id)
	if idx < 0 {
		return core.Budget{}, core.ErrNotFound
	}
	return s.budgets[idx], nil
}

// BudgetsByMonth returns the month's budgets joined with category metadata.
// Budgets whose category is unknown to the catalog are excluded from the
// join; a stale category must not break the aggregation.
func (s *Service) BudgetsByMonth(ctx context.Context, month core.Month) []core.BudgetWithCategory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgetsByMonthLocked(ctx, month)
}

func (s *Service) budgetsByMonthLocked(ctx context.Context, month core.Month) []core.BudgetWithCategory {
	out := make([]core.BudgetWithCategory, 0, len(s.budgets))
	for _, b := range s.budgets {
		if b.Month != month {
			continue
		}
		var cat core.Category
		if s.catalog != nil {
			var ok bool
			cat, ok = s.catalog.Category(b.CategoryID)
			if !ok {
				s.log.WarnContext(ctx, "budget category missing from catalog",
					applog.FieldBudgetID, b.ID,
					applog.FieldCategoryID, b.CategoryID)
				continue
			}
		}
		out = append(out, core.BudgetWithCategory{
			Budget:     b,
			Category:   cat,
			Percentage: core.Percent(b.Spent, b.Amount),
		})
	}
	return out
}

// MonthlySummary aggregates a month's budgets into totals.
func (s *Service) MonthlySummary(ctx context.Context, month core.Month) core.MonthlySummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	joined := s.budgetsByMonthLocked(ctx, month)
	sum := core.MonthlySummary{Month: month, Budgets: joined}
	for _, b := range joined {
		sum.TotalBudget = sum.TotalBudget.Add(b.Amount)
		sum.TotalSpent = sum.TotalSpent.Add(b.Spent)
	}
	sum.Percentage = core.Percent(sum.TotalSpent, sum.TotalBudget)
	return sum
}

// Flush writes both snapshots regardless of what changed last. Called on
// shutdown.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, true, true)
}

// applyBudgetDelta is the aggregation synchronizer: it locates the budget
// for (categoryID, month) and adds delta to its spent amount. Transactions
// for categories without a budget are a no-op. Callers only ever invoke it
// in reverse-then-reapply pairs; it never re-sets spent from scratch.
func (s *Service) applyBudgetDelta(categoryID string, month core.Month, delta int64) bool {
	idx := s.findBudgetByKey(categoryID, month)
	if idx < 0 {
		return false
	}
	s.budgets[idx].Spent.Cents += delta
	s.budgets[idx].UpdatedAt = s.clock().UTC()
	return true
}

func (s *Service) adjustTotals(typ core.TransactionType, delta int64) {
	switch typ {
	case core.Income:
		s.totalIncome += delta
	case core.Expense:
		s.totalExpense += delta
	}
}

// sumExpenses totals the live expense transactions for a budget key. Only
// used for the optional backfill on budget creation.
func (s *Service) sumExpenses(categoryID string, month core.Month) int64 {
	var total int64
	for _, t := range s.transactions {
		if t.Type == core.Expense && t.CategoryID == categoryID && core.MonthOf(t.Date) == month {
			total += t.Amount.Cents
		}
	}
	return total
}

func (s *Service) sortLedger() {
	sort.SliceStable(s.transactions, func(i, j int) bool {
		return s.transactions[i].Date.After(s.transactions[j].Date.Time)
	})
}

func (s *Service) findTransaction(id string) int {
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) findBudget(id string) int {
	for i := range s.budgets {
		if s.budgets[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) findBudgetByKey(categoryID string, month core.Month) int {
	for i := range s.budgets {
		if s.budgets[i].CategoryID == categoryID && s.budgets[i].Month == month {
			return i
		}
	}
	return -1
}
