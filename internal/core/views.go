package core

// Category is display metadata from the category catalog. The catalog is a
// static, injected lookup; the engine never validates CategoryID against it
// at write time.
type Category struct {
	ID    string
	Label string
	Icon  string
	Color string
	Kind  TransactionType
}

// BudgetWithCategory is a budget joined with its category metadata, computed
// on read and never stored.
type BudgetWithCategory struct {
	Budget
	Category   Category
	Percentage float64
}

// MonthlySummary aggregates all budgets of one month.
type MonthlySummary struct {
	Month       Month
	Budgets     []BudgetWithCategory
	TotalBudget Money
	TotalSpent  Money
	Percentage  float64
}

// Percent returns spent/amount as a percentage, guarding division by zero.
func Percent(spent, amount Money) float64 {
	if amount.Cents == 0 {
		return 0
	}
	return float64(spent.Cents) / float64(amount.Cents) * 100
}
