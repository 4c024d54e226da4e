package core

// Patches are sparse updates: a nil field is "leave as is". Using explicit
// optional-field structs instead of maps lets the engine's reversal logic
// match exactly which fields changed.

// TransactionPatch carries the caller-editable transaction fields.
type TransactionPatch struct {
	Type        *TransactionType
	Amount      *Money
	CategoryID  *string
	Date        *Date
	Description *string
	PhotoRef    *string
}

// IsZero reports whether the patch changes nothing.
func (p TransactionPatch) IsZero() bool {
	return p.Type == nil && p.Amount == nil && p.CategoryID == nil &&
		p.Date == nil && p.Description == nil && p.PhotoRef == nil
}

// Apply overlays the patch onto t and returns the result.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.PhotoRef != nil {
		t.PhotoRef = *p.PhotoRef
	}
	return t
}

// BudgetPatch carries the editable budget fields. Spent is included on
// purpose: a manual override is a legitimate user action, distinct from the
// incremental maintenance done by the engine.
type BudgetPatch struct {
	Amount *Money
	Spent  *Money
}

func (p BudgetPatch) IsZero() bool {
	return p.Amount == nil && p.Spent == nil
}

// Apply overlays the patch onto b and returns the result.
func (p BudgetPatch) Apply(b Budget) Budget {
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.Spent != nil {
		b.Spent = *p.Spent
	}
	return b
}
