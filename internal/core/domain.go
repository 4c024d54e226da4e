package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	// TransactionType classifies a money movement.
	TransactionType string

	// Date is the calendar day a movement is attributed to. It is
	// user-editable and distinct from the bookkeeping timestamps.
	Date struct {
		time.Time
	}

	// Transaction is a single money movement. ID and the bookkeeping
	// timestamps are owned by the engine, never by the caller.
	Transaction struct {
		ID          string
		Type        TransactionType
		Amount      Money
		CategoryID  string
		Date        Date
		Description string
		PhotoRef    string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Budget is a spending target for one category in one month.
	// (CategoryID, Month) is unique within the registry. Spent is a running
	// total maintained incrementally by the engine, never recomputed.
	Budget struct {
		ID         string
		CategoryID string
		Month      Month
		Amount     Money
		Spent      Money
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateBudget = errors.New("budget already exists for category and month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyCategory   = errors.New("empty category")
)

// IsValid reports whether t is one of the two known movement types.
func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses the wire representation of a Date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String returns the wire representation (2006-01-02).
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Validate performs caller-side input checks. The engine itself accepts
// whatever it is given; surfaces such as the HTTP API call this before
// handing input over.
func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	return nil
}
