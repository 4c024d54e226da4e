package core

import (
	"strings"
	"time"
)

// Month is the budget key for a calendar month, in the 2006-01 wire form.
type Month string

// ParseMonth parses and normalizes a month key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidMonth
	}
	return Month(t.Format("2006-01")), nil
}

// MonthOf derives the month key a date falls in.
func MonthOf(d Date) Month {
	return Month(d.Format("2006-01"))
}

func (m Month) String() string {
	return string(m)
}

func (m Month) Validate() error {
	if _, err := ParseMonth(string(m)); err != nil {
		return err
	}
	return nil
}

// Time returns the first day of the month in UTC. It assumes a valid key.
func (m Month) Time() time.Time {
	t, _ := time.Parse("2006-01", string(m))
	return t
}
