package core

import (
	"fmt"
	"time"
)

// MonthKey identifies one calendar month by explicit year and month.
// Aggregation buckets key on this, never on a localized month label, so
// same-named months in different years can never collapse into one bucket.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf truncates a time to its calendar month.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// First returns the first day of the month.
func (k MonthKey) First() Date {
	return NewDate(k.Year, k.Month, 1)
}

// Next returns the following calendar month.
func (k MonthKey) Next() MonthKey {
	return MonthOf(k.First().AddDate(0, 1, 0))
}

// Prev returns the preceding calendar month.
func (k MonthKey) Prev() MonthKey {
	return MonthOf(k.First().AddDate(0, -1, 0))
}

// Before reports whether k is chronologically earlier than other.
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// String renders the sortable YYYY-MM form.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// IsZero reports whether the key is unset.
func (k MonthKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}

// TrailingMonths returns the n calendar months ending at ref's month, in
// ascending order. n <= 0 yields an empty slice.
func TrailingMonths(ref time.Time, n int) []MonthKey {
	if n <= 0 {
		return nil
	}
	keys := make([]MonthKey, n)
	k := MonthOf(ref)
	for i := n - 1; i >= 0; i-- {
		keys[i] = k
		k = k.Prev()
	}
	return keys
}
