package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Period is an inclusive service interval.
type Period struct {
	Start time.Time
	End   time.Time
}

// InstantPeriod returns a degenerate period at t.
func InstantPeriod(t time.Time) Period {
	return Period{Start: t, End: t}
}

// IsInstant reports whether start and end coincide.
func (p Period) IsInstant() bool {
	return p.Start.Equal(p.End)
}

// Valid reports whether the period does not end before it starts.
func (p Period) Valid() bool {
	return !p.End.Before(p.Start)
}

// In returns the period expressed in loc.
func (p Period) In(loc *time.Location) Period {
	return Period{Start: p.Start.In(loc), End: p.End.In(loc)}
}

// MonthBucket is the share of one or more amounts falling into a calendar month.
type MonthBucket struct {
	Start   time.Time
	End     time.Time
	Amounts []decimal.Decimal
}

// MonthKey formats t's calendar month as yyyy-MM.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// StartOfMonth returns the first instant of t's month in t's location.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last second of t's month in t's location.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Second)
}

// Window is a half-open export interval [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}
