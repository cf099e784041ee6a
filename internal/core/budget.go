package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodWindow is an inclusive calendar date range.
type PeriodWindow struct {
	Start Date
	End   Date
}

// MonthWindow returns the calendar month containing t, from its first through
// its last day, using t's location to decide which month that is.
func MonthWindow(t time.Time) PeriodWindow {
	first := NewDate(t.Year(), int(t.Month()), 1)
	last := NewDate(t.Year(), int(t.Month())+1, 0)
	return PeriodWindow{Start: first, End: last}
}

// Contains reports whether d falls within the window, bounds included.
func (w PeriodWindow) Contains(d Date) bool {
	day := DateOf(d.Time)
	return !day.Before(w.Start.Time) && !day.After(w.End.Time)
}

// Severity orders budget alert levels. SeverityNone means no alert.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityWarning
	SeverityCritical
	SeverityExceeded
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	case SeverityExceeded:
		return "EXCEEDED"
	default:
		return "NONE"
	}
}

// Title is the short heading shown with an alert of this severity.
func (s Severity) Title() string {
	switch s {
	case SeverityWarning:
		return "Budget Warning"
	case SeverityCritical:
		return "Critical Budget Warning"
	case SeverityExceeded:
		return "Budget Exceeded"
	default:
		return ""
	}
}

// CategorySpendSnapshot is the spend of one budgeted category in a window.
// Ratio is Spent/Limit rounded half-up to four fractional digits.
type CategorySpendSnapshot struct {
	Category Category
	Window   PeriodWindow
	Spent    Money
	Limit    Money
	Ratio    decimal.Decimal
	Severity Severity
}

// Percent returns the ratio scaled to a percentage for display.
func (s CategorySpendSnapshot) Percent() decimal.Decimal {
	return s.Ratio.Shift(2)
}

// AlertEvent is produced by the budget monitor and handed to a notifier.
// Delta is the overage for SeverityExceeded and the remaining budget otherwise.
type AlertEvent struct {
	Category    Category
	Severity    Severity
	Title       string
	Message     string
	Ratio       decimal.Decimal
	Spent       Money
	Limit       Money
	Delta       Money
	GeneratedAt time.Time
}

// Percent returns the ratio scaled to a percentage for display.
func (e AlertEvent) Percent() decimal.Decimal {
	return e.Ratio.Shift(2)
}
