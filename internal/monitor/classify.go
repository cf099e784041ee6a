package monitor

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgetwatch/internal/core"
)

// Thresholds are spend/limit ratios at which each severity starts.
type Thresholds struct {
	Warning  decimal.Decimal
	Critical decimal.Decimal
	Exceeded decimal.Decimal
}

// DefaultThresholds returns 0.80 / 0.95 / 1.00.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Warning:  decimal.RequireFromString("0.80"),
		Critical: decimal.RequireFromString("0.95"),
		Exceeded: decimal.RequireFromString("1.00"),
	}
}

// Validate requires 0 < warning < critical <= exceeded.
func (t Thresholds) Validate() error {
	if !t.Warning.IsPositive() {
		return fmt.Errorf("%w: warning must be positive, got %s", core.ErrInvalidThreshold, t.Warning)
	}
	if !t.Warning.LessThan(t.Critical) {
		return fmt.Errorf("%w: warning (%s) must be below critical (%s)", core.ErrInvalidThreshold, t.Warning, t.Critical)
	}
	if t.Critical.GreaterThan(t.Exceeded) {
		return fmt.Errorf("%w: critical (%s) must not exceed exceeded (%s)", core.ErrInvalidThreshold, t.Critical, t.Exceeded)
	}
	return nil
}

// Ratio returns spent/limit rounded half-up to four fractional digits.
// The limit must be positive.
func Ratio(spent, limit core.Money) decimal.Decimal {
	return spent.Decimal().DivRound(limit.Decimal(), 4)
}

// Classify maps spend against limit onto a severity. A threshold is reached
// when spent >= threshold * limit, compared exactly, so a ratio such as
// 0.79998 stays below 0.80 even though it displays as 80.0%.
func Classify(spent, limit core.Money, t Thresholds) core.Severity {
	if limit.Cents <= 0 {
		return core.SeverityNone
	}
	s := spent.Decimal()
	l := limit.Decimal()
	switch {
	case s.GreaterThanOrEqual(l.Mul(t.Exceeded)):
		return core.SeverityExceeded
	case s.GreaterThanOrEqual(l.Mul(t.Critical)):
		return core.SeverityCritical
	case s.GreaterThanOrEqual(l.Mul(t.Warning)):
		return core.SeverityWarning
	default:
		return core.SeverityNone
	}
}

// NewAlert builds the event for a classified snapshot. It returns false when
// the snapshot carries no severity.
func NewAlert(s core.CategorySpendSnapshot, now time.Time) (core.AlertEvent, bool) {
	if s.Severity == core.SeverityNone {
		return core.AlertEvent{}, false
	}

	event := core.AlertEvent{
		Category:    s.Category,
		Severity:    s.Severity,
		Title:       s.Severity.Title(),
		Ratio:       s.Ratio,
		Spent:       s.Spent,
		Limit:       s.Limit,
		GeneratedAt: now,
	}
	pct := s.Percent().StringFixed(1)

	switch s.Severity {
	case core.SeverityExceeded:
		event.Delta = s.Spent.Sub(s.Limit)
		event.Message = fmt.Sprintf(
			"BUDGET EXCEEDED: Category '%s' has exceeded its monthly budget by %s (%s%% of limit). Spent: %s, Budget: %s",
			s.Category.Name, event.Delta, pct, s.Spent, s.Limit)
	case core.SeverityCritical:
		event.Delta = s.Limit.Sub(s.Spent)
		event.Message = fmt.Sprintf(
			"CRITICAL BUDGET WARNING: Category '%s' is at %s%% of monthly budget. Only %s remaining (Spent: %s, Budget: %s)",
			s.Category.Name, pct, event.Delta, s.Spent, s.Limit)
	default:
		event.Delta = s.Limit.Sub(s.Spent)
		event.Message = fmt.Sprintf(
			"Budget Warning: Category '%s' is at %s%% of monthly budget. %s remaining (Spent: %s, Budget: %s)",
			s.Category.Name, pct, event.Delta, s.Spent, s.Limit)
	}
	return event, true
}
