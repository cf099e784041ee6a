package monitor

import (
	"context"
	"time"

	"budgetwatch/internal/core"
	"budgetwatch/internal/scheduler"
)

// CategoryRepository lists categories that carry a positive monthly limit.
type CategoryRepository interface {
	ListBudgeted(ctx context.Context) ([]core.Category, error)
}

// ExpenseRepository sums expense amounts for one category within an
// inclusive date window.
type ExpenseRepository interface {
	SumByCategoryAndWindow(ctx context.Context, categoryID int64, start, end core.Date) (core.Money, error)
}

// Notifier receives every alert raised by a pass. Delivery is fire and forget.
type Notifier interface {
	Notify(ctx context.Context, event core.AlertEvent) error
}

// Clock supplies the wall-clock time used to pick the current month.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Scheduler is the part of *scheduler.Scheduler the monitor relies on.
type Scheduler interface {
	SubmitNow(task scheduler.Task, opts ...scheduler.TaskOption) (*scheduler.Handle, error)
	ScheduleAtFixedRate(task scheduler.Task, initialDelay, period time.Duration, opts ...scheduler.TaskOption) (*scheduler.Handle, error)
}
