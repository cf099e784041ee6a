package http

import (
	"strconv"
	"time"

	"budgetwatch/internal/core"
	"budgetwatch/internal/monitor"
)

type categoryJSON struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	MonthlyLimit *string   `json:"monthly_limit"`
	CreatedAt    time.Time `json:"created_at"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	out := categoryJSON{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
	if c.MonthlyLimit != nil {
		s := c.MonthlyLimit.String()
		out.MonthlyLimit = &s
	}
	return out
}

type expenseJSON struct {
	ID            int64     `json:"id"`
	CategoryID    int64     `json:"category_id"`
	Date          string    `json:"date"`
	Amount        string    `json:"amount"`
	AmountCents   int64     `json:"amount_cents"`
	PaymentMethod string    `json:"payment_method"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:            e.ID,
		CategoryID:    e.CategoryID,
		Date:          e.Date.String(),
		Amount:        e.Amount.String(),
		AmountCents:   e.Amount.Cents,
		PaymentMethod: string(e.PaymentMethod),
		Description:   e.Description,
		CreatedAt:     e.CreatedAt,
	}
}

func toExpenseList(es []core.Expense) []expenseJSON {
	out := make([]expenseJSON, 0, len(es))
	for _, e := range es {
		out = append(out, toExpenseJSON(e))
	}
	return out
}

type snapshotJSON struct {
	CategoryID int64  `json:"category_id"`
	Category   string `json:"category"`
	Spent      string `json:"spent"`
	Limit      string `json:"limit"`
	Percent    string `json:"percent"`
	Severity   string `json:"severity"`
}

type alertJSON struct {
	CategoryID int64  `json:"category_id"`
	Severity   string `json:"severity"`
	Title      string `json:"title"`
	Message    string `json:"message"`
}

type statusJSON struct {
	WindowStart string            `json:"window_start"`
	WindowEnd   string            `json:"window_end"`
	GeneratedAt time.Time         `json:"generated_at"`
	Monitoring  bool              `json:"monitoring"`
	Categories  []snapshotJSON    `json:"categories"`
	Alerts      []alertJSON       `json:"alerts"`
	Failures    map[string]string `json:"failures,omitempty"`
}

func toStatusJSON(r monitor.Report, monitoring bool) statusJSON {
	out := statusJSON{
		WindowStart: r.Window.Start.String(),
		WindowEnd:   r.Window.End.String(),
		GeneratedAt: r.GeneratedAt,
		Monitoring:  monitoring,
		Categories:  make([]snapshotJSON, 0, len(r.Snapshots)),
		Alerts:      make([]alertJSON, 0, len(r.Alerts)),
	}
	for _, s := range r.Snapshots {
		out.Categories = append(out.Categories, snapshotJSON{
			CategoryID: s.Category.ID,
			Category:   s.Category.Name,
			Spent:      s.Spent.String(),
			Limit:      s.Limit.String(),
			Percent:    s.Percent().StringFixed(1),
			Severity:   s.Severity.String(),
		})
	}
	for _, a := range r.Alerts {
		out.Alerts = append(out.Alerts, alertJSON{
			CategoryID: a.Category.ID,
			Severity:   a.Severity.String(),
			Title:      a.Title,
			Message:    a.Message,
		})
	}
	if len(r.Failures) > 0 {
		out.Failures = make(map[string]string, len(r.Failures))
		for id, err := range r.Failures {
			out.Failures[strconv.FormatInt(id, 10)] = err.Error()
		}
	}
	return out
}
