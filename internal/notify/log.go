package notify

import (
	"context"
	"log/slog"

	"budgetwatch/internal/core"
	"budgetwatch/internal/log"
)

// LogNotifier writes alerts to the structured log: warnings at info,
// critical at warn and exceeded at error.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default(log.ComponentNotifier)
	}
	return &LogNotifier{logger: logger.WithComponent(log.ComponentNotifier)}
}

func (n *LogNotifier) Notify(ctx context.Context, e core.AlertEvent) error {
	fields := log.NewFields().
		WithCategory(e.Category.ID, e.Category.Name).
		WithSpend(e.Spent.String(), e.Limit.String(), e.Percent().StringFixed(1))
	fields[log.FieldSeverity] = e.Severity.String()
	fields["title"] = e.Title

	n.logger.LogContext(ctx, levelFor(e.Severity), e.Message, fields.ToSlice()...)
	return nil
}

func levelFor(s core.Severity) slog.Level {
	switch s {
	case core.SeverityExceeded:
		return slog.LevelError
	case core.SeverityCritical:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
