package sheets

import (
	"context"

	"budgetwatch/internal/core"
)

// AlertWriter appends budget alerts to a spreadsheet log.
type AlertWriter interface {
	AppendAlert(ctx context.Context, e core.AlertEvent) (rowRef string, err error)
}
