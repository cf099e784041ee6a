package notify

import (
	"context"

	"budgetwatch/internal/core"
	"budgetwatch/internal/sheets"
)

// SheetsNotifier appends every alert as a row of a spreadsheet.
type SheetsNotifier struct {
	writer sheets.AlertWriter
}

func NewSheetsNotifier(writer sheets.AlertWriter) *SheetsNotifier {
	return &SheetsNotifier{writer: writer}
}

func (n *SheetsNotifier) Notify(ctx context.Context, e core.AlertEvent) error {
	if _, err := n.writer.AppendAlert(ctx, e); err != nil {
		return &NotificationError{Backend: BackendSheets, Cause: err}
	}
	return nil
}
