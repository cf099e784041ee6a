package log

import "time"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldTaskID      = "task_id"
	FieldTaskName    = "task_name"
	FieldTaskKind    = "task_kind"
	FieldPanic       = "panic"
	FieldStack       = "stack"
	FieldCategoryID  = "category_id"
	FieldCategory    = "category"
	FieldSeverity    = "severity"
	FieldSpent       = "spent"
	FieldLimit       = "limit"
	FieldPercent     = "percent"
	FieldWindowStart = "window_start"
	FieldWindowEnd   = "window_end"
	FieldBackend     = "backend"
	FieldAmountCents = "amount_cents"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentScheduler = "scheduler"
	ComponentMonitor   = "budget_monitor"
	ComponentNotifier  = "notifier"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentSheets    = "sheets"
	ComponentExpense   = "expense"
	ComponentCategory  = "category"
)

// Operations defines standard operation names
const (
	OpCreate       = "create"
	OpUpdate       = "update"
	OpDelete       = "delete"
	OpList         = "list"
	OpSubmit       = "submit"
	OpScheduleOnce = "schedule_once"
	OpScheduleRate = "schedule_at_fixed_rate"
	OpEvaluate     = "evaluate"
	OpNotify       = "notify"
	OpShutdown     = "shutdown"
	OpStartup      = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTask adds the identity of a scheduled task
func (f LogFields) WithTask(id, name, kind string) LogFields {
	f[FieldTaskID] = id
	f[FieldTaskName] = name
	f[FieldTaskKind] = kind
	return f
}

// WithCategory adds category identity fields
func (f LogFields) WithCategory(id int64, name string) LogFields {
	f[FieldCategoryID] = id
	f[FieldCategory] = name
	return f
}

// WithSpend adds budget figures, already formatted for display
func (f LogFields) WithSpend(spent, limit, percent string) LogFields {
	f[FieldSpent] = spent
	f[FieldLimit] = limit
	f[FieldPercent] = percent
	return f
}

// WithHTTP adds HTTP request and response fields
func (f LogFields) WithHTTP(method, path string, statusCode int, elapsed time.Duration) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = elapsed.Milliseconds()
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
