package scheduler

import "budgetwatch/internal/log"

// Option configures a Scheduler at construction.
type Option func(s *Scheduler)

// WithLogger sets the logger used for lifecycle events and task failures.
func WithLogger(logger *log.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger.WithComponent(log.ComponentScheduler)
		}
	}
}

// TaskOption configures a Handle before its work is scheduled.
type TaskOption func(h *Handle)

// WithName sets a human readable name for a task, used in logs and errors.
func WithName(name string) TaskOption {
	return func(h *Handle) {
		if name != "" {
			h.name = name
		}
	}
}
