// Package notify delivers budget alerts to one or more backends.
package notify

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"budgetwatch/internal/core"
)

// Backend names accepted in ALERT_NOTIFIERS.
const (
	BackendLog    = "log"
	BackendAMQP   = "amqp"
	BackendSheets = "sheets"
)

// NotificationError reports a delivery failure from a single backend.
type NotificationError struct {
	Backend string
	Cause   error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify via %s: %v", e.Backend, e.Cause)
}

func (e *NotificationError) Unwrap() error {
	return e.Cause
}

// Notifier is implemented by every backend in this package.
type Notifier interface {
	Notify(ctx context.Context, event core.AlertEvent) error
}

// Multi fans an alert out to several notifiers concurrently. Every backend is
// attempted; failures are joined.
type Multi struct {
	notifiers []Notifier
}

func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) Notify(ctx context.Context, event core.AlertEvent) error {
	errs := make([]error, len(m.notifiers))

	var g errgroup.Group
	for i, n := range m.notifiers {
		g.Go(func() error {
			errs[i] = n.Notify(ctx, event)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// Len returns the number of backends.
func (m *Multi) Len() int {
	return len(m.notifiers)
}
