package notify

import (
	"context"

	"budgetwatch/internal/amqp"
	"budgetwatch/internal/core"
)

// AlertPublisher is satisfied by *amqp.Client.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, msg *amqp.AlertMessage) error
}

// AMQPNotifier publishes alerts as JSON messages to a broker.
type AMQPNotifier struct {
	publisher AlertPublisher
}

func NewAMQPNotifier(publisher AlertPublisher) *AMQPNotifier {
	return &AMQPNotifier{publisher: publisher}
}

func (n *AMQPNotifier) Notify(ctx context.Context, e core.AlertEvent) error {
	if err := n.publisher.PublishAlert(ctx, amqp.NewAlertMessage(e)); err != nil {
		return &NotificationError{Backend: BackendAMQP, Cause: err}
	}
	return nil
}
