package mail

import (
	"context"
	"time"

	"github.com/serroba/linkkeeper/internal/messaging"
	"go.uber.org/zap"
)

// NewDeliveryHandler returns the queue handler that hands each requested
// message to sender.
func NewDeliveryHandler(sender Sender, logger *zap.Logger) messaging.Handler[DeliveryRequestedEvent] {
	return func(ctx context.Context, event *DeliveryRequestedEvent) error {
		if err := sender.Send(ctx, event.To, event.Subject, event.Body); err != nil {
			return err
		}

		logger.Info("mail sent",
			zap.String("to", event.To),
			zap.String("subject", event.Subject),
			zap.Duration("queue_latency", time.Since(event.RequestedAt)),
		)

		return nil
	}
}
