package mail

import (
	"context"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/samber/oops"
	"github.com/serroba/linkkeeper/internal/apperr"
	"github.com/serroba/linkkeeper/internal/messaging"
	"go.uber.org/zap"
)

// TokenGenerator returns a fresh random token.
type TokenGenerator func() string

// NewTokenGenerator returns a URL-safe nanoid generator of TokenLength.
func NewTokenGenerator() (TokenGenerator, error) {
	generate, err := nanoid.Standard(TokenLength)
	if err != nil {
		return nil, oops.Wrapf(err, "creating token generator")
	}

	return generate, nil
}

// QueueDispatcher generates link tokens and enqueues the message for
// delivery. It returns once the message is queued, not sent.
type QueueDispatcher struct {
	generate TokenGenerator
	publish  messaging.Publish[DeliveryRequestedEvent]
	logger   *zap.Logger
	now      func() time.Time
}

// NewQueueDispatcher creates a dispatcher publishing on publish.
func NewQueueDispatcher(
	generate TokenGenerator,
	publish messaging.Publish[DeliveryRequestedEvent],
	logger *zap.Logger,
) *QueueDispatcher {
	return &QueueDispatcher{
		generate: generate,
		publish:  publish,
		logger:   logger,
		now:      time.Now,
	}
}

func (d *QueueDispatcher) SendAndGenerate(ctx context.Context, req Request) (string, error) {
	if req.Recipient == "" {
		return "", apperr.New(apperr.KindInput, "mail recipient is required")
	}

	token := JoinToken(d.generate(), req.Extra)
	link := BuildLink(req.LinkBase, token)

	event := &DeliveryRequestedEvent{
		To:          req.Recipient,
		Subject:     req.Subject,
		Body:        req.Message + "\n\n" + link,
		Link:        link,
		RequestedAt: d.now().UTC(),
	}

	if err := d.publish(ctx, event); err != nil {
		return "", oops.With("recipient", req.Recipient).Wrapf(err, "queueing mail")
	}

	d.logger.Debug("mail queued",
		zap.String("recipient", req.Recipient),
		zap.String("subject", req.Subject),
	)

	return token, nil
}
