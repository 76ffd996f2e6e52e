package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/linkkeeper/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type mockSubscriber struct {
	msgChan      chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		msgChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	return m.msgChan, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.msgChan)
	}

	return nil
}

func newEventMessage(t *testing.T, event *testEvent) *message.Message {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

func waitAck(t *testing.T, msg *message.Message) {
	t.Helper()

	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		t.Fatal("message was nacked")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for ack")
	}
}

func waitNack(t *testing.T, msg *message.Message) {
	t.Helper()

	select {
	case <-msg.Nacked():
	case <-msg.Acked():
		t.Fatal("message should have been nacked")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for nack")
	}
}

func TestConsumer_Start(t *testing.T) {
	t.Run("starts successfully", func(t *testing.T) {
		consumer := messaging.NewConsumer(
			newMockSubscriber(),
			"mail.delivery",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		assert.Equal(t, "mail.delivery", consumer.Topic())

		require.NoError(t, consumer.Shutdown())
	})

	t.Run("returns error when subscribe fails", func(t *testing.T) {
		consumer := messaging.NewConsumer(
			&mockSubscriber{subscribeErr: errors.New("subscribe error")},
			"mail.delivery",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		assert.Error(t, consumer.Start(context.Background()))
		assert.NoError(t, consumer.Shutdown())
	})

	t.Run("shutdown before start is a no-op", func(t *testing.T) {
		consumer := messaging.NewConsumer(
			newMockSubscriber(),
			"mail.delivery",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		assert.NoError(t, consumer.Shutdown())
	})
}

func TestConsumer_HandleMessage(t *testing.T) {
	t.Run("acks on successful handling", func(t *testing.T) {
		sub := newMockSubscriber()
		received := make(chan *testEvent, 1)

		consumer := messaging.NewConsumer(
			sub,
			"mail.delivery",
			func(_ context.Context, event *testEvent) error {
				received <- event

				return nil
			},
			zap.NewNop(),
		)
		require.NoError(t, consumer.Start(context.Background()))

		msg := newEventMessage(t, &testEvent{ID: "123", Name: "welcome"})
		sub.msgChan <- msg

		waitAck(t, msg)

		event := <-received
		assert.Equal(t, "123", event.ID)
		assert.Equal(t, "welcome", event.Name)

		require.NoError(t, consumer.Shutdown())
	})

	t.Run("nacks on decode error", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(
			sub,
			"mail.delivery",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)
		require.NoError(t, consumer.Start(context.Background()))

		msg := message.NewMessage(uuid.NewString(), []byte("invalid json"))
		sub.msgChan <- msg

		waitNack(t, msg)
		require.NoError(t, consumer.Shutdown())
	})

	t.Run("nacks on handler error", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(
			sub,
			"mail.delivery",
			func(_ context.Context, _ *testEvent) error { return errors.New("smtp down") },
			zap.NewNop(),
		)
		require.NoError(t, consumer.Start(context.Background()))

		msg := newEventMessage(t, &testEvent{ID: "123"})
		sub.msgChan <- msg

		waitNack(t, msg)
		require.NoError(t, consumer.Shutdown())
	})

	t.Run("retries the handler before giving up", func(t *testing.T) {
		sub := newMockSubscriber()

		var calls atomic.Int32

		consumer := messaging.NewConsumer(
			sub,
			"mail.delivery",
			func(_ context.Context, _ *testEvent) error {
				if calls.Add(1) < 3 {
					return errors.New("throttled")
				}

				return nil
			},
			zap.NewNop(),
			messaging.WithAttempts(3, time.Millisecond),
		)
		require.NoError(t, consumer.Start(context.Background()))

		msg := newEventMessage(t, &testEvent{ID: "123"})
		sub.msgChan <- msg

		waitAck(t, msg)
		assert.Equal(t, int32(3), calls.Load())
		require.NoError(t, consumer.Shutdown())
	})

	t.Run("nacks once attempts are spent", func(t *testing.T) {
		sub := newMockSubscriber()

		var calls atomic.Int32

		consumer := messaging.NewConsumer(
			sub,
			"mail.delivery",
			func(_ context.Context, _ *testEvent) error {
				calls.Add(1)

				return errors.New("throttled")
			},
			zap.NewNop(),
			messaging.WithAttempts(2, time.Millisecond),
		)
		require.NoError(t, consumer.Start(context.Background()))

		msg := newEventMessage(t, &testEvent{ID: "123"})
		sub.msgChan <- msg

		waitNack(t, msg)
		assert.Equal(t, int32(2), calls.Load())
		require.NoError(t, consumer.Shutdown())
	})
}

func TestConsumer_Shutdown(t *testing.T) {
	t.Run("stops when the subscription closes", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(
			sub,
			"mail.delivery",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)
		require.NoError(t, consumer.Start(context.Background()))

		require.NoError(t, sub.Close())
		require.NoError(t, consumer.Shutdown())
	})
}
