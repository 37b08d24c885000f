package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/internal/events"
	"github.com/cuongbtq/booking-core/internal/notify"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settlement struct {
	tag     uint64
	ack     bool
	requeue bool
}

type ackRecorder struct {
	mu   sync.Mutex
	done []settlement
}

func (a *ackRecorder) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.done = append(a.done, settlement{tag: tag, ack: true})
	return nil
}

func (a *ackRecorder) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.done = append(a.done, settlement{tag: tag, requeue: requeue})
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *ackRecorder) settled() []settlement {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]settlement(nil), a.done...)
}

type fakeSource struct {
	deliveries chan amqp.Delivery
	prefetch   int
}

func (s *fakeSource) Qos(prefetchCount int) error {
	s.prefetch = prefetchCount
	return nil
}

func (s *fakeSource) Consume(string) (<-chan amqp.Delivery, error) {
	return s.deliveries, nil
}

type handlerFunc func(ctx context.Context, e domain.Event) error

func (f handlerFunc) Dispatch(ctx context.Context, e domain.Event) error { return f(ctx, e) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validBody(t *testing.T) []byte {
	t.Helper()
	body, err := events.Encode(domain.Event{
		ID:          uuid.NewString(),
		Kind:        domain.EventJobAccepted,
		JobID:       1,
		RecipientID: 2,
	})
	require.NoError(t, err)
	return body
}

func TestWorker_SettlesDeliveries(t *testing.T) {
	temporary := &notify.Error{Channel: "email", Temporary: true, Err: errors.New("timeout")}

	tests := []struct {
		name        string
		body        []byte
		redelivered bool
		err         error
		want        settlement
	}{
		{name: "delivered", want: settlement{tag: 1, ack: true}},
		{name: "malformed body", body: []byte(`{"kind":`), want: settlement{tag: 1}},
		{name: "temporary failure", err: temporary, want: settlement{tag: 1, requeue: true}},
		{name: "temporary failure after redelivery", err: temporary, redelivered: true, want: settlement{tag: 1}},
		{name: "job gone", err: domain.NotFound(domain.CodeJobNotFound, "1"), want: settlement{tag: 1}},
		{name: "permanent failure", err: errors.New("no email template"), want: settlement{tag: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if body == nil {
				body = validBody(t)
			}

			var calls atomic.Int32
			acks := &ackRecorder{}
			source := &fakeSource{deliveries: make(chan amqp.Delivery, 1)}
			w := NewWorker(&Config{
				Logger:      discardLogger(),
				Source:      source,
				WorkerID:    "test",
				Concurrency: 2,
				Handler: handlerFunc(func(context.Context, domain.Event) error {
					calls.Add(1)
					return tt.err
				}),
			})

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- w.Start(ctx) }()

			source.deliveries <- amqp.Delivery{
				Acknowledger: acks,
				DeliveryTag:  1,
				Redelivered:  tt.redelivered,
				Body:         body,
			}

			require.Eventually(t, func() bool { return len(acks.settled()) == 1 }, time.Second, 5*time.Millisecond)
			cancel()
			require.NoError(t, <-done)
			w.Stop()

			assert.Equal(t, tt.want, acks.settled()[0])
			assert.Equal(t, 2, source.prefetch)
			if tt.body != nil {
				assert.Zero(t, calls.Load(), "malformed messages never reach the handler")
			}
		})
	}
}

func TestShouldRequeue(t *testing.T) {
	assert.True(t, shouldRequeue(NewRetryableError(errors.New("x"))))
	assert.False(t, shouldRequeue(errors.New("x")))
	assert.False(t, shouldRequeue(ErrUndeliverable))
	assert.False(t, shouldRequeue(NewRetryableError(ErrRetriesExhausted)))
}

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (e *countingExpirer) ExpireDue(context.Context) (int, error) {
	e.calls.Add(1)
	return 1, e.err
}

func TestWorker_ExpiryScanner(t *testing.T) {
	for _, failing := range []bool{false, true} {
		expirer := &countingExpirer{}
		if failing {
			expirer.err = errors.New("database unavailable")
		}
		w := NewWorker(&Config{
			Logger:         discardLogger(),
			Source:         &fakeSource{deliveries: make(chan amqp.Delivery)},
			Handler:        handlerFunc(func(context.Context, domain.Event) error { return nil }),
			Expirer:        expirer,
			ExpiryInterval: 5 * time.Millisecond,
		})

		done := make(chan error, 1)
		go func() { done <- w.Start(context.Background()) }()

		require.Eventually(t, func() bool { return expirer.calls.Load() >= 2 }, time.Second, 5*time.Millisecond,
			"scanner keeps running after errors: %v", failing)
		w.Stop()
		require.NoError(t, <-done)
	}
}
