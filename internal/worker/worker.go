// Package worker consumes booking events from RabbitMQ, delivers notifications and
// expires pending bookings.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler delivers one decoded event. *notify.Dispatcher satisfies it.
type Handler interface {
	Dispatch(ctx context.Context, e domain.Event) error
}

// Source hands out deliveries from the event queue. *rabbitmq.Client satisfies it.
type Source interface {
	Qos(prefetchCount int) error
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// Expirer times out pending bookings whose deadline has passed.
type Expirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

// Config holds worker configuration
type Config struct {
	Logger         *slog.Logger
	Source         Source
	Handler        Handler
	Expirer        Expirer
	WorkerID       string
	Concurrency    int
	PrefetchCount  int
	EventTimeout   time.Duration
	ExpiryInterval time.Duration
}

// message is an event paired with the delivery it arrived on
type message struct {
	event    domain.Event
	delivery amqp.Delivery
}

// Worker represents the background event worker
type Worker struct {
	logger         *slog.Logger
	source         Source
	handler        Handler
	expirer        Expirer
	workerID       string
	concurrency    int
	prefetchCount  int
	eventTimeout   time.Duration
	expiryInterval time.Duration
	jobsChan       chan *message
	wg             sync.WaitGroup
	stopChan       chan struct{}
	stopOnce       sync.Once
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	prefetch := cfg.PrefetchCount
	if prefetch <= 0 {
		prefetch = concurrency
	}
	timeout := cfg.EventTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		logger:         logger,
		source:         cfg.Source,
		handler:        cfg.Handler,
		expirer:        cfg.Expirer,
		workerID:       cfg.WorkerID,
		concurrency:    concurrency,
		prefetchCount:  prefetch,
		eventTimeout:   timeout,
		expiryInterval: cfg.ExpiryInterval,
		jobsChan:       make(chan *message, concurrency),
		stopChan:       make(chan struct{}),
	}
}

// Start consumes events until ctx is canceled or Stop is called
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("event_timeout", w.eventTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to setup consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)

	w.wg.Add(1)
	go w.startMessageDispatcher(ctx, deliveries)

	if w.expirer != nil && w.expiryInterval > 0 {
		w.wg.Add(1)
		go w.runExpiryScanner(ctx)
	}

	select {
	case <-ctx.Done():
		w.logger.Info("Worker context canceled, stopping...")
	case <-w.stopChan:
	}
	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
