// Package events carries booking events from the API to the notification worker over RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/google/uuid"
)

const contentType = "application/json"

// ErrInvalidEvent is returned by Decode for messages that can never be processed
var ErrInvalidEvent = errors.New("invalid event message")

// Sender publishes a raw message body. *rabbitmq.Client satisfies it.
type Sender interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// Publisher encodes domain events as JSON messages.
type Publisher struct {
	sender Sender
	logger *slog.Logger
}

func NewPublisher(sender Sender, logger *slog.Logger) *Publisher {
	return &Publisher{sender: sender, logger: logger}
}

// Publish sends every event, assigning an id where missing. It keeps going after a
// failure and returns the joined errors.
func (p *Publisher) Publish(ctx context.Context, events []domain.Event) error {
	var errs []error
	for _, e := range events {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}

		body, err := Encode(e)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if err := p.sender.PublishWithRetry(ctx, body, contentType); err != nil {
			errs = append(errs, fmt.Errorf("failed to publish event %s: %w", e.ID, err))
			continue
		}

		p.logger.Debug("Event published",
			slog.String("event_id", e.ID),
			slog.String("kind", string(e.Kind)),
			slog.Int64("job_id", e.JobID),
		)
	}
	return errors.Join(errs...)
}

// Encode marshals an event into its wire form.
func Encode(e domain.Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return body, nil
}

// Decode parses and validates a message body.
func Decode(body []byte) (domain.Event, error) {
	var e domain.Event
	if err := json.Unmarshal(body, &e); err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return domain.Event{}, fmt.Errorf("%w: event_id %q: %v", ErrInvalidEvent, e.ID, err)
	}
	if e.Kind == "" {
		return domain.Event{}, fmt.Errorf("%w: kind is required", ErrInvalidEvent)
	}
	if e.JobID <= 0 {
		return domain.Event{}, fmt.Errorf("%w: job_id is required", ErrInvalidEvent)
	}
	if !e.Kind.Fanout() && e.RecipientID <= 0 {
		return domain.Event{}, fmt.Errorf("%w: recipient_id is required for %s", ErrInvalidEvent, e.Kind)
	}
	return e, nil
}
