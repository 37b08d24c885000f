package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/booking-core/internal/booking/domain"
	"github.com/cuongbtq/booking-core/internal/notify"
)

// processEvent delivers one event and classifies the failure for the ack decision.
// A transient failure is retried once through a requeue.
func (w *Worker) processEvent(ctx context.Context, msg *message) error {
	eventCtx, cancel := context.WithTimeout(ctx, w.eventTimeout)
	defer cancel()

	err := w.handler.Dispatch(eventCtx, msg.event)
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrUndeliverable, err)
	}

	if notify.IsTemporary(err) || errors.Is(err, context.DeadlineExceeded) {
		if msg.delivery.Redelivered {
			w.logger.Warn("Redelivered event failed again",
				slog.String("event_id", msg.event.ID),
			)
			return fmt.Errorf("%w: %v", ErrRetriesExhausted, err)
		}
		return NewRetryableError(err)
	}
	return err
}
