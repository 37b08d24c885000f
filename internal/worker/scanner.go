package worker

import (
	"context"
	"log/slog"
	"time"
)

// runExpiryScanner periodically times out pending bookings whose deadline has passed
func (w *Worker) runExpiryScanner(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.expiryInterval)
	defer ticker.Stop()

	w.logger.Info("Expiry scanner started",
		slog.Duration("interval", w.expiryInterval),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Expiry scanner stopped")
			return

		case <-ctx.Done():
			w.logger.Info("Expiry scanner stopped - context canceled")
			return

		case <-ticker.C:
			n, err := w.expirer.ExpireDue(ctx)
			if err != nil {
				w.logger.Error("Failed to expire bookings",
					slog.String("error", err.Error()),
				)
				continue
			}
			if n > 0 {
				w.logger.Info("Expired pending bookings",
					slog.Int("count", n),
				)
			}
		}
	}
}
