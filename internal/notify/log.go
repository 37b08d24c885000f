package notify

import (
	"context"
	"log/slog"
)

// LogNotifier logs deliveries instead of sending them. It stands in for disabled transports.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendEmail(_ context.Context, e Email) error {
	n.logger.Info("Email suppressed",
		slog.String("to", e.To),
		slog.String("subject", e.Subject),
		slog.String("template", e.Template),
	)
	return nil
}

func (n *LogNotifier) SendPush(_ context.Context, p Push) error {
	n.logger.Info("Push suppressed",
		slog.Int64("job_id", p.JobID),
		slog.Any("user_ids", p.UserIDs),
		slog.String("message", p.Message),
		slog.Bool("delayed", p.DelayUntilBusinessHours),
	)
	return nil
}

func (n *LogNotifier) SendSMS(_ context.Context, s SMS) error {
	n.logger.Info("SMS suppressed",
		slog.String("to", s.To),
		slog.String("message", s.Message),
	)
	return nil
}
