package notify

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// SMSConfig holds SMS gateway settings
type SMSConfig struct {
	URL     string
	APIKey  string
	From    string
	Timeout time.Duration
}

// SMSNotifier sends text messages through an HTTP gateway.
type SMSNotifier struct {
	client *http.Client
	cfg    SMSConfig
	logger *slog.Logger
}

func NewSMSNotifier(cfg SMSConfig, logger *slog.Logger) *SMSNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMSNotifier{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

type smsPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

func (n *SMSNotifier) SendSMS(ctx context.Context, s SMS) error {
	headers := map[string]string{"Authorization": "Bearer " + n.cfg.APIKey}
	payload := smsPayload{From: n.cfg.From, To: s.To, Message: s.Message}
	if err := postJSON(ctx, n.client, "sms", n.cfg.URL, headers, payload); err != nil {
		return err
	}
	n.logger.Debug("SMS delivered", slog.String("to", s.To))
	return nil
}
