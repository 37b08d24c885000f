package notify

import (
	"context"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds SMTP server settings
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// SMTPNotifier sends email through an SMTP server.
type SMTPNotifier struct {
	dialer *gomail.Dialer
	cfg    *SMTPConfig
	logger *slog.Logger
}

func NewSMTPNotifier(cfg *SMTPConfig, logger *slog.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		cfg:    cfg,
		logger: logger,
	}
}

func (n *SMTPNotifier) SendEmail(_ context.Context, e Email) error {
	if err := n.dialer.DialAndSend(n.message(e)); err != nil {
		return &Error{Channel: "email", Temporary: true, Err: err}
	}
	n.logger.Debug("Email delivered",
		slog.String("to", e.To),
		slog.String("template", e.Template),
	)
	return nil
}

func (n *SMTPNotifier) message(e Email) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", n.cfg.From, n.cfg.FromName)
	m.SetAddressHeader("To", e.To, e.Name)
	m.SetHeader("Subject", e.Subject)
	m.SetBody("text/html", e.Body)
	return m
}
