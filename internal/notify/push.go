package notify

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const defaultPushURL = "https://onesignal.com/api/v1/notifications"

// PushConfig holds push provider settings
type PushConfig struct {
	URL     string
	AppID   string
	APIKey  string
	Timeout time.Duration
}

// PushNotifier sends push notifications through a OneSignal-compatible HTTP API.
type PushNotifier struct {
	client *http.Client
	cfg    PushConfig
	logger *slog.Logger
}

func NewPushNotifier(cfg PushConfig, logger *slog.Logger) *PushNotifier {
	if cfg.URL == "" {
		cfg.URL = defaultPushURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &PushNotifier{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

type pushPayload struct {
	AppID           string            `json:"app_id"`
	ExternalUserIDs []string          `json:"include_external_user_ids"`
	Data            map[string]string `json:"data,omitempty"`
	Headings        map[string]string `json:"headings"`
	Contents        map[string]string `json:"contents"`
	AndroidSound    string            `json:"android_sound,omitempty"`
	IOSSound        string            `json:"ios_sound,omitempty"`
	SendAfter       string            `json:"send_after,omitempty"`
}

func (n *PushNotifier) SendPush(ctx context.Context, p Push) error {
	ids := make([]string, 0, len(p.UserIDs))
	for _, id := range p.UserIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	payload := pushPayload{
		AppID:           n.cfg.AppID,
		ExternalUserIDs: ids,
		Data:            p.Data,
		Headings:        map[string]string{"en": "Interpreter booking"},
		Contents:        map[string]string{"en": p.Message},
	}
	if p.Sound != "" {
		payload.AndroidSound = p.Sound
		payload.IOSSound = p.Sound + ".mp3"
	}
	if p.DelayUntilBusinessHours && !p.SendAfter.IsZero() {
		payload.SendAfter = p.SendAfter.UTC().Format(time.RFC1123Z)
	}

	headers := map[string]string{"Authorization": "Basic " + n.cfg.APIKey}
	if err := postJSON(ctx, n.client, "push", n.cfg.URL, headers, payload); err != nil {
		return err
	}

	n.logger.Debug("Push delivered",
		slog.Int64("job_id", p.JobID),
		slog.Int("recipients", len(ids)),
		slog.Bool("delayed", payload.SendAfter != ""),
	)
	return nil
}
