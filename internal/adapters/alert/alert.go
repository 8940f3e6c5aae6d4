package alert

import (
	"context"
	"log/slog"

	"github.com/pulibrary/pdc-describe-sub000/internal/config"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
)

// LogAlerter writes alerts to the structured log
type LogAlerter struct {
	channel string
	logger  *slog.Logger
}

// NewLogAlerter creates an alerter that only logs
func NewLogAlerter(channel string, logger *slog.Logger) *LogAlerter {
	return &LogAlerter{channel: channel, logger: logger}
}

func (a *LogAlerter) Alert(ctx context.Context, message string, attrs map[string]string) error {
	args := make([]any, 0, 2+2*len(attrs))
	args = append(args, "channel", a.channel)
	for k, v := range attrs {
		args = append(args, k, v)
	}
	a.logger.WarnContext(ctx, message, args...)
	return nil
}

// New returns the webhook alerter when a webhook is configured, the log alerter otherwise
func New(cfg config.AlertConfig, logger *slog.Logger) port.Alerter {
	if cfg.WebhookURL == "" {
		return NewLogAlerter(cfg.Channel, logger)
	}
	return NewWebhookAlerter(cfg, logger)
}
