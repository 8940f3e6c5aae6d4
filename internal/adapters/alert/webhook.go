package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/pulibrary/pdc-describe-sub000/internal/config"
)

var alertsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "migration_alerts_total",
		Help: "Operator alerts sent through the webhook by result",
	},
	[]string{"result"},
)

type webhookPayload struct {
	Channel    string            `json:"channel"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// WebhookAlerter posts alerts to a chat webhook
type WebhookAlerter struct {
	client  *retryablehttp.Client
	url     string
	channel string
	logger  *slog.Logger
}

// NewWebhookAlerter creates a webhook alerter with retries
func NewWebhookAlerter(cfg config.AlertConfig, logger *slog.Logger) *WebhookAlerter {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 10 * time.Second
	client.Logger = logger

	return &WebhookAlerter{
		client:  client,
		url:     cfg.WebhookURL,
		channel: cfg.Channel,
		logger:  logger,
	}
}

func (a *WebhookAlerter) Alert(ctx context.Context, message string, attrs map[string]string) error {
	body, err := json.Marshal(webhookPayload{
		Channel:    a.channel,
		Text:       message,
		Attributes: attrs,
	})
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		alertsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("send alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		alertsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("send alert: unexpected status %d", resp.StatusCode)
	}

	alertsTotal.WithLabelValues("sent").Inc()
	return nil
}
