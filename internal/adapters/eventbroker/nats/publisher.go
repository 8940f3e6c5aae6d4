package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/pulibrary/pdc-describe-sub000/internal/config"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

// Publisher enqueues completion tasks and activity notifications on JetStream
type Publisher struct {
	logger *slog.Logger
	conn   *nats.Conn
	js     jetstream.JetStream
	config config.NATSConfig
}

// NewNATSPublisher creates a new publisher, creating the stream when configured to
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (*Publisher, error) {
	conn, js, err := connect(cfg, cfg.ConsumerName+"-publisher", logger)
	if err != nil {
		return nil, err
	}

	if cfg.CreateStreamIfNil {
		if err := EnsureStream(ctx, js, cfg); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return &Publisher{logger: logger, conn: conn, js: js, config: cfg}, nil
}

// EnqueueCompletion publishes a task. Redelivered publishes of the same record are deduplicated by the stream.
func (p *Publisher) EnqueueCompletion(ctx context.Context, task domain.CompletionTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode completion task: %w", err)
	}

	ack, err := p.js.Publish(ctx, p.config.Subject, data, jetstream.WithMsgID(task.DeduplicationID()))
	if err != nil {
		return fmt.Errorf("failed to publish completion task %s: %w", task.DeduplicationID(), err)
	}

	p.logger.Debug("completion task enqueued",
		"snapshot_id", task.SnapshotID,
		"filename", task.Filename,
		"sequence", ack.Sequence,
		"duplicate", ack.Duplicate)
	return nil
}

type activityMessage struct {
	ID         uuid.UUID              `json:"id"`
	WorkID     uuid.UUID              `json:"work_id"`
	SnapshotID uuid.UUID              `json:"snapshot_id"`
	Type       domain.ActivityType    `json:"type"`
	Payload    domain.ActivityPayload `json:"payload"`
	CreatedAt  time.Time              `json:"created_at"`
}

// PublishActivity publishes an activity notification
func (p *Publisher) PublishActivity(ctx context.Context, activity domain.Activity) error {
	data, err := json.Marshal(activityMessage{
		ID:         activity.ID,
		WorkID:     activity.WorkID,
		SnapshotID: activity.SnapshotID,
		Type:       activity.Type,
		Payload:    activity.Payload,
		CreatedAt:  activity.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode activity: %w", err)
	}

	if _, err := p.js.Publish(ctx, p.config.ActivitySubject, data, jetstream.WithMsgID(activity.ID.String())); err != nil {
		return fmt.Errorf("failed to publish activity %s: %w", activity.ID, err)
	}
	return nil
}

// Close drains the connection
func (p *Publisher) Close() error {
	if p.conn != nil {
		return p.conn.Drain()
	}
	return nil
}
