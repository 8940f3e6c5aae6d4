package port

import (
	"context"

	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
)

// EventConsumer is an interface to define an event consumer (kafka, nats, ...)
type EventConsumer interface {
	Subscribe(ctx context.Context, handler MessageService) error
	Close() error
}

// MessageService is an interface to define message handling
type MessageService interface {
	HandleMessage(ctx context.Context, data []byte) error
}

// TaskQueue schedules completion tasks
type TaskQueue interface {
	EnqueueCompletion(ctx context.Context, task domain.CompletionTask) error
}

// NotificationPublisher publishes activity notifications
type NotificationPublisher interface {
	PublishActivity(ctx context.Context, activity domain.Activity) error
}
