package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/pulibrary/pdc-describe-sub000/internal/config"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/port"
)

// Consumer is a struct to interact with nats
type Consumer struct {
	logger  *slog.Logger
	conn    *nats.Conn
	js      jetstream.JetStream
	config  config.NATSConfig
	iter    jetstream.MessagesContext
	ackWait time.Duration
	wg      sync.WaitGroup
}

func connect(cfg config.NATSConfig, name string, logger *slog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to connect to JetStream: %w", err)
	}
	return conn, js, nil
}

// EnsureStream creates or updates the stream carrying completion tasks and activity notifications
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg config.NATSConfig) error {
	subjects := []string{cfg.Subject}
	if cfg.ActivitySubject != "" && cfg.ActivitySubject != cfg.Subject {
		subjects = append(subjects, cfg.ActivitySubject)
	}
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   subjects,
		Storage:    jetstream.FileStorage,
		Duplicates: 10 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", cfg.StreamName, err)
	}
	return nil
}

// NewNATSConsumer creates a new consumer
func NewNATSConsumer(cfg config.NATSConfig, logger *slog.Logger) (*Consumer, error) {
	conn, js, err := connect(cfg, cfg.ConsumerName, logger)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		conn:   conn,
		js:     js,
		config: cfg,
		logger: logger,
	}, nil
}

// Subscribe subscribes to stream and handles messages.
// Handler failures are NAKed with a growing delay, invalid tasks are terminated.
func (n *Consumer) Subscribe(ctx context.Context, handler port.MessageService) error {
	if n.config.CreateStreamIfNil {
		if err := EnsureStream(ctx, n.js, n.config); err != nil {
			return err
		}
	}

	maxDeliver := n.config.MaxDeliver
	if maxDeliver == 0 {
		maxDeliver = 5
	}
	n.ackWait = time.Duration(n.config.AckWaitSeconds) * time.Second
	if n.ackWait == 0 {
		n.ackWait = 30 * time.Second
	}

	cons, err := n.js.CreateOrUpdateConsumer(ctx, n.config.StreamName, jetstream.ConsumerConfig{
		Durable:       n.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: n.config.Subject,
		AckWait:       n.ackWait,
		MaxDeliver:    maxDeliver,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", n.config.ConsumerName, err)
	}

	iter, err := cons.Messages()
	if err != nil {
		return err
	}
	n.iter = iter

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.logger.Info("NATS subscription started", "subject", n.config.Subject, "consumer", n.config.ConsumerName)
		for {
			msg, err := iter.Next()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, jetstream.ErrMsgIteratorClosed) {
					n.logger.Info("NATS subscription stopped")
					return
				}
				n.logger.Error("failed to receive message", "error", err)
				return
			}
			n.handle(ctx, handler, msg)
			if ctx.Err() != nil {
				n.logger.Info("NATS subscription stopped")
				return
			}
		}
	}()
	return nil
}

// handle runs the handler while keeping the message in progress, then settles it
func (n *Consumer) handle(ctx context.Context, handler port.MessageService, msg jetstream.Msg) {
	stop := n.heartbeat(msg)
	handleErr := handler.HandleMessage(ctx, msg.Data())
	stop()

	switch {
	case handleErr == nil:
		if err := msg.Ack(); err != nil {
			n.logger.Error("failed to ack message", "error", err)
		}
	case errors.Is(handleErr, domain.ErrInvalidTask):
		n.logger.Error("dropping invalid message", "error", handleErr)
		if err := msg.Term(); err != nil {
			n.logger.Error("failed to terminate message", "error", err)
		}
	default:
		delay := redeliveryDelay(msg)
		n.logger.Warn("failed to handle message", "error", handleErr, "redelivery_in", delay)
		if err := msg.NakWithDelay(delay); err != nil {
			n.logger.Error("failed to nak message", "error", err)
		}
	}
}

// heartbeat extends the ack deadline while a long copy or checksum runs
func (n *Consumer) heartbeat(msg jetstream.Msg) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(n.ackWait / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := msg.InProgress(); err != nil {
					n.logger.Warn("failed to extend message deadline", "error", err)
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func redeliveryDelay(msg jetstream.Msg) time.Duration {
	attempt := 0.0
	if meta, err := msg.Metadata(); err == nil && meta.NumDelivered > 0 {
		attempt = float64(meta.NumDelivered - 1)
	}
	b := &backoff.Backoff{Min: 100 * time.Millisecond, Max: 30 * time.Second, Factor: 2}
	return b.ForAttempt(attempt)
}

// Close graceful shutdown
func (n *Consumer) Close() error {
	if n.iter != nil {
		n.iter.Stop()
	}

	n.wg.Wait()

	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
