package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/daisydays/daisydays-backend/pkg/kafka"
	"github.com/daisydays/daisydays-backend/pkg/logger"
	"github.com/daisydays/daisydays-backend/pkg/metrics"
	"github.com/daisydays/daisydays-backend/pkg/outbox"
)

const consumerName = "email-notifications"

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// KafkaSource is the subset of kafka.Consumer the loop needs.
type KafkaSource interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msg kafka.Message) error
}

// Consumer de-duplicates deliveries by event id and hands them to the Service.
type Consumer struct {
	svc         Service
	idempotency idempotencyGuard
	metrics     *metrics.EventMetrics
	logg        *logger.Logger
}

// NewConsumer builds the notification consumer. Metrics may be nil.
func NewConsumer(svc Service, guard idempotencyGuard, m *metrics.EventMetrics, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{svc: svc, idempotency: guard, metrics: m, logg: logg}, nil
}

// RunPubSub receives from the subscription until the context is canceled.
func (c *Consumer) RunPubSub(ctx context.Context, subscription *pubsub.Subscriber) error {
	if subscription == nil {
		return fmt.Errorf("subscription required")
	}
	return subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.Process(ctx, msg.ID, msg.Data) == OutcomeRetry {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// RunKafka fetches records and commits each one that should not be retried.
// A retry leaves the offset uncommitted and re-reads after the next rebalance.
func (c *Consumer) RunKafka(ctx context.Context, source KafkaSource) error {
	if source == nil {
		return fmt.Errorf("kafka source required")
	}
	for {
		msg, err := source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("kafka fetch: %w", err)
		}
		id := fmt.Sprintf("%d/%d", msg.Partition, msg.Offset)
		if c.Process(ctx, id, msg.Value) == OutcomeRetry {
			continue
		}
		if err := source.Commit(ctx, msg); err != nil {
			c.logg.Error(c.logg.WithField(ctx, "message_id", id), "kafka commit failed", err)
		}
	}
}

// Outcome tells the transport loop what to do with a delivery.
type Outcome int

const (
	OutcomeAck Outcome = iota
	OutcomeRetry
)

// Process decodes one delivery and runs the handler at most once per event id.
func (c *Consumer) Process(ctx context.Context, messageID string, data []byte) Outcome {
	logCtx := c.logg.WithField(ctx, "message_id", messageID)

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		c.metrics.IncFailure("unknown")
		return OutcomeAck
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": envelope.EventType,
	})

	eventID, err := envelope.ParsedEventID()
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		c.metrics.IncFailure(envelope.EventType)
		return OutcomeAck
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		c.metrics.IncFailure(envelope.EventType)
		return OutcomeRetry
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		c.metrics.IncSuccess(envelope.EventType)
		return OutcomeAck
	}

	start := time.Now()
	err = c.svc.Handle(ctx, envelope)
	c.metrics.ObserveDuration(envelope.EventType, time.Since(start))
	if err != nil {
		if errors.Is(err, ErrPermanent) {
			c.logg.Error(logCtx, "dropping undeliverable notification", err)
			c.metrics.IncFailure(envelope.EventType)
			return OutcomeAck
		}
		c.logg.Error(logCtx, "notification handling failed", err)
		if delErr := c.idempotency.Delete(ctx, consumerName, eventID); delErr != nil {
			c.logg.Error(logCtx, "failed to release idempotency key", delErr)
		}
		c.metrics.IncFailure(envelope.EventType)
		return OutcomeRetry
	}

	c.logg.Info(logCtx, "notification sent")
	c.metrics.IncSuccess(envelope.EventType)
	return OutcomeAck
}
