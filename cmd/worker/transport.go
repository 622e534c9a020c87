package main

import (
	"context"

	"github.com/daisydays/daisydays-backend/internal/notifications"
	"github.com/daisydays/daisydays-backend/pkg/kafka"
	"github.com/daisydays/daisydays-backend/pkg/pubsub"
)

type pubSubTransport struct {
	client   *pubsub.Client
	consumer *notifications.Consumer
}

func (t *pubSubTransport) Name() string { return "pubsub" }

func (t *pubSubTransport) Ping(ctx context.Context) error { return t.client.PingSubscription(ctx) }

func (t *pubSubTransport) Run(ctx context.Context) error {
	return t.consumer.RunPubSub(ctx, t.client.NotificationsSubscription())
}

type kafkaTransport struct {
	source   *kafka.Consumer
	consumer *notifications.Consumer
}

func (t *kafkaTransport) Name() string { return "kafka" }

func (t *kafkaTransport) Ping(ctx context.Context) error { return t.source.Ping(ctx) }

func (t *kafkaTransport) Run(ctx context.Context) error {
	return t.consumer.RunKafka(ctx, t.source)
}
