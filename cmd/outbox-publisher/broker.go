package main

import (
	"context"
	"errors"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/daisydays/daisydays-backend/pkg/outbox/registry"
)

type outboundMessage struct {
	Key        string
	Data       []byte
	Attributes map[string]string
}

type broker interface {
	Name() string
	Ping(context.Context) error
	Send(ctx context.Context, topic string, msg outboundMessage) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type pubSubBroker struct {
	client     pubSubClient
	publishers map[string]*gcppubsub.Publisher
}

func newPubSubBroker(client pubSubClient) *pubSubBroker {
	return &pubSubBroker{client: client, publishers: map[string]*gcppubsub.Publisher{}}
}

func (b *pubSubBroker) Name() string { return "pubsub" }

func (b *pubSubBroker) Ping(ctx context.Context) error { return b.client.Ping(ctx) }

func (b *pubSubBroker) Send(ctx context.Context, topic string, msg outboundMessage) error {
	pub, ok := b.publishers[topic]
	if !ok {
		pub = b.client.Publisher(topic)
		if pub == nil {
			return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
		}
		b.publishers[topic] = pub
	}

	result := pub.Publish(ctx, &gcppubsub.Message{
		Data:       msg.Data,
		Attributes: msg.Attributes,
	})
	if result == nil {
		return errors.New("publish result is nil")
	}
	if _, err := result.Get(ctx); err != nil {
		return err
	}
	return nil
}

func (b *pubSubBroker) Stop() {
	for _, pub := range b.publishers {
		pub.Stop()
	}
}

type kafkaProducer interface {
	Publish(ctx context.Context, key string, value []byte, headers map[string]string) error
	Ping(context.Context) error
}

// kafkaBroker writes every event to the producer's topic; the descriptor topic
// is used only for logging.
type kafkaBroker struct {
	producer kafkaProducer
}

func (b *kafkaBroker) Name() string { return "kafka" }

func (b *kafkaBroker) Ping(ctx context.Context) error { return b.producer.Ping(ctx) }

func (b *kafkaBroker) Send(ctx context.Context, _ string, msg outboundMessage) error {
	return b.producer.Publish(ctx, msg.Key, msg.Data, msg.Attributes)
}
