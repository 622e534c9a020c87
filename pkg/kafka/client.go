// Package kafka carries domain events over Kafka when the deployment uses it
// instead of Pub/Sub.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/daisydays/daisydays-backend/pkg/config"
	"github.com/daisydays/daisydays-backend/pkg/logger"
)

const (
	defaultWriteTimeout = 10 * time.Second
	dialTimeout         = 5 * time.Second
)

var errNoBrokers = errors.New("kafka brokers are required")

// Message is a broker-neutral view of a record.
type Message struct {
	Key        string
	Value      []byte
	Headers    map[string]string
	Offset     int64
	Partition  int
	ReceivedAt time.Time
	raw        kafkago.Message
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer writes to a single topic.
type Producer struct {
	writer  messageWriter
	brokers []string
	topic   string
}

// NewProducer builds a synchronous writer that waits for all in-sync replicas.
func NewProducer(cfg config.KafkaConfig, logg *logger.Logger) (*Producer, error) {
	brokers := cleanBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errNoBrokers
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic is required")
	}
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: defaultWriteTimeout,
	}
	if logg != nil {
		logg.Info(logg.WithFields(context.Background(), map[string]any{
			"topic":   cfg.Topic,
			"brokers": strings.Join(brokers, ","),
		}), "kafka producer initialized")
	}
	return &Producer{writer: writer, brokers: brokers, topic: cfg.Topic}, nil
}

// Publish writes one record keyed by aggregate so per-order events stay ordered.
func (p *Producer) Publish(ctx context.Context, key string, value []byte, headers map[string]string) error {
	if p == nil || p.writer == nil {
		return errors.New("kafka producer not initialized")
	}
	msg := kafkago.Message{
		Key:   []byte(key),
		Value: value,
	}
	for k, v := range headers {
		msg.Headers = append(msg.Headers, kafkago.Header{Key: k, Value: []byte(v)})
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write to %s: %w", p.topic, err)
	}
	return nil
}

// Ping dials the first reachable broker and checks the topic has partitions.
func (p *Producer) Ping(ctx context.Context) error {
	if p == nil {
		return errors.New("kafka producer not initialized")
	}
	return pingTopic(ctx, p.brokers, p.topic)
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Consumer reads a topic as part of a consumer group with manual commits.
type Consumer struct {
	reader  messageReader
	brokers []string
	topic   string
}

func NewConsumer(cfg config.KafkaConfig, logg *logger.Logger) (*Consumer, error) {
	brokers := cleanBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errNoBrokers
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return nil, errors.New("kafka group id is required")
	}
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10 << 20,
		MaxWait:  time.Second,
	})
	if logg != nil {
		logg.Info(logg.WithFields(context.Background(), map[string]any{
			"topic":    cfg.Topic,
			"group_id": cfg.GroupID,
		}), "kafka consumer initialized")
	}
	return &Consumer{reader: reader, brokers: brokers, topic: cfg.Topic}, nil
}

// Fetch blocks until a record is available or ctx ends.
func (c *Consumer) Fetch(ctx context.Context) (Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return Message{}, err
	}
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{
		Key:        string(msg.Key),
		Value:      msg.Value,
		Headers:    headers,
		Offset:     msg.Offset,
		Partition:  msg.Partition,
		ReceivedAt: msg.Time,
		raw:        msg,
	}, nil
}

// Commit acknowledges the record so the group moves past it.
func (c *Consumer) Commit(ctx context.Context, msg Message) error {
	return c.reader.CommitMessages(ctx, msg.raw)
}

func (c *Consumer) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("kafka consumer not initialized")
	}
	return pingTopic(ctx, c.brokers, c.topic)
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

func pingTopic(ctx context.Context, brokers []string, topic string) error {
	dialer := &kafkago.Dialer{Timeout: dialTimeout}
	var lastErr error
	for _, broker := range brokers {
		conn, err := dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		partitions, err := conn.ReadPartitions(topic)
		_ = conn.Close()
		if err != nil {
			return fmt.Errorf("kafka: read partitions for %s: %w", topic, err)
		}
		if len(partitions) == 0 {
			return fmt.Errorf("kafka: topic %s has no partitions", topic)
		}
		return nil
	}
	return fmt.Errorf("kafka: no broker reachable: %w", lastErr)
}

func cleanBrokers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(b); err != nil {
			b = net.JoinHostPort(b, strconv.Itoa(9092))
		}
		out = append(out, b)
	}
	return out
}
