package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/noah-isme/placement-api/internal/models"
)

var jsonMarshal = json.Marshal

const (
	defaultBuffer   = 1000
	defaultAttempts = 3
)

// Event is the payload written to the lifecycle topic.
type Event struct {
	Type       models.ActivityAction `json:"type"`
	ActorID    string                `json:"actor_id"`
	ActorRole  models.UserRole       `json:"actor_role"`
	EntityID   string                `json:"entity_id"`
	Message    string                `json:"message"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// KafkaWriter is the subset of kafka.Writer the producer relies on.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes lifecycle events asynchronously. Record never blocks the caller;
// when the buffer is full the event is dropped and logged.
type Producer struct {
	writer     KafkaWriter
	events     chan Event
	logger     *zap.Logger
	closeChan  chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
	newBackOff func() backoff.BackOff
}

// NewProducer builds a producer writing to topic on brokers.
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newProducer(writer, logger, defaultBuffer)
}

func newProducer(writer KafkaWriter, logger *zap.Logger, buffer int) *Producer {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Producer{
		writer:    writer,
		events:    make(chan Event, buffer),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), defaultAttempts-1)
		},
	}
	go p.eventLoop()
	return p
}

// EnsureTopic creates the topic when the broker allows it. Failure is only logged
// because the topic usually already exists.
func EnsureTopic(brokers []string, topic string, partitions int, logger *zap.Logger) {
	if len(brokers) == 0 {
		return
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		logger.Warn("kafka dial failed", zap.String("broker", brokers[0]), zap.Error(err))
		return
	}
	defer conn.Close()

	if err := conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: partitions, ReplicationFactor: 1}); err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.String("topic", topic), zap.Error(err))
	}
}

// Record enqueues an activity for publishing.
func (p *Producer) Record(ctx context.Context, entry models.ActivityLog) error {
	event := Event{
		Type:       entry.Action,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		EntityID:   entry.RelatedEntityID,
		Message:    entry.Description,
		OccurredAt: entry.CreatedAt,
	}
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("entity_id", event.EntityID),
		)
	}
	return nil
}

func (p *Producer) eventLoop() {
	defer close(p.done)
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			for {
				select {
				case event := <-p.events:
					p.sendEvent(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("entity_id", event.EntityID),
		)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.EntityID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	operation := func() error {
		return p.writer.WriteMessages(ctx, msg)
	}
	if err := backoff.Retry(operation, backoff.WithContext(p.newBackOff(), ctx)); err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("entity_id", event.EntityID),
		)
	}
}

// Close flushes buffered events and closes the writer.
func (p *Producer) Close() {
	p.closeOnce.Do(func() {
		close(p.closeChan)
		<-p.done
		if err := p.writer.Close(); err != nil {
			p.logger.Error("Failed to close Kafka writer", zap.Error(err))
		}
	})
}
