// Package events publishes room activities to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"quizroom/internal/model"
)

// ActivityEvent is the message value written for every activity.
type ActivityEvent struct {
	EventID   string            `json:"eventId"`
	Type      string            `json:"type"`
	RoomID    string            `json:"roomId"`
	ActorID   string            `json:"actorId,omitempty"`
	ActorName string            `json:"actorName,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes activities keyed by room ID so a room's events stay ordered.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	log     *zerolog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *zerolog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("kafka activity publisher initialized")
	return newKafkaPublisher(w, topic, log)
}

func newKafkaPublisher(w messageWriter, topic string, log *zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, timeout: 5 * time.Second, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, a *model.Activity) error {
	value, err := json.Marshal(ActivityEvent{
		EventID:   a.ID,
		Type:      "room." + string(a.Type),
		RoomID:    a.RoomID,
		ActorID:   a.ActorID,
		ActorName: a.ActorName,
		Details:   a.Details,
		Timestamp: a.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(a.RoomID),
		Value: value,
		Time:  a.CreatedAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write activity to kafka: %w", err)
	}
	p.log.Debug().Str("room_id", a.RoomID).Str("type", string(a.Type)).Msg("activity published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every activity. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *model.Activity) error { return nil }
func (NopPublisher) Close() error                                    { return nil }
