package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/BallDevTools/telegram-bot/internal/domain"
	"github.com/BallDevTools/telegram-bot/internal/metrics"

	"github.com/segmentio/kafka-go"
	tele "gopkg.in/telebot.v3"
)

// Sink delivers one analysis somewhere.
type Sink interface {
	Name() string
	Publish(ctx context.Context, a domain.Analysis) error
}

// Sender is the part of *tele.Bot used to push messages.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type TelegramSink struct {
	sender Sender
	chat   tele.Recipient
}

func NewTelegramSink(sender Sender, chatID int64) *TelegramSink {
	return &TelegramSink{sender: sender, chat: tele.ChatID(chatID)}
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Publish(_ context.Context, a domain.Analysis) error {
	if _, err := s.sender.Send(s.chat, Format(a), tele.NoPreview); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// MessageWriter is the part of *kafka.Writer used to publish.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink publishes the analysis as JSON keyed by symbol, so every event
// for one instrument lands on the same partition.
type KafkaSink struct {
	writer MessageWriter
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Publish(ctx context.Context, a domain.Analysis) error {
	value, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(a.Symbol),
		Value: value,
		Headers: []kafka.Header{
			{Key: "classification", Value: []byte(a.Signal.Classification.String())},
			{Key: "interval", Value: []byte(a.Interval)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// MultiSink publishes to every sink and joins their errors. One failing sink
// does not stop the others.
type MultiSink []Sink

func (m MultiSink) Name() string { return "multi" }

func (m MultiSink) Publish(ctx context.Context, a domain.Analysis) error {
	var errs []error
	for _, s := range m {
		err := s.Publish(ctx, a)
		metrics.ObserveDelivery(s.Name(), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
