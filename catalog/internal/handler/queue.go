package handler

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/pkg/kafka"
)

// NewEnqueuer returns a no-op enqueuer when producer is nil.
func NewEnqueuer(producer sarama.SyncProducer) Enqueuer {
	if producer == nil {
		return noopEnqueuer{}
	}
	return &enqueuerImpl{
		producer: producer,
	}
}

type enqueuerImpl struct {
	producer sarama.SyncProducer
}

func (q *enqueuerImpl) Enqueue(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.ByteEncoder(data)}
	if _, _, err = q.producer.SendMessage(msg); err != nil {
		return err
	}
	return nil
}

type noopEnqueuer struct{}

func (noopEnqueuer) Enqueue(string, any) error { return nil }

func (h *Handler) publish(eventType kafka.EventType, email, isbn string) {
	event := kafka.Event{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Email:     email,
		ISBN:      isbn,
	}
	if err := h.enqueuer.Enqueue(kafka.CatalogTopic, event); err != nil {
		h.log.Warn("h.enqueuer.Enqueue()", zap.String("event", string(eventType)), zap.Error(err))
	}
}
