package repository

import (
	"context"

	"AXII/internal/domain/models"
	domrepo "AXII/internal/domain/repository"
)

// MessageProducer is the slice of pkg/kafka.Producer the publisher needs.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaEventPublisher writes registry events as JSON, keyed by artist name so
// every change of one artist lands on the same partition.
type KafkaEventPublisher struct {
	p     MessageProducer
	topic string
}

func NewKafkaEventPublisher(p MessageProducer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{p: p, topic: topic}
}

func (k *KafkaEventPublisher) Publish(ctx context.Context, ev models.RegistryEvent) error {
	return k.p.Publish(ctx, k.topic, []byte(ev.Name), ev)
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
