package producer

import (
	"context"

	kafka "github.com/nvqhuy/tablebill/internal/delivery/kafka"
)

// NewNoopProducer is used when Kafka is disabled by configuration.
func NewNoopProducer() Producer {
	return noopProducer{}
}

type noopProducer struct{}

func (noopProducer) PublishTableOccupied(context.Context, kafka.TableOccupiedEvent) error {
	return nil
}

func (noopProducer) PublishSessionArchived(context.Context, kafka.SessionArchivedEvent) error {
	return nil
}

func (noopProducer) Close() error { return nil }
