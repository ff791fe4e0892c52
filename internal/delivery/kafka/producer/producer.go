package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	kafka "github.com/nvqhuy/tablebill/internal/delivery/kafka"
	"github.com/nvqhuy/tablebill/pkg/logger"
)

type Producer interface {
	PublishTableOccupied(ctx context.Context, event kafka.TableOccupiedEvent) error
	PublishSessionArchived(ctx context.Context, event kafka.SessionArchivedEvent) error
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

func (p *implProducer) PublishTableOccupied(ctx context.Context, event kafka.TableOccupiedEvent) error {
	event.Timestamp = time.Now()
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishTableOccupied: %v", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: kafka.TopicTableOccupied,
		Key:   sarama.StringEncoder(event.TableID), // Partition by table_id for ordering
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	_, _, err = p.prod.SendMessage(msg)
	return err
}

func (p *implProducer) PublishSessionArchived(ctx context.Context, event kafka.SessionArchivedEvent) error {
	event.Timestamp = time.Now()
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.PublishSessionArchived: %v", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: kafka.TopicSessionArchived,
		Key:   sarama.StringEncoder(event.TableID), // Partition by table_id for ordering
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	_, _, err = p.prod.SendMessage(msg)
	return err
}

func (p *implProducer) Close() error {
	if err := p.prod.Close(); err != nil {
		return err
	}

	return nil
}
