package invoker

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"

	skafka "github.com/radieske/coin-flip-settlement/internal/shared/kafka"
	"github.com/radieske/coin-flip-settlement/pkg/contracts/events"
)

// KafkaPublisher publica wager_settled e wager_rejected; chave = participante
type KafkaPublisher struct {
	Settled  *kafka.Writer
	Rejected *kafka.Writer
}

func NewKafkaPublisher(settled, rejected *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Settled: settled, Rejected: rejected}
}

func (p *KafkaPublisher) PublishSettled(ctx context.Context, e events.WagerSettled) error {
	return skafka.Publish(ctx, p.Settled, e.Participant, e)
}

func (p *KafkaPublisher) PublishRejected(ctx context.Context, e events.WagerRejected) error {
	if p.Rejected == nil {
		return nil
	}
	return skafka.Publish(ctx, p.Rejected, e.InvocationID, e)
}

// Fanout repassa o evento para todos os publishers, juntando os erros
type Fanout []Publisher

func (f Fanout) PublishSettled(ctx context.Context, e events.WagerSettled) error {
	var errs []error
	for _, p := range f {
		errs = append(errs, p.PublishSettled(ctx, e))
	}
	return errors.Join(errs...)
}

func (f Fanout) PublishRejected(ctx context.Context, e events.WagerRejected) error {
	var errs []error
	for _, p := range f {
		errs = append(errs, p.PublishRejected(ctx, e))
	}
	return errors.Join(errs...)
}
