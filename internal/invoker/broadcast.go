package invoker

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/coin-flip-settlement/pkg/contracts/events"
)

// RedisBroadcaster publica liquidações no Redis Pub/Sub (consumido pelo /ws do settlement-service)
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) PublishSettled(ctx context.Context, e events.WagerSettled) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}

// rejeições não vão para o feed
func (b *RedisBroadcaster) PublishRejected(context.Context, events.WagerRejected) error { return nil }
