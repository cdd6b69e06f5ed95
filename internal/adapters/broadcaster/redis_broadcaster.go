package broadcaster

import (
	"context"
	"encoding/json"
	"fmt"

	"item-service/internal/ports/outbound"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const subscriberBuffer = 64

// RedisBroadcaster publishes item events on a Redis pub/sub channel and
// streams them back to local subscribers.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

type RedisBroadcasterParams struct {
	RedisClient *redis.Client
	Channel     string
	Logger      zerolog.Logger
}

func NewRedisBroadcaster(params RedisBroadcasterParams) *RedisBroadcaster {
	return &RedisBroadcaster{
		client:  params.RedisClient,
		channel: params.Channel,
		logger:  params.Logger.With().Str("component", "redis_broadcaster").Logger(),
	}
}

// Publish publishes an event to every subscriber of the channel
func (r *RedisBroadcaster) Publish(ctx context.Context, event outbound.Event) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	result := r.client.Publish(ctx, r.channel, eventJSON)
	if err := result.Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}

	r.logger.Debug().
		Str("event_type", string(event.Type)).
		Str("item_id", event.ItemID.String()).
		Int64("subscriber_count", result.Val()).
		Msg("Published item event")

	return nil
}

// Subscribe opens a dedicated pub/sub connection. The returned channel is
// closed once ctx is done or the connection drops.
func (r *RedisBroadcaster) Subscribe(ctx context.Context) (<-chan outbound.Event, error) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to Redis channel: %w", err)
	}

	out := make(chan outbound.Event, subscriberBuffer)
	go r.forward(ctx, pubsub, out)

	return out, nil
}

// forward relays Redis messages to the local channel, dropping events the
// subscriber is too slow to take.
func (r *RedisBroadcaster) forward(ctx context.Context, pubsub *redis.PubSub, out chan<- outbound.Event) {
	defer close(out)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				r.logger.Info().Msg("Redis channel closed")
				return
			}

			var event outbound.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Error().Err(err).Msg("Failed to unmarshal Redis message")
				continue
			}

			select {
			case out <- event:
			default:
				r.logger.Warn().Str("item_id", event.ItemID.String()).Msg("Subscriber channel full, dropping event")
			}

		case <-ctx.Done():
			return
		}
	}
}

func (r *RedisBroadcaster) Close() error {
	return r.client.Close()
}

var (
	_ outbound.Publisher  = (*RedisBroadcaster)(nil)
	_ outbound.Subscriber = (*RedisBroadcaster)(nil)
)
