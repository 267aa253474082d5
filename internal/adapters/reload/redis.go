package reload

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel carries zone names that need a reload.
const DefaultChannel = "zonectl:reload"

// Redis implements ports.Reloader by publishing the zone name on a pub/sub
// channel. A reload agent next to the name server consumes the channel.
type Redis struct {
	client  *redis.Client
	channel string
}

// NewRedis connects a publisher/subscriber for channel.
func NewRedis(addr string, password string, db int, channel string) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{client: rdb, channel: channel}
}

// Reload publishes zone to all subscribed agents.
func (r *Redis) Reload(ctx context.Context, zone string) error {
	if err := r.client.Publish(ctx, r.channel, zone).Err(); err != nil {
		return errors.Wrapf(err, "publish reload of %s", zone)
	}
	return nil
}

// Subscribe returns a channel of zone names. The subscription is confirmed
// before Subscribe returns; the channel closes once ctx is done.
func (r *Redis) Subscribe(ctx context.Context) (<-chan string, error) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Wrapf(err, "subscribe to %s", r.channel)
	}

	zones := make(chan string)
	go func() {
		defer close(zones)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case zones <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return zones, nil
}

// Ping checks the connection to redis.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the redis connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
