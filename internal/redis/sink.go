package redisclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/praktijk-epd/scheduling/internal/notify"
)

type pubSubSink struct {
	client  *redis.Client
	channel string
}

// NewPubSubSink publishes scheduling events on a Redis channel. Delivery is
// best-effort; subscribers (mail, push, audit consumers) live outside this
// service.
func NewPubSubSink(client *redis.Client, channel string) notify.Sink {
	return &pubSubSink{client: client, channel: channel}
}

func (s *pubSubSink) Notify(ctx context.Context, ev notify.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.Type, err)
	}
	if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", ev.Type, err)
	}
	return nil
}
