package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel document events are published on.
const DefaultChannel = "onlyoffice:events"

// RedisSink publishes events as JSON on a Redis pub/sub channel so external
// consumers (audit log, notifications) can subscribe without coupling to
// this service.
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink creates a Redis-backed sink. Channel may be empty.
func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, b).Err()
}
