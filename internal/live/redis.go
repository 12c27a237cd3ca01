package live

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
)

const channelPrefix = "live:"

// RedisBridge publishes through Redis pub/sub so every instance of the
// service reaches its own websocket subscribers. Run must be started to
// receive.
type RedisBridge struct {
	Client *redis.Client
	Hub    *Hub
}

func (b *RedisBridge) Publish(ctx context.Context, topic string, msg any) {
	l := logging.FromContext(ctx).With("component", "live.redis", "topic", topic)

	data, err := json.Marshal(msg)
	if err != nil {
		l.Error("live_encode_failed", "error", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := b.Client.Publish(pubCtx, channelPrefix+topic, data).Err(); err != nil {
		l.Warn("live_redis_publish_failed", "reason", "delivering locally", "error", err)
		b.Hub.Deliver(topic, data)
	}
}

// Run forwards every live:* message to the local hub until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	l := logging.FromContext(ctx).With("component", "live.redis")

	ps := b.Client.PSubscribe(ctx, channelPrefix+"*")
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		return err
	}
	l.Info("live_redis_subscribed")

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			topic := strings.TrimPrefix(msg.Channel, channelPrefix)
			if dropped := b.Hub.Deliver(topic, []byte(msg.Payload)); dropped > 0 {
				l.Warn("live_subscriber_dropped", "topic", topic, "count", dropped)
			}
		}
	}
}
