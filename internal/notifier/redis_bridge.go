package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const outboxSize = 256

// RedisBridge delivers locally at once and relays the event to every other
// instance over a Redis pub/sub channel.
type RedisBridge struct {
	client   *redis.Client
	channel  string
	hub      *Hub
	instance string
	outbox   chan Event
	logger   *slog.Logger
}

func NewRedisBridge(client *redis.Client, channel string, hub *Hub) *RedisBridge {
	return &RedisBridge{
		client:   client,
		channel:  channel,
		hub:      hub,
		instance: uuid.NewString(),
		outbox:   make(chan Event, outboxSize),
		logger:   slog.Default().With(slog.String("component", "notifier")),
	}
}

func (b *RedisBridge) Publish(ctx context.Context, event Event) {
	b.hub.Publish(ctx, event)

	event.Instance = b.instance

	select {
	case b.outbox <- event:
	default:
		metrics.NotifierDropped()
		b.logger.Warn("Notifier outbox full, event not relayed", slog.String("type", event.Type))
	}
}

// Run relays the outbox to Redis and Redis to the local hub until ctx is
// done.
func (b *RedisBridge) Run(ctx context.Context) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return

		case event := <-b.outbox:
			if err := b.send(ctx, event); err != nil {
				b.logger.Warn("Failed to relay event", slog.String("type", event.Type), slog.Any("error", err))
			}

		case msg, ok := <-messages:
			if !ok {
				return
			}

			b.receive(msg.Payload)
		}
	}
}

func (b *RedisBridge) send(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return b.client.Publish(pubCtx, b.channel, string(payload)).Err()
}

// receive ignores events this instance published itself; those were
// already delivered locally.
func (b *RedisBridge) receive(payload string) {
	var event Event

	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		b.logger.Warn("Discarding malformed event", slog.Any("error", err))
		return
	}

	if event.Instance == b.instance {
		return
	}

	b.hub.deliver(event)
}
