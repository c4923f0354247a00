package notifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/google/uuid"
)

// Hub fans events out to the subscribers connected to this process.
type Hub struct {
	mu     sync.RWMutex
	subs   map[models.OwnerKey]map[string]*Subscription
	buffer int
}

type Subscription struct {
	ID       string
	Owner    models.OwnerKey
	ClientID string

	ch   chan Event
	hub  *Hub
	once sync.Once
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 1
	}

	return &Hub{subs: make(map[models.OwnerKey]map[string]*Subscription), buffer: buffer}
}

// Subscribe registers a listener for owner. clientID identifies the
// connection so its own changes are not echoed back.
func (h *Hub) Subscribe(owner models.OwnerKey, clientID string) *Subscription {
	sub := &Subscription{
		ID:       uuid.NewString(),
		Owner:    owner,
		ClientID: clientID,
		ch:       make(chan Event, h.buffer),
		hub:      h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[owner] == nil {
		h.subs[owner] = make(map[string]*Subscription)
	}

	h.subs[owner][sub.ID] = sub
	metrics.NotifierSubscribed(1)

	return sub
}

func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub

		h.mu.Lock()
		defer h.mu.Unlock()

		if owned, ok := h.subs[s.Owner]; ok {
			delete(owned, s.ID)
			if len(owned) == 0 {
				delete(h.subs, s.Owner)
			}
		}

		close(s.ch)
		metrics.NotifierSubscribed(-1)
	})
}

func (h *Hub) Publish(ctx context.Context, event Event) {
	if dropped := h.deliver(event); dropped > 0 {
		middleware.LoggerFromContext(ctx).Warn("Dropped events for slow subscribers",
			slog.String("type", event.Type), slog.String("owner", event.Owner.String()), slog.Int("dropped", dropped))
	}
}

// deliver never blocks: a subscriber whose buffer is full misses the event.
func (h *Hub) deliver(event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0

	for _, sub := range h.subs[event.Owner] {
		if event.Origin != "" && sub.ClientID == event.Origin {
			continue
		}

		select {
		case sub.ch <- event:
		default:
			dropped++
			metrics.NotifierDropped()
		}
	}

	return dropped
}

// Subscribers reports how many listeners owner has on this process.
func (h *Hub) Subscribers(owner models.OwnerKey) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs[owner])
}
