// Package notifier tells a shopper's other open sessions that their cart or
// orders changed. Delivery is best effort: nothing in the storefront relies
// on an event arriving.
package notifier

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/google/uuid"
)

const (
	EventCartUpdated        = "cart.updated"
	EventCartMerged         = "cart.merged"
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

type Event struct {
	ID    string          `json:"id"`
	Type  string          `json:"type"`
	Owner models.OwnerKey `json:"owner"`
	// Origin is the client connection that caused the change; it is not
	// echoed back to that connection.
	Origin string `json:"origin,omitempty"`
	// Instance is the process that published the event over Redis.
	Instance string          `json:"instance,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	At       time.Time       `json:"at"`
}

// Notifier never blocks and never returns an error to the caller.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}

type clientIDKey struct{}

// WithClientID records the calling connection (X-Client-ID) on the context.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, clientID)
}

func ClientIDFromContext(ctx context.Context) string {
	clientID, _ := ctx.Value(clientIDKey{}).(string)
	return clientID
}

// NewEvent stamps an event with the origin client taken from ctx.
func NewEvent(ctx context.Context, eventType string, owner models.OwnerKey, data any) Event {
	event := Event{
		ID:     uuid.NewString(),
		Type:   eventType,
		Owner:  owner,
		Origin: ClientIDFromContext(ctx),
		At:     time.Now().UTC(),
	}

	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			middleware.LoggerFromContext(ctx).Warn("Dropping unencodable event payload", slog.String("type", eventType), slog.Any("error", err))
		} else {
			event.Data = payload
		}
	}

	return event
}

type nop struct{}

func Nop() Notifier {
	return nop{}
}

func (nop) Publish(context.Context, Event) {}
