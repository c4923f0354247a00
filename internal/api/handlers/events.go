package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/notifier"
	"github.com/gin-contrib/sse"
)

const (
	eventReady     = "ready"
	eventHeartbeat = "heartbeat"
)

// EventsHandler streams cart and order changes of the caller as
// server-sent events. Clients refetch state on an event; the stream itself
// carries no guarantees.
type EventsHandler struct {
	hub       *notifier.Hub
	heartbeat time.Duration
}

func NewEventsHandler(hub *notifier.Hub, heartbeat time.Duration) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}

	return &EventsHandler{hub: hub, heartbeat: heartbeat}
}

// Stream godoc
//	@Summary		Subscribe to cart and order changes
//	@Description	Server-sent event stream of changes to the caller's cart and orders. Pass the tab's client id (header X-Client-ID or query clientId) to skip echoes of its own changes.
//	@Tags			Events
//	@Produce		text/event-stream
//	@Param			clientId	query	string	false	"Client id of this connection"
//	@Success		200			"Event stream"
//	@Security		BearerAuth
//	@Router			/events [get]
func (h *EventsHandler) Stream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		ctx, res, logger, ok := resolve(w, r)
		if !ok {
			return
		}

		clientID := r.Header.Get(clientIDHeader)
		if clientID == "" {
			clientID = r.URL.Query().Get("clientId")
		}

		rc := http.NewResponseController(w)

		sub := h.hub.Subscribe(res.Owner, clientID)
		defer sub.Close()

		w.Header().Set("Content-Type", sse.ContentType)
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		if err := send(w, rc, sse.Event{Event: eventReady, Id: sub.ID, Data: map[string]string{"owner": res.Owner.String()}}); err != nil {
			logger.Warn("Failed to open event stream", slog.Any("error", err))
			return
		}

		logger.Info("Event stream opened", slog.String("subscription", sub.ID))

		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("Event stream closed", slog.String("subscription", sub.ID))
				return

			case <-ticker.C:
				if err := send(w, rc, sse.Event{Event: eventHeartbeat, Data: time.Now().UTC().Format(time.RFC3339)}); err != nil {
					logger.Debug("Heartbeat failed, closing stream", slog.Any("error", err))
					return
				}

			case event, ok := <-sub.Events():
				if !ok {
					return
				}

				if err := send(w, rc, sse.Event{Event: event.Type, Id: event.ID, Data: event}); err != nil {
					logger.Debug("Event write failed, closing stream", slog.Any("error", err))
					return
				}
			}
		}
	}
}

func send(w http.ResponseWriter, rc *http.ResponseController, event sse.Event) error {
	if err := sse.Encode(w, event); err != nil {
		return err
	}

	return rc.Flush()
}
