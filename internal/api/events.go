package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/nodepower/internal/events"
)

// StreamOpened is the first event on every stream, sent once subscriptions
// are in place.
type StreamOpened struct {
	Message   string `json:"message" example:"SSE connection established" doc:"Greeting"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Connection time"`
}

// sseEventTypes names each event on the wire.
var sseEventTypes = map[string]any{
	"connected":   StreamOpened{},
	"node-power":  events.NodePowerChangedEvent{},
	"node-reset":  events.NodeResetEvent{},
	"led":         events.LEDChangedEvent{},
	"power-error": events.PowerErrorEvent{},
}

func (s *Server) registerSSERoutes() {
	if s.options.EventBus == nil {
		s.logger.Debug("No event bus, skipping SSE route")
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Node power changes, resets, indicator changes and power failures as they happen",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, sseEventTypes, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		bus := s.options.EventBus
		eventCh := make(chan any, 16)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.NodePowerChangedEvent](bus, eventCh),
			events.SubscribeToChannel[events.NodeResetEvent](bus, eventCh),
			events.SubscribeToChannel[events.LEDChangedEvent](bus, eventCh),
			events.SubscribeToChannel[events.PowerErrorEvent](bus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if err := send.Data(StreamOpened{
			Message:   "SSE connection established",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
