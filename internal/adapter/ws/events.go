package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// BroadcastEvent marshals a typed event and broadcasts it. It implements
// broadcast.Broadcaster.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	msg, err := NewMessage(eventType, payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}
	h.Broadcast(ctx, msg)
}

// NewMessage wraps payload in a Message envelope.
func NewMessage(eventType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: eventType, Payload: json.RawMessage(data)}, nil
}
