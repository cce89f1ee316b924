// Package transport exposes the relay over websocket sessions and the
// HTTP collaborator boundary.
package transport

import (
	"encoding/json"

	"hubchat/domain/event"
)

// Frame is the JSON envelope exchanged on the wire in both directions.
type Frame struct {
	Type    event.Type      `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeFrame(e event.Outbound) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Type: e.EventType(), Payload: payload})
}
