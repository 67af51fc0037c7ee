package types

import "encoding/json"

const (
	WS_TYPE_CHAT  = "chat"
	WS_TYPE_EVENT = "event"
	WS_TYPE_PING  = "ping"
	WS_TYPE_PONG  = "pong"
	WS_TYPE_ERROR = "error"
)

// WebSocketRequest is one client frame; Payload is decoded per Type.
type WebSocketRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WebSocketResponse is one server frame. Chat answers arrive as a series
// of event frames carrying the streaming protocol events.
type WebSocketResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}
