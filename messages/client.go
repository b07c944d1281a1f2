package messages

import "encoding/json"

// Client message types
const (
	TypeControl = "control"
)

// Control actions
const (
	ActionPing    = "ping"
	ActionHistory = "history"
	ActionReset   = "reset"
)

// ClientMessage represents a message from frontend client
type ClientMessage struct {
	Type    string          `json:"type"` // "text", "control"
	Payload json.RawMessage `json:"payload"`
}

// TextPayload carries one line typed by the guest
type TextPayload struct {
	Text string `json:"text"`
}

// ControlPayload contains control commands
type ControlPayload struct {
	Action string `json:"action"` // "ping", "history", "reset"
}
