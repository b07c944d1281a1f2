package messages

import "time"

// Error codes
const (
	ErrCodeInvalidMessage   = "INVALID_MESSAGE"
	ErrCodeSessionFailed    = "SESSION_FAILED"
	ErrCodeConnectionClosed = "CONNECTION_CLOSED"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeTurnFailed       = "TURN_FAILED"
)

// Message types
const (
	TypeText    = "text"
	TypeStatus  = "status"
	TypeError   = "error"
	TypeHistory = "history"
)

// Status values
const (
	StatusConnected    = "connected"
	StatusTurnComplete = "turn_complete"
	StatusPong         = "pong"
	StatusReset        = "reset"
)

// ServerMessage represents a message sent to frontend client
type ServerMessage struct {
	Type      string      `json:"type"` // "text", "status", "error", "history"
	SessionID string      `json:"sessionId,omitempty"`
	Payload   interface{} `json:"payload"`
}

// TextResponsePayload contains a bot reply
type TextResponsePayload struct {
	Text  string `json:"text"`
	State string `json:"state,omitempty"`
}

// StatusPayload contains status updates
type StatusPayload struct {
	Status  string `json:"status"` // "connected", "turn_complete", "pong", "reset"
	Message string `json:"message,omitempty"`
}

// ErrorPayload contains error information
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Entry is one transcript line
type Entry struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "bot", "user"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryPayload carries the session transcript, oldest first
type HistoryPayload struct {
	Entries []Entry `json:"entries"`
}

// NewTextMessage creates a text response message
func NewTextMessage(sessionID, text, state string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeText,
		SessionID: sessionID,
		Payload: TextResponsePayload{
			Text:  text,
			State: state,
		},
	}
}

// NewStatusMessage creates a status message
func NewStatusMessage(sessionID, status, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeStatus,
		SessionID: sessionID,
		Payload: StatusPayload{
			Status:  status,
			Message: message,
		},
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(sessionID, code, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeError,
		SessionID: sessionID,
		Payload: ErrorPayload{
			Code:    code,
			Message: message,
		},
	}
}

// NewHistoryMessage creates a transcript message
func NewHistoryMessage(sessionID string, entries []Entry) *ServerMessage {
	if entries == nil {
		entries = []Entry{}
	}
	return &ServerMessage{
		Type:      TypeHistory,
		SessionID: sessionID,
		Payload:   HistoryPayload{Entries: entries},
	}
}
