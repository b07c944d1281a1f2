package messages

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

var (
	ErrEmptyFrame   = errors.New("empty frame")
	ErrUnknownType  = errors.New("unknown message type")
	ErrEmptyPayload = errors.New("missing payload")
)

// Encode serializes a server message for a WebSocket text frame
func Encode(msg *ServerMessage) ([]byte, error) {
	data, err := sonic.ConfigStd.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", msg.Type, err)
	}
	return data, nil
}

// Decode parses a client frame and checks that its type is one we handle
func Decode(data []byte) (*ClientMessage, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFrame
	}

	var msg ClientMessage
	if err := sonic.ConfigStd.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid message format: %w", err)
	}

	switch msg.Type {
	case TypeText, TypeControl:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
	}

	if len(msg.Payload) == 0 || string(msg.Payload) == "null" {
		return nil, ErrEmptyPayload
	}
	return &msg, nil
}

// DecodeText extracts the text payload
func DecodeText(msg *ClientMessage) (TextPayload, error) {
	var payload TextPayload
	if err := sonic.ConfigStd.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("invalid text payload: %w", err)
	}
	return payload, nil
}

// DecodeControl extracts the control payload
func DecodeControl(msg *ClientMessage) (ControlPayload, error) {
	var payload ControlPayload
	if err := sonic.ConfigStd.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("invalid control payload: %w", err)
	}
	return payload, nil
}

// DecodeServer parses a server frame, leaving the payload as a generic map.
// Used by clients of the chat endpoint.
func DecodeServer(data []byte) (*ServerMessage, error) {
	var msg ServerMessage
	if err := sonic.ConfigStd.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid server message: %w", err)
	}
	return &msg, nil
}

// EncodeText builds a client text frame
func EncodeText(text string) ([]byte, error) {
	return encodeClient(TypeText, TextPayload{Text: text})
}

// EncodeControl builds a client control frame
func EncodeControl(action string) ([]byte, error) {
	return encodeClient(TypeControl, ControlPayload{Action: action})
}

func encodeClient(msgType string, payload interface{}) ([]byte, error) {
	raw, err := sonic.ConfigStd.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", msgType, err)
	}
	return sonic.ConfigStd.Marshal(&ClientMessage{Type: msgType, Payload: raw})
}
