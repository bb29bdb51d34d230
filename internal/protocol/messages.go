package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientQuery     MessageType = "chat.query"
	TypeAssistantAnswer MessageType = "chat.answer"
	TypeErrorEvent      MessageType = "chat.error"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ClientQuery asks one question over the chat connection. The full answer
// comes back in a single AssistantAnswer; there is no token streaming.
type ClientQuery struct {
	Type    MessageType `json:"type"`
	Query   string      `json:"query"`
	Backend string      `json:"backend,omitempty"`
}

// AssistantAnswer carries the generated answer plus the updated history
// length so clients can refresh lazily.
type AssistantAnswer struct {
	Type        MessageType `json:"type"`
	Query       string      `json:"query"`
	Answer      string      `json:"answer"`
	HistoryLen  int         `json:"history_len"`
	BackendUsed string      `json:"backend_used"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	Code      string      `json:"code"`
	Retryable bool        `json:"retryable"`
	Detail    string      `json:"detail"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientQuery:
		var msg ClientQuery
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Query == "" {
			return nil, errors.New("invalid chat.query: query is required")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
