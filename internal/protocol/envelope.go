package protocol

import (
	"encoding/json"
	"time"
)

// Inbound is the raw client envelope.
type Inbound struct {
	Type CommandType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Command is a decoded and validated inbound message. Payload is the pointer
// returned by the schema registered for Type.
type Command struct {
	Type    CommandType
	Payload any
}

// Outbound is the server envelope.
type Outbound struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(t EventType, data any) Outbound {
	if data == nil {
		data = struct{}{}
	}
	return Outbound{
		Type:      t,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

func (o Outbound) Encode() ([]byte, error) {
	return json.Marshal(o)
}
