package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType names the command or event carried by a Message.
type MessageType string

const (
	TypeMerchantStatusChange MessageType = "merchant.status.change"
)

// Topic is a Kafka topic name.
type Topic string

const (
	TopicMerchantCommands Topic = "merchant-commands"
)

// Message is the JSON envelope exchanged on every topic.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	TraceID   string          `json:"trace_id"`
}

// NewMessage wraps data in an envelope. An empty traceID gets a fresh one.
func NewMessage(msgType MessageType, data interface{}, source, traceID string) (*Message, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal message data: %w", err)
	}

	if traceID == "" {
		traceID = uuid.New().String()
	}

	return &Message{
		Type:      msgType,
		Data:      jsonData,
		Timestamp: time.Now().UTC(),
		Source:    source,
		TraceID:   traceID,
	}, nil
}

// UnmarshalData decodes the payload into v.
func (m *Message) UnmarshalData(v interface{}) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("message %s has no data", m.Type)
	}
	return json.Unmarshal(m.Data, v)
}
