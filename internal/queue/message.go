package queue

import (
	"encoding/json"
	"fmt"
)

// MessageVersion is the envelope version written by this service.
const MessageVersion = 1

// Message announces in-app notifications to downstream delivery workers
// (email, push). The in-app rows are already committed when it is sent.
type Message struct {
	RecipientIDs []string `json:"recipientIds"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	RequestID    string   `json:"requestId,omitempty"`
	EnqueuedAt   string   `json:"enqueuedAt"`
	Version      int      `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Version != MessageVersion {
		return Message{}, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	if len(msg.RecipientIDs) == 0 {
		return Message{}, fmt.Errorf("message has no recipients")
	}
	return msg, nil
}
