package sw

import (
	"encoding/json"
	"fmt"
)

// MessageSkipWaiting asks a waiting controller to activate immediately.
const MessageSkipWaiting = "SKIP_WAITING"

// Message is a control message posted to a controller.
// Only Type is interpreted; other fields are ignored.
type Message struct {
	Type string `json:"type"`
}

// ParseMessage decodes a JSON message payload such as {"type":"SKIP_WAITING"}.
func ParseMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	return msg, nil
}
