// internal/realtime/ws/messages.go
package ws

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Inbound message types.
const (
	inboundSubscribe   = "subscribe"
	inboundUnsubscribe = "unsubscribe"
	inboundMarkRead    = "mark_read"
	inboundPing        = "ping"
)

// Policy close codes used at the admission boundary.
const (
	CloseMissingToken = 4000
	CloseUnauthorized = 4001
)

// InboundMessage is the small tagged payload clients send over an
// established connection.
type InboundMessage struct {
	Type           string   `json:"type"`
	Channels       []string `json:"channels,omitempty"`
	NotificationID string   `json:"notificationId,omitempty"`
}

// inboundSchema is the wire contract for client messages. Anything that does
// not validate is logged and ignored (tolerant-reader policy); the
// connection is never dropped for one bad message.
const inboundSchemaJSON = `{
	"type": "object",
	"properties": {
		"type": {
			"type": "string",
			"enum": ["subscribe", "unsubscribe", "mark_read", "ping"]
		},
		"channels": {
			"type": "array",
			"items": {"type": "string"},
			"maxItems": 32
		},
		"notificationId": {
			"type": "string",
			"maxLength": 64
		}
	},
	"required": ["type"]
}`

var inboundSchema = gojsonschema.NewStringLoader(inboundSchemaJSON)

// validateInbound checks raw against the inbound schema and returns a
// human-readable reason on failure.
func validateInbound(raw []byte) error {
	result, err := gojsonschema.Validate(inboundSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("parse message: %w", err)
	}
	if !result.Valid() {
		return fmt.Errorf("schema violation: %v", result.Errors())
	}
	return nil
}
