// internal/realtime/ws/messages_test.go
package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateInbound(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"subscribe with channels", `{"type":"subscribe","channels":["orders"]}`, false},
		{"unsubscribe", `{"type":"unsubscribe","channels":["weather","orders"]}`, false},
		{"mark read", `{"type":"mark_read","notificationId":"n-1"}`, false},
		{"bare ping", `{"type":"ping"}`, false},
		{"unknown type", `{"type":"harvest"}`, true},
		{"missing type", `{"channels":["orders"]}`, true},
		{"not json", `hello`, true},
		{"wrong channels type", `{"type":"subscribe","channels":"orders"}`, true},
		{"empty object", `{}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateInbound([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
