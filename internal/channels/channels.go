// internal/channels/channels.go
package channels

import (
	"context"
	"fmt"

	"farmstand-realtime/internal/common/config"
	"farmstand-realtime/internal/common/errors"
	"farmstand-realtime/internal/common/logger"
	"farmstand-realtime/internal/models"
)

// Dispatcher routes offline high-priority notifications to external
// channels. Live WebSocket delivery never goes through here; this is the
// fallback so urgent marketplace events (order ready, weather alert) still
// reach a user who is not connected.
type Dispatcher struct {
	cfg    config.ChannelsConfig
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
}

// NewDispatcher wires the external senders. Either sender may be nil when the
// corresponding channel is disabled.
func NewDispatcher(cfg config.ChannelsConfig, email EmailSender, sms SMSSender, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		email:  email,
		sms:    sms,
		logger: log.WithFields(map[string]interface{}{"component": "channels"}),
	}
}

// Dispatch sends n to identity through every enabled channel the priority and
// the user's preferences allow. Failures are logged and do not propagate;
// the in-app copy is already queued.
func (d *Dispatcher) Dispatch(ctx context.Context, identity *models.Identity, n *models.Notification) {
	if n.Priority < models.PriorityHigh {
		return
	}

	if d.cfg.EmailEnabled && d.email != nil && identity.Preferences.EmailEnabled && identity.Email != "" {
		subject := n.Title
		body := fmt.Sprintf("%s\n\n%s", n.Title, n.Message)
		if err := d.email.SendEmail(ctx, identity.Email, subject, body); err != nil {
			d.logger.Error("email send failed", map[string]interface{}{
				"error":          errors.NewChannelSendFailedError("email", err).Error(),
				"notificationId": n.ID,
				"userId":         identity.UserID,
			})
		}
	}

	// SMS is the most intrusive channel; reserve it for urgent events.
	if n.Priority < models.PriorityUrgent {
		return
	}
	if d.cfg.SMSEnabled && d.sms != nil && identity.Preferences.SMSEnabled && identity.Phone != "" {
		message := fmt.Sprintf("%s: %s", n.Title, n.Message)
		if err := d.sms.SendSMS(ctx, identity.Phone, message); err != nil {
			d.logger.Error("SMS send failed", map[string]interface{}{
				"error":          errors.NewChannelSendFailedError("sms", err).Error(),
				"notificationId": n.ID,
				"userId":         identity.UserID,
			})
		}
	}
}
