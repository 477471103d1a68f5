// internal/realtime/delivery.go
package realtime

import (
	"context"
	"time"

	"farmstand-realtime/internal/common/errors"
	"farmstand-realtime/internal/common/logger"
	"farmstand-realtime/internal/common/metrics"
	"farmstand-realtime/internal/models"

	"github.com/google/uuid"
)

// Outbound message types shared by the engine and the transport layer.
// Centralized here so the WebSocket package and the engine agree on one
// envelope without an import cycle.
const (
	MessageConnected    = "connected"
	MessageNotification = "notification"
	MessagePong         = "pong"
)

// OutboundMessage is the tagged envelope written to clients.
type OutboundMessage struct {
	Type         string               `json:"type"`
	Message      string               `json:"message,omitempty"`
	Notification *models.Notification `json:"notification,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
}

// HistoryStore is the durable persistence collaborator for targeted sends.
type HistoryStore interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
	MarkRead(ctx context.Context, notificationID, userID string) error
}

// RecipientDirectory resolves a user id to contact details for external
// channel fallback.
type RecipientDirectory interface {
	Recipient(ctx context.Context, userID string) (*models.Identity, error)
}

// ChannelDispatcher pushes offline high-priority notifications through
// external channels (email/SMS).
type ChannelDispatcher interface {
	Dispatch(ctx context.Context, identity *models.Identity, n *models.Notification)
}

// Engine routes notifications: live fan-out to every connection of the
// recipient when possible, per-user queuing otherwise. It is the only entry
// point the rest of the application uses to originate notifications.
type Engine struct {
	registry   *Registry
	queue      *PendingQueue
	store      HistoryStore       // optional
	directory  RecipientDirectory // optional
	dispatcher ChannelDispatcher  // optional
	logger     logger.Logger
}

// NewEngine wires the delivery engine. store, directory and dispatcher may
// be nil; the corresponding side effects are skipped.
func NewEngine(registry *Registry, queue *PendingQueue, store HistoryStore, directory RecipientDirectory, dispatcher ChannelDispatcher, log logger.Logger) *Engine {
	return &Engine{
		registry:   registry,
		queue:      queue,
		store:      store,
		directory:  directory,
		dispatcher: dispatcher,
		logger:     log.WithFields(map[string]interface{}{"component": "delivery"}),
	}
}

// Registry exposes the engine's registry to the transport layer.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Queue exposes the engine's pending queue to the supervisor.
func (e *Engine) Queue() *PendingQueue {
	return e.queue
}

func (e *Engine) newNotification(input models.Input) *models.Notification {
	return &models.Notification{
		ID:         uuid.New().String(),
		UserID:     input.UserID,
		Type:       input.Type,
		Title:      input.Title,
		Message:    input.Message,
		Payload:    input.Payload,
		Priority:   input.Priority,
		CreatedAt:  time.Now().UTC(),
		Season:     input.Season,
		RelatedIDs: input.RelatedIDs,
		ActionURL:  input.ActionURL,
	}
}

// SendToUser constructs a notification and delivers it to every live
// connection of the target user, or enqueues it exactly once when the user
// is offline. Write failures are logged per connection and never surface to
// the caller; partial delivery across a user's devices is acceptable.
func (e *Engine) SendToUser(ctx context.Context, input models.Input) *models.Notification {
	start := time.Now()
	n := e.newNotification(input)

	e.persist(ctx, n)

	conns := e.registry.FindByUser(n.UserID)
	if len(conns) == 0 {
		e.queue.Enqueue(n.UserID, n)
		e.dispatchExternal(n)
		metrics.FanoutDuration.WithLabelValues("targeted").Observe(time.Since(start).Seconds())
		return n
	}

	e.deliver(n, conns, "targeted")
	metrics.FanoutDuration.WithLabelValues("targeted").Observe(time.Since(start).Seconds())
	return n
}

// Broadcast constructs one logical notification and delivers a per-recipient
// copy to every live connection whose metadata satisfies the predicate.
// Broadcasts are point-in-time: never queued for offline users, never
// persisted, no I/O beyond the socket writes.
func (e *Engine) Broadcast(input models.Input, predicate Predicate) int {
	start := time.Now()
	base := e.newNotification(input)

	delivered := 0
	for _, conn := range e.registry.Snapshot() {
		if predicate != nil && !predicate(conn.Metadata()) {
			continue
		}

		copied := *base
		copied.UserID = conn.UserID
		if err := conn.Channel().Send(&OutboundMessage{
			Type:         MessageNotification,
			Notification: &copied,
			Timestamp:    time.Now().UTC(),
		}); err != nil {
			metrics.DeliveryFailures.WithLabelValues("broadcast").Inc()
			e.logger.Warn("broadcast write failed", map[string]interface{}{
				"connectionId":   conn.ID,
				"userId":         conn.UserID,
				"notificationId": base.ID,
				"error":          err.Error(),
			})
			continue
		}
		delivered++
		metrics.NotificationsDelivered.WithLabelValues(string(base.Type), "broadcast").Inc()
	}

	metrics.FanoutDuration.WithLabelValues("broadcast").Observe(time.Since(start).Seconds())
	return delivered
}

// FlushUser drains the user's pending queue and delivers every entry, in
// original insertion order, to all of the user's live connections. A user
// with no live connection is left untouched. Returns the number of drained
// notifications.
func (e *Engine) FlushUser(userID string) int {
	conns := e.registry.FindByUser(userID)
	if len(conns) == 0 {
		return 0
	}

	pending := e.queue.Drain(userID)
	for _, n := range pending {
		e.deliver(n, conns, "flush")
	}
	return len(pending)
}

// MarkRead forwards a read-state change to the history store.
func (e *Engine) MarkRead(ctx context.Context, notificationID, userID string) error {
	if e.store == nil {
		return nil
	}
	return e.store.MarkRead(ctx, notificationID, userID)
}

func (e *Engine) deliver(n *models.Notification, conns []*Connection, path string) {
	msg := &OutboundMessage{
		Type:         MessageNotification,
		Notification: n,
		Timestamp:    time.Now().UTC(),
	}
	for _, conn := range conns {
		if err := conn.Channel().Send(msg); err != nil {
			metrics.DeliveryFailures.WithLabelValues(path).Inc()
			serr := errors.NewDeliveryWriteFailedError(conn.ID, err)
			e.logger.Warn("notification write failed", map[string]interface{}{
				"userId":         conn.UserID,
				"notificationId": n.ID,
				"error":          serr.Error(),
				"details":        serr.Details,
			})
			continue
		}
		metrics.NotificationsDelivered.WithLabelValues(string(n.Type), path).Inc()
	}
}

func (e *Engine) persist(ctx context.Context, n *models.Notification) {
	if e.store == nil {
		return
	}
	if err := e.store.InsertNotification(ctx, n); err != nil {
		serr := errors.NewPersistenceFailedError(err)
		e.logger.Error("history store insert failed", map[string]interface{}{
			"notificationId": n.ID,
			"userId":         n.UserID,
			"error":          serr.Error(),
			"retryable":      serr.Retryable,
		})
	}
}

// dispatchExternal pushes offline high-priority notifications to email/SMS
// in the background. The in-app copy is already queued; channel failures are
// logged inside the dispatcher.
func (e *Engine) dispatchExternal(n *models.Notification) {
	if e.dispatcher == nil || e.directory == nil || n.Priority < models.PriorityHigh {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		identity, err := e.directory.Recipient(ctx, n.UserID)
		if err != nil {
			e.logger.Warn("recipient lookup failed", map[string]interface{}{
				"userId":         n.UserID,
				"notificationId": n.ID,
				"error":          err.Error(),
			})
			return
		}
		e.dispatcher.Dispatch(ctx, identity, n)
	}()
}
