// internal/realtime/ws/handler.go
package ws

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"farmstand-realtime/internal/common/auth"
	"farmstand-realtime/internal/common/config"
	"farmstand-realtime/internal/common/errors"
	"farmstand-realtime/internal/common/logger"
	"farmstand-realtime/internal/common/metrics"
	"farmstand-realtime/internal/common/ratelimit"
	"farmstand-realtime/internal/realtime"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const maxMessageSize = 4096

// Handler upgrades HTTP requests to WebSocket connections, resolves the
// handshake token through the identity collaborator and admits the
// connection into the registry.
type Handler struct {
	resolver auth.Resolver
	engine   *realtime.Engine
	limiter  *ratelimit.Limiter
	logger   logger.Logger
	upgrader websocket.Upgrader
}

// NewHandler wires the transport layer.
func NewHandler(cfg config.RealtimeConfig, resolver auth.Resolver, engine *realtime.Engine, log logger.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		engine:   engine,
		limiter:  ratelimit.New(cfg.MessageRate, cfg.MessageBurst, time.Duration(cfg.ClientTimeout)*time.Second),
		logger:   log.WithFields(map[string]interface{}{"component": "ws"}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The marketplace frontend and the gateway share an origin in
			// production; cross-origin policy is enforced upstream.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	// Reap limiter buckets left behind by connections that never cleaned up.
	h.limiter.Cleanup()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	ch := newWSChannel(conn)

	identity, err := h.resolver.Resolve(r.Context(), token)
	if err != nil {
		code := CloseUnauthorized
		if stderrors.Is(err, &errors.StandardError{Code: errors.ErrCodeMissingToken}) {
			code = CloseMissingToken
		}
		h.logger.Warn("admission refused", map[string]interface{}{
			"error":      err.Error(),
			"remoteAddr": r.RemoteAddr,
		})
		_ = ch.closeWithCode(code, "admission refused")
		return
	}

	c := realtime.NewConnection(uuid.New().String(), identity, ch)
	if err := h.engine.Registry().Admit(c); err != nil {
		h.logger.Warn("admission failed", map[string]interface{}{
			"connectionId": c.ID,
			"userId":       identity.UserID,
			"error":        err.Error(),
		})
		ch.markDead()
		return
	}
	metrics.ConnectionsActive.Set(float64(h.engine.Registry().Len()))

	h.logger.Info("client connected", map[string]interface{}{
		"connectionId": c.ID,
		"userId":       identity.UserID,
		"role":         string(identity.Role),
		"total":        h.engine.Registry().Len(),
	})

	if err := ch.Send(&realtime.OutboundMessage{
		Type:      realtime.MessageConnected,
		Message:   "Connected to marketplace notifications",
		Timestamp: time.Now().UTC(),
	}); err != nil {
		h.dropConnection(c, ch)
		return
	}

	// Anything buffered while the user was offline goes out immediately;
	// the queue-flush sweep is only the backstop.
	h.engine.FlushUser(identity.UserID)

	go h.readLoop(c, ch)
}

func (h *Handler) readLoop(c *realtime.Connection, ch *wsChannel) {
	defer h.dropConnection(c, ch)

	ch.conn.SetReadLimit(maxMessageSize)
	ch.conn.SetPongHandler(func(string) error {
		c.Touch()
		return nil
	})

	for {
		_, raw, err := ch.conn.ReadMessage()
		if err != nil {
			return
		}
		c.Touch()

		if !h.limiter.Allow(c.ID) {
			metrics.MessagesRejected.WithLabelValues("rate_limited").Inc()
			h.logger.Warn("message rate limit exceeded", map[string]interface{}{
				"userId": c.UserID,
				"error":  errors.NewRateLimitedError(c.ID).Error(),
			})
			continue
		}

		if err := validateInbound(raw); err != nil {
			metrics.MessagesRejected.WithLabelValues("malformed").Inc()
			h.logger.Warn("ignoring malformed message", map[string]interface{}{
				"connectionId": c.ID,
				"userId":       c.UserID,
				"error":        errors.NewMalformedMessageError(err.Error()).Error(),
			})
			continue
		}

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			metrics.MessagesRejected.WithLabelValues("malformed").Inc()
			continue
		}

		h.handleMessage(c, ch, &msg)
	}
}

func (h *Handler) handleMessage(c *realtime.Connection, ch *wsChannel, msg *InboundMessage) {
	switch msg.Type {
	case inboundSubscribe:
		h.engine.Registry().UpdateSubscriptions(c.ID, msg.Channels, nil)

	case inboundUnsubscribe:
		h.engine.Registry().UpdateSubscriptions(c.ID, nil, msg.Channels)

	case inboundMarkRead:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.engine.MarkRead(ctx, msg.NotificationID, c.UserID); err != nil {
			h.logger.Error("mark read failed", map[string]interface{}{
				"notificationId": msg.NotificationID,
				"userId":         c.UserID,
				"error":          err.Error(),
			})
		}

	case inboundPing:
		if err := ch.Send(&realtime.OutboundMessage{
			Type:      realtime.MessagePong,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			h.logger.Debug("pong write failed", map[string]interface{}{
				"connectionId": c.ID,
				"error":        err.Error(),
			})
		}

	default:
		// Unknown but schema-valid types cannot happen today; keep the
		// tolerant-reader behavior anyway.
		metrics.MessagesRejected.WithLabelValues("unknown_type").Inc()
	}
}

func (h *Handler) dropConnection(c *realtime.Connection, ch *wsChannel) {
	ch.markDead()
	h.engine.Registry().Remove(c.ID)
	h.limiter.Forget(c.ID)
	metrics.ConnectionsActive.Set(float64(h.engine.Registry().Len()))
	h.logger.Info("client disconnected", map[string]interface{}{
		"connectionId": c.ID,
		"userId":       c.UserID,
		"remaining":    h.engine.Registry().Len(),
	})
}
