// internal/realtime/supervisor.go
package realtime

import (
	"context"
	"time"

	"farmstand-realtime/internal/common/logger"
	"farmstand-realtime/internal/common/metrics"
)

// Supervisor runs the two reconciliation sweeps: a heartbeat sweep that
// probes every connection and reclaims dead ones, and a queue-flush sweep
// that promotes queued notifications to live delivery once their recipient
// reconnects. The sweeps run on independent tickers and may interleave
// arbitrarily with user-triggered sends; registry and queue operations never
// assume a sweep has or hasn't run.
type Supervisor struct {
	engine        *Engine
	heartbeat     time.Duration
	queueFlush    time.Duration
	clientTimeout time.Duration
	logger        logger.Logger
}

// NewSupervisor configures the sweeps. clientTimeout bounds how long a
// connection may go without any client activity before it is closed even if
// the transport still reports open.
func NewSupervisor(engine *Engine, heartbeat, queueFlush, clientTimeout time.Duration, log logger.Logger) *Supervisor {
	return &Supervisor{
		engine:        engine,
		heartbeat:     heartbeat,
		queueFlush:    queueFlush,
		clientTimeout: clientTimeout,
		logger:        log.WithFields(map[string]interface{}{"component": "supervisor"}),
	}
}

// Run starts both sweep loops and blocks until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	heartbeatTicker := time.NewTicker(s.heartbeat)
	flushTicker := time.NewTicker(s.queueFlush)
	defer heartbeatTicker.Stop()
	defer flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeatTicker.C:
			s.HeartbeatSweep()
		case <-flushTicker.C:
			s.FlushSweep()
		}
	}
}

// HeartbeatSweep probes every registered connection. A connection whose
// channel reports closed, whose probe write fails, or whose client has been
// silent past the timeout is removed from the registry. This is the only
// path by which a silently-dropped connection is reclaimed; staleness is
// bounded by one sweep interval.
func (s *Supervisor) HeartbeatSweep() {
	start := time.Now()
	reclaimed := 0
	cutoff := time.Now().Add(-s.clientTimeout)

	for _, conn := range s.engine.Registry().Snapshot() {
		ch := conn.Channel()

		if !ch.Open() {
			s.engine.Registry().Remove(conn.ID)
			reclaimed++
			continue
		}

		if conn.LastActivity().Before(cutoff) {
			_ = ch.Close("connection timeout")
			s.engine.Registry().Remove(conn.ID)
			reclaimed++
			s.logger.Info("closed inactive connection", map[string]interface{}{
				"connectionId": conn.ID,
				"userId":       conn.UserID,
			})
			continue
		}

		if err := ch.Ping(); err != nil {
			s.engine.Registry().Remove(conn.ID)
			reclaimed++
			s.logger.Debug("heartbeat probe failed", map[string]interface{}{
				"connectionId": conn.ID,
				"userId":       conn.UserID,
				"error":        err.Error(),
			})
		}
	}

	if reclaimed > 0 {
		metrics.ConnectionsReclaimed.Add(float64(reclaimed))
		metrics.ConnectionsActive.Set(float64(s.engine.Registry().Len()))
	}
	metrics.SweepDuration.WithLabelValues("heartbeat").Observe(time.Since(start).Seconds())
}

// FlushSweep delivers queued notifications to every user that has
// reconnected since their notifications were buffered. Users still offline
// are left queued.
func (s *Supervisor) FlushSweep() {
	start := time.Now()

	for _, userID := range s.engine.Queue().UsersWithPending() {
		if flushed := s.engine.FlushUser(userID); flushed > 0 {
			s.logger.Info("flushed pending notifications", map[string]interface{}{
				"userId": userID,
				"count":  flushed,
			})
		}
	}

	metrics.SweepDuration.WithLabelValues("queue_flush").Observe(time.Since(start).Seconds())
}
