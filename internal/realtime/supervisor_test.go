// internal/realtime/supervisor_test.go
package realtime

import (
	"context"
	"testing"
	"time"

	"farmstand-realtime/internal/common/logger"
	"farmstand-realtime/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSupervisor(e *Engine) *Supervisor {
	return NewSupervisor(e, 30*time.Second, 5*time.Second, 60*time.Second, logger.NewNoOpLogger())
}

func TestHeartbeatSweepProbesHealthyConnections(t *testing.T) {
	e := newTestEngine(t, nil)
	_, ch := admit(t, e.Registry(), "conn-1", "user-1", models.RoleConsumer)

	newTestSupervisor(e).HeartbeatSweep()

	assert.Equal(t, 1, ch.pings)
	assert.Equal(t, 1, e.Registry().Len())
}

func TestHeartbeatSweepReclaimsClosedChannel(t *testing.T) {
	e := newTestEngine(t, nil)
	_, ch := admit(t, e.Registry(), "conn-1", "user-1", models.RoleConsumer)
	ch.closed = true

	newTestSupervisor(e).HeartbeatSweep()

	assert.Equal(t, 0, e.Registry().Len())
	assert.Nil(t, e.Registry().FindByUser("user-1"))
}

func TestHeartbeatSweepReclaimsFailedProbe(t *testing.T) {
	e := newTestEngine(t, nil)
	_, ch := admit(t, e.Registry(), "conn-1", "user-1", models.RoleConsumer)
	ch.pingErr = errWriteFailed

	newTestSupervisor(e).HeartbeatSweep()

	assert.Equal(t, 0, e.Registry().Len())
}

func TestHeartbeatSweepClosesSilentConnections(t *testing.T) {
	e := newTestEngine(t, nil)
	conn, ch := admit(t, e.Registry(), "conn-1", "user-1", models.RoleConsumer)

	// Simulate a client silent for longer than the timeout.
	conn.mu.Lock()
	conn.lastActivityAt = time.Now().Add(-2 * time.Minute)
	conn.mu.Unlock()

	newTestSupervisor(e).HeartbeatSweep()

	assert.Equal(t, 0, e.Registry().Len())
	assert.False(t, ch.Open())
	assert.Equal(t, "connection timeout", ch.closeMsg)
}

func TestHeartbeatSweepSilentDropThenRedelivery(t *testing.T) {
	e := newTestEngine(t, nil)
	_, ch := admit(t, e.Registry(), "conn-1", "user-1", models.RoleConsumer)

	// The transport dies without a close frame.
	ch.closed = true
	newTestSupervisor(e).HeartbeatSweep()
	require.Equal(t, 0, e.Registry().Len())

	// The user now counts as offline, so the next send is queued.
	e.SendToUser(context.Background(), orderInput("user-1"))
	assert.Equal(t, 1, e.Queue().Len("user-1"))

	// Reconnect and flush: the message arrives on the new device.
	_, fresh := admit(t, e.Registry(), "conn-2", "user-1", models.RoleConsumer)
	newTestSupervisor(e).FlushSweep()
	assert.Len(t, fresh.notifications(), 1)
}

func TestFlushSweepDrainsExactlyOnce(t *testing.T) {
	e := newTestEngine(t, nil)
	e.SendToUser(context.Background(), orderInput("user-1"))
	e.SendToUser(context.Background(), orderInput("user-1"))

	_, ch := admit(t, e.Registry(), "conn-1", "user-1", models.RoleConsumer)

	s := newTestSupervisor(e)
	s.FlushSweep()
	s.FlushSweep() // second pass must find nothing

	assert.Len(t, ch.notifications(), 2)
	assert.Equal(t, 0, e.Queue().Len("user-1"))
}

func TestFlushSweepLeavesOfflineUsersQueued(t *testing.T) {
	e := newTestEngine(t, nil)
	e.SendToUser(context.Background(), orderInput("offline-user"))
	e.SendToUser(context.Background(), orderInput("online-user"))
	_, ch := admit(t, e.Registry(), "conn-1", "online-user", models.RoleConsumer)

	newTestSupervisor(e).FlushSweep()

	assert.Len(t, ch.notifications(), 1)
	assert.Equal(t, 1, e.Queue().Len("offline-user"))
}

func TestSupervisorRunStopsOnContextCancel(t *testing.T) {
	e := newTestEngine(t, nil)
	s := NewSupervisor(e, 10*time.Millisecond, 10*time.Millisecond, time.Minute, logger.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop after cancel")
	}
}
