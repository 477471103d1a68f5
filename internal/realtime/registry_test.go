// internal/realtime/registry_test.go
package realtime

import (
	"errors"
	"sync"
	"testing"

	"farmstand-realtime/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

// fakeChannel records every message written to it. Shared by the tests of
// this package.
type fakeChannel struct {
	mu       sync.Mutex
	sent     []interface{}
	pings    int
	closed   bool
	sendErr  error
	pingErr  error
	closeMsg string
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{}
}

func (f *fakeChannel) Send(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, v)
	return nil
}

func (f *fakeChannel) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeChannel) Open() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeChannel) Close(reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closeMsg = reason
	return nil
}

func (f *fakeChannel) sentMessages() []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]interface{}, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeChannel) notifications() []*models.Notification {
	var out []*models.Notification
	for _, v := range f.sentMessages() {
		if msg, ok := v.(*OutboundMessage); ok && msg.Notification != nil {
			out = append(out, msg.Notification)
		}
	}
	return out
}

// ==========================
// Test Helper Functions
// ==========================

func testIdentity(userID string, role models.UserRole) *models.Identity {
	return &models.Identity{
		UserID: userID,
		Role:   role,
		Email:  userID + "@example.com",
	}
}

func admit(t *testing.T, r *Registry, connID, userID string, role models.UserRole) (*Connection, *fakeChannel) {
	t.Helper()
	ch := newFakeChannel()
	conn := NewConnection(connID, testIdentity(userID, role), ch)
	require.NoError(t, r.Admit(conn))
	return conn, ch
}

// ==========================
// Registry Tests
// ==========================

func TestRegistryAdmitAndGet(t *testing.T) {
	r := NewRegistry()
	conn, _ := admit(t, r, "conn-1", "user-1", models.RoleConsumer)

	got, ok := r.Get("conn-1")
	assert.True(t, ok)
	assert.Equal(t, conn, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryAdmitClosedChannel(t *testing.T) {
	r := NewRegistry()
	ch := newFakeChannel()
	ch.closed = true
	conn := NewConnection("conn-1", testIdentity("user-1", models.RoleConsumer), ch)

	err := r.Admit(conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONNECTION_ALREADY_CLOSED")
	assert.Equal(t, 0, r.Len())
}

func TestRegistryMultipleConnectionsPerUser(t *testing.T) {
	r := NewRegistry()
	admit(t, r, "conn-1", "user-1", models.RoleConsumer)
	admit(t, r, "conn-2", "user-1", models.RoleConsumer)
	admit(t, r, "conn-3", "user-2", models.RoleFarmer)

	conns := r.FindByUser("user-1")
	assert.Len(t, conns, 2)
	assert.Len(t, r.FindByUser("user-2"), 1)
	assert.Nil(t, r.FindByUser("user-3"))
	assert.Equal(t, 3, r.Len())
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	admit(t, r, "conn-1", "user-1", models.RoleConsumer)

	r.Remove("conn-1")
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.FindByUser("user-1"))

	// Removing again, and removing an id that never existed, must be silent.
	r.Remove("conn-1")
	r.Remove("never-existed")
	assert.Equal(t, 0, r.Len())
}

func TestRegistryRemoveKeepsSiblingConnections(t *testing.T) {
	r := NewRegistry()
	admit(t, r, "conn-1", "user-1", models.RoleConsumer)
	admit(t, r, "conn-2", "user-1", models.RoleConsumer)

	r.Remove("conn-1")

	conns := r.FindByUser("user-1")
	require.Len(t, conns, 1)
	assert.Equal(t, "conn-2", conns[0].ID)
}

func TestRegistryUpdateSubscriptions(t *testing.T) {
	r := NewRegistry()
	conn, _ := admit(t, r, "conn-1", "user-1", models.RoleConsumer)

	r.UpdateSubscriptions("conn-1", []string{"orders", "weather"}, nil)
	assert.True(t, conn.Subscribed("orders"))
	assert.True(t, conn.Subscribed("weather"))

	r.UpdateSubscriptions("conn-1", nil, []string{"orders"})
	assert.False(t, conn.Subscribed("orders"))
	assert.True(t, conn.Subscribed("weather"))

	// Removing a channel that was never subscribed is a no-op.
	r.UpdateSubscriptions("conn-1", nil, []string{"not-subscribed"})
	assert.True(t, conn.Subscribed("weather"))
}

func TestRegistryUpdateSubscriptionsUnknownConnection(t *testing.T) {
	r := NewRegistry()
	// Must not panic or create phantom state.
	r.UpdateSubscriptions("ghost", []string{"orders"}, nil)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryCloseAll(t *testing.T) {
	r := NewRegistry()
	_, ch1 := admit(t, r, "conn-1", "user-1", models.RoleConsumer)
	_, ch2 := admit(t, r, "conn-2", "user-2", models.RoleFarmer)

	r.CloseAll("server shutting down")

	assert.Equal(t, 0, r.Len())
	assert.False(t, ch1.Open())
	assert.False(t, ch2.Open())
	assert.Equal(t, "server shutting down", ch1.closeMsg)
	assert.Equal(t, "server shutting down", ch2.closeMsg)
}

func TestConnectionMetadataSnapshot(t *testing.T) {
	identity := testIdentity("user-1", models.RoleFarmer)
	identity.Preferences = models.Preferences{
		FavoriteCategories: []string{"produce"},
	}
	conn := NewConnection("conn-1", identity, newFakeChannel())
	conn.updateSubscriptions([]string{"orders"}, nil)

	meta := conn.Metadata()
	assert.Equal(t, "conn-1", meta.ConnectionID)
	assert.Equal(t, "user-1", meta.UserID)
	assert.Equal(t, models.RoleFarmer, meta.Role)
	assert.Equal(t, []string{"orders"}, meta.Subscriptions)
	assert.Equal(t, []string{"produce"}, meta.Preferences.FavoriteCategories)
}

func TestConnectionTouchAdvancesActivity(t *testing.T) {
	conn := NewConnection("conn-1", testIdentity("user-1", models.RoleConsumer), newFakeChannel())
	before := conn.LastActivity()

	conn.Touch()
	assert.False(t, conn.LastActivity().Before(before))
}

var errWriteFailed = errors.New("write failed")
