// internal/realtime/registry.go
package realtime

import (
	"sync"
	"time"

	"farmstand-realtime/internal/common/errors"
	"farmstand-realtime/internal/models"
)

// Channel is the transport side of one live connection. The WebSocket layer
// provides the real implementation; tests provide fakes.
type Channel interface {
	// Send writes one JSON message. Must be safe for concurrent use.
	Send(v interface{}) error
	// Ping writes a lightweight keep-alive probe.
	Ping() error
	// Open reports whether the underlying transport still considers itself
	// usable.
	Open() bool
	// Close sends a polite close signal and releases the transport.
	Close(reason string) error
}

// Metadata is the immutable-plus-snapshot view of a connection handed to
// broadcast predicates.
type Metadata struct {
	ConnectionID  string
	UserID        string
	Role          models.UserRole
	Subscriptions []string
	Preferences   models.Preferences
}

// Predicate selects broadcast recipients by connection metadata.
type Predicate func(Metadata) bool

// Connection is a single live channel between the server and one client
// instance. A user may hold several at once (tabs, devices). The registry is
// the sole owner; nothing else retains one across a sweep.
type Connection struct {
	ID          string
	UserID      string
	Role        models.UserRole
	Preferences models.Preferences
	ConnectedAt time.Time

	channel Channel

	mu             sync.Mutex
	subscriptions  map[string]struct{}
	lastActivityAt time.Time
}

// NewConnection binds a channel to its admission identity.
func NewConnection(id string, identity *models.Identity, ch Channel) *Connection {
	now := time.Now().UTC()
	return &Connection{
		ID:             id,
		UserID:         identity.UserID,
		Role:           identity.Role,
		Preferences:    identity.Preferences,
		ConnectedAt:    now,
		channel:        ch,
		subscriptions:  make(map[string]struct{}),
		lastActivityAt: now,
	}
}

// Channel returns the transport for this connection.
func (c *Connection) Channel() Channel {
	return c.channel
}

// Touch records client activity.
func (c *Connection) Touch() {
	c.mu.Lock()
	c.lastActivityAt = time.Now().UTC()
	c.mu.Unlock()
}

// LastActivity returns the most recent activity timestamp.
func (c *Connection) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivityAt
}

// Subscribed reports whether the connection subscribed to the named channel.
func (c *Connection) Subscribed(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.subscriptions[name]
	return ok
}

func (c *Connection) updateSubscriptions(add, remove []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range add {
		c.subscriptions[name] = struct{}{}
	}
	for _, name := range remove {
		delete(c.subscriptions, name)
	}
}

// Metadata snapshots the connection for predicate evaluation.
func (c *Connection) Metadata() Metadata {
	c.mu.Lock()
	subs := make([]string, 0, len(c.subscriptions))
	for name := range c.subscriptions {
		subs = append(subs, name)
	}
	c.mu.Unlock()

	return Metadata{
		ConnectionID:  c.ID,
		UserID:        c.UserID,
		Role:          c.Role,
		Subscriptions: subs,
		Preferences:   c.Preferences,
	}
}

// Registry tracks the current set of live connections, indexed by connection
// id and by owning user.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Connection
	byUser map[string]map[string]*Connection
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]*Connection),
		byUser: make(map[string]map[string]*Connection),
	}
}

// Admit registers a connection. It fails only when the underlying channel is
// already closed at admission time. Multiple simultaneous connections per
// user are expected and all of them receive targeted sends.
func (r *Registry) Admit(conn *Connection) error {
	if !conn.channel.Open() {
		return errors.NewConnectionAlreadyClosedError(conn.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[conn.ID] = conn
	userConns, ok := r.byUser[conn.UserID]
	if !ok {
		userConns = make(map[string]*Connection)
		r.byUser[conn.UserID] = userConns
	}
	userConns[conn.ID] = conn
	return nil
}

// Get looks up a connection by id.
func (r *Registry) Get(connectionID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connectionID]
	return conn, ok
}

// FindByUser returns the (possibly empty) set of live connections for a
// user. Never blocks beyond the map read.
func (r *Registry) FindByUser(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userConns := r.byUser[userID]
	if len(userConns) == 0 {
		return nil
	}
	out := make([]*Connection, 0, len(userConns))
	for _, conn := range userConns {
		out = append(out, conn)
	}
	return out
}

// Remove deregisters a connection. Removing an absent id is a no-op.
func (r *Registry) Remove(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connectionID]
	if !ok {
		return
	}
	delete(r.conns, connectionID)

	if userConns, ok := r.byUser[conn.UserID]; ok {
		delete(userConns, connectionID)
		if len(userConns) == 0 {
			delete(r.byUser, conn.UserID)
		}
	}
}

// UpdateSubscriptions mutates the subscription set of a connection. An
// unknown id is a no-op: the connection may have died between client intent
// and server processing.
func (r *Registry) UpdateSubscriptions(connectionID string, add, remove []string) {
	r.mu.RLock()
	conn, ok := r.conns[connectionID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	conn.updateSubscriptions(add, remove)
}

// Snapshot returns every registered connection. Used by sweeps and
// broadcasts; the slice is a copy, the registry keeps ownership of the
// connections.
func (r *Registry) Snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll sends a polite close to every connection and empties the
// registry. Used at shutdown.
func (r *Registry) CloseAll(reason string) {
	r.mu.Lock()
	conns := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.conns = make(map[string]*Connection)
	r.byUser = make(map[string]map[string]*Connection)
	r.mu.Unlock()

	for _, conn := range conns {
		_ = conn.channel.Close(reason)
	}
}
