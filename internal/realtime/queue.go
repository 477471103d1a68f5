// internal/realtime/queue.go
package realtime

import (
	"sync"

	"farmstand-realtime/internal/common/metrics"
	"farmstand-realtime/internal/models"
)

// PendingQueue buffers notifications for users with no live connection.
// Entries are per-user, insertion-ordered and bounded: beyond the cap the
// oldest entry is evicted, never the newest. There is deliberately no peek;
// entries are either delivered or evicted.
type PendingQueue struct {
	mu     sync.Mutex
	cap    int
	byUser map[string][]*models.Notification
}

// NewPendingQueue creates a queue with the given per-user cap.
func NewPendingQueue(cap int) *PendingQueue {
	if cap <= 0 {
		cap = 100
	}
	return &PendingQueue{
		cap:    cap,
		byUser: make(map[string][]*models.Notification),
	}
}

// Enqueue appends a notification to the user's buffer, evicting the oldest
// entry first when the buffer would exceed the cap. Returns the number of
// evicted entries (0 or 1).
func (q *PendingQueue) Enqueue(userID string, n *models.Notification) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	buf := append(q.byUser[userID], n)
	evicted := 0
	if len(buf) > q.cap {
		evicted = len(buf) - q.cap
		buf = buf[evicted:]
		metrics.NotificationsEvicted.Add(float64(evicted))
	}
	q.byUser[userID] = buf
	metrics.NotificationsQueued.WithLabelValues(string(n.Type)).Inc()
	return evicted
}

// Drain returns and removes all queued notifications for a user in original
// insertion order (oldest first). Delivery order is creation order; priority
// never reorders the queue.
func (q *PendingQueue) Drain(userID string) []*models.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	buf, ok := q.byUser[userID]
	if !ok {
		return nil
	}
	delete(q.byUser, userID)
	return buf
}

// UsersWithPending lists users that currently have a non-empty buffer.
func (q *PendingQueue) UsersWithPending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]string, 0, len(q.byUser))
	for userID := range q.byUser {
		out = append(out, userID)
	}
	return out
}

// Len returns the buffer length for one user.
func (q *PendingQueue) Len(userID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.byUser[userID])
}
