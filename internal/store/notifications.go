// internal/store/notifications.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"farmstand-realtime/internal/models"

	"github.com/lib/pq"
)

// PostgresHistoryStore is the durable persistence collaborator: each
// targeted notification and each read-state change is recorded here. The
// gateway does not own the schema; the marketplace application reads this
// table for its notification center.
type PostgresHistoryStore struct {
	db *sql.DB
}

// NewPostgresHistoryStore wraps an open database handle.
func NewPostgresHistoryStore(db *sql.DB) *PostgresHistoryStore {
	return &PostgresHistoryStore{db: db}
}

// InsertNotification records a notification for later retrieval. Broadcast
// copies are never passed here; only targeted sends are durable.
func (s *PostgresHistoryStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `INSERT INTO notifications
		(id, user_id, type, title, message, payload, priority, season, related_ids, action_url, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = s.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		string(n.Type),
		n.Title,
		n.Message,
		payload,
		n.Priority.String(),
		string(n.Season),
		pq.Array(n.RelatedIDs),
		n.ActionURL,
		n.Read,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification %s: %w", n.ID, err)
	}
	return nil
}

// MarkRead flips the read flag for one notification owned by userID. Marking
// an already-read or unknown notification is a no-op, not an error.
func (s *PostgresHistoryStore) MarkRead(ctx context.Context, notificationID, userID string) error {
	query := `UPDATE notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_read = FALSE`

	_, err := s.db.ExecContext(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", notificationID, err)
	}
	return nil
}
