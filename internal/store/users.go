// internal/store/users.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	"farmstand-realtime/internal/models"
)

// PostgresUserDirectory resolves user ids to contact details and channel
// preferences for the external email/SMS fallback.
type PostgresUserDirectory struct {
	db *sql.DB
}

// NewPostgresUserDirectory wraps an open database handle.
func NewPostgresUserDirectory(db *sql.DB) *PostgresUserDirectory {
	return &PostgresUserDirectory{db: db}
}

// Recipient fetches contact details for userID. A missing user is an error;
// callers treat it as "skip external channels", not as a delivery failure.
func (d *PostgresUserDirectory) Recipient(ctx context.Context, userID string) (*models.Identity, error) {
	query := `SELECT u.email, COALESCE(u.phone, ''), u.role,
		COALESCE(p.email_enabled, TRUE), COALESCE(p.sms_enabled, FALSE)
		FROM users u
		LEFT JOIN notification_preferences p ON p.user_id = u.id
		WHERE u.id = $1`

	identity := &models.Identity{UserID: userID}
	var role string
	err := d.db.QueryRowContext(ctx, query, userID).Scan(
		&identity.Email,
		&identity.Phone,
		&role,
		&identity.Preferences.EmailEnabled,
		&identity.Preferences.SMSEnabled,
	)
	if err != nil {
		return nil, fmt.Errorf("lookup recipient %s: %w", userID, err)
	}
	identity.Role = models.UserRole(role)
	return identity, nil
}
