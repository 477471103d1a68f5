// internal/store/users_test.go
package store

import (
	"context"
	"testing"

	"farmstand-realtime/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipientLookup(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"email", "phone", "role", "email_enabled", "sms_enabled"}).
		AddRow("farmer@example.com", "+15550001111", "FARMER", true, true)
	mock.ExpectQuery(`SELECT u.email`).
		WithArgs("farmer-1").
		WillReturnRows(rows)

	directory := NewPostgresUserDirectory(db)
	identity, err := directory.Recipient(context.Background(), "farmer-1")
	require.NoError(t, err)

	assert.Equal(t, "farmer-1", identity.UserID)
	assert.Equal(t, models.RoleFarmer, identity.Role)
	assert.Equal(t, "farmer@example.com", identity.Email)
	assert.Equal(t, "+15550001111", identity.Phone)
	assert.True(t, identity.Preferences.EmailEnabled)
	assert.True(t, identity.Preferences.SMSEnabled)
}

func TestRecipientUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT u.email`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone", "role", "email_enabled", "sms_enabled"}))

	directory := NewPostgresUserDirectory(db)
	_, err = directory.Recipient(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup recipient ghost")
}
