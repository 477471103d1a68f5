// internal/models/notification_test.go
package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonAt(t *testing.T) {
	tests := []struct {
		month time.Month
		want  Season
	}{
		{time.March, SeasonSpring},
		{time.May, SeasonSpring},
		{time.June, SeasonSummer},
		{time.August, SeasonSummer},
		{time.September, SeasonFall},
		{time.November, SeasonFall},
		{time.December, SeasonWinter},
		{time.February, SeasonWinter},
	}

	for _, tt := range tests {
		at := time.Date(2026, tt.month, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, tt.want, SeasonAt(at), "month %s", tt.month)
	}
}

func TestPriorityOrdering(t *testing.T) {
	assert.True(t, PriorityLow < PriorityMedium)
	assert.True(t, PriorityMedium < PriorityHigh)
	assert.True(t, PriorityHigh < PriorityUrgent)
}

func TestPriorityWireFormat(t *testing.T) {
	data, err := json.Marshal(PriorityUrgent)
	require.NoError(t, err)
	assert.Equal(t, `"URGENT"`, string(data))

	var p Priority
	require.NoError(t, json.Unmarshal([]byte(`"HIGH"`), &p))
	assert.Equal(t, PriorityHigh, p)

	// Unknown symbols degrade to MEDIUM rather than failing.
	require.NoError(t, json.Unmarshal([]byte(`"SHOUTING"`), &p))
	assert.Equal(t, PriorityMedium, p)
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole("FARMER"))
	assert.True(t, ValidRole("CONSUMER"))
	assert.True(t, ValidRole("ADMIN"))
	assert.False(t, ValidRole("farmer"))
	assert.False(t, ValidRole(""))
	assert.False(t, ValidRole("WHOLESALER"))
}
