// internal/realtime/emitter_test.go
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

func TestEmitOnceReachesOnlyAudienceRole(t *testing.T) {
	e := newTestEngine(t, nil)
	_, consumer := admit(t, e.Registry(), "conn-1", "consumer-1", models.RoleConsumer)
	_, farmer := admit(t, e.Registry(), "conn-2", "farmer-1", models.RoleFarmer)

	emitter := NewSeasonalEmitter(e, time.Hour, models.RoleConsumer, logger.NewNoOpLogger())
	delivered := emitter.EmitOnce()

	assert.Equal(t, 1, delivered)
	require.Len(t, consumer.notifications(), 1)
	assert.Empty(t, farmer.notifications())

	n := consumer.notifications()[0]
	assert.Equal(t, models.TypeSeasonalAlert, n.Type)
	assert.Equal(t, "consumer-1", n.UserID)
}

func TestEmitOnceDerivesSeasonFromClock(t *testing.T) {
	cases := []struct {
		month time.Month
		want  models.Season
	}{
		{time.April, models.SeasonSpring},
		{time.July, models.SeasonSummer},
		{time.October, models.SeasonFall},
		{time.January, models.SeasonWinter},
		{time.December, models.SeasonWinter},
	}

	for _, tc := range cases {
		e := newTestEngine(t, nil)
		_, ch := admit(t, e.Registry(), "conn-1", "user-1", models.RoleConsumer)

		emitter := NewSeasonalEmitter(e, time.Hour, models.RoleConsumer, logger.NewNoOpLogger())
		emitter.now = func() time.Time {
			return time.Date(2026, tc.month, 15, 12, 0, 0, 0, time.UTC)
		}
		emitter.EmitOnce()

		require.Len(t, ch.notifications(), 1, "month %s", tc.month)
		n := ch.notifications()[0]
		assert.Equal(t, tc.want, n.Season, "month %s", tc.month)
		assert.Equal(t, string(tc.want), n.Payload["season"], "month %s", tc.month)
	}
}

func TestEmitOnceEmptyRegistry(t *testing.T) {
	e := newTestEngine(t, nil)
	emitter := NewSeasonalEmitter(e, time.Hour, models.RoleConsumer, logger.NewNoOpLogger())

	assert.Equal(t, 0, emitter.EmitOnce())
	// Point-in-time: nothing buffered for whoever connects later.
	assert.Empty(t, e.Queue().UsersWithPending())
}

func TestEmitterRunStopsOnCancel(t *testing.T) {
	e := newTestEngine(t, nil)
	emitter := NewSeasonalEmitter(e, 10*time.Millisecond, models.RoleConsumer, logger.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		emitter.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emitter did not stop after cancel")
	}
}
