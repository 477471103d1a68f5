// internal/realtime/emitter.go
package realtime

import (
	"context"
	"fmt"
	"time"

	"farmstand-realtime/internal/common/logger"
	"farmstand-realtime/internal/models"
)

// SeasonalEmitter originates recurring broadcast notifications tied to the
// growing calendar, independent of any client request. It is a pure timer to
// broadcast bridge: its only state is the clock.
type SeasonalEmitter struct {
	engine   *Engine
	interval time.Duration
	audience models.UserRole
	logger   logger.Logger
	now      func() time.Time
}

// NewSeasonalEmitter builds an emitter broadcasting to connections with the
// given role on a fixed interval.
func NewSeasonalEmitter(engine *Engine, interval time.Duration, audience models.UserRole, log logger.Logger) *SeasonalEmitter {
	return &SeasonalEmitter{
		engine:   engine,
		interval: interval,
		audience: audience,
		logger:   log.WithFields(map[string]interface{}{"component": "seasonal-emitter"}),
		now:      time.Now,
	}
}

// Run fires EmitOnce on every tick until ctx is cancelled.
func (e *SeasonalEmitter) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.EmitOnce()
		}
	}
}

// EmitOnce derives the current season and broadcasts a seasonal alert to the
// configured audience. Returns the number of connections reached.
func (e *SeasonalEmitter) EmitOnce() int {
	season := models.SeasonAt(e.now().UTC())

	delivered := e.engine.Broadcast(models.Input{
		Type:     models.TypeSeasonalAlert,
		Title:    fmt.Sprintf("%s market update", seasonTitle(season)),
		Message:  seasonMessage(season),
		Priority: models.PriorityLow,
		Season:   season,
		Payload: map[string]interface{}{
			"season": string(season),
		},
	}, func(meta Metadata) bool {
		return meta.Role == e.audience
	})

	e.logger.Debug("seasonal alert emitted", map[string]interface{}{
		"season":    string(season),
		"audience":  string(e.audience),
		"delivered": delivered,
	})
	return delivered
}

func seasonTitle(s models.Season) string {
	switch s {
	case models.SeasonSpring:
		return "Spring"
	case models.SeasonSummer:
		return "Summer"
	case models.SeasonFall:
		return "Fall"
	default:
		return "Winter"
	}
}

func seasonMessage(s models.Season) string {
	switch s {
	case models.SeasonSpring:
		return "Spring planting season is here. Update your listings with early produce."
	case models.SeasonSummer:
		return "Peak harvest season. Keep inventory counts fresh for weekend markets."
	case models.SeasonFall:
		return "Fall harvest is underway. Feature storage crops and preserves."
	default:
		return "Winter market season. Highlight greenhouse produce and pantry goods."
	}
}
