// internal/models/notification.go
package models

import "time"

// NotificationType is the closed set of notification categories.
type NotificationType string

const (
	TypeOrderUpdate     NotificationType = "ORDER_UPDATE"
	TypeInventoryChange NotificationType = "INVENTORY_CHANGE"
	TypeListingUpdate   NotificationType = "LISTING_UPDATE"
	TypeSeasonalAlert   NotificationType = "SEASONAL_ALERT"
	TypeOrderReady      NotificationType = "ORDER_READY"
	TypeWeatherAlert    NotificationType = "WEATHER_ALERT"
	TypePriceChange     NotificationType = "PRICE_CHANGE"
)

// Priority orders notifications for UI treatment only. Delivery order is
// always creation order, never priority order.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	case PriorityUrgent:
		return "URGENT"
	}
	return "MEDIUM"
}

// ParsePriority maps a wire string to a Priority, defaulting to MEDIUM.
func ParsePriority(s string) Priority {
	switch s {
	case "LOW":
		return PriorityLow
	case "HIGH":
		return PriorityHigh
	case "URGENT":
		return PriorityUrgent
	default:
		return PriorityMedium
	}
}

// MarshalJSON emits the symbolic name rather than the ordinal.
func (p Priority) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON accepts the symbolic names used on the wire.
func (p *Priority) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	*p = ParsePriority(s)
	return nil
}

// Season tags seasonal alerts with the growing-season quarter.
type Season string

const (
	SeasonSpring Season = "SPRING"
	SeasonSummer Season = "SUMMER"
	SeasonFall   Season = "FALL"
	SeasonWinter Season = "WINTER"
)

// SeasonAt derives the season from a wall-clock instant.
func SeasonAt(t time.Time) Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	case time.September, time.October, time.November:
		return SeasonFall
	default:
		return SeasonWinter
	}
}

// Notification is one unit of information destined for zero, one or many
// users. ID, type and CreatedAt are immutable after creation; only the read
// flag mutates, and read-state lives in the history store.
type Notification struct {
	ID         string                 `json:"id"`
	UserID     string                 `json:"userId,omitempty"`
	Type       NotificationType       `json:"type"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Priority   Priority               `json:"priority"`
	CreatedAt  time.Time              `json:"createdAt"`
	Read       bool                   `json:"read"`
	Season     Season                 `json:"season,omitempty"`
	RelatedIDs []string               `json:"relatedIds,omitempty"`
	ActionURL  string                 `json:"actionUrl,omitempty"`
}

// Input carries the caller-supplied fields of a notification. The engine
// stamps id, timestamp and (for broadcasts) the recipient.
type Input struct {
	UserID     string                 `json:"userId,omitempty"`
	Type       NotificationType       `json:"type"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Priority   Priority               `json:"priority"`
	Season     Season                 `json:"season,omitempty"`
	RelatedIDs []string               `json:"relatedIds,omitempty"`
	ActionURL  string                 `json:"actionUrl,omitempty"`
}
