package port

import (
	"context"
	"time"

	"codeDuelWs/internal/modules/race/domain"
)

// RaceEvent describes one race lifecycle transition for downstream
// consumers (analytics, history). Winner is empty on start events.
type RaceEvent struct {
	RoomID  string          `json:"roomId"`
	Players []domain.Player `json:"players"`
	Winner  string          `json:"winner,omitempty"`
	At      time.Time       `json:"at"`
}

// RaceEventSink receives race lifecycle events. Implementations must never
// block the race flow; delivery is best effort.
type RaceEventSink interface {
	RaceStarted(ctx context.Context, event RaceEvent)
	RaceFinished(ctx context.Context, event RaceEvent)
}
