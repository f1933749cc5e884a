package port

import (
	"context"

	"codeDuelWs/internal/modules/race/domain"
)

// Broadcaster defines the contract for fanning a message out to every
// WebSocket connection subscribed to a room.
type Broadcaster interface {
	Broadcast(ctx context.Context, roomID string, msg *domain.Message)
}
