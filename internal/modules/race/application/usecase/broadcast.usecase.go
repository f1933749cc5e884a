package usecase

import (
	"context"

	"codeDuelWs/internal/modules/race/application/port"
	"codeDuelWs/internal/modules/race/domain"
)

type BroadcastUseCase struct {
	broadcaster port.Broadcaster
}

func NewBroadcastUseCase(b port.Broadcaster) *BroadcastUseCase {
	return &BroadcastUseCase{broadcaster: b}
}

func (uc *BroadcastUseCase) Execute(ctx context.Context, roomID string, msg *domain.Message) {
	uc.broadcaster.Broadcast(ctx, roomID, msg)
}
