package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeDuelWs/internal/modules/race/application/port"
	"codeDuelWs/internal/modules/race/domain"
	"codeDuelWs/internal/shared/syncx"
)

// RaceUseCase is the dispatcher core: it resolves sessions through the
// registry, applies one mutation, and broadcasts the resulting messages.
// Mutation and broadcast run under a per-room lock so subscribers observe
// broadcasts in exactly the order the mutations were applied; unrelated
// rooms proceed without contention.
type RaceUseCase struct {
	registry    *domain.Registry
	rooms       *syncx.KeyedMutex
	broadcastUC *BroadcastUseCase
	texts       domain.TextSupplier
	sink        port.RaceEventSink
	now         func() time.Time
}

func NewRaceUseCase(registry *domain.Registry, broadcastUC *BroadcastUseCase, texts domain.TextSupplier, sink port.RaceEventSink) *RaceUseCase {
	return &RaceUseCase{
		registry:    registry,
		rooms:       syncx.NewKeyedMutex(),
		broadcastUC: broadcastUC,
		texts:       texts,
		sink:        sink,
		now:         time.Now,
	}
}

// Registry exposes the session table for read-only transports.
func (uc *RaceUseCase) Registry() *domain.Registry { return uc.registry }

// Join binds connID to the requested room, creating the session on first
// join. subscribe is invoked after the roster mutation succeeds and before
// any broadcast, so the joiner receives its own room_update. Filling the
// second slot additionally emits game_start.
func (uc *RaceUseCase) Join(ctx context.Context, connID string, cmd domain.JoinRoomCommand, subscribe func(roomID string)) (domain.Snapshot, error) {
	roomID := domain.NormalizeRoomID(cmd.RoomID)
	username := strings.TrimSpace(cmd.Username)
	if roomID == "" {
		return domain.Snapshot{}, fmt.Errorf("%w: missing roomId", domain.ErrInvalidMessage)
	}
	if username == "" {
		return domain.Snapshot{}, fmt.Errorf("%w: missing username", domain.ErrInvalidMessage)
	}

	unlock := uc.rooms.Lock(roomID)
	defer unlock()

	session := uc.registry.GetOrCreate(roomID, uc.texts)
	result, err := session.Join(connID, username)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if subscribe != nil {
		subscribe(roomID)
	}

	slog.Info("player joined", slog.String("roomId", roomID), slog.String("connId", connID), slog.String("username", username), slog.Bool("started", result.Started))
	at := uc.now()
	uc.broadcastUC.Execute(ctx, roomID, domain.BuildRoomUpdate(result.Snapshot, at))
	if result.Started {
		uc.broadcastUC.Execute(ctx, roomID, domain.BuildGameStart(result.Snapshot, at))
		uc.recordStarted(ctx, roomID, result.Snapshot.Players, at)
	}
	return result.Snapshot, nil
}

// ReportProgress records one self-reported progress update and broadcasts
// player_update to the room. Reports for unknown rooms, rooms that are not
// racing, or connections with no bound player are ignored without error;
// a leave racing a late report is expected, not exceptional.
func (uc *RaceUseCase) ReportProgress(ctx context.Context, connID string, cmd domain.TypeProgressCommand) error {
	roomID := domain.NormalizeRoomID(cmd.RoomID)
	if roomID == "" {
		return fmt.Errorf("%w: missing roomId", domain.ErrInvalidMessage)
	}

	unlock := uc.rooms.Lock(roomID)
	defer unlock()

	session, ok := uc.registry.Get(roomID)
	if !ok {
		slog.Debug("progress for unknown room ignored", slog.String("roomId", roomID), slog.String("connId", connID))
		return nil
	}
	result := session.ReportProgress(connID, cmd.Progress, cmd.WPM)
	if !result.Accepted {
		return nil
	}

	at := uc.now()
	uc.broadcastUC.Execute(ctx, roomID, domain.BuildPlayerUpdate(result.Players, at))
	if result.Finished {
		slog.Info("race finished", slog.String("roomId", roomID), slog.String("winner", result.Winner))
		uc.broadcastUC.Execute(ctx, roomID, domain.BuildGameOver(result.Winner, at))
		uc.recordFinished(ctx, roomID, result.Players, result.Winner, at)
	}
	return nil
}

// Restart resets the room and starts a fresh race with a newly drawn text.
func (uc *RaceUseCase) Restart(ctx context.Context, cmd domain.RestartGameCommand) error {
	roomID := domain.NormalizeRoomID(cmd.RoomID)
	if roomID == "" {
		return fmt.Errorf("%w: missing roomId", domain.ErrInvalidMessage)
	}

	unlock := uc.rooms.Lock(roomID)
	defer unlock()

	session, ok := uc.registry.Get(roomID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	result := session.Restart(uc.texts)

	slog.Info("race restarted", slog.String("roomId", roomID))
	at := uc.now()
	uc.broadcastUC.Execute(ctx, roomID, domain.BuildGameStart(result.Snapshot, at))
	uc.recordStarted(ctx, roomID, result.Snapshot.Players, at)
	return nil
}

// Leave removes connID from its room on disconnect. Dropping the roster
// from two to one cancels any running or finished race; dropping it to zero
// tears the session down immediately.
func (uc *RaceUseCase) Leave(ctx context.Context, connID, roomID string) {
	roomID = domain.NormalizeRoomID(roomID)
	if roomID == "" {
		return
	}

	unlock := uc.rooms.Lock(roomID)
	defer unlock()

	session, ok := uc.registry.Get(roomID)
	if !ok {
		return
	}
	result := session.Leave(connID)
	if !result.Removed {
		return
	}

	slog.Info("player left", slog.String("roomId", roomID), slog.String("connId", connID), slog.Bool("empty", result.Empty))
	uc.broadcastUC.Execute(ctx, roomID, domain.BuildRoomUpdate(result.Snapshot, uc.now()))
	if result.Empty {
		uc.registry.RemoveIfEmpty(roomID)
	}
}

func (uc *RaceUseCase) recordStarted(ctx context.Context, roomID string, players []domain.Player, at time.Time) {
	if uc.sink == nil {
		return
	}
	uc.sink.RaceStarted(ctx, port.RaceEvent{RoomID: roomID, Players: players, At: at})
}

func (uc *RaceUseCase) recordFinished(ctx context.Context, roomID string, players []domain.Player, winner string, at time.Time) {
	if uc.sink == nil {
		return
	}
	uc.sink.RaceFinished(ctx, port.RaceEvent{RoomID: roomID, Players: players, Winner: winner, At: at})
}
