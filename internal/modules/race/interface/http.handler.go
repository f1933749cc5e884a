package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"codeDuelWs/internal/modules/race/application/usecase"
	"codeDuelWs/internal/modules/race/domain"
	"codeDuelWs/internal/modules/race/infrastructure"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewWebsocketHandler exposes GET /ws. Every accepted connection gets a
// fresh identifier, a command processor routing the race events, and a
// close hook that turns its disconnect into a leave.
func NewWebsocketHandler(hub *infrastructure.Hub, raceUC *usecase.RaceUseCase, sendBuffer int) func(echo.Context) error {
	if sendBuffer <= 0 {
		sendBuffer = 8
	}

	processor := infrastructure.NewCommandProcessor()
	processor.Register(domain.EventJoinRoom, newJoinRoomHandler(hub, raceUC))
	processor.Register(domain.EventTypeProgress, newTypeProgressHandler(raceUC))
	processor.Register(domain.EventRestartGame, newRestartGameHandler(raceUC))

	return func(c echo.Context) error {
		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Warn("ws upgrade failed", slog.String("ip", c.RealIP()), slog.Any("error", err))
			return err
		}

		client := infrastructure.NewClient(hub, conn, uuid.NewString(), sendBuffer, processor)
		client.AddCloseHook(func(cl *infrastructure.Client) {
			raceUC.Leave(context.Background(), cl.ID(), cl.Room())
		})
		hub.AttachClient(client)

		go client.WritePump()
		go client.ReadPump()

		slog.Info("ws connected", slog.String("connId", client.ID()), slog.String("ip", c.RealIP()))
		return nil
	}
}

func newJoinRoomHandler(hub *infrastructure.Hub, raceUC *usecase.RaceUseCase) infrastructure.CommandHandler {
	return func(ctx context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
		var payload domain.JoinRoomCommand
		if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
			sendCommandError(client, "invalid join_room payload")
			return
		}
		roomID := domain.NormalizeRoomID(payload.RoomID)
		if current := client.Room(); current != "" && current != roomID {
			sendCommandError(client, domain.ErrAlreadyInRoom.Error())
			return
		}
		_, err := raceUC.Join(ctx, client.ID(), payload, func(roomID string) {
			hub.Subscribe(client, roomID)
		})
		if err != nil {
			sendCommandError(client, joinErrorReason(err))
		}
	}
}

func newTypeProgressHandler(raceUC *usecase.RaceUseCase) infrastructure.CommandHandler {
	return func(ctx context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
		var payload domain.TypeProgressCommand
		if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
			sendCommandError(client, "invalid type_progress payload")
			return
		}
		if err := raceUC.ReportProgress(ctx, client.ID(), payload); err != nil {
			sendCommandError(client, err.Error())
		}
	}
}

func newRestartGameHandler(raceUC *usecase.RaceUseCase) infrastructure.CommandHandler {
	return func(ctx context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
		var payload domain.RestartGameCommand
		if err := json.Unmarshal(cmd.Payload, &payload); err != nil {
			sendCommandError(client, "invalid restart_game payload")
			return
		}
		if err := raceUC.Restart(ctx, payload); err != nil {
			sendCommandError(client, restartErrorReason(err))
		}
	}
}

// joinErrorReason keeps the user-visible "Room is full" wording the typing
// clients already display.
func joinErrorReason(err error) string {
	if errors.Is(err, domain.ErrSessionFull) {
		return "Room is full"
	}
	return err.Error()
}

func restartErrorReason(err error) string {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return "Room not found"
	}
	return err.Error()
}

func sendCommandError(client *infrastructure.Client, reason string) {
	slog.Debug("ws command rejected", slog.String("connId", client.ID()), slog.String("reason", reason))
	client.SendMessage(domain.BuildError(reason, time.Now()))
}
