package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"codeDuelWs/internal/modules/race/application/port"
	"codeDuelWs/internal/modules/race/domain"
)

type broadcastCall struct {
	roomID string
	event  string
	msg    *domain.Message
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, roomID string, msg *domain.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, broadcastCall{roomID: roomID, event: msg.Event, msg: msg})
}

func (f *fakeBroadcaster) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	events := make([]string, len(f.calls))
	for i, call := range f.calls {
		events[i] = call.event
	}
	return events
}

type fakeSink struct {
	mu       sync.Mutex
	started  []port.RaceEvent
	finished []port.RaceEvent
}

func (f *fakeSink) RaceStarted(_ context.Context, event port.RaceEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, event)
}

func (f *fakeSink) RaceFinished(_ context.Context, event port.RaceEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, event)
}

func newTestUseCase(t *testing.T) (*RaceUseCase, *fakeBroadcaster, *fakeSink) {
	t.Helper()
	broadcaster := &fakeBroadcaster{}
	sink := &fakeSink{}
	uc := NewRaceUseCase(domain.NewRegistry(), NewBroadcastUseCase(broadcaster), func() string { return "target text" }, sink)
	uc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return uc, broadcaster, sink
}

func join(t *testing.T, uc *RaceUseCase, connID, username, roomID string) {
	t.Helper()
	_, err := uc.Join(context.Background(), connID, domain.JoinRoomCommand{Username: username, RoomID: roomID}, nil)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
}

func TestRaceJoinBroadcastsRosterThenStart(t *testing.T) {
	t.Parallel()

	uc, broadcaster, sink := newTestUseCase(t)

	subscribed := ""
	snapshot, err := uc.Join(context.Background(), "conn-x", domain.JoinRoomCommand{Username: "Ann", RoomID: "r1"}, func(roomID string) {
		if len(broadcaster.events()) != 0 {
			t.Fatal("subscribe must run before any broadcast")
		}
		subscribed = roomID
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subscribed != "r1" {
		t.Fatalf("unexpected subscription: %q", subscribed)
	}
	if snapshot.Status != domain.StatusWaiting {
		t.Fatalf("unexpected status: %s", snapshot.Status)
	}

	join(t, uc, "conn-y", "Bob", "r1")

	want := []string{domain.EventRoomUpdate, domain.EventRoomUpdate, domain.EventGameStart}
	got := broadcaster.events()
	if len(got) != len(want) {
		t.Fatalf("unexpected broadcasts: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("broadcast %d: want %s, got %s", i, want[i], got[i])
		}
	}
	if len(sink.started) != 1 || sink.started[0].RoomID != "r1" {
		t.Fatalf("unexpected start events: %#v", sink.started)
	}
}

func TestRaceJoinValidation(t *testing.T) {
	t.Parallel()

	uc, broadcaster, _ := newTestUseCase(t)

	cases := []struct {
		name string
		cmd  domain.JoinRoomCommand
	}{
		{"missing username", domain.JoinRoomCommand{RoomID: "r1"}},
		{"missing room", domain.JoinRoomCommand{Username: "Ann"}},
		{"blank room", domain.JoinRoomCommand{Username: "Ann", RoomID: "   "}},
	}
	for _, tc := range cases {
		if _, err := uc.Join(context.Background(), "conn-x", tc.cmd, nil); !errors.Is(err, domain.ErrInvalidMessage) {
			t.Fatalf("%s: expected ErrInvalidMessage, got %v", tc.name, err)
		}
	}
	if len(broadcaster.events()) != 0 {
		t.Fatalf("rejected joins must not broadcast: %v", broadcaster.events())
	}
}

func TestRaceJoinFullRoom(t *testing.T) {
	t.Parallel()

	uc, broadcaster, _ := newTestUseCase(t)
	join(t, uc, "conn-x", "Ann", "r1")
	join(t, uc, "conn-y", "Bob", "r1")
	before := len(broadcaster.events())

	_, err := uc.Join(context.Background(), "conn-z", domain.JoinRoomCommand{Username: "Cleo", RoomID: "r1"}, nil)
	if !errors.Is(err, domain.ErrSessionFull) {
		t.Fatalf("expected ErrSessionFull, got %v", err)
	}
	if len(broadcaster.events()) != before {
		t.Fatal("rejected join must not broadcast")
	}
}

func TestRaceProgressBroadcastsAndDeclaresWinnerOnce(t *testing.T) {
	t.Parallel()

	uc, broadcaster, sink := newTestUseCase(t)
	join(t, uc, "conn-x", "Ann", "r1")
	join(t, uc, "conn-y", "Bob", "r1")

	if err := uc.ReportProgress(context.Background(), "conn-x", domain.TypeProgressCommand{RoomID: "r1", Progress: 40, WPM: 60}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := uc.ReportProgress(context.Background(), "conn-x", domain.TypeProgressCommand{RoomID: "r1", Progress: 100, WPM: 80}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Straggler after the finish: accepted by no one, broadcast by no one.
	if err := uc.ReportProgress(context.Background(), "conn-y", domain.TypeProgressCommand{RoomID: "r1", Progress: 99, WPM: 70}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		domain.EventRoomUpdate, domain.EventRoomUpdate, domain.EventGameStart,
		domain.EventPlayerUpdate,
		domain.EventPlayerUpdate, domain.EventGameOver,
	}
	got := broadcaster.events()
	if len(got) != len(want) {
		t.Fatalf("unexpected broadcasts: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("broadcast %d: want %s, got %s", i, want[i], got[i])
		}
	}

	last := broadcaster.calls[len(broadcaster.calls)-1]
	over, ok := last.msg.Data.(domain.GameOver)
	if !ok || over.Winner != "Ann" {
		t.Fatalf("unexpected game_over payload: %#v", last.msg.Data)
	}
	if len(sink.finished) != 1 || sink.finished[0].Winner != "Ann" {
		t.Fatalf("unexpected finish events: %#v", sink.finished)
	}
}

func TestRaceProgressKeepsFractionalValues(t *testing.T) {
	t.Parallel()

	uc, broadcaster, _ := newTestUseCase(t)
	join(t, uc, "conn-x", "Ann", "r1")
	join(t, uc, "conn-y", "Bob", "r1")

	if err := uc.ReportProgress(context.Background(), "conn-x", domain.TypeProgressCommand{RoomID: "r1", Progress: 3.571, WPM: 42.5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last := broadcaster.calls[len(broadcaster.calls)-1]
	if last.msg.Event != domain.EventPlayerUpdate {
		t.Fatalf("unexpected event: %s", last.msg.Event)
	}
	update, ok := last.msg.Data.(domain.PlayerList)
	if !ok {
		t.Fatalf("unexpected player_update payload: %#v", last.msg.Data)
	}
	for _, p := range update.Players {
		if p.ID == "conn-x" && (p.Progress != 3.571 || p.WPM != 42.5) {
			t.Fatalf("fractional report must be kept as-is: %#v", p)
		}
	}
}

func TestRaceProgressUnknownRoomIgnored(t *testing.T) {
	t.Parallel()

	uc, broadcaster, _ := newTestUseCase(t)
	if err := uc.ReportProgress(context.Background(), "conn-x", domain.TypeProgressCommand{RoomID: "ghost", Progress: 50, WPM: 40}); err != nil {
		t.Fatalf("unknown room must be ignored, got %v", err)
	}
	if len(broadcaster.events()) != 0 {
		t.Fatalf("unexpected broadcasts: %v", broadcaster.events())
	}
}

func TestRaceProgressMissingRoomRejected(t *testing.T) {
	t.Parallel()

	uc, _, _ := newTestUseCase(t)
	err := uc.ReportProgress(context.Background(), "conn-x", domain.TypeProgressCommand{Progress: 50})
	if !errors.Is(err, domain.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestRaceRestartResetsAndAnnouncesStart(t *testing.T) {
	t.Parallel()

	uc, broadcaster, sink := newTestUseCase(t)
	join(t, uc, "conn-x", "Ann", "r1")
	join(t, uc, "conn-y", "Bob", "r1")
	uc.ReportProgress(context.Background(), "conn-x", domain.TypeProgressCommand{RoomID: "r1", Progress: 100, WPM: 80})

	if err := uc.Restart(context.Background(), domain.RestartGameCommand{RoomID: "r1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := broadcaster.events()
	if events[len(events)-1] != domain.EventGameStart {
		t.Fatalf("restart must broadcast game_start, got %v", events)
	}
	last := broadcaster.calls[len(broadcaster.calls)-1]
	snapshot, ok := last.msg.Data.(domain.Snapshot)
	if !ok {
		t.Fatalf("unexpected game_start payload: %#v", last.msg.Data)
	}
	if snapshot.Status != domain.StatusRacing {
		t.Fatalf("unexpected status: %s", snapshot.Status)
	}
	for _, p := range snapshot.Players {
		if p.Progress != 0 || p.WPM != 0 {
			t.Fatalf("restart must reset players: %#v", p)
		}
	}
	if len(sink.started) != 2 {
		t.Fatalf("expected start events for fill and restart: %#v", sink.started)
	}
}

func TestRaceRestartUnknownRoom(t *testing.T) {
	t.Parallel()

	uc, _, _ := newTestUseCase(t)
	err := uc.Restart(context.Background(), domain.RestartGameCommand{RoomID: "ghost"})
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRaceLeaveBroadcastsAndTearsDownEmptyRoom(t *testing.T) {
	t.Parallel()

	uc, broadcaster, _ := newTestUseCase(t)
	join(t, uc, "conn-x", "Ann", "r1")
	join(t, uc, "conn-y", "Bob", "r1")

	uc.Leave(context.Background(), "conn-y", "r1")

	events := broadcaster.events()
	if events[len(events)-1] != domain.EventRoomUpdate {
		t.Fatalf("leave must broadcast room_update, got %v", events)
	}
	last := broadcaster.calls[len(broadcaster.calls)-1]
	snapshot := last.msg.Data.(domain.Snapshot)
	if snapshot.Status != domain.StatusWaiting {
		t.Fatalf("departure mid-race must force waiting: %s", snapshot.Status)
	}
	if len(snapshot.Players) != 1 || snapshot.Players[0].Username != "Ann" {
		t.Fatalf("unexpected roster: %#v", snapshot.Players)
	}

	uc.Leave(context.Background(), "conn-x", "r1")
	if _, ok := uc.Registry().Get("r1"); ok {
		t.Fatal("empty session must be removed from the registry")
	}

	// A late progress report from the departed connection is a no-op.
	if err := uc.ReportProgress(context.Background(), "conn-x", domain.TypeProgressCommand{RoomID: "r1", Progress: 90, WPM: 70}); err != nil {
		t.Fatalf("late report must be ignored, got %v", err)
	}
}

func TestRaceLeaveUnknownConnectionKeepsQuiet(t *testing.T) {
	t.Parallel()

	uc, broadcaster, _ := newTestUseCase(t)
	join(t, uc, "conn-x", "Ann", "r1")
	before := len(broadcaster.events())

	uc.Leave(context.Background(), "conn-ghost", "r1")
	uc.Leave(context.Background(), "conn-x", "")

	if len(broadcaster.events()) != before {
		t.Fatalf("unexpected broadcasts: %v", broadcaster.events())
	}
}
