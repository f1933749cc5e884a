package domain

import "time"

// Message is the outbound envelope pushed to WebSocket clients. Data holds
// the event-specific payload; its shape per event is fixed by the builders
// below so every subscriber of a room decodes the same thing.
type Message struct {
	Event     string    `json:"event"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PlayerList is the payload of player_update broadcasts.
type PlayerList struct {
	Players []Player `json:"players"`
}

// GameOver is the payload of the single game_over broadcast per race.
type GameOver struct {
	Winner string `json:"winner"`
}

// ErrorPayload is the payload of error frames, sent only to the
// originating connection.
type ErrorPayload struct {
	Message string `json:"message"`
}

// BuildRoomUpdate composes the full roster/status snapshot broadcast after
// join and leave.
func BuildRoomUpdate(snapshot Snapshot, at time.Time) *Message {
	return &Message{Event: EventRoomUpdate, Data: snapshot, Timestamp: at.UTC()}
}

// BuildGameStart composes the race-start broadcast emitted when a session
// fills or restarts. It carries the same snapshot as room_update; clients
// treat it differently (focus input, reset local timer).
func BuildGameStart(snapshot Snapshot, at time.Time) *Message {
	return &Message{Event: EventGameStart, Data: snapshot, Timestamp: at.UTC()}
}

// BuildPlayerUpdate composes the lightweight roster-only broadcast emitted
// after each accepted progress report.
func BuildPlayerUpdate(players []Player, at time.Time) *Message {
	return &Message{Event: EventPlayerUpdate, Data: PlayerList{Players: players}, Timestamp: at.UTC()}
}

// BuildGameOver composes the race-over broadcast naming the winner.
func BuildGameOver(winner string, at time.Time) *Message {
	return &Message{Event: EventGameOver, Data: GameOver{Winner: winner}, Timestamp: at.UTC()}
}

// BuildError composes an error frame for the originating connection.
func BuildError(reason string, at time.Time) *Message {
	return &Message{Event: EventError, Data: ErrorPayload{Message: reason}, Timestamp: at.UTC()}
}

// BuildPong answers an inbound ping.
func BuildPong(at time.Time) *Message {
	return &Message{Event: EventPong, Timestamp: at.UTC()}
}
