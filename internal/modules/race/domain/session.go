package domain

import (
	"strings"
	"sync"
)

// Status describes the lifecycle phase of a race session.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusRacing   Status = "racing"
	StatusFinished Status = "finished"
)

// TextSupplier returns one race text drawn from an external pool. It must
// never return an empty string; the pool itself guarantees that.
type TextSupplier func() string

// Session is the state machine for one race. All mutating operations are
// serialized through the session mutex so the roster-size check in Join, the
// clamp-and-finish check in ReportProgress and the roster mutation in Leave
// each execute as one atomic step.
type Session struct {
	id      string
	players []*Player
	status  Status
	text    string
	mu      sync.Mutex
}

// MaxPlayers is the roster capacity of every session.
const MaxPlayers = 2

// NewSession creates a waiting session with an empty roster and a target
// text drawn from the supplier.
func NewSession(id string, supplier TextSupplier) *Session {
	return &Session{
		id:      strings.TrimSpace(id),
		players: make([]*Player, 0, MaxPlayers),
		status:  StatusWaiting,
		text:    supplier(),
	}
}

// Snapshot is an immutable copy of the session state, safe to hand to
// encoders and broadcasts after the session mutex is released.
type Snapshot struct {
	ID      string   `json:"id"`
	Players []Player `json:"players"`
	Status  Status   `json:"status"`
	Text    string   `json:"text"`
}

// JoinResult reports the outcome of a Join call. Started is true only when
// this join filled the second slot and transitioned the session to racing.
type JoinResult struct {
	Snapshot Snapshot
	Started  bool
}

// ProgressResult reports the outcome of a ReportProgress call. Accepted is
// false when the report was ignored (session not racing, or the connection
// has no bound player). Finished is true exactly once per race, on the
// report that first reached full progress; Winner then carries that
// player's display name.
type ProgressResult struct {
	Players  []Player
	Accepted bool
	Finished bool
	Winner   string
}

// LeaveResult reports the outcome of a Leave call. Removed is false when the
// connection had no bound player, in which case nothing changed and no
// broadcast is needed. Empty signals the caller to request registry removal.
type LeaveResult struct {
	Snapshot Snapshot
	Removed  bool
	Empty    bool
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Join binds a new player to the given connection. Joining twice from the
// same connection is an idempotent success. A third distinct connection is
// rejected with ErrSessionFull regardless of status: fullness, not status,
// gates joining. Filling the second slot while waiting transitions the
// session to racing.
func (s *Session) Join(connID, username string) (JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.playerByID(connID) == nil {
		if len(s.players) >= MaxPlayers {
			return JoinResult{}, ErrSessionFull
		}
		s.players = append(s.players, &Player{ID: connID, Username: username})
	}

	started := false
	if len(s.players) == MaxPlayers && s.status == StatusWaiting {
		s.status = StatusRacing
		started = true
	}
	return JoinResult{Snapshot: s.snapshotLocked(), Started: started}, nil
}

// ReportProgress records self-reported progress and speed for the player
// bound to connID. Reports are ignored unless the session is racing, so a
// straggler report after the finishing transition (or after a departure
// reset the session to waiting) never changes anything. Progress is clamped
// into [0,100] and speed floored at 0. Reaching full progress transitions
// the session to finished and names the winner; serialization through the
// session mutex makes "first to be processed" well defined.
func (s *Session) ReportProgress(connID string, progress, wpm float64) ProgressResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusRacing {
		return ProgressResult{}
	}
	player := s.playerByID(connID)
	if player == nil {
		return ProgressResult{}
	}

	player.Progress = clampProgress(progress)
	player.WPM = max(wpm, 0)

	result := ProgressResult{Players: s.playersLocked(), Accepted: true}
	if player.Progress >= fullProgress {
		s.status = StatusFinished
		result.Finished = true
		result.Winner = player.Username
	}
	return result
}

// Restart resets every player to zero progress and speed, draws a fresh
// target text and forces the session back to racing. The state machine does
// not gate on roster size here; only a connection already inside the session
// can reach this through normal message flow.
func (s *Session) Restart(supplier TextSupplier) JoinResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.players {
		p.reset()
	}
	s.text = supplier()
	s.status = StatusRacing
	return JoinResult{Snapshot: s.snapshotLocked(), Started: true}
}

// Leave removes the player bound to connID, if any. A departure that drops
// the roster from two to one always forces the session back to waiting: a
// race never keeps running or stays finished against an empty slot.
func (s *Session) Leave(connID string) LeaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, p := range s.players {
		if p.ID == connID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return LeaveResult{}
	}

	s.players = append(s.players[:idx], s.players[idx+1:]...)
	s.status = StatusWaiting
	return LeaveResult{
		Snapshot: s.snapshotLocked(),
		Removed:  true,
		Empty:    len(s.players) == 0,
	}
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// PlayerCount returns the current roster size.
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

const fullProgress = 100

func clampProgress(progress float64) float64 {
	if progress < 0 {
		return 0
	}
	if progress > fullProgress {
		return fullProgress
	}
	return progress
}

func (s *Session) playerByID(connID string) *Player {
	for _, p := range s.players {
		if p.ID == connID {
			return p
		}
	}
	return nil
}

func (s *Session) playersLocked() []Player {
	players := make([]Player, len(s.players))
	for i, p := range s.players {
		players[i] = *p
	}
	return players
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:      s.id,
		Players: s.playersLocked(),
		Status:  s.status,
		Text:    s.text,
	}
}
