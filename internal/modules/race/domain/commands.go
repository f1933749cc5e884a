package domain

// JoinRoomCommand is the payload of the inbound join_room event.
type JoinRoomCommand struct {
	Username string `json:"username"`
	RoomID   string `json:"roomId"`
}

// TypeProgressCommand is the payload of the inbound type_progress event.
// Progress and WPM are self-reported by the typing client and recorded as-is
// after clamping; the server does not re-verify keystrokes.
type TypeProgressCommand struct {
	RoomID   string  `json:"roomId"`
	Progress float64 `json:"progress"`
	WPM      float64 `json:"wpm"`
}

// RestartGameCommand is the payload of the inbound restart_game event.
type RestartGameCommand struct {
	RoomID string `json:"roomId"`
}
