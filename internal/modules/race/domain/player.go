package domain

// Player is one connection's race state inside a session. ID is the
// connection identifier, not the username: two connections may carry the
// same display name and still occupy both roster slots.
type Player struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Progress float64 `json:"progress"`
	WPM      float64 `json:"wpm"`
}

func (p *Player) reset() {
	p.Progress = 0
	p.WPM = 0
}
