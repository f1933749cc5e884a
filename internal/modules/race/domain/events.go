package domain

// Inbound event names.
const (
	EventJoinRoom     = "join_room"
	EventTypeProgress = "type_progress"
	EventRestartGame  = "restart_game"
	EventPing         = "ping"
)

// Outbound event names.
const (
	EventRoomUpdate   = "room_update"
	EventGameStart    = "game_start"
	EventPlayerUpdate = "player_update"
	EventGameOver     = "game_over"
	EventError        = "error"
	EventPong         = "pong"
)
