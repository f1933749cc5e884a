package domain

import "errors"

var (
	// ErrSessionFull rejects a third distinct connection joining a session.
	ErrSessionFull = errors.New("room is full")
	// ErrSessionNotFound reports a progress or restart request referencing
	// an unknown session identifier.
	ErrSessionNotFound = errors.New("room not found")
	// ErrInvalidMessage rejects inbound frames with missing or malformed fields.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrAlreadyInRoom rejects a join for a connection already bound to a
	// different session; one connection belongs to one room for its lifetime.
	ErrAlreadyInRoom = errors.New("already in a room")
)
