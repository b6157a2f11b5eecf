package game

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomUnavailable    = errors.New("room not found or game already started")
	ErrAlreadyJoined      = errors.New("already in this room")
	ErrNameRequired       = errors.New("name is required")
	ErrCodeSpaceExhausted = errors.New("no free room code")
	ErrUnknownEvent       = errors.New("unknown event")
)
