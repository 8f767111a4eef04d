package core

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomExists     = errors.New("room already exists")
	ErrInvalidRoom    = errors.New("room id is required")
	ErrMemberNotFound = errors.New("member not found")
)
