package core

import "github.com/dkeye/coderoom/internal/domain"

// SessionID identifies one signal connection. It is minted per connection,
// so two tabs of the same user are two sessions.
type SessionID string

// MemberSession binds the connected user and its transport endpoints.
type MemberSession interface {
	ID() SessionID
	User() domain.User
	Rename(username string) (domain.User, error)
	Signal() SignalConnection
	Media() MediaConnection
	UpdateMedia(MediaConnection) MemberSession
}
