package core

import (
	"sync"

	"github.com/dkeye/coderoom/internal/domain"
)

// memberSession implements MemberSession by pairing user meta + transport.
type memberSession struct {
	id     SessionID
	signal SignalConnection

	mu    sync.RWMutex
	user  domain.User
	media MediaConnection
}

func NewMemberSession(id SessionID, user domain.User, signal SignalConnection) MemberSession {
	return &memberSession{id: id, user: user, signal: signal}
}

func (m *memberSession) ID() SessionID            { return m.id }
func (m *memberSession) Signal() SignalConnection { return m.signal }

func (m *memberSession) User() domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

func (m *memberSession) Rename(username string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.user.SetUsername(username); err != nil {
		return m.user, err
	}
	return m.user, nil
}

func (m *memberSession) Media() MediaConnection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.media
}

func (m *memberSession) UpdateMedia(mc MediaConnection) MemberSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media = mc
	return m
}
