package core

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/coderoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Room serializes every action on one room behind its own mutex.
// Rooms never share a lock, so busy rooms do not contend.
type Room struct {
	mu     sync.Mutex
	closed atomic.Bool
	state  *RoomState
}

// RoomState is the mutable content of a room. It is only reachable from
// inside RoomManager.Create and RoomManager.Do, which hold the room lock,
// so none of its methods lock on their own.
type RoomState struct {
	id        domain.RoomID
	createdAt time.Time

	problem domain.Problem
	host    SessionID
	members []roomMember

	code       string
	messages   []domain.ChatMessage
	whiteboard []domain.Stroke

	subscribers map[SessionID]SignalConnection
}

type roomMember struct {
	sid  SessionID
	meta domain.Member
}

func newRoom(id domain.RoomID, problem domain.Problem) *Room {
	return &Room{state: &RoomState{
		id:          id,
		createdAt:   time.Now(),
		problem:     problem,
		messages:    make([]domain.ChatMessage, 0),
		whiteboard:  make([]domain.Stroke, 0),
		subscribers: make(map[SessionID]SignalConnection),
	}}
}

func (s *RoomState) ID() domain.RoomID { return s.id }

func (s *RoomState) Info() RoomInfo {
	return RoomInfo{
		ID:           s.id,
		ProblemTitle: s.problem.IDTitle,
		Host:         s.HostName(),
		MemberCount:  len(s.members),
		CreatedAt:    s.createdAt,
	}
}

// Subscribe attaches conn to the room channel. Re-subscribing a session
// replaces its connection.
func (s *RoomState) Subscribe(sid SessionID, conn SignalConnection) {
	if conn == nil {
		return
	}
	s.subscribers[sid] = conn
}

func (s *RoomState) Unsubscribe(sid SessionID) {
	delete(s.subscribers, sid)
}


// Broadcast delivers data to every subscriber.
func (s *RoomState) Broadcast(data Frame) PublishResult {
	return s.publish("", data)
}

// BroadcastFrom delivers data to every subscriber except from.
func (s *RoomState) BroadcastFrom(from SessionID, data Frame) PublishResult {
	return s.publish(from, data)
}

func (s *RoomState) publish(skip SessionID, data Frame) PublishResult {
	res := PublishResult{}
	for sid, conn := range s.subscribers {
		if skip != "" && sid == skip {
			continue
		}
		if err := conn.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(s.id)).Str("from", string(skip)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
