package core

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/dkeye/coderoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomManagerImpl keeps every live room in process memory. Lock order is
// always room before manager.
type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*Room
}

var _ RoomManager = (*RoomManagerImpl)(nil)

func NewRoomManager() *RoomManagerImpl {
	return &RoomManagerImpl{rooms: make(map[domain.RoomID]*Room)}
}

// Create allocates a room with creator as its only member and host, then runs
// fn under the new room's lock. An existing live room is left untouched.
func (rm *RoomManagerImpl) Create(
	id domain.RoomID,
	problem domain.Problem,
	creator SessionID,
	member domain.Member,
	conn SignalConnection,
	fn func(*RoomState),
) error {
	if id == "" {
		return ErrInvalidRoom
	}
	if creator == "" || member.User.Username == "" {
		return fmt.Errorf("create %s: %w", id, ErrMemberNotFound)
	}

	room := newRoom(id, problem)
	room.mu.Lock()
	defer room.mu.Unlock()

	rm.mu.Lock()
	if existing, ok := rm.rooms[id]; ok && !existing.closed.Load() {
		rm.mu.Unlock()
		return fmt.Errorf("create %s: %w", id, ErrRoomExists)
	}
	rm.rooms[id] = room
	rm.mu.Unlock()

	room.state.Join(creator, member)
	room.state.Subscribe(creator, conn)
	log.Info().Str("module", "core.room").Str("room", string(id)).Str("sid", string(creator)).Msg("room created")

	if fn != nil {
		fn(room.state)
	}
	rm.teardownIfEmpty(room)
	return nil
}

// Do runs fn with the room locked. A room left without members by fn is
// removed before the lock is released.
func (rm *RoomManagerImpl) Do(id domain.RoomID, fn func(*RoomState)) error {
	rm.mu.RLock()
	room, ok := rm.rooms[id]
	rm.mu.RUnlock()
	if !ok {
		return fmt.Errorf("room %s: %w", id, ErrRoomNotFound)
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.closed.Load() {
		return fmt.Errorf("room %s: %w", id, ErrRoomNotFound)
	}
	fn(room.state)
	rm.teardownIfEmpty(room)
	return nil
}

// teardownIfEmpty must be called with room.mu held.
func (rm *RoomManagerImpl) teardownIfEmpty(room *Room) {
	if !room.state.IsEmpty() {
		return
	}
	room.closed.Store(true)
	id := room.state.id

	rm.mu.Lock()
	if rm.rooms[id] == room {
		delete(rm.rooms, id)
	}
	rm.mu.Unlock()
	log.Info().Str("module", "core.room").Str("room", string(id)).Msg("room closed (empty)")
}

func (rm *RoomManagerImpl) Exists(id domain.RoomID) bool {
	rm.mu.RLock()
	room, ok := rm.rooms[id]
	rm.mu.RUnlock()
	return ok && !room.closed.Load()
}

// FindByUsername scans rooms in creation order for a member with that
// display name.
func (rm *RoomManagerImpl) FindByUsername(username string) (RoomInfo, bool) {
	for _, room := range rm.snapshot() {
		var (
			info  RoomInfo
			found bool
		)
		room.mu.Lock()
		if !room.closed.Load() {
			if _, found = room.state.FindUsername(username); found {
				info = room.state.Info()
			}
		}
		room.mu.Unlock()
		if found {
			return info, true
		}
	}
	return RoomInfo{}, false
}

func (rm *RoomManagerImpl) List() []RoomInfo {
	rooms := rm.snapshot()
	out := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		if !room.closed.Load() {
			out = append(out, room.state.Info())
		}
		room.mu.Unlock()
	}
	return out
}

func (rm *RoomManagerImpl) Count() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

func (rm *RoomManagerImpl) snapshot() []*Room {
	rm.mu.RLock()
	rooms := make([]*Room, 0, len(rm.rooms))
	for _, r := range rm.rooms {
		rooms = append(rooms, r)
	}
	rm.mu.RUnlock()

	// createdAt and id are immutable, no room lock needed.
	slices.SortFunc(rooms, func(a, b *Room) int {
		if c := a.state.createdAt.Compare(b.state.createdAt); c != 0 {
			return c
		}
		return cmp.Compare(a.state.id, b.state.id)
	})
	return rooms
}
