package core

import (
	"time"

	"github.com/dkeye/coderoom/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []SessionID
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	SID      SessionID     `json:"sid"`
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
	IsMuted  bool          `json:"isMuted"`
}

// RoomManager is the room lifecycle boundary. Callers never hold a room
// directly: every read or mutation runs inside Create or Do, under that
// room's lock, and a room left empty is gone once the call returns.
type RoomManager interface {
	// Create fails with ErrRoomExists when id is live; fn runs only on success.
	Create(id domain.RoomID, problem domain.Problem, creator SessionID, member domain.Member, conn SignalConnection, fn func(*RoomState)) error
	// Do fails with ErrRoomNotFound when id is not live.
	Do(id domain.RoomID, fn func(*RoomState)) error
	Exists(id domain.RoomID) bool
	FindByUsername(username string) (RoomInfo, bool)
	List() []RoomInfo
	Count() int
}

type RoomInfo struct {
	ID           domain.RoomID `json:"id"`
	ProblemTitle string        `json:"problemTitle"`
	Host         string        `json:"host"`
	MemberCount  int           `json:"memberCount"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// LeaveResult describes what a departure changed.
type LeaveResult struct {
	Removed     bool
	Member      domain.Member
	Empty       bool
	HostChanged bool
	NewHost     SessionID
	NewHostName string
}
