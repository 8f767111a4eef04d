package domain

import "time"

// Member represents user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	User     User
	Muted    bool
	JoinedAt time.Time
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
// Participants join muted.
func NewMember(user User) Member {
	return Member{User: user, Muted: true, JoinedAt: time.Now()}
}
