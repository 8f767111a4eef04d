package core

import "slices"

// electHost keeps the previous host while it is still a member and otherwise
// hands leadership to the oldest remaining member.
func electHost(order []SessionID, previous SessionID) SessionID {
	if len(order) == 0 {
		return ""
	}
	if previous != "" && slices.Contains(order, previous) {
		return previous
	}
	return order[0]
}

func (s *RoomState) Host() (SessionID, bool) {
	return s.host, s.host != ""
}

// HostName is the display name of the host, or "" for an empty room.
func (s *RoomState) HostName() string {
	if m, ok := s.Member(s.host); ok {
		return m.User.Username
	}
	return ""
}
