package core

import (
	"github.com/dkeye/coderoom/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join adds sid to the room. The first member becomes host. Joining twice
// with the same session is a no-op, which makes retransmitted joins safe.
func (s *RoomState) Join(sid SessionID, member domain.Member) bool {
	present := s.IsPresent(sid)
	s.members = append(s.members, roomMember{sid: sid, meta: member})
	s.normalize()
	if s.host == "" && len(s.members) > 0 {
		s.host = s.members[0].sid
	}
	added := !present && s.IsPresent(sid)
	if added {
		log.Info().Str("module", "core.room").Str("room", string(s.id)).Str("sid", string(sid)).Str("user", member.User.Username).Msg("member added")
	}
	return added
}

// normalize drops anonymous entries, then collapses duplicates by session
// keeping the first occurrence.
func (s *RoomState) normalize() {
	out := s.members[:0]
	seen := make(map[SessionID]struct{}, len(s.members))
	for _, m := range s.members {
		if m.sid == "" || m.meta.User.Username == "" {
			continue
		}
		if _, dup := seen[m.sid]; dup {
			continue
		}
		seen[m.sid] = struct{}{}
		out = append(out, m)
	}
	clear(s.members[len(out):])
	s.members = out
}

// Leave removes every entry of sid and re-derives the host.
func (s *RoomState) Leave(sid SessionID) LeaveResult {
	res := LeaveResult{}
	out := s.members[:0]
	for _, m := range s.members {
		if m.sid == sid {
			if !res.Removed {
				res.Member = m.meta
			}
			res.Removed = true
			continue
		}
		out = append(out, m)
	}
	clear(s.members[len(out):])
	s.members = out

	if len(s.members) == 0 {
		res.Empty = true
		s.host = ""
		return res
	}

	next := electHost(s.order(), s.host)
	if next != s.host {
		s.host = next
		res.HostChanged = true
		res.NewHost = next
		res.NewHostName = s.HostName()
	}
	if res.Removed {
		log.Info().Str("module", "core.room").Str("room", string(s.id)).Str("sid", string(sid)).Bool("host_changed", res.HostChanged).Msg("member removed")
	}
	return res
}

func (s *RoomState) IsEmpty() bool    { return len(s.members) == 0 }

func (s *RoomState) IsPresent(sid SessionID) bool {
	_, ok := s.indexOf(sid)
	return ok
}

// FindUsername returns the first member, in arrival order, with the given
// display name.
func (s *RoomState) FindUsername(username string) (SessionID, bool) {
	for _, m := range s.members {
		if m.meta.User.Username == username {
			return m.sid, true
		}
	}
	return "", false
}

func (s *RoomState) Member(sid SessionID) (domain.Member, bool) {
	i, ok := s.indexOf(sid)
	if !ok {
		return domain.Member{}, false
	}
	return s.members[i].meta, true
}

// ToggleMute flips the mute flag of sid and returns the updated member.
func (s *RoomState) ToggleMute(sid SessionID) (domain.Member, error) {
	i, ok := s.indexOf(sid)
	if !ok {
		return domain.Member{}, ErrMemberNotFound
	}
	s.members[i].meta.Muted = !s.members[i].meta.Muted
	return s.members[i].meta, nil
}

// Rename updates the display name of sid.
func (s *RoomState) Rename(sid SessionID, username string) error {
	i, ok := s.indexOf(sid)
	if !ok {
		return ErrMemberNotFound
	}
	s.members[i].meta.User.Username = username
	return nil
}

// Members returns the membership list in arrival order.
func (s *RoomState) Members() []MemberDTO {
	out := make([]MemberDTO, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, MemberDTO{
			SID:      m.sid,
			UserID:   m.meta.User.ID,
			Username: m.meta.User.Username,
			IsMuted:  m.meta.Muted,
		})
	}
	return out
}

func (s *RoomState) MemberSIDs() []SessionID { return s.order() }

func (s *RoomState) order() []SessionID {
	out := make([]SessionID, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m.sid)
	}
	return out
}

func (s *RoomState) indexOf(sid SessionID) (int, bool) {
	for i, m := range s.members {
		if m.sid == sid {
			return i, true
		}
	}
	return -1, false
}
