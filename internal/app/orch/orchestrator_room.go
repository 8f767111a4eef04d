package orch

import (
	"errors"

	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/domain"
	"github.com/dkeye/coderoom/internal/metrics"
	"github.com/dkeye/coderoom/internal/protocol"
	"github.com/rs/zerolog/log"
)

var errSessionClosed = errors.New("session closed")

// CreateRoom allocates a room with the caller as host. An existing room is
// left untouched and reported as a failed reply.
func (o *Orchestrator) CreateRoom(sid core.SessionID, req CreateRoomRequest) CreateRoomReply {
	sess, ok := o.session(sid)
	if !ok {
		return CreateRoomReply{RoomID: req.RoomID, Message: errSessionClosed.Error()}
	}
	if req.RoomID == "" {
		return CreateRoomReply{Message: msgInvalidRoom}
	}
	if o.Rooms.Exists(req.RoomID) {
		return CreateRoomReply{RoomID: req.RoomID, Message: msgRoomExists}
	}
	user, err := nameFor(sess, req.Username)
	if err != nil {
		return CreateRoomReply{RoomID: req.RoomID, Message: err.Error()}
	}

	reply := CreateRoomReply{Success: true, RoomID: req.RoomID}
	err = o.Rooms.Create(req.RoomID, req.SelectedProblem, sid, domain.NewMember(user), sess.Signal(), func(s *core.RoomState) {
		if !o.Registry.JoinRoom(sid, req.RoomID) {
			s.Leave(sid)
			s.Unsubscribe(sid)
			reply = CreateRoomReply{RoomID: req.RoomID, Message: errSessionClosed.Error()}
			return
		}
		o.broadcast(s, protocol.EventRoomCreated, roomUserEvent{RoomID: req.RoomID, Username: user.Username})
	})
	switch {
	case errors.Is(err, core.ErrRoomExists):
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(req.RoomID)).Msg("create on existing room ignored")
		return CreateRoomReply{RoomID: req.RoomID, Message: msgRoomExists}
	case errors.Is(err, core.ErrInvalidRoom):
		return CreateRoomReply{RoomID: req.RoomID, Message: msgInvalidRoom}
	case err != nil:
		return CreateRoomReply{RoomID: req.RoomID, Message: err.Error()}
	}

	if reply.Success {
		metrics.RoomsCreated.Inc()
		o.setMuted(sid, true)
		o.commitName(sid, sess, req.Username)
	}
	o.observeRooms()
	return reply
}

// CheckRoom tells the room that someone looked it up.
func (o *Orchestrator) CheckRoom(sid core.SessionID, req RoomRequest) Reply {
	err := o.Rooms.Do(req.RoomID, func(s *core.RoomState) {
		o.broadcast(s, protocol.EventRoomExists, roomExistsEvent{
			RoomID:          req.RoomID,
			SelectedProblem: s.Problem().IDTitle,
			Host:            s.HostName(),
		})
	})
	if err != nil {
		return Reply{Message: msgRoomMissing}
	}
	return Reply{Success: true}
}

// JoinRoom subscribes the caller, hands it the room history and adds it to
// the membership. Joining twice is harmless.
func (o *Orchestrator) JoinRoom(sid core.SessionID, req JoinRoomRequest) JoinRoomReply {
	sess, ok := o.session(sid)
	if !ok {
		return JoinRoomReply{Message: errSessionClosed.Error()}
	}
	if !o.Rooms.Exists(req.RoomID) {
		return JoinRoomReply{Message: msgRoomMissing}
	}
	user, err := nameFor(sess, req.Username)
	if err != nil {
		return JoinRoomReply{Message: err.Error()}
	}

	var (
		reply JoinRoomReply
		muted bool
	)
	err = o.Rooms.Do(req.RoomID, func(s *core.RoomState) {
		conn := sess.Signal()
		s.Subscribe(sid, conn)
		replayed := o.send(conn, protocol.EventChatHistory, s.ChatHistory()) &&
			o.send(conn, protocol.EventWhiteboardStateUpdated, s.Whiteboard()) &&
			o.send(conn, protocol.EventUpdateMembers, s.Members())
		if !replayed && o.shed(s, sid) {
			reply = JoinRoomReply{Message: msgTooSlow}
			return
		}

		s.Join(sid, domain.NewMember(user))
		if !o.Registry.JoinRoom(sid, req.RoomID) {
			s.Leave(sid)
			s.Unsubscribe(sid)
			reply = JoinRoomReply{Message: errSessionClosed.Error()}
			return
		}

		o.broadcast(s, protocol.EventUserJoined, userJoinedEvent{RoomID: req.RoomID, Username: user.Username, Code: s.Code()})
		o.broadcast(s, protocol.EventUpdateMembers, s.Members())

		m, _ := s.Member(sid)
		muted = m.Muted
		reply = JoinRoomReply{Success: true, SelectedProblem: s.Problem().IDTitle, Host: s.HostName()}
	})
	if err != nil {
		return JoinRoomReply{Message: msgRoomMissing}
	}

	if reply.Success {
		o.commitName(sid, sess, req.Username)
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(req.RoomID)).Str("user", user.Username).Msg("joined room")
		o.setMuted(sid, muted)
		o.syncVoice(sid, req.RoomID)
	}
	o.observeRooms()
	return reply
}

func (o *Orchestrator) GetHost(sid core.SessionID, req RoomRequest) HostReply {
	var host string
	if err := o.Rooms.Do(req.RoomID, func(s *core.RoomState) { host = s.HostName() }); err != nil {
		return HostReply{Message: msgRoomNotFound}
	}
	return HostReply{Success: true, Host: host}
}

// IsUserInRoom looks for the first room, in creation order, that has a
// member with the given name.
func (o *Orchestrator) IsUserInRoom(sid core.SessionID, req UserInRoomRequest) UserInRoomReply {
	info, ok := o.Rooms.FindByUsername(o.username(sid, req.Username))
	if !ok {
		return UserInRoomReply{Success: true}
	}
	return UserInRoomReply{Success: true, IsInRoom: true, RoomID: &info.ID, ProblemTitle: &info.ProblemTitle}
}

// IsUserInRoomID checks one room. Without a username the caller's own
// session is checked.
func (o *Orchestrator) IsUserInRoomID(sid core.SessionID, req UserInRoomRequest) UserInRoomIDReply {
	var (
		found bool
		title string
	)
	err := o.Rooms.Do(req.RoomID, func(s *core.RoomState) {
		if req.Username == "" {
			found = s.IsPresent(sid)
		} else {
			_, found = s.FindUsername(req.Username)
		}
		title = s.Problem().IDTitle
	})
	if err != nil || !found {
		return UserInRoomIDReply{Message: msgUserNotInRoom}
	}
	return UserInRoomIDReply{Success: true, IsInRoom: true, ProblemTitle: title}
}

// LeaveRoom removes the caller's session. Leaving a room one is not in, or
// one that no longer exists, still succeeds.
func (o *Orchestrator) LeaveRoom(sid core.SessionID, req LeaveRoomRequest) Reply {
	if req.Username != "" && req.Username != o.username(sid, "") {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Str("username", req.Username).Msg("leave names another user, removing caller")
	}
	o.Registry.LeaveRoom(sid, req.RoomID)
	o.leave(sid, req.RoomID)
	return Reply{Success: true}
}

func (o *Orchestrator) leave(sid core.SessionID, id domain.RoomID) core.LeaveResult {
	var (
		res   core.LeaveResult
		mates []core.SessionID
	)
	err := o.Rooms.Do(id, func(s *core.RoomState) {
		res = s.Leave(sid)
		s.Unsubscribe(sid)
		if !res.Removed || res.Empty {
			return
		}
		mates = s.MemberSIDs()
		o.broadcast(s, protocol.EventUpdateMembers, s.Members())
		o.broadcast(s, protocol.EventUserLeft, roomUserEvent{RoomID: id, Username: res.Member.User.Username})
		if res.HostChanged {
			o.broadcast(s, protocol.EventHostChanged, hostChangedEvent{RoomID: id, NewHost: res.NewHostName})
		}
	})
	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("leave on missing room")
		return res
	}
	if res.Removed {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(id)).Bool("empty", res.Empty).Msg("left room")
	}
	o.dropVoice(sid, mates)
	o.observeRooms()
	return res
}

func (o *Orchestrator) GetRoomMembers(sid core.SessionID, req RoomRequest) []core.MemberDTO {
	members := make([]core.MemberDTO, 0)
	_ = o.Rooms.Do(req.RoomID, func(s *core.RoomState) { members = s.Members() })
	return members
}

// ToggleMic flips the mute flag of the named member, or of the caller when
// no name is given, and mirrors it onto the voice relay.
func (o *Orchestrator) ToggleMic(sid core.SessionID, req ToggleMicRequest) {
	var (
		target  = sid
		muted   bool
		toggled bool
	)
	err := o.Rooms.Do(req.RoomID, func(s *core.RoomState) {
		if req.Username != "" {
			found, ok := s.FindUsername(req.Username)
			if !ok {
				return
			}
			target = found
		}
		m, err := s.ToggleMute(target)
		if err != nil {
			return
		}
		muted, toggled = m.Muted, true
		o.broadcast(s, protocol.EventUpdateMembers, s.Members())
	})
	if err != nil || !toggled {
		return
	}
	o.setMuted(target, muted)
}

// OnDisconnect is the implicit leave of a closed connection from every room
// it was in.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	sess, hasSession := o.Registry.GetSession(sid)
	rooms := o.Registry.Unbind(sid)
	for _, id := range rooms {
		o.leave(sid, id)
	}
	if hasSession {
		o.cleanupMedia(sid, sess)
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Int("rooms", len(rooms)).Msg("session disconnected")
}

// Rename changes the caller's display name everywhere it is a member.
func (o *Orchestrator) Rename(sid core.SessionID, req RenameRequest) (WhoAmIReply, error) {
	sess, ok := o.session(sid)
	if !ok {
		return WhoAmIReply{}, errSessionClosed
	}
	if _, err := o.applyName(sid, sess, req.Name); err != nil {
		return o.WhoAmI(sid), err
	}
	if req.Name == "" {
		return o.WhoAmI(sid), domain.ErrUsernameEmpty
	}
	return o.WhoAmI(sid), nil
}

func (o *Orchestrator) WhoAmI(sid core.SessionID) WhoAmIReply {
	reply := WhoAmIReply{SID: sid, Rooms: o.Registry.RoomsOf(sid)}
	if reply.Rooms == nil {
		reply.Rooms = make([]domain.RoomID, 0)
	}
	if sess, ok := o.Registry.GetSession(sid); ok {
		user := sess.User()
		reply.UserID = user.ID
		reply.Username = user.Username
	}
	return reply
}

// applyName renames the session when name is set and differs, then updates
// every room the session already belongs to.
func (o *Orchestrator) applyName(sid core.SessionID, sess core.MemberSession, name string) (domain.User, error) {
	current := sess.User()
	if name == "" || name == current.Username {
		return current, nil
	}
	user, err := sess.Rename(name)
	if err != nil {
		return user, err
	}
	for _, id := range o.Registry.RoomsOf(sid) {
		_ = o.Rooms.Do(id, func(s *core.RoomState) {
			if m, ok := s.Member(sid); !ok || m.User.Username == user.Username {
				return
			}
			if s.Rename(sid, user.Username) == nil {
				o.broadcast(s, protocol.EventUpdateMembers, s.Members())
			}
		})
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("username", user.Username).Msg("renamed")
	return user, nil
}

// nameFor returns the user the session would be under name, leaving the
// session untouched.
func nameFor(sess core.MemberSession, name string) (domain.User, error) {
	user := sess.User()
	if name == "" || name == user.Username {
		return user, nil
	}
	err := user.SetUsername(name)
	return user, err
}

// commitName applies a name checked by nameFor once the action went through.
func (o *Orchestrator) commitName(sid core.SessionID, sess core.MemberSession, name string) {
	if _, err := o.applyName(sid, sess, name); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("rename after action")
	}
}
