// Package orch turns inbound room actions into state changes, broadcasts and
// replies. Every action on a room runs inside one RoomManager critical
// section, so per-room broadcast order equals processing order.
package orch

import (
	"github.com/dkeye/coderoom/internal/app"
	"github.com/dkeye/coderoom/internal/app/sfu"
	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/metrics"
	"github.com/dkeye/coderoom/internal/protocol"
	"github.com/rs/zerolog/log"
)

const (
	msgRoomExists    = "Room already exists"
	msgRoomMissing   = "Room does not exist"
	msgRoomNotFound  = "Room not found"
	msgUserNotInRoom = "User not found in the room"
	msgInvalidRoom   = "Room id is required"
	msgTooSlow       = "Connection too slow"
	codeFallback     = "// Error, try refreshing the page"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Relays   *sfu.RelayManager
}

// New wires the orchestrator and hooks relay renegotiation back into it.
// relays may be nil when voice is disabled.
func New(reg *app.Registry, rooms core.RoomManager, policy app.Policy, relays *sfu.RelayManager) *Orchestrator {
	o := &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Policy:   policy,
		Relays:   relays,
	}
	if relays != nil {
		relays.OnRenegotiate = o.Renegotiate
	}
	return o
}

func (o *Orchestrator) encode(event string, payload any) (core.Frame, bool) {
	f, err := protocol.Encode(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("encode event")
		return nil, false
	}
	return f, true
}

// broadcast sends event to every subscriber of the room.
func (o *Orchestrator) broadcast(s *core.RoomState, event string, payload any) {
	if f, ok := o.encode(event, payload); ok {
		o.settle(s, s.Broadcast(f))
	}
}

// broadcastFrom sends event to every subscriber except from.
func (o *Orchestrator) broadcastFrom(s *core.RoomState, from core.SessionID, event string, payload any) {
	if f, ok := o.encode(event, payload); ok {
		o.settle(s, s.BroadcastFrom(from, f))
	}
}

// send delivers event to a single connection and reports whether it was queued.
func (o *Orchestrator) send(conn core.SignalConnection, event string, payload any) bool {
	if conn == nil {
		return false
	}
	f, ok := o.encode(event, payload)
	if !ok {
		return false
	}
	if err := conn.TrySend(f); err != nil {
		metrics.BroadcastDropped.Inc()
		log.Warn().Err(err).Str("module", "orch").Str("event", event).Msg("direct send dropped")
		return false
	}
	return true
}

func (o *Orchestrator) sendTo(sid core.SessionID, event string, payload any) {
	if sess, ok := o.Registry.GetSession(sid); ok {
		o.send(sess.Signal(), event, payload)
	}
}

// settle applies the backpressure policy to sessions that missed a frame.
func (o *Orchestrator) settle(s *core.RoomState, res core.PublishResult) {
	for _, sid := range res.Dropped {
		metrics.BroadcastDropped.Inc()
		o.shed(s, sid)
	}
}

// shed asks the policy about a session that missed a frame of s and reports
// whether it was kicked.
func (o *Orchestrator) shed(s *core.RoomState, sid core.SessionID) bool {
	if o.Policy == nil {
		return false
	}
	switch o.Policy.OnBackPressure(s.ID(), sid) {
	case app.KickMember:
		s.Unsubscribe(sid)
		o.kick(sid)
		return true
	case app.MarkSlow, app.DropFrame, app.NoAction:
	}
	return false
}

// kick cancels the session of sid. The adapter then reports the disconnect
// and the session leaves its rooms through OnDisconnect.
func (o *Orchestrator) kick(sid core.SessionID) {
	if o.Registry.Cancel(sid) {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("kicked slow session")
	}
}

func (o *Orchestrator) session(sid core.SessionID) (core.MemberSession, bool) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("no session for sid")
	}
	return sess, ok
}

// username resolves the display name an action refers to: the explicit one
// when given, otherwise the caller's.
func (o *Orchestrator) username(sid core.SessionID, given string) string {
	if given != "" {
		return given
	}
	if sess, ok := o.Registry.GetSession(sid); ok {
		return sess.User().Username
	}
	return ""
}

func (o *Orchestrator) observeRooms() {
	metrics.RoomsActive.Set(float64(o.Rooms.Count()))
}
