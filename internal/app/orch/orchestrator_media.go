package orch

import (
	"context"

	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/domain"
	"github.com/dkeye/coderoom/internal/protocol"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) BindMediaHandlers(mc core.MediaConnection, sid core.SessionID) {
	mc.OnTrack(func(trackCtx context.Context, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		o.OnTrack(trackCtx, sid, track)
	})
	mc.OnClosed(func() { o.OnMediaDisconnect(sid) })
}

// OnMediaDisconnect removes the speaker track of sid from every room-mate,
// forgets sid as a listener and stops its relay.
func (o *Orchestrator) OnMediaDisconnect(sid core.SessionID) {
	if o.Relays == nil {
		return
	}
	for _, id := range o.Registry.RoomsOf(sid) {
		for _, mate := range o.roomMates(sid, id) {
			o.Relays.Unsubscribe(sid, mate, o.media(mate))
			o.Relays.Unsubscribe(mate, sid, nil)
		}
	}
	o.Relays.StopRelay(sid)
}

func (o *Orchestrator) cleanupMedia(sid core.SessionID, sess core.MemberSession) {
	if o.Relays != nil {
		o.Relays.Forget(sid)
	}
	if mc := sess.Media(); mc != nil && !mc.IsClosed() {
		mc.Close()
	}
}

// OnTrack is called when a new remote media track appears for a given session.
func (o *Orchestrator) OnTrack(ctx context.Context, sid core.SessionID, track *webrtc.TrackRemote) {
	if o.Relays == nil {
		return
	}
	if sess, ok := o.Registry.GetSession(sid); !ok || sess.Media() == nil {
		return
	}
	o.Relays.StartRelay(ctx, sid, track)

	rooms := o.Registry.RoomsOf(sid)
	if len(rooms) == 0 {
		log.Info().Str("module", "sfu").Str("sid", string(sid)).Msg("OnTrack: no room for sid")
		return
	}
	for _, id := range rooms {
		o.syncVoice(sid, id)
	}
}

// OnMediaReady is called when MediaConnection is attached to the session (offer/answer done).
func (o *Orchestrator) OnMediaReady(sid core.SessionID) {
	for _, id := range o.Registry.RoomsOf(sid) {
		o.syncVoice(sid, id)
	}
}

// syncVoice cross-subscribes sid and its room-mates in both directions
// wherever a speaker relay and a listener connection exist.
func (o *Orchestrator) syncVoice(sid core.SessionID, id domain.RoomID) {
	if o.Relays == nil {
		return
	}
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	mine := sess.Media()
	for _, mate := range o.roomMates(sid, id) {
		other, ok := o.Registry.GetSession(mate)
		if !ok {
			continue
		}
		if mine != nil && o.Relays.HasRelay(mate) {
			if err := o.Relays.Subscribe(mate, sid, mine); err != nil {
				log.Warn().Err(err).Str("module", "sfu").Msg("subscribe listener")
			}
		}
		if theirs := other.Media(); theirs != nil && o.Relays.HasRelay(sid) {
			if err := o.Relays.Subscribe(sid, mate, theirs); err != nil {
				log.Warn().Err(err).Str("module", "sfu").Msg("subscribe listener")
			}
		}
	}
}

// dropVoice ends the audio between sid and the mates of a room it left,
// except with mates it still shares another room with.
func (o *Orchestrator) dropVoice(sid core.SessionID, mates []core.SessionID) {
	if o.Relays == nil || len(mates) == 0 {
		return
	}
	still := make(map[core.SessionID]struct{})
	for _, id := range o.Registry.RoomsOf(sid) {
		for _, mate := range o.roomMates(sid, id) {
			still[mate] = struct{}{}
		}
	}
	mine := o.media(sid)
	for _, mate := range mates {
		if _, ok := still[mate]; ok {
			continue
		}
		o.Relays.Unsubscribe(mate, sid, mine)
		o.Relays.Unsubscribe(sid, mate, o.media(mate))
	}
}

func (o *Orchestrator) media(sid core.SessionID) core.MediaConnection {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return nil
	}
	return sess.Media()
}

func (o *Orchestrator) setMuted(sid core.SessionID, muted bool) {
	if o.Relays != nil {
		o.Relays.SetMuted(sid, muted)
	}
}

func (o *Orchestrator) roomMates(sid core.SessionID, id domain.RoomID) []core.SessionID {
	var mates []core.SessionID
	_ = o.Rooms.Do(id, func(s *core.RoomState) {
		for _, m := range s.MemberSIDs() {
			if m != sid {
				mates = append(mates, m)
			}
		}
	})
	return mates
}

// Renegotiate sends a fresh server offer to dst after its track set changed.
func (o *Orchestrator) Renegotiate(dst core.SessionID) {
	sess, ok := o.Registry.GetSession(dst)
	if !ok {
		return
	}
	mc := sess.Media()
	if mc == nil || mc.IsClosed() {
		return
	}
	offer, err := mc.CreateAndSetOffer()
	if err != nil {
		log.Error().Err(err).Str("module", "sfu").Str("sid", string(dst)).Msg("renegotiation offer")
		return
	}
	o.send(sess.Signal(), protocol.EventOffer, protocol.SDP{SDP: offer.SDP})
}
