package sfu

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/coderoom/internal/core"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var ErrNoRelay = errors.New("no relay for speaker")

type RelayManager struct {
	mu     sync.RWMutex
	relays map[core.SessionID]*Relay
	// muted survives relay restarts; sessions absent here are muted.
	muted map[core.SessionID]bool

	// OnRenegotiate is called after a listener gained a track and needs a new offer.
	OnRenegotiate func(dst core.SessionID)
}

func NewRelayManager() *RelayManager {
	return &RelayManager{
		relays: make(map[core.SessionID]*Relay),
		muted:  make(map[core.SessionID]bool),
	}
}

// StartRelay creates a new Relay for the given speaker SID and starts its loop.
func (m *RelayManager) StartRelay(ctx context.Context, sid core.SessionID, track *webrtc.TrackRemote) {
	logger := log.With().
		Str("module", "sfu").
		Str("sid", string(sid)).
		Logger()

	relayCtx, cancel := context.WithCancel(ctx)
	relay := NewRelay(track, cancel)

	m.mu.Lock()
	relay.SetMuted(m.isMutedLocked(sid))
	if old, ok := m.relays[sid]; ok {
		logger.Info().Msg("replacing existing relay for sid")
		old.markAllDelete()
		if old.cancel != nil {
			old.cancel()
		}
	}
	m.relays[sid] = relay
	m.mu.Unlock()

	logger.Info().Bool("muted", relay.Muted()).Msg("starting relay loop")

	go relay.loop(relayCtx, &logger)
}

// SetMuted applies the room mute flag of sid to its relay, now or when it starts.
func (m *RelayManager) SetMuted(sid core.SessionID, muted bool) {
	m.mu.Lock()
	m.muted[sid] = muted
	relay, ok := m.relays[sid]
	m.mu.Unlock()
	if ok {
		relay.SetMuted(muted)
	}
	log.Debug().Str("module", "sfu").Str("sid", string(sid)).Bool("muted", muted).Msg("mute state")
}

func (m *RelayManager) IsMuted(sid core.SessionID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isMutedLocked(sid)
}

func (m *RelayManager) isMutedLocked(sid core.SessionID) bool {
	muted, ok := m.muted[sid]
	return !ok || muted
}

// Subscribe gives dst its own copy of the speaker track of src.
func (m *RelayManager) Subscribe(src, dst core.SessionID, mc core.MediaConnection) error {
	m.mu.RLock()
	relay, ok := m.relays[src]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("subscribe %s to %s: %w", dst, src, ErrNoRelay)
	}
	if ot, ok := relay.outTrack(dst); ok && ot.GetState() != TrackStateDelete {
		return nil
	}

	local, err := webrtc.NewTrackLocalStaticRTP(
		relay.Src.Codec().RTPCodecCapability,
		relay.Src.ID(),
		string(src),
	)
	if err != nil {
		return fmt.Errorf("local track for %s: %w", src, err)
	}
	sender, err := mc.AddLocalTrack(local)
	if err != nil {
		return fmt.Errorf("add track %s to %s: %w", src, dst, err)
	}
	go drainRTCP(sender)

	relay.AddOutTrack(dst, NewOutTrack(local, sender))
	log.Info().Str("module", "sfu").Str("src_sid", string(src)).Str("dst_sid", string(dst)).Msg("subscribed")

	if m.OnRenegotiate != nil {
		m.OnRenegotiate(dst)
	}
	return nil
}

// drainRTCP keeps interceptors (NACK, reports) running for a sender.
func drainRTCP(sender *webrtc.RTPSender) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := sender.Read(buf); err != nil {
			return
		}
	}
}

// Unsubscribe drops dst's copy of the src track and removes its sender from
// mc, the listener's connection, which is then renegotiated. A nil or closed
// mc only drops the copy.
func (m *RelayManager) Unsubscribe(src, dst core.SessionID, mc core.MediaConnection) {
	m.mu.RLock()
	relay, ok := m.relays[src]
	m.mu.RUnlock()
	if !ok {
		return
	}
	ot, ok := relay.removeOutTrack(dst)
	if !ok {
		return
	}
	ot.MarkDelete()
	if mc == nil || mc.IsClosed() || ot.Sender == nil {
		return
	}
	if err := mc.RemoveSender(ot.Sender); err != nil {
		log.Warn().Err(err).Str("module", "sfu").Str("src_sid", string(src)).Str("dst_sid", string(dst)).Msg("remove sender")
		return
	}
	log.Info().Str("module", "sfu").Str("src_sid", string(src)).Str("dst_sid", string(dst)).Msg("unsubscribed")

	if m.OnRenegotiate != nil {
		m.OnRenegotiate(dst)
	}
}

// StopRelay stops a relay and removes it from the manager.
func (m *RelayManager) StopRelay(srcSID core.SessionID) {
	m.mu.Lock()
	relay, ok := m.relays[srcSID]
	if ok {
		delete(m.relays, srcSID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	relay.markAllDelete()
	if relay.cancel != nil {
		relay.cancel()
	}
}

// Forget drops all state of a closed session.
func (m *RelayManager) Forget(sid core.SessionID) {
	m.StopRelay(sid)
	m.mu.Lock()
	delete(m.muted, sid)
	m.mu.Unlock()
}

// HasRelay reports whether a relay exists for sid.
func (m *RelayManager) HasRelay(sid core.SessionID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.relays[sid]
	return ok
}
