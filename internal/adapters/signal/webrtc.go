package signal

import (
	"context"

	"github.com/dkeye/coderoom/internal/adapters/rtc"
	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/protocol"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) sendCandidate(c *WsSignalConn, ci webrtc.ICECandidateInit) {
	f, err := protocol.Encode(protocol.EventCandidate, protocol.Candidate{
		Candidate:     ci.Candidate,
		SDPMid:        ci.SDPMid,
		SDPMLineIndex: ci.SDPMLineIndex,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("encode candidate")
		return
	}
	ctl.sendFrame(c, f)
}

// handleOffer answers a client offer. The first offer of a session creates its
// voice connection; later ones renegotiate it.
func (ctl *SignalWSController) handleOffer(
	sid core.SessionID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	var p protocol.SDP
	ctl.decode(sid, env, &p)
	if p.SDP == "" {
		ctl.replyError(conn, env, "bad_payload", "empty sdp")
		return
	}

	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok {
		return
	}
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: p.SDP}

	if mc := sess.Media(); mc != nil && !mc.IsClosed() {
		answer, err := mc.ApplyOfferAndCreateAnswer(offer)
		if err != nil {
			log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("webrtc renegotiate")
			ctl.replyError(conn, env, "webrtc", err.Error())
			return
		}
		ctl.replyAs(conn, env, protocol.EventAnswer, protocol.SDP{SDP: answer.SDP})
		return
	}

	wc, err := rtc.NewWebRTCConnection(rtc.WebRTCConfig(ctl.cfg.STUNURLs), sid)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("webrtc new pc")
		ctl.replyError(conn, env, "webrtc", err.Error())
		return
	}
	wc.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		ctl.sendCandidate(conn, ci)
	})
	ctl.Orch.BindMediaHandlers(wc, sid)

	ctx := conn.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err = wc.Start(ctx); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("webrtc start")
		wc.Close()
		return
	}

	answer, err := wc.ApplyOfferAndCreateAnswer(offer)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("webrtc apply offer")
		ctl.replyError(conn, env, "webrtc", err.Error())
		wc.Close()
		return
	}

	sess.UpdateMedia(wc)
	ctl.replyAs(conn, env, protocol.EventAnswer, protocol.SDP{SDP: answer.SDP})
	// Subscriptions may trigger a server offer, which must follow our answer.
	ctl.Orch.OnMediaReady(sid)
}

// handleAnswer completes a server-initiated renegotiation.
func (ctl *SignalWSController) handleAnswer(
	sid core.SessionID,
	_ *WsSignalConn,
	env protocol.Envelope,
) {
	var p protocol.SDP
	ctl.decode(sid, env, &p)

	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok || sess.Media() == nil {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("answer: no media connection")
		return
	}
	if err := sess.Media().ApplyAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: p.SDP}); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("apply answer")
	}
}

func (ctl *SignalWSController) handleCandidate(
	sid core.SessionID,
	_ *WsSignalConn,
	env protocol.Envelope,
) {
	var p protocol.Candidate
	ctl.decode(sid, env, &p)

	cand := webrtc.ICECandidateInit{
		Candidate:     p.Candidate,
		SDPMid:        p.SDPMid,
		SDPMLineIndex: p.SDPMLineIndex,
	}

	sess, ok := ctl.Orch.Registry.GetSession(sid)
	if !ok {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("candidate: no session for")
		return
	}
	mc := sess.Media()
	if mc == nil {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("candidate: no media connection for")
		return
	}
	if err := mc.AddICECandidate(cand); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("add ice candidate")
	}
}
