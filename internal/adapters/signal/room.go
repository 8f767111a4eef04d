package signal

import (
	"github.com/dkeye/coderoom/internal/app/orch"
	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/metrics"
	"github.com/dkeye/coderoom/internal/protocol"
	"github.com/rs/zerolog/log"
)

const msgCreateLimited = "Too many rooms created, try again later"

// createRoom is rate limited per user, not per connection, so opening more
// tabs does not buy more rooms.
func (ctl *SignalWSController) createRoom(
	sid core.SessionID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	var req orch.CreateRoomRequest
	ctl.decode(sid, env, &req)

	if sess, ok := ctl.Orch.Registry.GetSession(sid); ok {
		uid := sess.User().ID
		if !ctl.limiter.Allow(uid) {
			metrics.RateLimitHits.WithLabelValues(env.Type).Inc()
			log.Warn().Str("module", "signal").Str("sid", string(sid)).Str("user_id", string(uid)).Msg("createRoom rate limited")
			ctl.reply(conn, env, orch.CreateRoomReply{RoomID: req.RoomID, Message: msgCreateLimited})
			return
		}
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", string(req.RoomID)).Msg("createRoom")
	ctl.reply(conn, env, ctl.Orch.CreateRoom(sid, req))
}
