package signal

import (
	"github.com/dkeye/coderoom/internal/app/orch"
	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleRename(
	sid core.SessionID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	var req orch.RenameRequest
	ctl.decode(sid, env, &req)

	who, err := ctl.Orch.Rename(sid, req)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("rename rejected")
		ctl.replyError(conn, env, "invalid_name", err.Error())
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("name", who.Username).Msg("rename")
	ctl.replyAs(conn, env, protocol.EventWhoAmI, who)
}

func (ctl *SignalWSController) handleWhoAmI(
	sid core.SessionID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	ctl.replyAs(conn, env, protocol.EventWhoAmI, ctl.Orch.WhoAmI(sid))
}
