package signal

import (
	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/protocol"
)

func (ctl *SignalWSController) handlePing(
	_ core.SessionID,
	conn *WsSignalConn,
	env protocol.Envelope,
) {
	ctl.replyAs(conn, env, protocol.EventPong, nil)
}
