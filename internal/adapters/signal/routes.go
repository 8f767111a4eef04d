package signal

import (
	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/protocol"
)

type handlerFunc func(sid core.SessionID, c *WsSignalConn, env protocol.Envelope)

func (ctl *SignalWSController) routes() map[string]handlerFunc {
	o := ctl.Orch
	return map[string]handlerFunc{
		protocol.ActionCreateRoom:          ctl.createRoom,
		protocol.ActionCheckRoom:           call(ctl, o.CheckRoom),
		protocol.ActionJoinRoom:            call(ctl, o.JoinRoom),
		protocol.ActionGetHost:             call(ctl, o.GetHost),
		protocol.ActionChangeProblem:       call(ctl, o.ChangeProblem),
		protocol.ActionIsUserInRoom:        call(ctl, o.IsUserInRoom),
		protocol.ActionIsUserInRoomID:      call(ctl, o.IsUserInRoomID),
		protocol.ActionLeaveRoom:           call(ctl, o.LeaveRoom),
		protocol.ActionCodeChange:          notify(ctl, o.CodeChange),
		protocol.ActionSubmitCode:          notify(ctl, o.SubmitCode),
		protocol.ActionSubmissionResult:    notify(ctl, o.SubmissionResult),
		protocol.ActionSubmissionSuccess:   notify(ctl, o.SubmissionSuccess),
		protocol.ActionGetLatestCode:       call(ctl, o.GetLatestCode),
		protocol.ActionSubmissionMessage:   notify(ctl, o.SubmissionMessage),
		protocol.ActionSendMessage:         notify(ctl, o.SendMessage),
		protocol.ActionGetChatHistory:      call(ctl, o.GetChatHistory),
		protocol.ActionDraw:                notify(ctl, o.Draw),
		protocol.ActionClearCanvas:         notify(ctl, o.ClearCanvas),
		protocol.ActionGetWhiteboardState:  call(ctl, o.GetWhiteboardState),
		protocol.ActionSaveWhiteboardState: notify(ctl, o.SaveWhiteboardState),
		protocol.ActionGetRoomMembers:      call(ctl, o.GetRoomMembers),
		protocol.ActionToggleMic:           notify(ctl, o.ToggleMic),

		protocol.ActionPing:      ctl.handlePing,
		protocol.ActionWhoAmI:    ctl.handleWhoAmI,
		protocol.ActionRename:    ctl.handleRename,
		protocol.ActionOffer:     ctl.handleOffer,
		protocol.ActionAnswer:    ctl.handleAnswer,
		protocol.ActionCandidate: ctl.handleCandidate,
	}
}

// call adapts a request/reply action.
func call[Req, Resp any](ctl *SignalWSController, fn func(core.SessionID, Req) Resp) handlerFunc {
	return func(sid core.SessionID, c *WsSignalConn, env protocol.Envelope) {
		var req Req
		ctl.decode(sid, env, &req)
		ctl.reply(c, env, fn(sid, req))
	}
}

// notify adapts a fire-and-forget action.
func notify[Req any](ctl *SignalWSController, fn func(core.SessionID, Req)) handlerFunc {
	return func(sid core.SessionID, c *WsSignalConn, env protocol.Envelope) {
		var req Req
		ctl.decode(sid, env, &req)
		fn(sid, req)
	}
}
