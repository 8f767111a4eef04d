package orch

import (
	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/protocol"
	"github.com/rs/zerolog/log"
)

// ChangeProblem switches the room problem and resets the code to the
// starter code. The last request processed wins.
func (o *Orchestrator) ChangeProblem(sid core.SessionID, req ChangeProblemRequest) Reply {
	err := o.Rooms.Do(req.RoomID, func(s *core.RoomState) {
		s.SetProblem(req.SelectedProblem, req.StarterCode)
		o.broadcast(s, protocol.EventProblemChanged, problemChangedEvent{
			ProblemID:       req.ProblemID,
			SelectedProblem: req.SelectedProblem,
			StarterCode:     req.StarterCode,
		})
	})
	if err != nil {
		return Reply{Message: msgRoomNotFound}
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(req.RoomID)).Str("problem", req.ProblemID).Msg("problem changed")
	return Reply{Success: true}
}

// CodeChange overwrites the shared buffer and echoes it to everyone,
// sender included.
func (o *Orchestrator) CodeChange(sid core.SessionID, req CodeChangeRequest) {
	err := o.Rooms.Do(req.RoomID, func(s *core.RoomState) {
		s.SetCode(req.Code)
		o.broadcast(s, protocol.EventCodeChange, req.Code)
	})
	if err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("code change dropped")
	}
}

func (o *Orchestrator) SubmitCode(sid core.SessionID, req SubmitCodeRequest) {
	username := o.username(sid, req.Username)
	_ = o.Rooms.Do(req.RoomID, func(s *core.RoomState) {
		o.broadcast(s, protocol.EventSubmissionStart, submissionStartEvent{
			Username:  username,
			ProblemID: s.Problem().ProblemID,
		})
	})
}

func (o *Orchestrator) SubmissionResult(sid core.SessionID, req SubmissionResultRequest) {
	event := protocol.EventSubmissionFailure
	if req.Success {
		event = protocol.EventSubmissionSuccess
	}
	_ = o.Rooms.Do(req.RoomID, func(s *core.RoomState) {
		o.broadcast(s, event, messageEvent{Message: req.Message})
	})
}

func (o *Orchestrator) SubmissionSuccess(sid core.SessionID, req SubmissionSuccessRequest) {
	_ = o.Rooms.Do(req.RoomID, func(s *core.RoomState) {
		o.broadcast(s, protocol.EventUpdateSolvedStatus, req.ProblemID)
	})
}

// GetLatestCode returns the shared buffer, seeding it with the starter code
// when blank. A missing room fails the reply but keeps a displayable
// placeholder in code.
func (o *Orchestrator) GetLatestCode(sid core.SessionID, req LatestCodeRequest) LatestCodeReply {
	var code string
	if err := o.Rooms.Do(req.RoomID, func(s *core.RoomState) { code = s.LatestCode(req.StarterCode) }); err != nil {
		return LatestCodeReply{Code: codeFallback, Message: msgRoomNotFound}
	}
	return LatestCodeReply{Code: code, Success: true}
}

func (o *Orchestrator) SubmissionMessage(sid core.SessionID, req SubmissionMessageRequest) {
	_ = o.Rooms.Do(req.RoomID, func(s *core.RoomState) {
		o.broadcast(s, protocol.EventSubmissionToast, toastEvent{Message: req.Message, Type: req.Type})
	})
}
