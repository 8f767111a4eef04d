package orch

import (
	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/domain"
	"github.com/dkeye/coderoom/internal/protocol"
)

// Draw records a stroke and relays it to everyone but the sender, who has
// already rendered it.
func (o *Orchestrator) Draw(sid core.SessionID, req DrawRequest) {
	_ = o.Rooms.Do(req.RoomID, func(s *core.RoomState) {
		s.AppendStroke(req.Stroke)
		o.broadcastFrom(s, sid, protocol.EventDraw, req.Stroke)
	})
}

func (o *Orchestrator) ClearCanvas(sid core.SessionID, req RoomRequest) {
	_ = o.Rooms.Do(req.RoomID, func(s *core.RoomState) {
		s.ClearWhiteboard()
		o.broadcast(s, protocol.EventClearCanvas, nil)
		o.broadcast(s, protocol.EventWhiteboardStateUpdated, s.Whiteboard())
	})
}

func (o *Orchestrator) GetWhiteboardState(sid core.SessionID, req RoomRequest) []domain.Stroke {
	strokes := make([]domain.Stroke, 0)
	_ = o.Rooms.Do(req.RoomID, func(s *core.RoomState) { strokes = s.Whiteboard() })
	return strokes
}

// SaveWhiteboardState replaces the stroke log without notifying anyone.
func (o *Orchestrator) SaveWhiteboardState(sid core.SessionID, req SaveWhiteboardRequest) {
	_ = o.Rooms.Do(req.RoomID, func(s *core.RoomState) { s.SaveWhiteboard(req.State) })
}
