package orch

import (
	"time"

	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/domain"
	"github.com/dkeye/coderoom/internal/protocol"
)

// SendMessage appends to the chat log and broadcasts the stored message.
func (o *Orchestrator) SendMessage(sid core.SessionID, req SendMessageRequest) {
	msg := req.Message.Stamp(time.Now())
	if msg.Sender == "" {
		msg.Sender = o.username(sid, "")
	}
	_ = o.Rooms.Do(req.RoomID, func(s *core.RoomState) {
		s.AppendMessage(msg)
		o.broadcast(s, protocol.EventChatMessage, msg)
	})
}

func (o *Orchestrator) GetChatHistory(sid core.SessionID, req RoomRequest) []domain.ChatMessage {
	history := make([]domain.ChatMessage, 0)
	_ = o.Rooms.Do(req.RoomID, func(s *core.RoomState) { history = s.ChatHistory() })
	return history
}
