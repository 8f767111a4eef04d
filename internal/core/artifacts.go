package core

import (
	"slices"
	"strings"

	"github.com/dkeye/coderoom/internal/domain"
)

func (s *RoomState) Problem() domain.Problem { return s.problem }

// SetProblem switches the room to a new problem and discards the code in
// progress in favor of starterCode.
func (s *RoomState) SetProblem(problem domain.Problem, starterCode string) {
	s.problem = problem
	s.code = starterCode
}

func (s *RoomState) Code() string { return s.code }

func (s *RoomState) SetCode(code string) { s.code = code }

// LatestCode returns the stored code, seeding it with fallback when the
// buffer is blank.
func (s *RoomState) LatestCode(fallback string) string {
	if strings.TrimSpace(s.code) != "" {
		return s.code
	}
	s.code = fallback
	return s.code
}

func (s *RoomState) AppendMessage(msg domain.ChatMessage) {
	s.messages = append(s.messages, msg)
}

func (s *RoomState) ChatHistory() []domain.ChatMessage {
	return slices.Clone(s.messages)
}

func (s *RoomState) AppendStroke(stroke domain.Stroke) {
	s.whiteboard = append(s.whiteboard, stroke)
}

func (s *RoomState) ClearWhiteboard() {
	s.whiteboard = make([]domain.Stroke, 0)
}

// SaveWhiteboard replaces the stroke log wholesale.
func (s *RoomState) SaveWhiteboard(state []domain.Stroke) {
	if state == nil {
		state = make([]domain.Stroke, 0)
	}
	s.whiteboard = slices.Clone(state)
}

func (s *RoomState) Whiteboard() []domain.Stroke {
	return slices.Clone(s.whiteboard)
}
