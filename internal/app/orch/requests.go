package orch

import (
	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/domain"
)

// Requests mirror the inbound payloads. Missing fields decode to zero values
// and every handler copes with that.

type CreateRoomRequest struct {
	RoomID          domain.RoomID  `json:"roomId"`
	Username        string         `json:"username"`
	SelectedProblem domain.Problem `json:"selectedProblem"`
}

type RoomRequest struct {
	RoomID domain.RoomID `json:"roomId"`
}

type JoinRoomRequest struct {
	RoomID   domain.RoomID `json:"roomId"`
	Username string        `json:"username"`
}

type ChangeProblemRequest struct {
	RoomID          domain.RoomID  `json:"roomId"`
	ProblemID       string         `json:"problemId"`
	SelectedProblem domain.Problem `json:"selectedProblem"`
	StarterCode     string         `json:"starterCode"`
}

type UserInRoomRequest struct {
	RoomID   domain.RoomID `json:"roomId"`
	Username string        `json:"username"`
}

type LeaveRoomRequest struct {
	RoomID   domain.RoomID `json:"roomId"`
	Username string        `json:"username"`
}

type CodeChangeRequest struct {
	RoomID domain.RoomID `json:"roomId"`
	Code   string        `json:"code"`
}

type SubmitCodeRequest struct {
	RoomID   domain.RoomID `json:"roomId"`
	Username string        `json:"username"`
}

type SubmissionResultRequest struct {
	RoomID  domain.RoomID `json:"roomId"`
	Success bool          `json:"success"`
	Message string        `json:"message"`
}

type SubmissionSuccessRequest struct {
	RoomID    domain.RoomID `json:"roomId"`
	ProblemID string        `json:"problemId"`
}

type LatestCodeRequest struct {
	RoomID      domain.RoomID `json:"roomId"`
	StarterCode string        `json:"starterCode"`
}

type SubmissionMessageRequest struct {
	RoomID  domain.RoomID `json:"roomId"`
	Message string        `json:"message"`
	Type    string        `json:"type"`
}

type SendMessageRequest struct {
	RoomID  domain.RoomID      `json:"roomId"`
	Message domain.ChatMessage `json:"message"`
}

type DrawRequest struct {
	RoomID domain.RoomID `json:"roomId"`
	domain.Stroke
}

type SaveWhiteboardRequest struct {
	RoomID domain.RoomID   `json:"roomId"`
	State  []domain.Stroke `json:"state"`
}

type ToggleMicRequest struct {
	RoomID   domain.RoomID `json:"roomId"`
	Username string        `json:"username"`
}

type RenameRequest struct {
	Name string `json:"name"`
}

// Replies.

type Reply struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type CreateRoomReply struct {
	Success bool          `json:"success"`
	RoomID  domain.RoomID `json:"roomId"`
	Message string        `json:"message,omitempty"`
}

type JoinRoomReply struct {
	Success         bool   `json:"success"`
	SelectedProblem string `json:"selectedProblem,omitempty"`
	Host            string `json:"host,omitempty"`
	Message         string `json:"message,omitempty"`
}

type HostReply struct {
	Success bool   `json:"success"`
	Host    string `json:"host"`
	Message string `json:"message,omitempty"`
}

// UserInRoomReply carries null roomId and problemTitle on a miss.
type UserInRoomReply struct {
	Success      bool           `json:"success"`
	IsInRoom     bool           `json:"isInRoom"`
	RoomID       *domain.RoomID `json:"roomId"`
	ProblemTitle *string        `json:"problemTitle"`
}

type UserInRoomIDReply struct {
	Success      bool   `json:"success"`
	IsInRoom     bool   `json:"isInRoom"`
	ProblemTitle string `json:"problemTitle,omitempty"`
	Message      string `json:"message,omitempty"`
}

type LatestCodeReply struct {
	Code    string `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type WhoAmIReply struct {
	SID      core.SessionID  `json:"sid"`
	UserID   domain.UserID   `json:"userId"`
	Username string          `json:"username"`
	Rooms    []domain.RoomID `json:"rooms"`
}

// Broadcast payloads.

type roomUserEvent struct {
	RoomID   domain.RoomID `json:"roomId"`
	Username string        `json:"username"`
}

type userJoinedEvent struct {
	RoomID   domain.RoomID `json:"roomId"`
	Username string        `json:"username"`
	Code     string        `json:"code"`
}

type roomExistsEvent struct {
	RoomID          domain.RoomID `json:"roomId"`
	SelectedProblem string        `json:"selectedProblem"`
	Host            string        `json:"host"`
}

type hostChangedEvent struct {
	RoomID  domain.RoomID `json:"roomId"`
	NewHost string        `json:"newHost"`
}

type problemChangedEvent struct {
	ProblemID       string         `json:"problemId"`
	SelectedProblem domain.Problem `json:"selectedProblem"`
	StarterCode     string         `json:"starterCode"`
}

type submissionStartEvent struct {
	Username  string `json:"username"`
	ProblemID string `json:"problemId"`
}

type messageEvent struct {
	Message string `json:"message"`
}

type toastEvent struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
