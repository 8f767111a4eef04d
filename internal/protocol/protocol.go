// Package protocol defines the JSON envelope exchanged over the signal socket.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dkeye/coderoom/internal/core"
)

// Inbound actions.
const (
	ActionCreateRoom          = "createRoom"
	ActionCheckRoom           = "checkRoom"
	ActionJoinRoom            = "joinRoom"
	ActionGetHost             = "getHost"
	ActionChangeProblem       = "changeProblem"
	ActionIsUserInRoom        = "isUserInRoom"
	ActionIsUserInRoomID      = "isUserInRoomId"
	ActionLeaveRoom           = "leaveRoom"
	ActionCodeChange          = "codeChange"
	ActionSubmitCode          = "submitCode"
	ActionSubmissionResult    = "submissionResult"
	ActionSubmissionSuccess   = "submissionSuccess"
	ActionGetLatestCode       = "getLatestCode"
	ActionSubmissionMessage   = "submissionMessage"
	ActionSendMessage         = "sendMessage"
	ActionGetChatHistory      = "getChatHistory"
	ActionDraw                = "draw"
	ActionClearCanvas         = "clearCanvas"
	ActionGetWhiteboardState  = "getWhiteboardState"
	ActionSaveWhiteboardState = "saveWhiteboardState"
	ActionGetRoomMembers      = "getRoomMembers"
	ActionToggleMic           = "toggleMic"

	ActionPing      = "ping"
	ActionWhoAmI    = "whoami"
	ActionRename    = "rename"
	ActionOffer     = "offer"
	ActionAnswer    = "answer"
	ActionCandidate = "candidate"
)

// Outbound events.
const (
	EventRoomCreated            = "roomCreated"
	EventRoomExists             = "roomExists"
	EventChatHistory            = "chatHistory"
	EventUpdateMembers          = "updateMembers"
	EventUserJoined             = "userJoined"
	EventHostChanged            = "hostChanged"
	EventUserLeft               = "userLeft"
	EventProblemChanged         = "problemChanged"
	EventSubmissionStart        = "submissionStart"
	EventSubmissionSuccess      = "submissionSuccess"
	EventSubmissionFailure      = "submissionFailure"
	EventUpdateSolvedStatus     = "updateSolvedStatus"
	EventCodeChange             = "codeChange"
	EventSubmissionToast        = "submissionToast"
	EventChatMessage            = "chatMessage"
	EventDraw                   = "draw"
	EventClearCanvas            = "clearCanvas"
	EventWhiteboardStateUpdated = "whiteboardStateUpdated"

	EventAck       = "ack"
	EventError     = "error"
	EventPong      = "pong"
	EventWhoAmI    = "whoami"
	EventOffer     = "offer"
	EventAnswer    = "answer"
	EventCandidate = "candidate"
)

// Envelope is one frame in either direction. Ack is set on inbound frames
// that expect a reply and echoed on the reply.
type Envelope struct {
	Type    string          `json:"type"`
	Ack     *int64          `json:"ack,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorPayload is the body of an error event.
type ErrorPayload struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Decode parses the envelope of an inbound frame.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// DecodePayload fills v from raw. An absent or null payload leaves v untouched.
// On a type mismatch v keeps whatever fields decoded before the error.
func DecodePayload(raw json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.Unmarshal(trimmed, v)
}

// Encode builds an outbound event frame.
func Encode(event string, payload any) (core.Frame, error) {
	return encode(event, nil, payload)
}

// EncodeAck builds the reply to the inbound frame carrying id.
func EncodeAck(id int64, payload any) (core.Frame, error) {
	return encode(EventAck, &id, payload)
}

// EncodeError builds an error event. It cannot fail.
func EncodeError(code, msg string) core.Frame {
	f, err := Encode(EventError, ErrorPayload{Code: code, Error: msg})
	if err != nil {
		return core.Frame(`{"type":"error"}`)
	}
	return f
}

func encode(event string, ack *int64, payload any) (core.Frame, error) {
	env := Envelope{Type: event, Ack: ack}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", event, err)
		}
		env.Payload = raw
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return core.Frame(b), nil
}

// SDP carries an offer or answer body.
type SDP struct {
	SDP string `json:"sdp"`
}

// Candidate carries one trickled ICE candidate.
type Candidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}
