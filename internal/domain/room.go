package domain

import (
	"bytes"
	"encoding/json"
)

type RoomID string

// Problem is the coding problem a room is working on. Only ProblemID and
// IDTitle are read by the coordinator; the client payload is kept verbatim
// and relayed back unchanged, null included.
type Problem struct {
	ProblemID string
	IDTitle   string

	raw json.RawMessage
}

type problemView struct {
	ProblemID json.RawMessage `json:"problemId"`
	IDTitle   json.RawMessage `json:"idTitle"`
}

// UnmarshalJSON never fails: whatever the client sent is kept, and ids that
// are not strings are left empty.
func (p *Problem) UnmarshalJSON(data []byte) error {
	p.raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	p.ProblemID, p.IDTitle = "", ""

	var view problemView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil
	}
	_ = json.Unmarshal(view.ProblemID, &p.ProblemID)
	_ = json.Unmarshal(view.IDTitle, &p.IDTitle)
	return nil
}

func (p Problem) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	if p.ProblemID == "" && p.IDTitle == "" {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		ProblemID string `json:"problemId"`
		IDTitle   string `json:"idTitle"`
	}{p.ProblemID, p.IDTitle})
}
