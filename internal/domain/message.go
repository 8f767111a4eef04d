package domain

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// ChatMessage is an immutable chat log entry.
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Stamp fills the id and timestamp the client left out.
func (m ChatMessage) Stamp(now time.Time) ChatMessage {
	if m.ID == "" {
		m.ID = ulid.Make().String()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = now
	}
	return m
}

// Stroke is one whiteboard segment.
type Stroke struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Color       string  `json:"color"`
	Size        float64 `json:"size"`
	Tool        string  `json:"tool"`
	IsNewStroke bool    `json:"isNewStroke"`
}
