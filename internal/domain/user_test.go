package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "plain", in: "alice", want: "alice"},
		{name: "trimmed", in: "  bob \n", want: "bob"},
		{name: "control chars stripped", in: "ca\x00rol", want: "carol"},
		{name: "empty", in: "   ", wantErr: ErrUsernameEmpty},
		{name: "too long", in: strings.Repeat("x", MaxUsernameLen+1), wantErr: ErrUsernameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeUsername(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSetUsernameKeepsOldNameOnError(t *testing.T) {
	u, err := NewUser("id-1", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if err := u.SetUsername(""); !errors.Is(err, ErrUsernameEmpty) {
		t.Fatalf("expected ErrUsernameEmpty, got %v", err)
	}
	if u.Username != "alice" {
		t.Errorf("expected username to stay 'alice', got %q", u.Username)
	}
}

func TestNewMemberJoinsMuted(t *testing.T) {
	m := NewMember(User{ID: "u1", Username: "alice"})
	if !m.Muted {
		t.Error("new members should be muted")
	}
	if m.JoinedAt.IsZero() {
		t.Error("JoinedAt should be set")
	}
}

func TestChatMessageStamp(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	m := ChatMessage{Sender: "alice", Content: "hi"}.Stamp(now)
	if m.ID == "" {
		t.Error("expected an id to be assigned")
	}
	if !m.Timestamp.Equal(now) {
		t.Errorf("expected timestamp %v, got %v", now, m.Timestamp)
	}

	given := time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC)
	kept := ChatMessage{ID: "fixed", Timestamp: given}.Stamp(now)
	if kept.ID != "fixed" || !kept.Timestamp.Equal(given) {
		t.Errorf("client supplied fields must be kept, got %+v", kept)
	}
}
