package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/domain"
)

func bind(r *Registry, sid core.SessionID) {
	sess := core.NewMemberSession(sid, domain.User{ID: "u1", Username: "alice"}, nil)
	r.BindSignal(sid, sess, nil)
}

func TestRegistryRoomsOf(t *testing.T) {
	r := NewRegistry()
	bind(r, "s1")

	r.JoinRoom("s1", "R2")
	r.JoinRoom("s1", "R1")
	r.JoinRoom("s1", "R1")

	if got := fmt.Sprint(r.RoomsOf("s1")); got != "[R1 R2]" {
		t.Errorf("expected [R1 R2], got %s", got)
	}

	r.LeaveRoom("s1", "R2")
	if got := fmt.Sprint(r.RoomsOf("s1")); got != "[R1]" {
		t.Errorf("s1 should only be in R1, got %s", got)
	}
}

func TestRegistryJoinUnknownSession(t *testing.T) {
	r := NewRegistry()
	if r.JoinRoom("ghost", "R1") {
		t.Error("unknown session must not join")
	}
	if rooms := r.RoomsOf("ghost"); rooms != nil {
		t.Errorf("expected nil rooms, got %v", rooms)
	}
}

func TestRegistryUnbindReturnsRooms(t *testing.T) {
	r := NewRegistry()
	bind(r, "s1")
	bind(r, "s2")
	r.JoinRoom("s1", "R1")
	r.JoinRoom("s1", "R3")

	rooms := r.Unbind("s1")
	if fmt.Sprint(rooms) != "[R1 R3]" {
		t.Errorf("expected [R1 R3], got %v", rooms)
	}
	if _, ok := r.GetSession("s1"); ok {
		t.Error("s1 should be gone")
	}
	if r.Count() != 1 {
		t.Errorf("expected 1 session, got %d", r.Count())
	}
	if again := r.Unbind("s1"); again != nil {
		t.Errorf("second unbind should be empty, got %v", again)
	}
}

func TestRegistryCancel(t *testing.T) {
	r := NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	r.BindSignal("s1", core.NewMemberSession("s1", domain.User{Username: "alice"}, nil), cancel)

	if !r.Cancel("s1") {
		t.Fatal("expected cancel to find the session")
	}
	if ctx.Err() == nil {
		t.Error("context should be canceled")
	}
	if r.Cancel("nope") {
		t.Error("unknown session cannot be canceled")
	}
}

type closeRecorder struct{ closed bool }

func (c *closeRecorder) TrySend(core.Frame) error { return nil }
func (c *closeRecorder) Close()                   { c.closed = true }

func TestRegistryCancelClosesUnmanagedConn(t *testing.T) {
	r := NewRegistry()
	conn := &closeRecorder{}
	r.BindSignal("s1", core.NewMemberSession("s1", domain.User{Username: "alice"}, conn), nil)

	if !r.Cancel("s1") {
		t.Fatal("expected cancel to find the session")
	}
	if !conn.closed {
		t.Error("connection without a context should be closed")
	}
}
