package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dkeye/coderoom/internal/domain"
	"github.com/sourcegraph/conc"
)

func member(name string) domain.Member {
	return domain.NewMember(domain.User{ID: domain.UserID("u-" + name), Username: name})
}

func mustCreate(t *testing.T, rm RoomManager, id domain.RoomID, host string) {
	t.Helper()
	err := rm.Create(id, domain.Problem{ProblemID: "p1", IDTitle: "two-sum"}, SessionID(host), member(host), nil, nil)
	if err != nil {
		t.Fatalf("create %s: %v", id, err)
	}
}

func join(t *testing.T, rm RoomManager, id domain.RoomID, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := rm.Do(id, func(s *RoomState) { s.Join(SessionID(n), member(n)) }); err != nil {
			t.Fatalf("join %s: %v", n, err)
		}
	}
}

func leave(t *testing.T, rm RoomManager, id domain.RoomID, name string) LeaveResult {
	t.Helper()
	var res LeaveResult
	if err := rm.Do(id, func(s *RoomState) { res = s.Leave(SessionID(name)) }); err != nil {
		t.Fatalf("leave %s: %v", name, err)
	}
	return res
}

func members(t *testing.T, rm RoomManager, id domain.RoomID) []string {
	t.Helper()
	var out []string
	if err := rm.Do(id, func(s *RoomState) {
		for _, m := range s.Members() {
			out = append(out, m.Username)
		}
	}); err != nil {
		t.Fatalf("members: %v", err)
	}
	return out
}

func hostOf(t *testing.T, rm RoomManager, id domain.RoomID) string {
	t.Helper()
	var host string
	if err := rm.Do(id, func(s *RoomState) { host = s.HostName() }); err != nil {
		t.Fatalf("host: %v", err)
	}
	return host
}

func TestCreateOnce(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "alice")
	if err := rm.Do("R1", func(s *RoomState) { s.SetCode("original") }); err != nil {
		t.Fatal(err)
	}

	err := rm.Create("R1", domain.Problem{IDTitle: "other"}, "mallory", member("mallory"), nil, func(*RoomState) {
		t.Error("fn must not run for an existing room")
	})
	if !errors.Is(err, ErrRoomExists) {
		t.Fatalf("expected ErrRoomExists, got %v", err)
	}

	if got := members(t, rm, "R1"); len(got) != 1 || got[0] != "alice" {
		t.Errorf("expected [alice], got %v", got)
	}
	_ = rm.Do("R1", func(s *RoomState) {
		if s.Code() != "original" {
			t.Errorf("code overwritten: %q", s.Code())
		}
		if s.Problem().IDTitle != "two-sum" {
			t.Errorf("problem overwritten: %q", s.Problem().IDTitle)
		}
	})
	if rm.Count() != 1 {
		t.Errorf("expected 1 room, got %d", rm.Count())
	}
}

func TestCreateRejectsEmptyID(t *testing.T) {
	rm := NewRoomManager()
	if err := rm.Create("", domain.Problem{}, "alice", member("alice"), nil, nil); !errors.Is(err, ErrInvalidRoom) {
		t.Fatalf("expected ErrInvalidRoom, got %v", err)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "alice")
	join(t, rm, "R1", "bob", "bob", "carol", "bob")

	got := members(t, rm, "R1")
	want := []string{"alice", "bob", "carol"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestJoinDropsNamelessMembers(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "alice")

	var added bool
	_ = rm.Do("R1", func(s *RoomState) {
		added = s.Join("anon", domain.Member{})
	})
	if added {
		t.Error("member without a name should not be added")
	}
	if got := members(t, rm, "R1"); len(got) != 1 {
		t.Errorf("expected only alice, got %v", got)
	}
}

func TestLastLeaveTearsDownRoom(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "alice")
	join(t, rm, "R1", "bob")

	leave(t, rm, "R1", "alice")
	if !rm.Exists("R1") {
		t.Fatal("room should survive while bob is inside")
	}

	res := leave(t, rm, "R1", "bob")
	if !res.Empty {
		t.Error("expected leave result to report an empty room")
	}
	if rm.Exists("R1") {
		t.Error("empty room should be removed")
	}
	if err := rm.Do("R1", func(*RoomState) {}); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestRecreateAfterTeardown(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "alice")
	leave(t, rm, "R1", "alice")
	mustCreate(t, rm, "R1", "bob")

	if got := hostOf(t, rm, "R1"); got != "bob" {
		t.Errorf("expected bob as host of the new room, got %q", got)
	}
}

func TestHostFailover(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "alice")
	join(t, rm, "R1", "bob", "carol")

	res := leave(t, rm, "R1", "alice")
	if !res.HostChanged || res.NewHostName != "bob" {
		t.Errorf("expected host to move to bob, got %+v", res)
	}
	if got := hostOf(t, rm, "R1"); got != "bob" {
		t.Errorf("expected host bob, got %q", got)
	}
	if got := members(t, rm, "R1"); fmt.Sprint(got) != "[bob carol]" {
		t.Errorf("expected [bob carol], got %v", got)
	}

	res = leave(t, rm, "R1", "carol")
	if res.HostChanged {
		t.Error("non-host departure must not change the host")
	}
}

func TestLeaveUnknownMemberIsNoop(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "alice")

	res := leave(t, rm, "R1", "ghost")
	if res.Removed || res.Empty || res.HostChanged {
		t.Errorf("expected no-op, got %+v", res)
	}
	if !rm.Exists("R1") {
		t.Error("room should still exist")
	}
}

func TestElectHost(t *testing.T) {
	tests := []struct {
		name     string
		order    []SessionID
		previous SessionID
		want     SessionID
	}{
		{name: "empty room", order: nil, previous: "a", want: ""},
		{name: "host stays", order: []SessionID{"b", "a"}, previous: "a", want: "a"},
		{name: "host gone", order: []SessionID{"c", "b"}, previous: "a", want: "c"},
		{name: "no previous host", order: []SessionID{"b"}, previous: "", want: "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := electHost(tt.order, tt.previous); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCodeLastWriterWins(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "alice")
	_ = rm.Do("R1", func(s *RoomState) { s.SetCode("first") })
	_ = rm.Do("R1", func(s *RoomState) { s.SetCode("second") })

	_ = rm.Do("R1", func(s *RoomState) {
		if got := s.LatestCode("starter"); got != "second" {
			t.Errorf("expected second, got %q", got)
		}
	})
}

func TestLatestCodeSeedsBlankBuffer(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "alice")
	_ = rm.Do("R1", func(s *RoomState) {
		s.SetCode("  \n ")
		if got := s.LatestCode("def solve(): pass"); got != "def solve(): pass" {
			t.Errorf("expected starter code, got %q", got)
		}
		if s.Code() != "def solve(): pass" {
			t.Error("starter code should be stored")
		}
	})
}

func TestSetProblemOverwritesCode(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "alice")
	_ = rm.Do("R1", func(s *RoomState) {
		s.SetCode("work in progress")
		s.SetProblem(domain.Problem{ProblemID: "p2", IDTitle: "valid-parens"}, "starter")
		if s.Code() != "starter" || s.Problem().ProblemID != "p2" {
			t.Errorf("unexpected state: code=%q problem=%+v", s.Code(), s.Problem())
		}
	})
}

func TestChatAppendOnly(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "alice")
	for i := range 5 {
		_ = rm.Do("R1", func(s *RoomState) {
			s.AppendMessage(domain.ChatMessage{Sender: "alice", Content: fmt.Sprint(i)})
		})
	}

	_ = rm.Do("R1", func(s *RoomState) {
		history := s.ChatHistory()
		if len(history) != 5 {
			t.Fatalf("expected 5 messages, got %d", len(history))
		}
		for i, m := range history {
			if m.Content != fmt.Sprint(i) {
				t.Errorf("message %d out of order: %q", i, m.Content)
			}
		}
		history[0].Content = "tampered"
		if s.ChatHistory()[0].Content != "0" {
			t.Error("history must be returned as a copy")
		}
	})
}

func TestWhiteboardLifecycle(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "alice")
	_ = rm.Do("R1", func(s *RoomState) {
		s.AppendStroke(domain.Stroke{X: 1, Y: 2, IsNewStroke: true})
		s.AppendStroke(domain.Stroke{X: 3, Y: 4})
		if len(s.Whiteboard()) != 2 {
			t.Fatalf("expected 2 strokes, got %d", len(s.Whiteboard()))
		}

		s.SaveWhiteboard([]domain.Stroke{{X: 9}})
		if wb := s.Whiteboard(); len(wb) != 1 || wb[0].X != 9 {
			t.Errorf("save should replace the log, got %+v", wb)
		}

		s.ClearWhiteboard()
		if wb := s.Whiteboard(); wb == nil || len(wb) != 0 {
			t.Errorf("expected empty non-nil whiteboard, got %#v", wb)
		}
	})
}

func TestToggleMute(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "alice")
	_ = rm.Do("R1", func(s *RoomState) {
		m, err := s.ToggleMute("alice")
		if err != nil {
			t.Fatal(err)
		}
		if m.Muted {
			t.Error("expected alice to be unmuted")
		}
		if _, err := s.ToggleMute("ghost"); !errors.Is(err, ErrMemberNotFound) {
			t.Errorf("expected ErrMemberNotFound, got %v", err)
		}
	})
}

func TestFindByUsername(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "alice")
	mustCreate(t, rm, "R2", "bob")

	info, ok := rm.FindByUsername("bob")
	if !ok || info.ID != "R2" || info.ProblemTitle != "two-sum" {
		t.Errorf("expected bob in R2, got %+v ok=%v", info, ok)
	}
	if _, ok := rm.FindByUsername("nobody"); ok {
		t.Error("unexpected match for unknown user")
	}
}

func TestConcurrentJoinLeave(t *testing.T) {
	rm := NewRoomManager()
	mustCreate(t, rm, "R1", "host")

	var wg conc.WaitGroup
	for i := range 50 {
		name := fmt.Sprintf("user-%d", i)
		wg.Go(func() {
			_ = rm.Do("R1", func(s *RoomState) { s.Join(SessionID(name), member(name)) })
			_ = rm.Do("R1", func(s *RoomState) { s.Join(SessionID(name), member(name)) })
			if i%2 == 0 {
				_ = rm.Do("R1", func(s *RoomState) { s.Leave(SessionID(name)) })
			}
		})
	}
	wg.Wait()

	got := members(t, rm, "R1")
	if len(got) != 26 {
		t.Errorf("expected 26 members, got %d: %v", len(got), got)
	}
	if hostOf(t, rm, "R1") != "host" {
		t.Error("host should not change")
	}
}
