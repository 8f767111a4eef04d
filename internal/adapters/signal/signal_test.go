package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dkeye/coderoom/internal/app"
	"github.com/dkeye/coderoom/internal/app/orch"
	"github.com/dkeye/coderoom/internal/app/sfu"
	"github.com/dkeye/coderoom/internal/config"
	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/domain"
	"github.com/dkeye/coderoom/internal/protocol"
)

func newTestController(t *testing.T) *SignalWSController {
	t.Helper()
	cfg := &config.Config{SendBuffer: 64, CreateLimit: 2, CreateInterval: time.Minute}
	o := orch.New(app.NewRegistry(), core.NewRoomManager(), app.SimplePolicy{}, sfu.NewRelayManager())
	return NewSignalWSController(o, cfg)
}

func connect(ctl *SignalWSController, name string) (core.SessionID, *WsSignalConn) {
	sid := core.SessionID("sid-" + name)
	conn := &WsSignalConn{send: make(chan core.Frame, 64)}
	user := domain.User{ID: domain.UserID("u-" + name), Username: defaultUsername}
	ctl.Orch.Registry.BindSignal(sid, core.NewMemberSession(sid, user, conn), nil)
	return sid, conn
}

func drain(t *testing.T, conn *WsSignalConn) []protocol.Envelope {
	t.Helper()
	var out []protocol.Envelope
	for {
		select {
		case f := <-conn.send:
			var env protocol.Envelope
			if err := json.Unmarshal(f, &env); err != nil {
				t.Fatalf("bad frame %s: %v", f, err)
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func ackOf(t *testing.T, frames []protocol.Envelope, id int64, v any) {
	t.Helper()
	for _, f := range frames {
		if f.Type == protocol.EventAck && f.Ack != nil && *f.Ack == id {
			if err := json.Unmarshal(f.Payload, v); err != nil {
				t.Fatalf("decode ack: %v", err)
			}
			return
		}
	}
	t.Fatalf("no ack %d in %+v", id, frames)
}

func TestCreateRoomAck(t *testing.T) {
	ctl := newTestController(t)
	sid, conn := connect(ctl, "alice")

	ctl.handleSignal(sid, conn, []byte(`{"type":"createRoom","ack":1,"payload":{"roomId":"R1","username":"alice","selectedProblem":{"idTitle":"two-sum"}}}`))

	frames := drain(t, conn)
	if len(frames) != 2 || frames[0].Type != protocol.EventRoomCreated {
		t.Fatalf("expected roomCreated then ack, got %+v", frames)
	}
	var reply orch.CreateRoomReply
	ackOf(t, frames, 1, &reply)
	if !reply.Success || reply.RoomID != "R1" {
		t.Errorf("unexpected reply %+v", reply)
	}
}

func TestCreateRoomRateLimited(t *testing.T) {
	ctl := newTestController(t)
	sid, conn := connect(ctl, "alice")

	for i, room := range []string{"R1", "R2", "R3"} {
		frame := fmt.Sprintf(`{"type":"createRoom","ack":%d,"payload":{"roomId":%q,"username":"alice"}}`, i+1, room)
		ctl.handleSignal(sid, conn, []byte(frame))
	}

	frames := drain(t, conn)
	var third orch.CreateRoomReply
	ackOf(t, frames, 3, &third)
	if third.Success || third.Message != msgCreateLimited {
		t.Errorf("third create should be limited, got %+v", third)
	}
	if ctl.Orch.Rooms.Exists("R3") {
		t.Error("R3 must not exist")
	}
}

func TestMalformedPayloadIsTolerated(t *testing.T) {
	ctl := newTestController(t)
	alice, aconn := connect(ctl, "alice")
	ctl.handleSignal(alice, aconn, []byte(`{"type":"createRoom","payload":{"roomId":"R1","username":"alice"}}`))

	bob, bconn := connect(ctl, "bob")
	ctl.handleSignal(bob, bconn, []byte(`{"type":"joinRoom","ack":2,"payload":{"roomId":"R1","username":5}}`))

	var reply orch.JoinRoomReply
	ackOf(t, drain(t, bconn), 2, &reply)
	if !reply.Success || reply.Host != "alice" {
		t.Errorf("join should go through with the decoded fields, got %+v", reply)
	}
}

func TestReplyWithoutAckIsEvent(t *testing.T) {
	ctl := newTestController(t)
	sid, conn := connect(ctl, "alice")

	ctl.handleSignal(sid, conn, []byte(`{"type":"getHost","payload":{"roomId":"nope"}}`))

	frames := drain(t, conn)
	if len(frames) != 1 || frames[0].Type != protocol.ActionGetHost {
		t.Fatalf("expected a getHost event, got %+v", frames)
	}
	var reply orch.HostReply
	_ = json.Unmarshal(frames[0].Payload, &reply)
	if reply.Success {
		t.Error("missing room should fail")
	}
}

func TestBadFrames(t *testing.T) {
	ctl := newTestController(t)
	sid, conn := connect(ctl, "alice")

	tests := []struct {
		name  string
		input string
		code  string
	}{
		{name: "not json", input: `{{`, code: "bad_json"},
		{name: "no type", input: `{"payload":{}}`, code: "bad_json"},
		{name: "unknown", input: `{"type":"teleport"}`, code: "unknown_type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl.handleSignal(sid, conn, []byte(tt.input))
			frames := drain(t, conn)
			if len(frames) != 1 || frames[0].Type != protocol.EventError {
				t.Fatalf("expected an error frame, got %+v", frames)
			}
			var p protocol.ErrorPayload
			_ = json.Unmarshal(frames[0].Payload, &p)
			if p.Code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, p.Code)
			}
		})
	}
}

func TestPing(t *testing.T) {
	ctl := newTestController(t)
	sid, conn := connect(ctl, "alice")

	ctl.handleSignal(sid, conn, []byte(`{"type":"ping"}`))
	frames := drain(t, conn)
	if len(frames) != 1 || frames[0].Type != protocol.EventPong {
		t.Errorf("expected pong, got %+v", frames)
	}
}

func TestRenameAndWhoAmI(t *testing.T) {
	ctl := newTestController(t)
	sid, conn := connect(ctl, "alice")

	ctl.handleSignal(sid, conn, []byte(`{"type":"rename","payload":{"name":"Alice"}}`))
	frames := drain(t, conn)
	if len(frames) != 1 || frames[0].Type != protocol.EventWhoAmI {
		t.Fatalf("expected whoami, got %+v", frames)
	}
	var who orch.WhoAmIReply
	_ = json.Unmarshal(frames[0].Payload, &who)
	if who.Username != "Alice" || who.UserID != "u-alice" || who.SID != sid {
		t.Errorf("unexpected whoami %+v", who)
	}

	ctl.handleSignal(sid, conn, []byte(`{"type":"rename","ack":9,"payload":{"name":""}}`))
	var failed protocol.ErrorPayload
	ackOf(t, drain(t, conn), 9, &failed)
	if failed.Code != "invalid_name" {
		t.Errorf("expected invalid_name, got %+v", failed)
	}
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	ctl := newTestController(t)
	sid, conn := connect(ctl, "alice")
	ctl.handlers["boom"] = func(core.SessionID, *WsSignalConn, protocol.Envelope) { panic("boom") }

	ctl.handleSignal(sid, conn, []byte(`{"type":"boom"}`))

	frames := drain(t, conn)
	if len(frames) != 1 || frames[0].Type != protocol.EventError {
		t.Errorf("expected an internal error frame, got %+v", frames)
	}
}

func TestTrySendAfterClose(t *testing.T) {
	conn := &WsSignalConn{send: make(chan core.Frame, 1)}
	if err := conn.TrySend(core.Frame("a")); err != nil {
		t.Fatal(err)
	}
	if err := conn.TrySend(core.Frame("b")); !errors.Is(err, ErrBackpressure) {
		t.Errorf("expected ErrBackpressure, got %v", err)
	}
	conn.Close()
	conn.Close()
	if err := conn.TrySend(core.Frame("c")); !errors.Is(err, ErrConnClosed) {
		t.Errorf("expected ErrConnClosed, got %v", err)
	}
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "wildcard", allowed: []string{"*"}, origin: "https://evil.example", want: true},
		{name: "empty list", allowed: nil, origin: "https://any.example", want: true},
		{name: "listed", allowed: []string{"https://app.example"}, origin: "https://app.example", want: true},
		{name: "unlisted", allowed: []string{"https://app.example"}, origin: "https://evil.example", want: false},
		{name: "no origin header", allowed: []string{"https://app.example"}, origin: "", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/ws/signal", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := OriginChecker(tt.allowed)(r); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
