package protocol

import (
	"encoding/json"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		wantAck bool
	}{
		{name: "with ack", input: `{"type":"joinRoom","ack":7,"payload":{"roomId":"R1"}}`, wantAck: true},
		{name: "without ack", input: `{"type":"draw","payload":{"x":1}}`},
		{name: "missing type", input: `{"payload":{}}`, wantErr: true},
		{name: "not json", input: `hello`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Decode([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if tt.wantErr {
				return
			}
			if (env.Ack != nil) != tt.wantAck {
				t.Errorf("ack presence mismatch: %v", env.Ack)
			}
		})
	}
}

func TestDecodePayloadTolerant(t *testing.T) {
	type req struct {
		RoomID   string `json:"roomId"`
		Username string `json:"username"`
	}

	var r req
	if err := DecodePayload(nil, &r); err != nil {
		t.Errorf("nil payload should not fail: %v", err)
	}
	if err := DecodePayload(json.RawMessage("null"), &r); err != nil {
		t.Errorf("null payload should not fail: %v", err)
	}

	r = req{}
	err := DecodePayload(json.RawMessage(`{"roomId":"R1","username":42}`), &r)
	if err == nil {
		t.Fatal("expected type error")
	}
	if r.RoomID != "R1" {
		t.Errorf("expected roomId to survive the bad field, got %q", r.RoomID)
	}
}

func TestEncodeAck(t *testing.T) {
	f, err := EncodeAck(3, map[string]any{"success": true})
	if err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(f, &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != EventAck || env.Ack == nil || *env.Ack != 3 {
		t.Errorf("unexpected envelope %+v", env)
	}
	if string(env.Payload) != `{"success":true}` {
		t.Errorf("unexpected payload %s", env.Payload)
	}
}

func TestEncodeOmitsEmptyPayload(t *testing.T) {
	f, err := Encode(EventClearCanvas, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(f) != `{"type":"clearCanvas"}` {
		t.Errorf("unexpected frame %s", f)
	}
}

func TestEncodeError(t *testing.T) {
	f := EncodeError("bad_payload", "cannot decode")
	want := `{"type":"error","payload":{"code":"bad_payload","error":"cannot decode"}}`
	if string(f) != want {
		t.Errorf("expected %s, got %s", want, f)
	}
}
