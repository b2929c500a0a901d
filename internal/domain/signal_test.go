package domain

import (
	"encoding/json"
	"testing"
)

func TestParseSignal_StampsAuthenticatedSender(t *testing.T) {
	// A client must not be able to claim someone else's identity.
	frame := []byte(`{"type":"call","to":"+15550002","from":"+15559999"}`)
	sig, err := ParseSignal(frame, "+15550001")
	if err != nil {
		t.Fatalf("ParseSignal: %v", err)
	}
	if sig.From != "+15550001" {
		t.Errorf("From = %q, want authenticated sender", sig.From)
	}
	if sig.To != "+15550002" {
		t.Errorf("To = %q", sig.To)
	}
	if sig.Type != EventCall {
		t.Errorf("Type = %q", sig.Type)
	}
}

func TestParseSignal_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		wantErr error
	}{
		{"not json", `{{{`, ErrMalformedSignal},
		{"missing type", `{"to":"+15550002"}`, ErrMalformedSignal},
		{"non-string type", `{"type":7,"to":"+15550002"}`, ErrMalformedSignal},
		{"missing to", `{"type":"call"}`, ErrMissingTarget},
		{"empty to", `{"type":"call","to":""}`, ErrMissingTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSignal([]byte(tt.frame), "+15550001"); err != tt.wantErr {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWireFrame_PreservesPayloadVerbatim(t *testing.T) {
	frame := []byte(`{"type":"offer","to":"+15550002","sdp":"v=0...","custom":42}`)
	sig, err := ParseSignal(frame, "+15550001")
	if err != nil {
		t.Fatalf("ParseSignal: %v", err)
	}
	out, err := sig.WireFrame()
	if err != nil {
		t.Fatalf("WireFrame: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unmarshal wire frame: %v", err)
	}
	if got["sdp"] != "v=0..." {
		t.Errorf("sdp = %v, want passthrough", got["sdp"])
	}
	if got["custom"] != float64(42) {
		t.Errorf("custom = %v, want passthrough", got["custom"])
	}
	if got["from"] != "+15550001" {
		t.Errorf("from = %v, want injected sender", got["from"])
	}
}

func TestWireFrame_CancelRelayedUnderHistoricalName(t *testing.T) {
	sig, err := ParseSignal([]byte(`{"type":"cancelCall","to":"+15550002"}`), "+15550001")
	if err != nil {
		t.Fatalf("ParseSignal: %v", err)
	}
	out, err := sig.WireFrame()
	if err != nil {
		t.Fatalf("WireFrame: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if got["type"] != "cancle" {
		t.Errorf("type = %v, want cancle", got["type"])
	}
}

func TestWireFrame_StripsAckToken(t *testing.T) {
	sig, err := ParseSignal([]byte(`{"type":"call","to":"+15550002","ack":"req-1"}`), "+15550001")
	if err != nil {
		t.Fatalf("ParseSignal: %v", err)
	}
	if sig.Ack != "req-1" {
		t.Fatalf("Ack = %q", sig.Ack)
	}
	out, err := sig.WireFrame()
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatal(err)
	}
	if _, ok := got["ack"]; ok {
		t.Error("ack token leaked to the recipient")
	}
}

func TestParsePeerID(t *testing.T) {
	if _, err := ParsePeerID(""); err != ErrPeerIDEmpty {
		t.Errorf("empty id: err = %v", err)
	}
	long := make([]byte, MaxPeerIDLen+1)
	for i := range long {
		long[i] = '1'
	}
	if _, err := ParsePeerID(string(long)); err != ErrPeerIDTooLong {
		t.Errorf("long id: err = %v", err)
	}
	id, err := ParsePeerID("+15550001")
	if err != nil || id != "+15550001" {
		t.Errorf("valid id: %q, %v", id, err)
	}
}

func TestSignalInfo(t *testing.T) {
	sig := NewSignal(EventCall, "+15550001", "+15550002")
	info := sig.Info()
	if info.From != "+15550001" || info.To != "+15550002" {
		t.Errorf("Info() = %+v", info)
	}
	b, err := json.Marshal(info)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"to":"+15550002","from":"+15550001"}`
	if string(b) != want {
		t.Errorf("payload = %s, want %s", b, want)
	}
}
