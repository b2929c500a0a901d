package app

import (
	"context"
	"errors"
	"testing"

	"github.com/dialpoint/signaling/internal/domain"
)

func TestFallback_SendsSerializedCallInfo(t *testing.T) {
	push := newFakePush()
	f := &Fallback{
		Tokens: &fakeTokens{tokens: map[domain.PeerID][]string{
			"+15550002": {"tok-1", "tok-2"},
		}},
		Push: push,
	}

	f.send(context.Background(), domain.NewSignal(domain.EventCall, "+15550001", "+15550002"))

	req := <-push.ch
	if len(req.tokens) != 2 {
		t.Errorf("tokens = %v", req.tokens)
	}
	if req.data["payload"] != `{"to":"+15550002","from":"+15550001"}` {
		t.Errorf("payload = %q", req.data["payload"])
	}
}

func TestFallback_NoTokensSkipsPush(t *testing.T) {
	push := newFakePush()
	f := &Fallback{Tokens: &fakeTokens{}, Push: push}

	f.send(context.Background(), domain.NewSignal(domain.EventCall, "+15550001", "+15550002"))

	if len(push.ch) != 0 {
		t.Error("push sent despite missing tokens")
	}
}

func TestFallback_FailuresAreSwallowed(t *testing.T) {
	// Lookup failure.
	f := &Fallback{
		Tokens: &fakeTokens{err: errors.New("store down")},
		Push:   newFakePush(),
	}
	f.send(context.Background(), domain.NewSignal(domain.EventCall, "+15550001", "+15550002"))

	// Push transport failure.
	push := newFakePush()
	push.err = errors.New("fcm down")
	f = &Fallback{
		Tokens: &fakeTokens{tokens: map[domain.PeerID][]string{"+15550002": {"tok"}}},
		Push:   push,
	}
	f.send(context.Background(), domain.NewSignal(domain.EventCall, "+15550001", "+15550002"))
}
