package app

import (
	"testing"
	"time"

	"github.com/dialpoint/signaling/internal/domain"
)

func TestCallTracker_RingThenAccept(t *testing.T) {
	tr := NewCallTracker(time.Minute)

	tr.Observe(domain.NewSignal(domain.EventCall, "+15550001", "+15550002"))
	calls := tr.Snapshot()
	if len(calls) != 1 || calls[0].State != "ringing" {
		t.Fatalf("after call: %+v", calls)
	}
	if calls[0].Caller != "+15550001" || calls[0].Callee != "+15550002" {
		t.Errorf("pair = %+v", calls[0])
	}

	// Accept flows the other way; both sides address the same entry.
	tr.Observe(domain.NewSignal(domain.EventCallAccepted, "+15550002", "+15550001"))
	calls = tr.Snapshot()
	if len(calls) != 1 || calls[0].State != "accepted" {
		t.Fatalf("after accept: %+v", calls)
	}
}

func TestCallTracker_DeclineAndCancelAreTerminal(t *testing.T) {
	tr := NewCallTracker(time.Minute)

	tr.Observe(domain.NewSignal(domain.EventCall, "+15550001", "+15550002"))
	tr.Observe(domain.NewSignal(domain.EventCallDeclined, "+15550002", "+15550001"))
	if n := len(tr.Snapshot()); n != 0 {
		t.Errorf("after decline: %d entries", n)
	}

	tr.Observe(domain.NewSignal(domain.EventCall, "+15550001", "+15550002"))
	tr.Observe(domain.NewSignal(domain.EventCancelCall, "+15550001", "+15550002"))
	if n := len(tr.Snapshot()); n != 0 {
		t.Errorf("after cancel: %d entries", n)
	}
}

func TestCallTracker_AcceptWithoutRingIgnored(t *testing.T) {
	tr := NewCallTracker(time.Minute)
	tr.Observe(domain.NewSignal(domain.EventCallAccepted, "+15550002", "+15550001"))
	if n := len(tr.Snapshot()); n != 0 {
		t.Errorf("stray accept created %d entries", n)
	}
}

func TestCallTracker_NegotiationSignalsCarryNoState(t *testing.T) {
	tr := NewCallTracker(time.Minute)
	tr.Observe(domain.NewSignal(domain.EventOffer, "+15550001", "+15550002"))
	tr.Observe(domain.NewSignal(domain.EventICECandidate, "+15550001", "+15550002"))
	if n := len(tr.Snapshot()); n != 0 {
		t.Errorf("negotiation created %d entries", n)
	}
}

func TestCallTracker_SweepExpiresOnlyStaleRings(t *testing.T) {
	tr := NewCallTracker(time.Minute)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return base }

	tr.Observe(domain.NewSignal(domain.EventCall, "+15550001", "+15550002"))
	tr.Observe(domain.NewSignal(domain.EventCall, "+15550003", "+15550004"))
	tr.Observe(domain.NewSignal(domain.EventCallAccepted, "+15550004", "+15550003"))

	if n := tr.Sweep(base.Add(30 * time.Second)); n != 0 {
		t.Errorf("early sweep expired %d", n)
	}
	if n := tr.Sweep(base.Add(2 * time.Minute)); n != 1 {
		t.Errorf("sweep expired %d, want 1 stale ring", n)
	}
	calls := tr.Snapshot()
	if len(calls) != 1 || calls[0].State != "accepted" {
		t.Errorf("surviving entries = %+v", calls)
	}
}
