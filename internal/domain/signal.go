package domain

import (
	"encoding/json"
	"errors"
)

// EventType names a signaling event. The wire names are shared with the
// mobile clients and cannot be changed without a client release.
type EventType string

const (
	EventCall         EventType = "call"
	EventCancelCall   EventType = "cancelCall"
	EventCallDeclined EventType = "callDeclined"
	EventCallAccepted EventType = "callAccepted"
	EventOffer        EventType = "offer"
	EventAnswer       EventType = "answer"
	EventICECandidate EventType = "iceCandidate"

	// EventCancelled is the outbound name for a relayed cancelCall.
	// Misspelled for historical reasons; clients match on it verbatim.
	EventCancelled EventType = "cancle"

	// EventCallResult is the optional acknowledgement sent back to a
	// caller that attached an ack token to its call frame.
	EventCallResult EventType = "callResult"
)

var (
	ErrMalformedSignal = errors.New("malformed signal")
	ErrMissingTarget   = errors.New("signal missing target")
)

// Signal is one transient signaling message between two peers. It is
// never persisted; call state lives only in the sequence of signals.
//
// From is always the authenticated sender, set server-side. Any "from"
// field supplied by the client body is discarded so a recipient cannot
// be spoofed about who a signal came from. Extra fields (sdp, candidate,
// ...) are carried through untouched and relayed verbatim.
type Signal struct {
	Type EventType
	From PeerID
	To   PeerID
	Ack  string

	fields map[string]json.RawMessage
}

// ParseSignal decodes an inbound frame and stamps the authenticated
// sender over whatever "from" the client may have supplied.
func ParseSignal(data []byte, from PeerID) (*Signal, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, ErrMalformedSignal
	}

	var typ string
	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &typ); err != nil {
			return nil, ErrMalformedSignal
		}
	}
	if typ == "" {
		return nil, ErrMalformedSignal
	}

	var to string
	if raw, ok := fields["to"]; ok {
		if err := json.Unmarshal(raw, &to); err != nil {
			return nil, ErrMalformedSignal
		}
	}
	if to == "" {
		return nil, ErrMissingTarget
	}

	var ack string
	if raw, ok := fields["ack"]; ok {
		_ = json.Unmarshal(raw, &ack)
	}

	return &Signal{
		Type:   EventType(typ),
		From:   from,
		To:     PeerID(to),
		Ack:    ack,
		fields: fields,
	}, nil
}

// NewSignal builds a server-originated signal with no extra payload.
func NewSignal(typ EventType, from, to PeerID) *Signal {
	return &Signal{Type: typ, From: from, To: to}
}

// wireType maps an inbound event to the name it is relayed under.
func (s *Signal) wireType() EventType {
	if s.Type == EventCancelCall {
		return EventCancelled
	}
	return s.Type
}

// WireFrame encodes the signal for delivery to the target connection.
// The ack token is sender-side only and stripped before relay.
func (s *Signal) WireFrame() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.fields)+3)
	for k, v := range s.fields {
		out[k] = v
	}
	delete(out, "ack")

	typ, err := json.Marshal(s.wireType())
	if err != nil {
		return nil, err
	}
	from, err := json.Marshal(s.From)
	if err != nil {
		return nil, err
	}
	to, err := json.Marshal(s.To)
	if err != nil {
		return nil, err
	}
	out["type"] = typ
	out["from"] = from
	out["to"] = to

	return json.Marshal(out)
}

// Field returns a raw payload field carried by the inbound frame.
func (s *Signal) Field(name string) (json.RawMessage, bool) {
	raw, ok := s.fields[name]
	return raw, ok
}

// CallInfo is the minimal {to, from} body delivered in a ring, and the
// payload of an offline push notification.
type CallInfo struct {
	To   PeerID `json:"to"`
	From PeerID `json:"from"`
}

// Info extracts the pair of identifiers this signal connects.
func (s *Signal) Info() CallInfo {
	return CallInfo{To: s.To, From: s.From}
}
