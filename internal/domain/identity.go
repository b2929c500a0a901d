// Package domain contains the wire-level entities of the signaling protocol.
package domain

import "errors"

const MaxPeerIDLen = 36

var (
	ErrPeerIDEmpty   = errors.New("peer id empty")
	ErrPeerIDTooLong = errors.New("peer id too long")
)

// PeerID is the externally assigned stable identifier of a client,
// e.g. a phone number. It is distinct from any transport connection id.
type PeerID string

// ConnID is the handle of one live transport connection. Meaningful only
// to the process that owns the connection.
type ConnID string

// ParsePeerID validates an identifier claimed at handshake time.
func ParsePeerID(s string) (PeerID, error) {
	if len(s) == 0 {
		return "", ErrPeerIDEmpty
	}
	if len(s) > MaxPeerIDLen {
		return "", ErrPeerIDTooLong
	}
	return PeerID(s), nil
}
