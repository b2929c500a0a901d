package domain

// ConnRef locates a live connection: the owning process and the
// connection handle local to it.
type ConnRef struct {
	Node string `json:"node"`
	Conn ConnID `json:"conn"`
}

// PresenceRecord is the shared-store view of one identifier.
// Invariant: Online is true iff Ref.Conn is non-empty. A presence write
// is always a full replace of the record, never a partial update.
type PresenceRecord struct {
	Online bool    `json:"online"`
	Ref    ConnRef `json:"ref"`
}

// NewOnlineRecord builds the record written at handshake completion.
func NewOnlineRecord(node string, conn ConnID) PresenceRecord {
	return PresenceRecord{Online: true, Ref: ConnRef{Node: node, Conn: conn}}
}
