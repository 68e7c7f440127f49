package types

// SessionState holds everything needed to continue a 1:1 conversation
// with one peer. Mutated on every encrypt/decrypt; the persisted copy is
// the durable source of truth.
type SessionState struct {
	ID             SessionID    `json:"id"`
	RemoteAddress  Address      `json:"remote_address"`
	RemoteChain    ChainType    `json:"remote_chain"`
	Ratchet        RatchetState `json:"ratchet"`
	CreatedAt      int64        `json:"created_at"`
	LastActivityAt int64        `json:"last_activity_at"`
	MessageCount   uint64       `json:"message_count"`

	// PendingInitial is the X3DH handshake payload attached to outgoing
	// envelopes until the peer demonstrably holds the session (first
	// successful decrypt from them clears it). Set only on the
	// initiator's side.
	PendingInitial *InitialMessage `json:"pending_initial,omitempty"`
}

// SessionSummary is the lightweight listing shape for stored sessions.
type SessionSummary struct {
	ID             SessionID `json:"id"`
	RemoteAddress  Address   `json:"remote_address"`
	RemoteChain    ChainType `json:"remote_chain"`
	CreatedAt      int64     `json:"created_at"`
	LastActivityAt int64     `json:"last_activity_at"`
	MessageCount   uint64    `json:"message_count"`
}
