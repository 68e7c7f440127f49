package types

// SenderKeyState is one forward-secret symmetric chain within a group.
// The signing private key is present only in the originating sender's own
// copy; receivers hold just the public half.
//
// CachedKeys maps an iteration number to a derived-but-unused message
// key; entries are deleted once consumed.
type SenderKeyState struct {
	Sender            Address           `json:"sender"`
	Chain             ChainType         `json:"chain"`
	KeyID             SenderKeyID       `json:"key_id"`
	ChainKey          []byte            `json:"chain_key"`
	Iteration         uint32            `json:"iteration"`
	SigningPublicKey  []byte            `json:"signing_public_key"`
	SigningPrivateKey []byte            `json:"signing_private_key,omitempty"`
	CachedKeys        map[uint32][]byte `json:"cached_keys"`
}

// SenderKeyDistribution announces a sender's chain to the other group
// members. Signed over the canonical encoding of its fields; receivers
// must verify before storing.
type SenderKeyDistribution struct {
	GroupID          GroupID     `json:"group_id"`
	Sender           Address     `json:"sender"`
	Chain            ChainType   `json:"chain"`
	KeyID            SenderKeyID `json:"key_id"`
	ChainKey         []byte      `json:"chain_key"`
	SigningPublicKey []byte      `json:"signing_public_key"`
	Iteration        uint32      `json:"iteration"`
	Timestamp        int64       `json:"timestamp"`
	Signature        []byte      `json:"signature"`
}

// GroupSessionState is the full state for one group: our own sending
// chain plus one receiving chain per member we have a distribution from.
type GroupSessionState struct {
	ID        GroupID                    `json:"id"`
	Name      string                     `json:"name"`
	Own       SenderKeyState             `json:"own"`
	Senders   map[Address]SenderKeyState `json:"senders"`
	Members   []Address                  `json:"members"`
	CreatedAt int64                      `json:"created_at"`
	UpdatedAt int64                      `json:"updated_at"`
}

// GroupSummary is the lightweight listing shape for stored groups.
type GroupSummary struct {
	ID          GroupID `json:"id"`
	Name        string  `json:"name"`
	MemberCount int     `json:"member_count"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}
