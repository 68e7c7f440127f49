package types

// SignedPreKey is the medium-term pre-key, self-signed with the identity
// key. One is current at a time; rotation replaces it.
type SignedPreKey struct {
	ID        SignedPreKeyID `json:"id"`
	KeyPair   KeyPair        `json:"key_pair"`
	Signature []byte         `json:"signature"`
	CreatedAt int64          `json:"created_at"`
}

// OneTimePreKey is a single-use pre-key. The responder consumes it
// exactly once while completing a handshake.
type OneTimePreKey struct {
	ID      OneTimePreKeyID `json:"id"`
	KeyPair KeyPair         `json:"key_pair"`
}

// OneTimePreKeyPublic is the public half of a one-time pre-key as it
// appears in a published bundle.
type OneTimePreKeyPublic struct {
	ID        OneTimePreKeyID `json:"id"`
	PublicKey []byte          `json:"public_key"`
}

// PreKeyBundle is the published set of public keys that lets a peer
// initiate a handshake while the owner is offline. Immutable once issued.
type PreKeyBundle struct {
	Address               Address              `json:"address"`
	Chain                 ChainType            `json:"chain"`
	IdentityKey           []byte               `json:"identity_key"`
	SignedPreKeyID        SignedPreKeyID       `json:"signed_pre_key_id"`
	SignedPreKey          []byte               `json:"signed_pre_key"`
	SignedPreKeySignature []byte               `json:"signed_pre_key_signature"`
	OneTimePreKey         *OneTimePreKeyPublic `json:"one_time_pre_key,omitempty"`
}

// InitialMessage carries the X3DH handshake parameters alongside the
// first envelope of a session.
type InitialMessage struct {
	IdentityKey     []byte          `json:"identity_key"`
	EphemeralKey    []byte          `json:"ephemeral_key"`
	SignedPreKeyID  SignedPreKeyID  `json:"signed_pre_key_id"`
	OneTimePreKeyID OneTimePreKeyID `json:"one_time_pre_key_id,omitempty"`
}
