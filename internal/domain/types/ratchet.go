package types

// RatchetHeader travels with every 1:1 ciphertext.
type RatchetHeader struct {
	RatchetPublicKey    []byte `json:"ratchet_public_key"`
	PreviousChainLength uint32 `json:"previous_chain_length"`
	Counter             uint32 `json:"counter"`
}

// RatchetState is the full Double Ratchet state for one session.
//
// SkippedKeys maps "hex(ratchet public key)|counter" to the cached
// message key for out-of-order delivery. A chain key is replaced, never
// reused, after deriving the next message key; a cached message key is
// deleted on first use.
type RatchetState struct {
	RootKey         []byte            `json:"root_key"`
	DHPrivateKey    []byte            `json:"dh_private_key"`
	DHPublicKey     []byte            `json:"dh_public_key"`
	PeerDHPublicKey []byte            `json:"peer_dh_public_key"`
	SendChainKey    []byte            `json:"send_chain_key,omitempty"`
	RecvChainKey    []byte            `json:"recv_chain_key,omitempty"`
	SendCount       uint32            `json:"send_count"`
	RecvCount       uint32            `json:"recv_count"`
	PrevSendCount   uint32            `json:"prev_send_count"`
	SkippedKeys     map[string][]byte `json:"skipped_keys"`
}
