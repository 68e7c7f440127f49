package types

// ChainType names a supported chain family.
type ChainType string

const (
	// ChainEVM covers secp256k1 chains with Keccak-256 addresses.
	ChainEVM ChainType = "evm"
	// ChainSolana covers ed25519 chains with base58 addresses.
	ChainSolana ChainType = "solana"
)

// String returns the string form of the chain type.
func (c ChainType) String() string { return string(c) }

// Address is a chain-level account address (e.g. "0x..." for EVM).
type Address string

// String returns the string form of the address.
func (a Address) String() string { return string(a) }

// SessionID identifies a 1:1 messaging session.
type SessionID string

// String returns the string form of the session identifier.
func (id SessionID) String() string { return string(id) }

// GroupID identifies a group session.
type GroupID string

// String returns the string form of the group identifier.
func (id GroupID) String() string { return string(id) }

// SignedPreKeyID uniquely identifies a signed pre-key.
type SignedPreKeyID string

// String returns the string form of the identifier.
func (id SignedPreKeyID) String() string { return string(id) }

// OneTimePreKeyID uniquely identifies a one-time pre-key.
type OneTimePreKeyID string

// String returns the string form of the identifier.
func (id OneTimePreKeyID) String() string { return string(id) }

// SenderKeyID uniquely identifies one sender-key chain within a group.
type SenderKeyID string

// String returns the string form of the identifier.
func (id SenderKeyID) String() string { return string(id) }
