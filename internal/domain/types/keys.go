package types

// KeyPair is a raw public/private key pair for one chain family.
//
// Key sizes differ per chain (33-byte compressed secp256k1 publics,
// 32-byte ed25519 publics), so both halves are plain byte slices.
type KeyPair struct {
	PublicKey  []byte `json:"public_key"`
	PrivateKey []byte `json:"private_key"`
}

// IdentityKeyPair is the long-term messaging identity derived from a
// wallet private key. It is created once per (wallet, chain) and only
// destroyed on explicit wallet reset.
type IdentityKeyPair struct {
	KeyPair
	Chain   ChainType `json:"chain"`
	Address Address   `json:"address"`
}
