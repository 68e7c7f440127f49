// Package chains implements the per-chain cryptographic primitives the
// protocol layers are built on: key generation, deterministic key
// derivation, ECDH, signing and address derivation.
//
// Every implementation is a pure function of its inputs with no hidden
// state, so all chains can be exercised through the shared Chain
// interface by the same property tests.
//
// Supported chain families:
//   - EVM: secp256k1 keys, ECDSA signatures over Keccak-256 digests,
//     "0x"-prefixed Keccak-256 addresses.
//   - Solana: ed25519 signing keys, X25519 ECDH via birational point
//     conversion, base58 addresses.
package chains
