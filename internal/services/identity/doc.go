// Package identity derives and manages the local messaging identity.
//
// The identity is derived deterministically from a wallet private key
// and a chain id, so re-running setup with the same wallet reproduces
// the same keys and address. It persists via the domain.PreKeyStore.
package identity
