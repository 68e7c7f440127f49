// Package session owns the collection of 1:1 sessions: X3DH handshakes
// on both sides, per-message encryption and decryption, and persistence
// of mutated ratchet state.
//
// Encrypt and decrypt on the same session are serialised by a
// per-session lock, since ratchet advancement is stateful and
// non-idempotent. Different sessions proceed in parallel.
//
// Every state-mutating operation persists the session before reporting
// success. If persistence fails after the in-memory ratchet advanced,
// the error unwraps to domain.ErrPersistence so callers can tell this
// apart from a cryptographic failure.
package session
