// Package ratchet implements the Double Ratchet algorithm over the
// chain primitive interface, following Signal's design.
//
// The algorithm maintains a root key and two message chains (send and
// receive). Each message advances a KDF chain so message keys are
// forward secure. When a party presents a new DH ratchet public key,
// both sides derive new chain keys from a new root via DH.
//
// Out-of-order delivery is handled by deriving and caching skipped
// message keys, bounded by MaxSkip. A cached key is deleted on first
// use; re-delivery of a consumed counter fails with
// domain.ErrMessageKeyUsed rather than silently decrypting.
//
// Decrypt works on a copy of the state and applies changes only after
// the AEAD opens, so a failed decrypt never corrupts the chains.
//
// Concurrency: RatchetState is NOT safe for concurrent use. Callers must
// serialise access per session.
package ratchet
