package domain

import "errors"

// Error taxonomy for the crypto core. Every cryptographic failure is
// fail-closed: callers get one of these sentinels (possibly wrapped with
// context) and nothing is retried with weakened checks.
var (
	// ErrInvalidSignature means an envelope or distribution signature
	// failed verification. Always fatal to that message.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrSessionNotFound means no session state exists for the given id
	// or peer. The caller must establish a session first.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSenderKeyNotFound means no sender-key state is stored for the
	// claimed (group, sender, key id).
	ErrSenderKeyNotFound = errors.New("sender key not found")

	// ErrDecryptionFailed covers AEAD authentication failures and any
	// other unrecoverable decrypt error.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrKeyNotFound means a required identity, signed or one-time
	// pre-key was missing during a handshake.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidPreKeyBundle means a bundle was malformed or its signed
	// pre-key signature did not verify. Rejected before any DH.
	ErrInvalidPreKeyBundle = errors.New("invalid pre-key bundle")

	// ErrPersistence means the in-memory ratchet advanced but writing
	// the new state to the store failed. State may now be inconsistent
	// with storage; the operation must be treated as failed.
	ErrPersistence = errors.New("state persistence failed")
)

// ErrMessageKeyUsed signals a replay: the requested counter is behind the
// receiving chain and its message key is no longer cached.
var ErrMessageKeyUsed = wrapSentinel("message key already used", ErrDecryptionFailed)

// ErrLookaheadExceeded signals that decrypting would require ratcheting
// past the bounded out-of-order window.
var ErrLookaheadExceeded = wrapSentinel("max lookahead exceeded", ErrDecryptionFailed)

// wrapSentinel builds a named error that unwraps to base, so callers can
// match either the specific or the broad condition with errors.Is.
func wrapSentinel(msg string, base error) error {
	return &sentinelError{msg: msg, base: base}
}

type sentinelError struct {
	msg  string
	base error
}

func (e *sentinelError) Error() string { return e.msg }
func (e *sentinelError) Unwrap() error { return e.base }
