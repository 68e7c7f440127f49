// Package envelope implements the outer authenticated wire format.
//
// An envelope wraps ratchet (or sender-key) ciphertext with routing
// metadata and a signature from the sender's identity key. Signatures
// cover an explicit, versioned, field-ordered byte encoding produced by
// the same function on both sides; the JSON transport form is never
// signed, so serialization ambiguity cannot be used to forge or
// mutate envelopes.
//
// Open performs schema validation first, then signature verification.
// An envelope failing either never reaches ratchet or group decryption.
package envelope
