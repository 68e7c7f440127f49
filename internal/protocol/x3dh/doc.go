// Package x3dh implements the X3DH key agreement used to bootstrap a
// Double Ratchet session between two wallet-derived identities.
//
// # Overview
//
// X3DH lets an initiator derive a shared 32-byte secret with a responder
// who has published a pre-key bundle. The bundle contains:
//   - Identity key (chain key pair, e.g. secp256k1 for EVM)
//   - Signed pre-key and its self-signature
//   - Optionally one one-time pre-key
//
// All Diffie-Hellman operations go through the chain primitive, so the
// same code serves every supported chain family.
//
// # Flows
//
// Initiator:
//  1. Validate the bundle and verify the signed pre-key signature.
//  2. Generate an ephemeral key pair on the bundle's chain.
//  3. Compute DH(IKa, SPKb) ‖ DH(EKa, IKb) ‖ DH(EKa, SPKb)[ ‖ DH(EKa, OPKb)].
//  4. HKDF over the concatenated transcript to produce the shared secret.
//  5. Return the secret and the InitialMessage for the first envelope.
//
// Responder:
//  1. Receive the InitialMessage (initiator IK, ephemeral EK, SPK id[, OPK id]).
//  2. Look up the SPK private key and optionally the consumed OPK.
//  3. Compute the mirrored DH set and HKDF the same transcript.
//
// # Errors
//
// A bundle that is malformed or whose signed pre-key signature fails
// verification is rejected with domain.ErrInvalidPreKeyBundle before any
// DH computation. There is no partial trust.
package x3dh
