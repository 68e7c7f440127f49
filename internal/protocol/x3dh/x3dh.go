package x3dh

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/Deyond-Management/deyondcrypt/internal/chains"
	"github.com/Deyond-Management/deyondcrypt/internal/domain"
	"github.com/Deyond-Management/deyondcrypt/internal/util/memzero"
)

// infoLabel versions the KDF so future protocol revisions derive
// unrelated secrets from the same transcript.
const infoLabel = "deyondcrypt/x3dh/v1"

// SecretSize is the size of the derived shared secret in bytes.
const SecretSize = 32

// Initiate runs the initiator side of X3DH against a peer's bundle.
// It returns the shared secret and the InitialMessage the peer needs to
// derive the same secret.
func Initiate(chain chains.Chain, identity domain.IdentityKeyPair, bundle domain.PreKeyBundle) ([]byte, domain.InitialMessage, error) {
	if err := ValidateBundle(chain, bundle); err != nil {
		return nil, domain.InitialMessage{}, err
	}

	eph, err := chain.GenerateKeyPair()
	if err != nil {
		return nil, domain.InitialMessage{}, err
	}

	dh1, err := chain.ComputeSharedSecret(identity.PrivateKey, bundle.SignedPreKey)
	if err != nil {
		return nil, domain.InitialMessage{}, fmt.Errorf("dh(identity, spk): %w", err)
	}
	dh2, err := chain.ComputeSharedSecret(eph.PrivateKey, bundle.IdentityKey)
	if err != nil {
		return nil, domain.InitialMessage{}, fmt.Errorf("dh(ephemeral, identity): %w", err)
	}
	dh3, err := chain.ComputeSharedSecret(eph.PrivateKey, bundle.SignedPreKey)
	if err != nil {
		return nil, domain.InitialMessage{}, fmt.Errorf("dh(ephemeral, spk): %w", err)
	}

	transcript := make([]byte, 0, 4*SecretSize)
	transcript = append(transcript, dh1...)
	transcript = append(transcript, dh2...)
	transcript = append(transcript, dh3...)

	initial := domain.InitialMessage{
		IdentityKey:    identity.PublicKey,
		EphemeralKey:   eph.PublicKey,
		SignedPreKeyID: bundle.SignedPreKeyID,
	}

	if bundle.OneTimePreKey != nil {
		dh4, err := chain.ComputeSharedSecret(eph.PrivateKey, bundle.OneTimePreKey.PublicKey)
		if err != nil {
			return nil, domain.InitialMessage{}, fmt.Errorf("dh(ephemeral, opk): %w", err)
		}
		transcript = append(transcript, dh4...)
		initial.OneTimePreKeyID = bundle.OneTimePreKey.ID
	}

	secret, err := deriveSecret(transcript)
	memzero.Zero(transcript)
	memzero.Zero(eph.PrivateKey)
	if err != nil {
		return nil, domain.InitialMessage{}, err
	}
	return secret, initial, nil
}

// Respond recomputes the shared secret on the responder side from the
// initiator's InitialMessage. opkPriv is nil when no one-time pre-key was
// consumed.
func Respond(chain chains.Chain, identity domain.IdentityKeyPair, spkPriv []byte, opkPriv []byte, initial domain.InitialMessage) ([]byte, error) {
	if len(initial.IdentityKey) == 0 || len(initial.EphemeralKey) == 0 {
		return nil, fmt.Errorf("%w: initial message missing keys", domain.ErrInvalidPreKeyBundle)
	}

	dh1, err := chain.ComputeSharedSecret(spkPriv, initial.IdentityKey)
	if err != nil {
		return nil, fmt.Errorf("dh(spk, identity): %w", err)
	}
	dh2, err := chain.ComputeSharedSecret(identity.PrivateKey, initial.EphemeralKey)
	if err != nil {
		return nil, fmt.Errorf("dh(identity, ephemeral): %w", err)
	}
	dh3, err := chain.ComputeSharedSecret(spkPriv, initial.EphemeralKey)
	if err != nil {
		return nil, fmt.Errorf("dh(spk, ephemeral): %w", err)
	}

	transcript := make([]byte, 0, 4*SecretSize)
	transcript = append(transcript, dh1...)
	transcript = append(transcript, dh2...)
	transcript = append(transcript, dh3...)

	if opkPriv != nil {
		dh4, err := chain.ComputeSharedSecret(opkPriv, initial.EphemeralKey)
		if err != nil {
			return nil, fmt.Errorf("dh(opk, ephemeral): %w", err)
		}
		transcript = append(transcript, dh4...)
	}

	secret, err := deriveSecret(transcript)
	memzero.Zero(transcript)
	return secret, err
}

// ValidateBundle rejects malformed or forged bundles before any DH is
// attempted.
func ValidateBundle(chain chains.Chain, bundle domain.PreKeyBundle) error {
	switch {
	case len(bundle.IdentityKey) == 0:
		return fmt.Errorf("%w: missing identity key", domain.ErrInvalidPreKeyBundle)
	case len(bundle.SignedPreKey) == 0:
		return fmt.Errorf("%w: missing signed pre-key", domain.ErrInvalidPreKeyBundle)
	case len(bundle.SignedPreKeySignature) == 0:
		return fmt.Errorf("%w: missing signed pre-key signature", domain.ErrInvalidPreKeyBundle)
	case bundle.Chain != chain.ID():
		return fmt.Errorf("%w: bundle chain %q does not match %q", domain.ErrInvalidPreKeyBundle, bundle.Chain, chain.ID())
	}
	if bundle.OneTimePreKey != nil && len(bundle.OneTimePreKey.PublicKey) == 0 {
		return fmt.Errorf("%w: empty one-time pre-key", domain.ErrInvalidPreKeyBundle)
	}
	if !chain.Verify(bundle.IdentityKey, bundle.SignedPreKey, bundle.SignedPreKeySignature) {
		return fmt.Errorf("%w: signed pre-key signature verification failed", domain.ErrInvalidPreKeyBundle)
	}
	return nil
}

func deriveSecret(transcript []byte) ([]byte, error) {
	out := make([]byte, SecretSize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, transcript, nil, []byte(infoLabel)), out); err != nil {
		return nil, err
	}
	return out, nil
}
