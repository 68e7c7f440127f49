package chains

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/Deyond-Management/deyondcrypt/internal/domain"
)

// MinSeedBytes is the smallest seed accepted by DeriveKeyPairFromSeed.
const MinSeedBytes = 16

// ErrSeedTooShort is returned for seeds below MinSeedBytes.
var ErrSeedTooShort = fmt.Errorf("seed shorter than %d bytes", MinSeedBytes)

// ErrUnsupportedChain is returned by ForChain for unknown chain types.
var ErrUnsupportedChain = errors.New("unsupported chain type")

// Chain is the per-chain-family primitive contract. Implementations are
// stateless; every method is a pure function of its arguments.
type Chain interface {
	// ID names the chain family this implementation serves.
	ID() domain.ChainType

	GenerateKeyPair() (domain.KeyPair, error)

	// DeriveKeyPairFromSeed deterministically derives a key pair from
	// seed. Fails with ErrSeedTooShort below MinSeedBytes.
	DeriveKeyPairFromSeed(seed []byte) (domain.KeyPair, error)

	// DeriveMessagingKeyPair derives the messaging identity from a
	// wallet private key. The chain id is mixed into the derivation so
	// the same wallet key yields unrelated identities per chain.
	DeriveMessagingKeyPair(walletPrivateKey []byte, chainID string) (domain.KeyPair, error)

	// ComputeSharedSecret performs the chain's Diffie-Hellman and
	// returns a 32-byte shared secret.
	ComputeSharedSecret(privateKey, peerPublicKey []byte) ([]byte, error)

	Sign(privateKey, message []byte) ([]byte, error)
	Verify(publicKey, message, signature []byte) bool

	PublicKeyToAddress(publicKey []byte) (domain.Address, error)
	IsValidAddress(addr domain.Address) bool

	CompressPublicKey(publicKey []byte) ([]byte, error)
	DecompressPublicKey(publicKey []byte) ([]byte, error)
}

// ForChain returns the primitive implementation for the given family.
func ForChain(ct domain.ChainType) (Chain, error) {
	switch ct {
	case domain.ChainEVM:
		return EVM{}, nil
	case domain.ChainSolana:
		return Solana{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChain, ct)
	}
}

// deriveSeed expands input key material into a 32-byte seed bound to the
// given derivation label.
func deriveSeed(ikm []byte, label string) ([]byte, error) {
	out := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, nil, []byte(label)), out); err != nil {
		return nil, err
	}
	return out, nil
}

// messagingLabel scopes identity derivation to a chain family and chain
// id so distinct chains never share key material.
func messagingLabel(family domain.ChainType, chainID string) string {
	return "deyondcrypt/messaging/v1/" + family.String() + "/" + chainID
}
