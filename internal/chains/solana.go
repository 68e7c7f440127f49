package chains

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"errors"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/curve25519"

	"github.com/Deyond-Management/deyondcrypt/internal/domain"
	"github.com/Deyond-Management/deyondcrypt/internal/util/memzero"
)

// Solana implements Chain for ed25519 chains with base58 addresses.
//
// ECDH is not native to ed25519, so ComputeSharedSecret maps both keys
// to their Curve25519 equivalents (scalar via the ed25519 secret
// expansion, point via the birational map) and runs X25519 over those.
type Solana struct{}

// ID returns the chain family name.
func (Solana) ID() domain.ChainType { return domain.ChainSolana }

// GenerateKeyPair returns a fresh ed25519 key pair. The private key is
// the 64-byte expanded form (seed plus public key).
func (Solana) GenerateKeyPair() (domain.KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return domain.KeyPair{}, err
	}
	return domain.KeyPair{PrivateKey: priv, PublicKey: pub}, nil
}

// DeriveKeyPairFromSeed deterministically derives an ed25519 key pair.
func (Solana) DeriveKeyPairFromSeed(seed []byte) (domain.KeyPair, error) {
	if len(seed) < MinSeedBytes {
		return domain.KeyPair{}, ErrSeedTooShort
	}
	raw, err := deriveSeed(seed, "deyondcrypt/solana-keypair/v1")
	if err != nil {
		return domain.KeyPair{}, err
	}
	priv := ed25519.NewKeyFromSeed(raw)
	memzero.Zero(raw)
	return domain.KeyPair{
		PrivateKey: priv,
		PublicKey:  priv.Public().(ed25519.PublicKey),
	}, nil
}

// DeriveMessagingKeyPair derives the messaging identity from the wallet
// private key, scoped to the chain id.
func (s Solana) DeriveMessagingKeyPair(walletPrivateKey []byte, chainID string) (domain.KeyPair, error) {
	if len(walletPrivateKey) < MinSeedBytes {
		return domain.KeyPair{}, ErrSeedTooShort
	}
	seed, err := deriveSeed(walletPrivateKey, messagingLabel(domain.ChainSolana, chainID))
	if err != nil {
		return domain.KeyPair{}, err
	}
	kp, err := s.DeriveKeyPairFromSeed(seed)
	memzero.Zero(seed)
	return kp, err
}

// ComputeSharedSecret performs X25519 over the Curve25519 equivalents of
// the ed25519 keys.
func (Solana) ComputeSharedSecret(privateKey, peerPublicKey []byte) ([]byte, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, errors.New("solana: private key must be 64 bytes")
	}
	if len(peerPublicKey) != ed25519.PublicKeySize {
		return nil, errors.New("solana: public key must be 32 bytes")
	}

	// The X25519 scalar is the clamped low half of SHA-512(seed).
	digest := sha512.Sum512(privateKey[:ed25519.SeedSize])
	scalar := digest[:curve25519.ScalarSize]
	scalar[0] &= 248
	scalar[31] &= 127
	scalar[31] |= 64

	point, err := new(edwards25519.Point).SetBytes(peerPublicKey)
	if err != nil {
		return nil, err
	}
	secret, err := curve25519.X25519(scalar, point.BytesMontgomery())
	memzero.Zero(digest[:])
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// Sign produces an ed25519 signature over message.
func (Solana) Sign(privateKey, message []byte) ([]byte, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, errors.New("solana: private key must be 64 bytes")
	}
	return ed25519.Sign(ed25519.PrivateKey(privateKey), message), nil
}

// Verify checks an ed25519 signature.
func (Solana) Verify(publicKey, message, signature []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}

// PublicKeyToAddress encodes the public key as a base58 address.
func (Solana) PublicKeyToAddress(publicKey []byte) (domain.Address, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return "", errors.New("solana: public key must be 32 bytes")
	}
	return domain.Address(base58.Encode(publicKey)), nil
}

// IsValidAddress reports whether addr decodes to a 32-byte base58 string.
func (Solana) IsValidAddress(addr domain.Address) bool {
	raw, err := base58.Decode(string(addr))
	return err == nil && len(raw) == ed25519.PublicKeySize
}

// CompressPublicKey returns the key unchanged; ed25519 keys have a
// single 32-byte encoding.
func (Solana) CompressPublicKey(publicKey []byte) ([]byte, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return nil, errors.New("solana: public key must be 32 bytes")
	}
	return append([]byte(nil), publicKey...), nil
}

// DecompressPublicKey returns the key unchanged.
func (s Solana) DecompressPublicKey(publicKey []byte) ([]byte, error) {
	return s.CompressPublicKey(publicKey)
}

// Compile-time assertion that Solana implements Chain.
var _ Chain = Solana{}
