package chains

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/Deyond-Management/deyondcrypt/internal/domain"
	"github.com/Deyond-Management/deyondcrypt/internal/util/memzero"
)

// EVM implements Chain for secp256k1 chains with Keccak-256 addresses.
// Public keys are handled in 33-byte compressed form unless a caller
// explicitly decompresses them.
type EVM struct{}

// ID returns the chain family name.
func (EVM) ID() domain.ChainType { return domain.ChainEVM }

// GenerateKeyPair returns a fresh secp256k1 key pair.
func (EVM) GenerateKeyPair() (domain.KeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return domain.KeyPair{}, err
	}
	return domain.KeyPair{
		PrivateKey: priv.Serialize(),
		PublicKey:  priv.PubKey().SerializeCompressed(),
	}, nil
}

// DeriveKeyPairFromSeed deterministically derives a secp256k1 key pair.
func (e EVM) DeriveKeyPairFromSeed(seed []byte) (domain.KeyPair, error) {
	if len(seed) < MinSeedBytes {
		return domain.KeyPair{}, ErrSeedTooShort
	}
	raw, err := deriveSeed(seed, "deyondcrypt/evm-keypair/v1")
	if err != nil {
		return domain.KeyPair{}, err
	}
	// PrivKeyFromBytes reduces the scalar mod N, so any 32-byte string
	// maps onto a valid key.
	priv := secp256k1.PrivKeyFromBytes(raw)
	memzero.Zero(raw)
	return domain.KeyPair{
		PrivateKey: priv.Serialize(),
		PublicKey:  priv.PubKey().SerializeCompressed(),
	}, nil
}

// DeriveMessagingKeyPair derives the messaging identity from the wallet
// private key, scoped to the chain id.
func (e EVM) DeriveMessagingKeyPair(walletPrivateKey []byte, chainID string) (domain.KeyPair, error) {
	if len(walletPrivateKey) < MinSeedBytes {
		return domain.KeyPair{}, ErrSeedTooShort
	}
	seed, err := deriveSeed(walletPrivateKey, messagingLabel(domain.ChainEVM, chainID))
	if err != nil {
		return domain.KeyPair{}, err
	}
	kp, err := e.DeriveKeyPairFromSeed(seed)
	memzero.Zero(seed)
	return kp, err
}

// ComputeSharedSecret performs ECDH and returns the 32-byte shared x
// coordinate.
func (EVM) ComputeSharedSecret(privateKey, peerPublicKey []byte) ([]byte, error) {
	if len(privateKey) != 32 {
		return nil, errors.New("evm: private key must be 32 bytes")
	}
	pub, err := secp256k1.ParsePubKey(peerPublicKey)
	if err != nil {
		return nil, err
	}
	priv := secp256k1.PrivKeyFromBytes(privateKey)
	return secp256k1.GenerateSharedSecret(priv, pub), nil
}

// Sign produces a DER-encoded ECDSA signature over the Keccak-256 digest
// of message.
func (EVM) Sign(privateKey, message []byte) ([]byte, error) {
	if len(privateKey) != 32 {
		return nil, errors.New("evm: private key must be 32 bytes")
	}
	priv := secp256k1.PrivKeyFromBytes(privateKey)
	return secpecdsa.Sign(priv, keccak256(message)).Serialize(), nil
}

// Verify checks a DER-encoded ECDSA signature.
func (EVM) Verify(publicKey, message, signature []byte) bool {
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := secpecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(keccak256(message), pub)
}

// PublicKeyToAddress derives the 0x-prefixed Keccak-256 address.
func (EVM) PublicKeyToAddress(publicKey []byte) (domain.Address, error) {
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return "", err
	}
	// Hash the 64-byte uncompressed point, drop the 0x04 prefix first.
	digest := keccak256(pub.SerializeUncompressed()[1:])
	return domain.Address("0x" + hex.EncodeToString(digest[12:])), nil
}

// IsValidAddress reports whether addr is 0x followed by 40 hex digits.
func (EVM) IsValidAddress(addr domain.Address) bool {
	s := string(addr)
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

// CompressPublicKey converts any valid encoding to 33-byte compressed form.
func (EVM) CompressPublicKey(publicKey []byte) ([]byte, error) {
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return nil, err
	}
	return pub.SerializeCompressed(), nil
}

// DecompressPublicKey converts any valid encoding to 65-byte uncompressed form.
func (EVM) DecompressPublicKey(publicKey []byte) ([]byte, error) {
	pub, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// Compile-time assertion that EVM implements Chain.
var _ Chain = EVM{}
