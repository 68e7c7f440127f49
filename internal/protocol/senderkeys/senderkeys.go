package senderkeys

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/Deyond-Management/deyondcrypt/internal/domain"
	"github.com/Deyond-Management/deyondcrypt/internal/util/memzero"
)

const (
	// DefaultMaxLookahead bounds forward ratcheting per sender chain,
	// mirroring the 1:1 ratchet's skipped-key bound.
	DefaultMaxLookahead = 2000

	keySize = 32

	// distributionVersion tags the canonical signing payload so future
	// layouts verify against their own version.
	distributionVersion = 0x01
)

// Same chain-step labels as the Double Ratchet's symmetric chain.
var (
	messageKeySeed = []byte{0x01}
	chainKeySeed   = []byte{0x02}
)

// NewState creates the own sender-key state for one group: a random
// chain key and a fresh ed25519 signing pair.
func NewState(sender domain.Address, chain domain.ChainType) (domain.SenderKeyState, error) {
	chainKey := make([]byte, keySize)
	if _, err := rand.Read(chainKey); err != nil {
		return domain.SenderKeyState{}, err
	}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return domain.SenderKeyState{}, err
	}
	return domain.SenderKeyState{
		Sender:            sender,
		Chain:             chain,
		KeyID:             domain.SenderKeyID(uuid.NewString()),
		ChainKey:          chainKey,
		SigningPublicKey:  pub,
		SigningPrivateKey: priv,
		CachedKeys:        make(map[uint32][]byte),
	}, nil
}

// NewDistribution announces st's chain for the given group, signed with
// the state's private signing key.
func NewDistribution(groupID domain.GroupID, st domain.SenderKeyState) (domain.SenderKeyDistribution, error) {
	if len(st.SigningPrivateKey) != ed25519.PrivateKeySize {
		return domain.SenderKeyDistribution{}, fmt.Errorf("%w: no signing private key for sender %s", domain.ErrKeyNotFound, st.Sender)
	}
	dist := domain.SenderKeyDistribution{
		GroupID:          groupID,
		Sender:           st.Sender,
		Chain:            st.Chain,
		KeyID:            st.KeyID,
		ChainKey:         st.ChainKey,
		SigningPublicKey: st.SigningPublicKey,
		Iteration:        st.Iteration,
		Timestamp:        time.Now().Unix(),
	}
	dist.Signature = ed25519.Sign(ed25519.PrivateKey(st.SigningPrivateKey), signingBytes(dist))
	return dist, nil
}

// VerifyDistribution checks the distribution's signature against its
// embedded signing key. An unverifiable distribution must never be
// stored.
func VerifyDistribution(dist domain.SenderKeyDistribution) error {
	if len(dist.SigningPublicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: distribution missing signing key", domain.ErrInvalidSignature)
	}
	if !ed25519.Verify(ed25519.PublicKey(dist.SigningPublicKey), signingBytes(dist), dist.Signature) {
		return fmt.Errorf("%w: sender key distribution from %s", domain.ErrInvalidSignature, dist.Sender)
	}
	return nil
}

// StateFromDistribution builds the receive-side state for a verified
// distribution. The signing private key stays with the originator.
func StateFromDistribution(dist domain.SenderKeyDistribution) domain.SenderKeyState {
	return domain.SenderKeyState{
		Sender:           dist.Sender,
		Chain:            dist.Chain,
		KeyID:            dist.KeyID,
		ChainKey:         append([]byte(nil), dist.ChainKey...),
		Iteration:        dist.Iteration,
		SigningPublicKey: append([]byte(nil), dist.SigningPublicKey...),
		CachedKeys:       make(map[uint32][]byte),
	}
}

// Encrypt advances the own chain one step and seals the plaintext,
// returning the iteration the message key belonged to and a fresh
// random nonce.
func Encrypt(st *domain.SenderKeyState, ad, plaintext []byte) (iteration uint32, nonce, ciphertext []byte, err error) {
	iteration = st.Iteration
	var mk []byte
	st.ChainKey, mk = stepChain(st.ChainKey)
	st.Iteration++
	defer memzero.Zero(mk)

	aead, err := chacha20poly1305.New(mk)
	if err != nil {
		return 0, nil, nil, err
	}
	nonce = make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return 0, nil, nil, err
	}
	return iteration, nonce, aead.Seal(nil, nonce, plaintext, ad), nil
}

// Decrypt opens a message at the given iteration, ratcheting the chain
// forward as needed and serving older iterations from the cache.
//
// maxLookahead <= 0 selects DefaultMaxLookahead.
func Decrypt(st *domain.SenderKeyState, iteration uint32, nonce, ciphertext, ad []byte, maxLookahead int) ([]byte, error) {
	if maxLookahead <= 0 {
		maxLookahead = DefaultMaxLookahead
	}
	if st.CachedKeys == nil {
		st.CachedKeys = make(map[uint32][]byte)
	}

	if iteration < st.Iteration {
		mk, ok := st.CachedKeys[iteration]
		if !ok {
			return nil, domain.ErrMessageKeyUsed
		}
		pt, err := openWith(mk, nonce, ciphertext, ad)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDecryptionFailed, err)
		}
		delete(st.CachedKeys, iteration)
		memzero.Zero(mk)
		return pt, nil
	}

	if int(iteration-st.Iteration)+len(st.CachedKeys) > maxLookahead {
		return nil, domain.ErrLookaheadExceeded
	}

	// Ratchet forward on a copy so a bad ciphertext cannot burn keys.
	ck := append([]byte(nil), st.ChainKey...)
	cached := make(map[uint32][]byte, int(iteration-st.Iteration))
	for it := st.Iteration; it < iteration; it++ {
		var mk []byte
		ck, mk = stepChain(ck)
		cached[it] = mk
	}
	var mk []byte
	ck, mk = stepChain(ck)

	pt, err := openWith(mk, nonce, ciphertext, ad)
	memzero.Zero(mk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryptionFailed, err)
	}

	for it, k := range cached {
		st.CachedKeys[it] = k
	}
	st.ChainKey = ck
	st.Iteration = iteration + 1
	return pt, nil
}

func openWith(mk, nonce, ciphertext, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(mk)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, ciphertext, ad)
}

// stepChain advances a sender chain key, returning the next chain key
// and the message key for the current iteration.
func stepChain(ck []byte) (nextCK, mk []byte) {
	return hmacSum(ck, chainKeySeed), hmacSum(ck, messageKeySeed)
}

func hmacSum(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// signingBytes is the explicit, versioned, field-ordered payload signed
// by the distribution originator. Signer and verifier use this exact
// function; the JSON form is never signed.
func signingBytes(d domain.SenderKeyDistribution) []byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, distributionVersion)
	buf = appendField(buf, []byte(d.GroupID))
	buf = appendField(buf, []byte(d.Sender))
	buf = appendField(buf, []byte(d.Chain))
	buf = appendField(buf, []byte(d.KeyID))
	buf = appendField(buf, d.ChainKey)
	buf = appendField(buf, d.SigningPublicKey)
	buf = binary.BigEndian.AppendUint32(buf, d.Iteration)
	buf = binary.BigEndian.AppendUint64(buf, uint64(d.Timestamp))
	return buf
}

func appendField(buf, field []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(field)))
	return append(buf, field...)
}
