package ratchet

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/Deyond-Management/deyondcrypt/internal/chains"
	"github.com/Deyond-Management/deyondcrypt/internal/domain"
	"github.com/Deyond-Management/deyondcrypt/internal/util/memzero"
)

const (
	// DefaultMaxSkip bounds how many message keys may be derived ahead
	// of the receiving counter in one chain. Past it, decryption fails
	// instead of growing the cache without bound.
	DefaultMaxSkip = 2000

	keySize   = 32
	nonceSize = chacha20poly1305.NonceSize

	rootLabel = "deyondcrypt/ratchet/root/v1"
)

// Distinct HMAC inputs for the two chain-step outputs.
var (
	messageKeySeed = []byte{0x01}
	chainKeySeed   = []byte{0x02}
)

var errChainUninitialised = errors.New("ratchet chain key is uninitialised")

// InitInitiator seeds a fresh ratchet from the X3DH secret. The
// initiator creates its DH pair immediately and derives the sending
// chain against the peer's signed pre-key, which acts as the peer's
// first ratchet key.
func InitInitiator(chain chains.Chain, secret, peerSignedPreKey []byte) (domain.RatchetState, error) {
	pair, err := chain.GenerateKeyPair()
	if err != nil {
		return domain.RatchetState{}, err
	}
	dh, err := chain.ComputeSharedSecret(pair.PrivateKey, peerSignedPreKey)
	if err != nil {
		return domain.RatchetState{}, err
	}
	rk, sendCK := kdfRoot(secret, dh)
	memzero.Zero(dh)

	return domain.RatchetState{
		RootKey:         rk,
		DHPrivateKey:    pair.PrivateKey,
		DHPublicKey:     pair.PublicKey,
		PeerDHPublicKey: append([]byte(nil), peerSignedPreKey...),
		SendChainKey:    sendCK,
		SkippedKeys:     make(map[string][]byte),
	}, nil
}

// InitResponder seeds a fresh ratchet from the X3DH secret. The
// responder reuses its signed pre-key as its first ratchet pair and
// defers its first DH step; chains are derived when the initiator's
// ratchet key arrives or when the responder first sends.
func InitResponder(secret []byte, signedPreKey domain.KeyPair) domain.RatchetState {
	return domain.RatchetState{
		RootKey:      append([]byte(nil), secret...),
		DHPrivateKey: append([]byte(nil), signedPreKey.PrivateKey...),
		DHPublicKey:  append([]byte(nil), signedPreKey.PublicKey...),
		SkippedKeys:  make(map[string][]byte),
	}
}

// Encrypt advances the sending chain by one message key and seals the
// plaintext. If the sending chain is uninitialised (responder that has
// not yet stepped), a DH ratchet step is performed first.
func Encrypt(chain chains.Chain, st *domain.RatchetState, ad, plaintext []byte) (domain.RatchetHeader, []byte, error) {
	if len(st.SendChainKey) == 0 {
		if len(st.PeerDHPublicKey) == 0 {
			return domain.RatchetHeader{}, nil, errChainUninitialised
		}
		pair, err := chain.GenerateKeyPair()
		if err != nil {
			return domain.RatchetHeader{}, nil, err
		}
		dh, err := chain.ComputeSharedSecret(pair.PrivateKey, st.PeerDHPublicKey)
		if err != nil {
			return domain.RatchetHeader{}, nil, err
		}
		rk, sendCK := kdfRoot(st.RootKey, dh)
		memzero.Zero(dh)

		st.PrevSendCount = st.SendCount
		st.SendCount = 0
		st.RootKey = rk
		st.DHPrivateKey, st.DHPublicKey = pair.PrivateKey, pair.PublicKey
		st.SendChainKey = sendCK
	}

	var mk []byte
	st.SendChainKey, mk = kdfChain(st.SendChainKey)

	header := domain.RatchetHeader{
		RatchetPublicKey:    st.DHPublicKey,
		PreviousChainLength: st.PrevSendCount,
		Counter:             st.SendCount,
	}
	ct, err := seal(mk, header, ad, plaintext)
	memzero.Zero(mk)
	if err != nil {
		return domain.RatchetHeader{}, nil, err
	}
	st.SendCount++
	return header, ct, nil
}

// Decrypt opens a message, stepping the DH ratchet when the header
// carries a new ratchet public key and recovering bounded out-of-order
// messages through the skipped-key cache.
//
// maxSkip <= 0 selects DefaultMaxSkip.
func Decrypt(chain chains.Chain, st *domain.RatchetState, ad []byte, header domain.RatchetHeader, ciphertext []byte, maxSkip int) ([]byte, error) {
	if maxSkip <= 0 {
		maxSkip = DefaultMaxSkip
	}

	// A cached skipped key matches regardless of which chain is current.
	if mk, ok := st.SkippedKeys[skippedKeyID(header.RatchetPublicKey, header.Counter)]; ok {
		pt, err := open(mk, header, ad, ciphertext)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDecryptionFailed, err)
		}
		delete(st.SkippedKeys, skippedKeyID(header.RatchetPublicKey, header.Counter))
		memzero.Zero(mk)
		return pt, nil
	}

	sameChain := bytes.Equal(st.PeerDHPublicKey, header.RatchetPublicKey)
	if sameChain && header.Counter < st.RecvCount {
		// Behind the chain and not cached: the key was consumed.
		return nil, domain.ErrMessageKeyUsed
	}

	// Work on a copy so a failure leaves the live state untouched.
	sc := clone(*st)

	if !sameChain {
		// Close out the previous receiving chain before stepping.
		if err := skipUntil(&sc, header.PreviousChainLength, maxSkip); err != nil {
			return nil, err
		}
		if err := dhStep(chain, &sc, header.RatchetPublicKey); err != nil {
			return nil, err
		}
	}
	if err := skipUntil(&sc, header.Counter, maxSkip); err != nil {
		return nil, err
	}

	if len(sc.RecvChainKey) == 0 {
		return nil, errChainUninitialised
	}
	var mk []byte
	sc.RecvChainKey, mk = kdfChain(sc.RecvChainKey)
	sc.RecvCount++

	pt, err := open(mk, header, ad, ciphertext)
	memzero.Zero(mk)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryptionFailed, err)
	}

	*st = sc
	return pt, nil
}

// dhStep ratchets to the peer's new public key: a new receiving chain
// from our current pair, then a new pair and sending chain.
func dhStep(chain chains.Chain, st *domain.RatchetState, peerPub []byte) error {
	dh, err := chain.ComputeSharedSecret(st.DHPrivateKey, peerPub)
	if err != nil {
		return err
	}
	rk, recvCK := kdfRoot(st.RootKey, dh)
	memzero.Zero(dh)

	pair, err := chain.GenerateKeyPair()
	if err != nil {
		return err
	}
	dh2, err := chain.ComputeSharedSecret(pair.PrivateKey, peerPub)
	if err != nil {
		return err
	}
	rk2, sendCK := kdfRoot(rk, dh2)
	memzero.Zero(dh2)

	st.PrevSendCount = st.SendCount
	st.SendCount, st.RecvCount = 0, 0
	st.RootKey = rk2
	st.DHPrivateKey, st.DHPublicKey = pair.PrivateKey, pair.PublicKey
	st.PeerDHPublicKey = append([]byte(nil), peerPub...)
	st.SendChainKey, st.RecvChainKey = sendCK, recvCK
	return nil
}

// skipUntil derives and caches message keys up to (excluding) until.
func skipUntil(st *domain.RatchetState, until uint32, maxSkip int) error {
	if until <= st.RecvCount {
		return nil
	}
	if len(st.RecvChainKey) == 0 {
		// Nothing received on this chain yet and nothing to close out.
		if until > uint32(maxSkip) {
			return domain.ErrLookaheadExceeded
		}
		return nil
	}
	if int(until-st.RecvCount)+len(st.SkippedKeys) > maxSkip {
		return domain.ErrLookaheadExceeded
	}
	for st.RecvCount < until {
		var mk []byte
		st.RecvChainKey, mk = kdfChain(st.RecvChainKey)
		st.SkippedKeys[skippedKeyID(st.PeerDHPublicKey, st.RecvCount)] = mk
		st.RecvCount++
	}
	return nil
}

// --- key derivation ---

// kdfRoot mixes a DH output into the root key, yielding the next root
// key and a chain key.
func kdfRoot(rk, dh []byte) (newRK, ck []byte) {
	r := hkdf.New(sha256.New, dh, rk, []byte(rootLabel))
	newRK = make([]byte, keySize)
	ck = make([]byte, keySize)
	_, _ = io.ReadFull(r, newRK)
	_, _ = io.ReadFull(r, ck)
	return
}

// kdfChain advances a chain key one step, returning the next chain key
// and the message key for the current position. The old chain key is
// never reused.
func kdfChain(ck []byte) (nextCK, mk []byte) {
	return hmacSum(ck, chainKeySeed), hmacSum(ck, messageKeySeed)
}

func hmacSum(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

// --- AEAD ---

func seal(mk []byte, header domain.RatchetHeader, ad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(mk[:keySize])
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonceFor(header.Counter), plaintext, withHeader(ad, header)), nil
}

func open(mk []byte, header domain.RatchetHeader, ad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(mk[:keySize])
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonceFor(header.Counter), ciphertext, withHeader(ad, header))
}

// nonceFor is deterministic per message key; each key seals exactly one
// message, so nonce reuse cannot occur.
func nonceFor(counter uint32) []byte {
	nonce := make([]byte, nonceSize)
	binary.BigEndian.PutUint32(nonce[nonceSize-4:], counter)
	return nonce
}

// withHeader binds the ratchet header into the associated data.
func withHeader(ad []byte, h domain.RatchetHeader) []byte {
	out := make([]byte, 0, len(ad)+len(h.RatchetPublicKey)+8)
	out = append(out, ad...)
	out = append(out, h.RatchetPublicKey...)
	out = binary.BigEndian.AppendUint32(out, h.PreviousChainLength)
	out = binary.BigEndian.AppendUint32(out, h.Counter)
	return out
}

func skippedKeyID(pub []byte, n uint32) string {
	return fmt.Sprintf("%x|%d", pub, n)
}

func clone(st domain.RatchetState) domain.RatchetState {
	out := st
	out.RootKey = append([]byte(nil), st.RootKey...)
	out.SendChainKey = append([]byte(nil), st.SendChainKey...)
	out.RecvChainKey = append([]byte(nil), st.RecvChainKey...)
	out.SkippedKeys = make(map[string][]byte, len(st.SkippedKeys))
	for k, v := range st.SkippedKeys {
		out.SkippedKeys[k] = v
	}
	return out
}
