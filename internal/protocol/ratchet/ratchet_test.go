package ratchet_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Deyond-Management/deyondcrypt/internal/chains"
	"github.com/Deyond-Management/deyondcrypt/internal/domain"
	"github.com/Deyond-Management/deyondcrypt/internal/protocol/ratchet"
)

// newPair seeds an initiator and responder ratchet from the same shared
// secret, the way the session layer does after X3DH.
func newPair(t *testing.T, chain chains.Chain) (initiator, responder domain.RatchetState) {
	t.Helper()
	secret := make([]byte, 32)
	_, err := rand.Read(secret)
	require.NoError(t, err)

	spk, err := chain.GenerateKeyPair()
	require.NoError(t, err)

	initiator, err = ratchet.InitInitiator(chain, secret, spk.PublicKey)
	require.NoError(t, err)
	responder = ratchet.InitResponder(secret, spk)
	return initiator, responder
}

func TestRoundTrip(t *testing.T) {
	for _, ct := range []domain.ChainType{domain.ChainEVM, domain.ChainSolana} {
		t.Run(string(ct), func(t *testing.T) {
			chain, err := chains.ForChain(ct)
			require.NoError(t, err)
			alice, bob := newPair(t, chain)

			for i := 0; i < 5; i++ {
				header, cthdr, err := ratchet.Encrypt(chain, &alice, nil, []byte("ping"))
				require.NoError(t, err)
				pt, err := ratchet.Decrypt(chain, &bob, nil, header, cthdr, 0)
				require.NoError(t, err)
				require.Equal(t, []byte("ping"), pt)

				header, cthdr, err = ratchet.Encrypt(chain, &bob, nil, []byte("pong"))
				require.NoError(t, err)
				pt, err = ratchet.Decrypt(chain, &alice, nil, header, cthdr, 0)
				require.NoError(t, err)
				require.Equal(t, []byte("pong"), pt)
			}
		})
	}
}

func TestOutOfOrderWithinChain(t *testing.T) {
	chain := chains.EVM{}
	alice, bob := newPair(t, chain)

	type msg struct {
		header domain.RatchetHeader
		ct     []byte
		want   string
	}
	var msgs []msg
	for _, body := range []string{"one", "two", "three", "four"} {
		header, ct, err := ratchet.Encrypt(chain, &alice, nil, []byte(body))
		require.NoError(t, err)
		msgs = append(msgs, msg{header, ct, body})
	}

	// Deliver 3, 0, 2, 1.
	for _, i := range []int{3, 0, 2, 1} {
		pt, err := ratchet.Decrypt(chain, &bob, nil, msgs[i].header, msgs[i].ct, 0)
		require.NoError(t, err, "message %d", i)
		require.Equal(t, []byte(msgs[i].want), pt)
	}
}

func TestOutOfOrderAcrossDHStep(t *testing.T) {
	chain := chains.EVM{}
	alice, bob := newPair(t, chain)

	// First generation from Alice; hold back message 1.
	h0, c0, err := ratchet.Encrypt(chain, &alice, nil, []byte("gen1-0"))
	require.NoError(t, err)
	h1, c1, err := ratchet.Encrypt(chain, &alice, nil, []byte("gen1-1"))
	require.NoError(t, err)

	pt, err := ratchet.Decrypt(chain, &bob, nil, h0, c0, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("gen1-0"), pt)

	// A full round trip forces a DH step on both sides.
	hb, cb, err := ratchet.Encrypt(chain, &bob, nil, []byte("reply"))
	require.NoError(t, err)
	_, err = ratchet.Decrypt(chain, &alice, nil, hb, cb, 0)
	require.NoError(t, err)

	h2, c2, err := ratchet.Encrypt(chain, &alice, nil, []byte("gen2-0"))
	require.NoError(t, err)
	pt, err = ratchet.Decrypt(chain, &bob, nil, h2, c2, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("gen2-0"), pt)

	// The held-back first-generation message still decrypts.
	pt, err = ratchet.Decrypt(chain, &bob, nil, h1, c1, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("gen1-1"), pt)
}

func TestReplayRejected(t *testing.T) {
	chain := chains.EVM{}
	alice, bob := newPair(t, chain)

	header, ct, err := ratchet.Encrypt(chain, &alice, nil, []byte("once"))
	require.NoError(t, err)

	_, err = ratchet.Decrypt(chain, &bob, nil, header, ct, 0)
	require.NoError(t, err)

	_, err = ratchet.Decrypt(chain, &bob, nil, header, ct, 0)
	require.ErrorIs(t, err, domain.ErrMessageKeyUsed)
	require.ErrorIs(t, err, domain.ErrDecryptionFailed)
}

func TestLookaheadBounded(t *testing.T) {
	chain := chains.EVM{}
	alice, bob := newPair(t, chain)

	// Advance Alice past the skip window, keeping only the last message.
	const maxSkip = 8
	var header domain.RatchetHeader
	var ct []byte
	for i := 0; i < maxSkip+2; i++ {
		var err error
		header, ct, err = ratchet.Encrypt(chain, &alice, nil, []byte("x"))
		require.NoError(t, err)
	}

	before := bob
	_, err := ratchet.Decrypt(chain, &bob, nil, header, ct, maxSkip)
	require.ErrorIs(t, err, domain.ErrLookaheadExceeded)
	require.ErrorIs(t, err, domain.ErrDecryptionFailed)

	// The failed attempt must not have advanced the receiver.
	require.Equal(t, before.RecvCount, bob.RecvCount)
	require.Equal(t, before.RootKey, bob.RootKey)
}

func TestTamperedCiphertextRejected(t *testing.T) {
	chain := chains.EVM{}
	alice, bob := newPair(t, chain)

	header, ct, err := ratchet.Encrypt(chain, &alice, nil, []byte("intact"))
	require.NoError(t, err)
	ct[0] ^= 0xFF

	before := bob
	_, err = ratchet.Decrypt(chain, &bob, nil, header, ct, 0)
	require.ErrorIs(t, err, domain.ErrDecryptionFailed)
	require.Equal(t, before.RecvCount, bob.RecvCount)
}

func TestTamperedHeaderRejected(t *testing.T) {
	chain := chains.EVM{}
	alice, bob := newPair(t, chain)

	header, ct, err := ratchet.Encrypt(chain, &alice, nil, []byte("intact"))
	require.NoError(t, err)

	// The header is bound into the AEAD associated data.
	header.PreviousChainLength++
	_, err = ratchet.Decrypt(chain, &bob, nil, header, ct, 0)
	require.ErrorIs(t, err, domain.ErrDecryptionFailed)
}

func TestFailedDecryptLeavesStateUsable(t *testing.T) {
	chain := chains.EVM{}
	alice, bob := newPair(t, chain)

	header, ct, err := ratchet.Encrypt(chain, &alice, nil, []byte("first"))
	require.NoError(t, err)

	bad := append([]byte(nil), ct...)
	bad[len(bad)-1] ^= 0x01
	_, err = ratchet.Decrypt(chain, &bob, nil, header, bad, 0)
	require.ErrorIs(t, err, domain.ErrDecryptionFailed)

	// The genuine ciphertext still decrypts afterwards.
	pt, err := ratchet.Decrypt(chain, &bob, nil, header, ct, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), pt)
}

func TestAssociatedDataMismatch(t *testing.T) {
	chain := chains.EVM{}
	alice, bob := newPair(t, chain)

	header, ct, err := ratchet.Encrypt(chain, &alice, []byte("ad-1"), []byte("bound"))
	require.NoError(t, err)
	_, err = ratchet.Decrypt(chain, &bob, []byte("ad-2"), header, ct, 0)
	require.ErrorIs(t, err, domain.ErrDecryptionFailed)
}
