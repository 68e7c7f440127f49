package session_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Deyond-Management/deyondcrypt/internal/chains"
	"github.com/Deyond-Management/deyondcrypt/internal/domain"
	"github.com/Deyond-Management/deyondcrypt/internal/envelope"
	"github.com/Deyond-Management/deyondcrypt/internal/services/identity"
	"github.com/Deyond-Management/deyondcrypt/internal/services/prekey"
	"github.com/Deyond-Management/deyondcrypt/internal/services/session"
	"github.com/Deyond-Management/deyondcrypt/internal/store"
)

// endpoint is one party's full stack on in-memory storage.
type endpoint struct {
	id       domain.IdentityKeyPair
	prekeys  *prekey.Service
	sessions *session.Manager
}

// newEndpoint derives an identity from walletKey on chain and provisions
// a signed pre-key plus a small one-time pool.
func newEndpoint(t *testing.T, walletKey []byte, chain domain.ChainType) *endpoint {
	t.Helper()
	ctx := context.Background()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	mem := store.NewMemory()
	ids := identity.New(mem, log)
	pks := prekey.New(mem, log)

	id, err := ids.Derive(ctx, walletKey, chain)
	require.NoError(t, err)
	_, err = pks.RotateSignedPreKey(ctx)
	require.NoError(t, err)
	require.NoError(t, pks.ReplenishOneTimePreKeys(ctx, 3))

	return &endpoint{
		id:       id,
		prekeys:  pks,
		sessions: session.New(mem, mem, log, 0),
	}
}

func TestHelloBetweenWallets(t *testing.T) {
	ctx := context.Background()
	alice := newEndpoint(t, bytes.Repeat([]byte{0x01}, 32), domain.ChainEVM)
	bob := newEndpoint(t, bytes.Repeat([]byte{0x02}, 32), domain.ChainEVM)
	require.NotEqual(t, alice.id.Address, bob.id.Address)

	bundle, err := bob.prekeys.Bundle(ctx)
	require.NoError(t, err)

	sess, initial, err := alice.sessions.Initiate(ctx, bundle)
	require.NoError(t, err)
	require.Equal(t, bob.id.Address, sess.RemoteAddress)
	require.NotEmpty(t, initial.EphemeralKey)

	// The first envelope carries the handshake.
	env, err := alice.sessions.Encrypt(ctx, sess.ID, []byte("hello"))
	require.NoError(t, err)
	require.NotNil(t, env.Initial)
	require.Equal(t, alice.id.Address, env.Sender.Address)

	pt, err := bob.sessions.Decrypt(ctx, env)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), pt)

	// The one-time pre-key in the bundle was consumed.
	remaining, err := bob.prekeys.RemainingOneTimePreKeys(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, remaining)

	// Bob replies on the session that was just established.
	bobSess, err := bob.sessions.SessionByPeer(ctx, alice.id.Address, domain.ChainEVM)
	require.NoError(t, err)
	reply, err := bob.sessions.Encrypt(ctx, bobSess.ID, []byte("hello yourself"))
	require.NoError(t, err)
	require.Nil(t, reply.Initial)

	pt, err = alice.sessions.Decrypt(ctx, reply)
	require.NoError(t, err)
	require.Equal(t, []byte("hello yourself"), pt)

	// Alice's next envelope no longer re-sends the handshake.
	env, err = alice.sessions.Encrypt(ctx, sess.ID, []byte("good"))
	require.NoError(t, err)
	require.Nil(t, env.Initial)
	pt, err = bob.sessions.Decrypt(ctx, env)
	require.NoError(t, err)
	require.Equal(t, []byte("good"), pt)
}

func TestConversationOnSolana(t *testing.T) {
	ctx := context.Background()
	alice := newEndpoint(t, bytes.Repeat([]byte{0x03}, 32), domain.ChainSolana)
	bob := newEndpoint(t, bytes.Repeat([]byte{0x04}, 32), domain.ChainSolana)

	bundle, err := bob.prekeys.Bundle(ctx)
	require.NoError(t, err)
	sess, _, err := alice.sessions.Initiate(ctx, bundle)
	require.NoError(t, err)

	env, err := alice.sessions.Encrypt(ctx, sess.ID, []byte("gm"))
	require.NoError(t, err)
	pt, err := bob.sessions.Decrypt(ctx, env)
	require.NoError(t, err)
	require.Equal(t, []byte("gm"), pt)
}

func TestOutOfOrderDelivery(t *testing.T) {
	ctx := context.Background()
	alice := newEndpoint(t, bytes.Repeat([]byte{0x05}, 32), domain.ChainEVM)
	bob := newEndpoint(t, bytes.Repeat([]byte{0x06}, 32), domain.ChainEVM)

	bundle, err := bob.prekeys.Bundle(ctx)
	require.NoError(t, err)
	sess, _, err := alice.sessions.Initiate(ctx, bundle)
	require.NoError(t, err)

	var envs []domain.Envelope
	for _, body := range []string{"first", "second", "third"} {
		env, err := alice.sessions.Encrypt(ctx, sess.ID, []byte(body))
		require.NoError(t, err)
		envs = append(envs, env)
	}

	// Deliver in reverse; skipped keys bridge the gaps.
	for i, want := range []string{"third", "second", "first"} {
		pt, err := bob.sessions.Decrypt(ctx, envs[2-i])
		require.NoError(t, err)
		require.Equal(t, []byte(want), pt)
	}
}

func TestReplayRejected(t *testing.T) {
	ctx := context.Background()
	alice := newEndpoint(t, bytes.Repeat([]byte{0x07}, 32), domain.ChainEVM)
	bob := newEndpoint(t, bytes.Repeat([]byte{0x08}, 32), domain.ChainEVM)

	bundle, err := bob.prekeys.Bundle(ctx)
	require.NoError(t, err)
	sess, _, err := alice.sessions.Initiate(ctx, bundle)
	require.NoError(t, err)

	env, err := alice.sessions.Encrypt(ctx, sess.ID, []byte("once"))
	require.NoError(t, err)

	_, err = bob.sessions.Decrypt(ctx, env)
	require.NoError(t, err)
	_, err = bob.sessions.Decrypt(ctx, env)
	require.ErrorIs(t, err, domain.ErrDecryptionFailed)
}

func TestDecryptUnknownPeer(t *testing.T) {
	ctx := context.Background()
	bob := newEndpoint(t, bytes.Repeat([]byte{0x09}, 32), domain.ChainEVM)
	carol := newEndpoint(t, bytes.Repeat([]byte{0x0a}, 32), domain.ChainEVM)

	// Carol seals a valid envelope but never ran a handshake with Bob.
	chainEnv, err := envelope.Seal(
		chains.EVM{}, carol.id,
		domain.Party{Address: bob.id.Address, Chain: domain.ChainEVM},
		domain.RatchetHeader{RatchetPublicKey: carol.id.PublicKey, Counter: 0},
		[]byte("opaque"), nil)
	require.NoError(t, err)

	_, err = bob.sessions.Decrypt(ctx, chainEnv)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestDecryptTamperedEnvelope(t *testing.T) {
	ctx := context.Background()
	alice := newEndpoint(t, bytes.Repeat([]byte{0x0b}, 32), domain.ChainEVM)
	bob := newEndpoint(t, bytes.Repeat([]byte{0x0c}, 32), domain.ChainEVM)

	bundle, err := bob.prekeys.Bundle(ctx)
	require.NoError(t, err)
	sess, _, err := alice.sessions.Initiate(ctx, bundle)
	require.NoError(t, err)

	env, err := alice.sessions.Encrypt(ctx, sess.ID, []byte("intact"))
	require.NoError(t, err)
	env.Ciphertext[0] ^= 0xFF

	_, err = bob.sessions.Decrypt(ctx, env)
	require.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestInitiateChainMismatch(t *testing.T) {
	ctx := context.Background()
	alice := newEndpoint(t, bytes.Repeat([]byte{0x0d}, 32), domain.ChainEVM)
	bob := newEndpoint(t, bytes.Repeat([]byte{0x0e}, 32), domain.ChainSolana)

	bundle, err := bob.prekeys.Bundle(ctx)
	require.NoError(t, err)
	_, _, err = alice.sessions.Initiate(ctx, bundle)
	require.ErrorIs(t, err, domain.ErrInvalidPreKeyBundle)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	alice := newEndpoint(t, bytes.Repeat([]byte{0x0f}, 32), domain.ChainEVM)
	bob := newEndpoint(t, bytes.Repeat([]byte{0x10}, 32), domain.ChainEVM)

	bundle, err := bob.prekeys.Bundle(ctx)
	require.NoError(t, err)
	sess, _, err := alice.sessions.Initiate(ctx, bundle)
	require.NoError(t, err)

	got, err := alice.sessions.Session(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)

	sums, err := alice.sessions.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sums, 1)

	require.NoError(t, alice.sessions.Delete(ctx, sess.ID))
	_, err = alice.sessions.Session(ctx, sess.ID)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}
