package app_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Deyond-Management/deyondcrypt/internal/app"
	"github.com/Deyond-Management/deyondcrypt/internal/domain"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

// provision sets up one party on a fresh wire: identity, signed
// pre-key and a small one-time pool.
func provision(t *testing.T, w *app.Wire, seed byte) {
	t.Helper()
	ctx := context.Background()
	_, err := w.Identity.Derive(ctx, bytes.Repeat([]byte{seed}, 32), domain.ChainEVM)
	require.NoError(t, err)
	_, err = w.Prekey.RotateSignedPreKey(ctx)
	require.NoError(t, err)
	require.NoError(t, w.Prekey.ReplenishOneTimePreKeys(ctx, 2))
}

func TestWireMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()

	alice, err := app.NewWire(app.Config{Logger: quietLogger()})
	require.NoError(t, err)
	defer alice.Close()
	bob, err := app.NewWire(app.Config{Logger: quietLogger()})
	require.NoError(t, err)
	defer bob.Close()

	provision(t, alice, 0x31)
	provision(t, bob, 0x32)

	bundle, err := bob.Prekey.Bundle(ctx)
	require.NoError(t, err)
	sess, _, err := alice.Sessions.Initiate(ctx, bundle)
	require.NoError(t, err)

	env, err := alice.Sessions.Encrypt(ctx, sess.ID, []byte("wired"))
	require.NoError(t, err)
	pt, err := bob.Sessions.Decrypt(ctx, env)
	require.NoError(t, err)
	require.Equal(t, []byte("wired"), pt)
}

func TestWireBadgerPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	w, err := app.NewWire(app.Config{DataDir: dir, Logger: quietLogger()})
	require.NoError(t, err)
	provision(t, w, 0x33)
	id, err := w.Identity.Identity(ctx)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	reopened, err := app.NewWire(app.Config{DataDir: dir, Logger: quietLogger()})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Identity.Identity(ctx)
	require.NoError(t, err)
	require.Equal(t, id, got)

	n, err := reopened.Prekey.RemainingOneTimePreKeys(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
