package x3dh_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Deyond-Management/deyondcrypt/internal/chains"
	"github.com/Deyond-Management/deyondcrypt/internal/domain"
	"github.com/Deyond-Management/deyondcrypt/internal/protocol/x3dh"
)

// makeIdentity creates an identity key pair on the given chain.
func makeIdentity(t *testing.T, chain chains.Chain) domain.IdentityKeyPair {
	t.Helper()
	pair, err := chain.GenerateKeyPair()
	require.NoError(t, err)
	addr, err := chain.PublicKeyToAddress(pair.PublicKey)
	require.NoError(t, err)
	return domain.IdentityKeyPair{KeyPair: pair, Chain: chain.ID(), Address: addr}
}

// makeBundle publishes a bundle for identity with a signed pre-key and,
// optionally, one one-time pre-key. Returns the bundle plus the private
// halves the responder needs.
func makeBundle(t *testing.T, chain chains.Chain, identity domain.IdentityKeyPair, withOPK bool) (domain.PreKeyBundle, domain.KeyPair, domain.KeyPair) {
	t.Helper()
	spk, err := chain.GenerateKeyPair()
	require.NoError(t, err)
	sig, err := chain.Sign(identity.PrivateKey, spk.PublicKey)
	require.NoError(t, err)

	bundle := domain.PreKeyBundle{
		Address:               identity.Address,
		Chain:                 chain.ID(),
		IdentityKey:           identity.PublicKey,
		SignedPreKeyID:        "spk-test",
		SignedPreKey:          spk.PublicKey,
		SignedPreKeySignature: sig,
	}

	var opk domain.KeyPair
	if withOPK {
		opk, err = chain.GenerateKeyPair()
		require.NoError(t, err)
		bundle.OneTimePreKey = &domain.OneTimePreKeyPublic{ID: "opk-test", PublicKey: opk.PublicKey}
	}
	return bundle, spk, opk
}

func TestAgreement(t *testing.T) {
	for _, ct := range []domain.ChainType{domain.ChainEVM, domain.ChainSolana} {
		for _, withOPK := range []bool{false, true} {
			name := string(ct)
			if withOPK {
				name += "/with-opk"
			}
			t.Run(name, func(t *testing.T) {
				chain, err := chains.ForChain(ct)
				require.NoError(t, err)

				alice := makeIdentity(t, chain)
				bob := makeIdentity(t, chain)
				bundle, spk, opk := makeBundle(t, chain, bob, withOPK)

				secretA, initial, err := x3dh.Initiate(chain, alice, bundle)
				require.NoError(t, err)
				require.Len(t, secretA, x3dh.SecretSize)
				require.Equal(t, alice.PublicKey, initial.IdentityKey)
				require.NotEmpty(t, initial.EphemeralKey)

				var opkPriv []byte
				if withOPK {
					require.Equal(t, domain.OneTimePreKeyID("opk-test"), initial.OneTimePreKeyID)
					opkPriv = opk.PrivateKey
				} else {
					require.Empty(t, initial.OneTimePreKeyID)
				}

				secretB, err := x3dh.Respond(chain, bob, spk.PrivateKey, opkPriv, initial)
				require.NoError(t, err)
				require.Equal(t, secretA, secretB)
			})
		}
	}
}

func TestForgedBundleRejected(t *testing.T) {
	chain := chains.EVM{}
	alice := makeIdentity(t, chain)
	bob := makeIdentity(t, chain)
	mallory := makeIdentity(t, chain)

	bundle, _, _ := makeBundle(t, chain, bob, false)

	// The signed pre-key was swapped but the signature still covers the
	// original one.
	swapped, err := chain.GenerateKeyPair()
	require.NoError(t, err)
	bundle.SignedPreKey = swapped.PublicKey

	_, _, err = x3dh.Initiate(chain, alice, bundle)
	require.ErrorIs(t, err, domain.ErrInvalidPreKeyBundle)

	// A bundle re-signed under a different identity also fails.
	bundle, _, _ = makeBundle(t, chain, bob, false)
	bundle.IdentityKey = mallory.PublicKey
	_, _, err = x3dh.Initiate(chain, alice, bundle)
	require.ErrorIs(t, err, domain.ErrInvalidPreKeyBundle)
}

func TestBundleSchemaRejected(t *testing.T) {
	chain := chains.EVM{}
	alice := makeIdentity(t, chain)
	bob := makeIdentity(t, chain)

	cases := map[string]func(*domain.PreKeyBundle){
		"missing identity key":  func(b *domain.PreKeyBundle) { b.IdentityKey = nil },
		"missing signed prekey": func(b *domain.PreKeyBundle) { b.SignedPreKey = nil },
		"missing signature":     func(b *domain.PreKeyBundle) { b.SignedPreKeySignature = nil },
		"wrong chain":           func(b *domain.PreKeyBundle) { b.Chain = domain.ChainSolana },
		"empty one-time prekey": func(b *domain.PreKeyBundle) { b.OneTimePreKey = &domain.OneTimePreKeyPublic{ID: "x"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			bundle, _, _ := makeBundle(t, chain, bob, false)
			mutate(&bundle)
			_, _, err := x3dh.Initiate(chain, alice, bundle)
			require.ErrorIs(t, err, domain.ErrInvalidPreKeyBundle)
		})
	}
}

func TestRespondMissingKeys(t *testing.T) {
	chain := chains.EVM{}
	bob := makeIdentity(t, chain)
	spk, err := chain.GenerateKeyPair()
	require.NoError(t, err)

	_, err = x3dh.Respond(chain, bob, spk.PrivateKey, nil, domain.InitialMessage{})
	require.ErrorIs(t, err, domain.ErrInvalidPreKeyBundle)
}
