package envelope_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Deyond-Management/deyondcrypt/internal/domain"
	"github.com/Deyond-Management/deyondcrypt/internal/envelope"
)

func sealTestGroupMessage(t *testing.T) (domain.GroupMessage, ed25519.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	msg, err := envelope.SealGroup(
		"grp-1", "0xabc", domain.ChainEVM, "key-1",
		4, []byte("nonce-bytes!"), []byte("ciphertext"), priv)
	require.NoError(t, err)
	return msg, pub
}

func TestGroupSealOpenRoundTrip(t *testing.T) {
	msg, pub := sealTestGroupMessage(t)
	require.NotEmpty(t, msg.MessageID)
	require.NoError(t, envelope.OpenGroup(msg, pub))
}

func TestGroupEncodeDecodeRoundTrip(t *testing.T) {
	msg, pub := sealTestGroupMessage(t)

	blob, err := envelope.EncodeGroup(msg)
	require.NoError(t, err)
	decoded, err := envelope.DecodeGroup(blob)
	require.NoError(t, err)
	require.Equal(t, msg, decoded)
	require.NoError(t, envelope.OpenGroup(decoded, pub))
}

func TestGroupOpenRejectsTampering(t *testing.T) {
	cases := map[string]func(*domain.GroupMessage){
		"ciphertext": func(m *domain.GroupMessage) { m.Ciphertext[0] ^= 0xFF },
		"nonce":      func(m *domain.GroupMessage) { m.Nonce[0] ^= 0xFF },
		"iteration":  func(m *domain.GroupMessage) { m.Iteration++ },
		"group id":   func(m *domain.GroupMessage) { m.GroupID = "grp-2" },
		"sender":     func(m *domain.GroupMessage) { m.Sender = "0xdef" },
		"signature":  func(m *domain.GroupMessage) { m.Signature[0] ^= 0x01 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			msg, pub := sealTestGroupMessage(t)
			mutate(&msg)
			require.ErrorIs(t, envelope.OpenGroup(msg, pub), domain.ErrInvalidSignature)
		})
	}
}

func TestGroupOpenRejectsWrongKey(t *testing.T) {
	msg, _ := sealTestGroupMessage(t)
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	require.ErrorIs(t, envelope.OpenGroup(msg, otherPub), domain.ErrInvalidSignature)
	require.ErrorIs(t, envelope.OpenGroup(msg, nil), domain.ErrInvalidSignature)
}

func TestSealGroupRequiresSigningKey(t *testing.T) {
	_, err := envelope.SealGroup("grp-1", "0xabc", domain.ChainEVM, "key-1", 0, []byte("n"), []byte("c"), nil)
	require.ErrorIs(t, err, domain.ErrKeyNotFound)
}
