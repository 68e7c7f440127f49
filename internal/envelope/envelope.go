package envelope

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Deyond-Management/deyondcrypt/internal/chains"
	"github.com/Deyond-Management/deyondcrypt/internal/domain"
)

// signingVersion tags the canonical signing payload. Bump it when the
// field layout changes so old signatures never verify against new
// layouts.
const signingVersion = 0x01

// Seal builds a signed envelope around ratchet output. The signature is
// made with the sender's chain identity key over the canonical encoding
// of every other field.
func Seal(
	chain chains.Chain,
	sender domain.IdentityKeyPair,
	recipient domain.Party,
	header domain.RatchetHeader,
	ciphertext []byte,
	initial *domain.InitialMessage,
) (domain.Envelope, error) {
	env := domain.Envelope{
		Sender: domain.Party{
			Address:   sender.Address,
			Chain:     sender.Chain,
			PublicKey: sender.PublicKey,
		},
		Recipient:  domain.Party{Address: recipient.Address, Chain: recipient.Chain},
		Header:     header,
		Ciphertext: ciphertext,
		Initial:    initial,
		MessageID:  uuid.NewString(),
		Timestamp:  time.Now().Unix(),
	}
	sig, err := chain.Sign(sender.PrivateKey, signingBytes(env))
	if err != nil {
		return domain.Envelope{}, err
	}
	env.Signature = sig
	return env, nil
}

// Open validates an envelope's schema and signature and hands back the
// ratchet header and ciphertext. Envelopes that fail here must never be
// passed to ratchet code.
func Open(env domain.Envelope) (domain.RatchetHeader, []byte, error) {
	if err := validate(env); err != nil {
		return domain.RatchetHeader{}, nil, err
	}
	chain, err := chains.ForChain(env.Sender.Chain)
	if err != nil {
		return domain.RatchetHeader{}, nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}
	// The embedded key must actually belong to the claimed address.
	addr, err := chain.PublicKeyToAddress(env.Sender.PublicKey)
	if err != nil || addr != env.Sender.Address {
		return domain.RatchetHeader{}, nil, fmt.Errorf("%w: sender key does not match address", domain.ErrInvalidSignature)
	}
	if !chain.Verify(env.Sender.PublicKey, signingBytes(env), env.Signature) {
		return domain.RatchetHeader{}, nil, fmt.Errorf("%w: envelope %s", domain.ErrInvalidSignature, env.MessageID)
	}
	return env.Header, env.Ciphertext, nil
}

// Encode serializes an envelope for the transport boundary.
func Encode(env domain.Envelope) ([]byte, error) { return json.Marshal(env) }

// Decode parses a transport blob back into an envelope. Decoding does
// not verify; callers must still Open.
func Decode(data []byte) (domain.Envelope, error) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

func validate(env domain.Envelope) error {
	switch {
	case env.Sender.Address == "" || env.Sender.Chain == "":
		return fmt.Errorf("%w: missing sender", domain.ErrInvalidSignature)
	case len(env.Sender.PublicKey) == 0:
		return fmt.Errorf("%w: missing sender public key", domain.ErrInvalidSignature)
	case env.Recipient.Address == "" || env.Recipient.Chain == "":
		return fmt.Errorf("%w: missing recipient", domain.ErrInvalidSignature)
	case len(env.Header.RatchetPublicKey) == 0:
		return fmt.Errorf("%w: missing ratchet header", domain.ErrInvalidSignature)
	case len(env.Ciphertext) == 0:
		return fmt.Errorf("%w: missing ciphertext", domain.ErrInvalidSignature)
	case len(env.Signature) == 0:
		return fmt.Errorf("%w: missing signature", domain.ErrInvalidSignature)
	case env.MessageID == "":
		return fmt.Errorf("%w: missing message id", domain.ErrInvalidSignature)
	}
	if env.Initial != nil && (len(env.Initial.IdentityKey) == 0 || len(env.Initial.EphemeralKey) == 0) {
		return fmt.Errorf("%w: malformed initial message", domain.ErrInvalidSignature)
	}
	return nil
}

// signingBytes is the explicit, versioned, field-ordered payload the
// envelope signature covers. Both Seal and Open call this exact
// function.
func signingBytes(env domain.Envelope) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, signingVersion)
	buf = appendField(buf, []byte(env.Sender.Address))
	buf = appendField(buf, []byte(env.Sender.Chain))
	buf = appendField(buf, env.Sender.PublicKey)
	buf = appendField(buf, []byte(env.Recipient.Address))
	buf = appendField(buf, []byte(env.Recipient.Chain))
	buf = appendField(buf, env.Header.RatchetPublicKey)
	buf = binary.BigEndian.AppendUint32(buf, env.Header.PreviousChainLength)
	buf = binary.BigEndian.AppendUint32(buf, env.Header.Counter)
	buf = appendField(buf, env.Ciphertext)
	if env.Initial != nil {
		buf = append(buf, 0x01)
		buf = appendField(buf, env.Initial.IdentityKey)
		buf = appendField(buf, env.Initial.EphemeralKey)
		buf = appendField(buf, []byte(env.Initial.SignedPreKeyID))
		buf = appendField(buf, []byte(env.Initial.OneTimePreKeyID))
	} else {
		buf = append(buf, 0x00)
	}
	buf = appendField(buf, []byte(env.MessageID))
	buf = binary.BigEndian.AppendUint64(buf, uint64(env.Timestamp))
	return buf
}

func appendField(buf, field []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(field)))
	return append(buf, field...)
}
