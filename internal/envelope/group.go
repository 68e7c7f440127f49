package envelope

import (
	"crypto/ed25519"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Deyond-Management/deyondcrypt/internal/domain"
)

// SealGroup builds a signed group message around sender-key output. The
// signature is made with the sender's group signing key, not the chain
// identity key.
func SealGroup(
	groupID domain.GroupID,
	sender domain.Address,
	senderChain domain.ChainType,
	keyID domain.SenderKeyID,
	iteration uint32,
	nonce, ciphertext []byte,
	signingPrivateKey []byte,
) (domain.GroupMessage, error) {
	if len(signingPrivateKey) != ed25519.PrivateKeySize {
		return domain.GroupMessage{}, fmt.Errorf("%w: group signing key", domain.ErrKeyNotFound)
	}
	msg := domain.GroupMessage{
		GroupID:     groupID,
		Sender:      sender,
		SenderChain: senderChain,
		KeyID:       keyID,
		Iteration:   iteration,
		Ciphertext:  ciphertext,
		Nonce:       nonce,
		MessageID:   uuid.NewString(),
		Timestamp:   time.Now().Unix(),
	}
	msg.Signature = ed25519.Sign(ed25519.PrivateKey(signingPrivateKey), groupSigningBytes(msg))
	return msg, nil
}

// OpenGroup validates a group message's schema and verifies its
// signature against the signing key announced in the sender's
// distribution.
func OpenGroup(msg domain.GroupMessage, signingPublicKey []byte) error {
	if err := validateGroup(msg); err != nil {
		return err
	}
	if len(signingPublicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: stored signing key malformed", domain.ErrInvalidSignature)
	}
	if !ed25519.Verify(ed25519.PublicKey(signingPublicKey), groupSigningBytes(msg), msg.Signature) {
		return fmt.Errorf("%w: group message %s", domain.ErrInvalidSignature, msg.MessageID)
	}
	return nil
}

// EncodeGroup serializes a group message for the transport boundary.
func EncodeGroup(msg domain.GroupMessage) ([]byte, error) { return json.Marshal(msg) }

// DecodeGroup parses a transport blob back into a group message.
func DecodeGroup(data []byte) (domain.GroupMessage, error) {
	var msg domain.GroupMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.GroupMessage{}, fmt.Errorf("decode group message: %w", err)
	}
	return msg, nil
}

func validateGroup(msg domain.GroupMessage) error {
	switch {
	case msg.GroupID == "":
		return fmt.Errorf("%w: missing group id", domain.ErrInvalidSignature)
	case msg.Sender == "" || msg.SenderChain == "":
		return fmt.Errorf("%w: missing sender", domain.ErrInvalidSignature)
	case msg.KeyID == "":
		return fmt.Errorf("%w: missing key id", domain.ErrInvalidSignature)
	case len(msg.Ciphertext) == 0 || len(msg.Nonce) == 0:
		return fmt.Errorf("%w: missing ciphertext", domain.ErrInvalidSignature)
	case len(msg.Signature) == 0:
		return fmt.Errorf("%w: missing signature", domain.ErrInvalidSignature)
	case msg.MessageID == "":
		return fmt.Errorf("%w: missing message id", domain.ErrInvalidSignature)
	}
	return nil
}

// groupSigningBytes mirrors signingBytes for the group wire shape.
func groupSigningBytes(msg domain.GroupMessage) []byte {
	buf := make([]byte, 0, 192)
	buf = append(buf, signingVersion)
	buf = appendField(buf, []byte(msg.GroupID))
	buf = appendField(buf, []byte(msg.Sender))
	buf = appendField(buf, []byte(msg.SenderChain))
	buf = appendField(buf, []byte(msg.KeyID))
	buf = binary.BigEndian.AppendUint32(buf, msg.Iteration)
	buf = appendField(buf, msg.Ciphertext)
	buf = appendField(buf, msg.Nonce)
	buf = appendField(buf, []byte(msg.MessageID))
	buf = binary.BigEndian.AppendUint64(buf, uint64(msg.Timestamp))
	return buf
}
