package types

// Party identifies one end of an envelope.
type Party struct {
	Address   Address   `json:"address"`
	Chain     ChainType `json:"chain"`
	PublicKey []byte    `json:"public_key,omitempty"`
}

// Envelope is the signed outer wire message for 1:1 traffic. The
// signature covers the canonical encoding of every other field with the
// sender's identity key.
type Envelope struct {
	Sender     Party           `json:"sender"`
	Recipient  Party           `json:"recipient"`
	Header     RatchetHeader   `json:"header"`
	Ciphertext []byte          `json:"ciphertext"`
	Initial    *InitialMessage `json:"initial,omitempty"`
	Signature  []byte          `json:"signature"`
	MessageID  string          `json:"message_id"`
	Timestamp  int64           `json:"timestamp"`
}

// GroupMessage is the signed outer wire message for group traffic,
// signed with the sender's group signing key rather than the identity key.
type GroupMessage struct {
	GroupID     GroupID     `json:"group_id"`
	Sender      Address     `json:"sender"`
	SenderChain ChainType   `json:"sender_chain"`
	KeyID       SenderKeyID `json:"key_id"`
	Iteration   uint32      `json:"iteration"`
	Ciphertext  []byte      `json:"ciphertext"`
	Nonce       []byte      `json:"nonce"`
	Signature   []byte      `json:"signature"`
	MessageID   string      `json:"message_id"`
	Timestamp   int64       `json:"timestamp"`
}
