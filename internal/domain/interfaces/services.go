package interfaces

import (
	"context"

	domaintypes "github.com/Deyond-Management/deyondcrypt/internal/domain/types"
)

// IdentityService derives and manages the local messaging identity.
type IdentityService interface {
	// Derive deterministically derives the messaging identity from a
	// wallet private key and persists it. Calling it again with the same
	// inputs yields the same identity.
	Derive(ctx context.Context, walletPrivateKey []byte, chain domaintypes.ChainType) (domaintypes.IdentityKeyPair, error)
	Identity(ctx context.Context) (domaintypes.IdentityKeyPair, error)
	// Reset destroys the identity and all pre-key material. Part of the
	// wallet reset lifecycle.
	Reset(ctx context.Context) error
}

// PreKeyService manages the signed and one-time pre-key pools and builds
// the published bundle.
type PreKeyService interface {
	// RotateSignedPreKey generates a fresh signed pre-key, marks it
	// current and returns it.
	RotateSignedPreKey(ctx context.Context) (domaintypes.SignedPreKey, error)
	// ReplenishOneTimePreKeys tops up the one-time pool by n keys.
	ReplenishOneTimePreKeys(ctx context.Context, n int) error
	RemainingOneTimePreKeys(ctx context.Context) (int, error)
	// Bundle assembles the current public bundle, attaching one unused
	// one-time pre-key if available.
	Bundle(ctx context.Context) (domaintypes.PreKeyBundle, error)
}

// SessionManager owns all 1:1 sessions: handshakes, per-message
// encryption and decryption, and persistence of mutated state.
type SessionManager interface {
	// Initiate runs X3DH against the peer's bundle, initializes the
	// ratchet and persists the new session. The returned InitialMessage
	// travels with the first envelope so the peer can complete the
	// handshake.
	Initiate(ctx context.Context, bundle domaintypes.PreKeyBundle) (domaintypes.SessionState, domaintypes.InitialMessage, error)

	// Encrypt ratchets the session forward, seals a signed envelope and
	// persists the mutated state before returning it.
	Encrypt(ctx context.Context, id domaintypes.SessionID, plaintext []byte) (domaintypes.Envelope, error)

	// Decrypt verifies and opens an envelope. If no session exists for
	// the sender and the envelope carries an InitialMessage, the
	// handshake is completed as responder first.
	Decrypt(ctx context.Context, env domaintypes.Envelope) ([]byte, error)

	Session(ctx context.Context, id domaintypes.SessionID) (domaintypes.SessionState, error)
	SessionByPeer(ctx context.Context, addr domaintypes.Address, chain domaintypes.ChainType) (domaintypes.SessionState, error)
	Sessions(ctx context.Context) ([]domaintypes.SessionSummary, error)
	Delete(ctx context.Context, id domaintypes.SessionID) error
}

// GroupManager owns group sessions and their per-sender chains.
type GroupManager interface {
	// Create builds a new group with a fresh own sender key and returns
	// one signed distribution per invited member.
	Create(ctx context.Context, id domaintypes.GroupID, name string, members []domaintypes.Address) (domaintypes.GroupSessionState, []domaintypes.SenderKeyDistribution, error)

	// Join creates local state for a group we were invited to, with our
	// own fresh sender key. Returns our distribution for fan-out.
	Join(ctx context.Context, id domaintypes.GroupID, name string, members []domaintypes.Address) (domaintypes.SenderKeyDistribution, error)

	// ProcessDistribution verifies and stores another member's sender
	// key. Unverifiable distributions are rejected.
	ProcessDistribution(ctx context.Context, dist domaintypes.SenderKeyDistribution) error

	// AddMember records a new member on the roster. The member still
	// needs our distribution (and we theirs) before messages flow.
	AddMember(ctx context.Context, id domaintypes.GroupID, member domaintypes.Address) error

	// Distribution re-issues our current signed distribution, for
	// members who joined late.
	Distribution(ctx context.Context, id domaintypes.GroupID) (domaintypes.SenderKeyDistribution, error)

	Encrypt(ctx context.Context, id domaintypes.GroupID, plaintext []byte) (domaintypes.GroupMessage, error)
	Decrypt(ctx context.Context, msg domaintypes.GroupMessage) ([]byte, error)

	Leave(ctx context.Context, id domaintypes.GroupID) error
	Groups(ctx context.Context) ([]domaintypes.GroupSummary, error)
}
