package interfaces

import (
	"context"

	domaintypes "github.com/Deyond-Management/deyondcrypt/internal/domain/types"
)

// PreKeyStore persists the identity key pair and the pre-key pools.
// Implementations must make ConsumeOneTimePreKey atomic: two concurrent
// handshake completions must not both obtain the same key id.
type PreKeyStore interface {
	SaveIdentity(ctx context.Context, id domaintypes.IdentityKeyPair) error
	LoadIdentity(ctx context.Context) (domaintypes.IdentityKeyPair, bool, error)
	DeleteIdentity(ctx context.Context) error

	SaveSignedPreKey(ctx context.Context, spk domaintypes.SignedPreKey) error
	LoadSignedPreKey(ctx context.Context, id domaintypes.SignedPreKeyID) (domaintypes.SignedPreKey, bool, error)
	SetCurrentSignedPreKeyID(ctx context.Context, id domaintypes.SignedPreKeyID) error
	CurrentSignedPreKeyID(ctx context.Context) (domaintypes.SignedPreKeyID, bool, error)

	SaveOneTimePreKeys(ctx context.Context, keys []domaintypes.OneTimePreKey) error
	ConsumeOneTimePreKey(ctx context.Context, id domaintypes.OneTimePreKeyID) (domaintypes.OneTimePreKey, bool, error)
	CountOneTimePreKeys(ctx context.Context) (int, error)
	ListOneTimePreKeyPublics(ctx context.Context) ([]domaintypes.OneTimePreKeyPublic, error)
}

// SessionStore persists serialized 1:1 session state.
type SessionStore interface {
	SaveSession(ctx context.Context, s domaintypes.SessionState) error
	LoadSession(ctx context.Context, id domaintypes.SessionID) (domaintypes.SessionState, bool, error)
	LoadSessionByPeer(ctx context.Context, addr domaintypes.Address, chain domaintypes.ChainType) (domaintypes.SessionState, bool, error)
	DeleteSession(ctx context.Context, id domaintypes.SessionID) error
	ListSessionIDs(ctx context.Context) ([]domaintypes.SessionID, error)
	ListSessionSummaries(ctx context.Context) ([]domaintypes.SessionSummary, error)
}

// GroupStore persists full group session state.
type GroupStore interface {
	SaveGroup(ctx context.Context, g domaintypes.GroupSessionState) error
	LoadGroup(ctx context.Context, id domaintypes.GroupID) (domaintypes.GroupSessionState, bool, error)
	DeleteGroup(ctx context.Context, id domaintypes.GroupID) error
	ListGroupSummaries(ctx context.Context) ([]domaintypes.GroupSummary, error)
}
