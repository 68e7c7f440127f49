package session

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Deyond-Management/deyondcrypt/internal/chains"
	"github.com/Deyond-Management/deyondcrypt/internal/domain"
	"github.com/Deyond-Management/deyondcrypt/internal/envelope"
	"github.com/Deyond-Management/deyondcrypt/internal/protocol/ratchet"
	"github.com/Deyond-Management/deyondcrypt/internal/protocol/x3dh"
)

// Manager implements domain.SessionManager over the pre-key and session
// stores.
type Manager struct {
	prekeys  domain.PreKeyStore
	sessions domain.SessionStore
	log      *logrus.Logger
	maxSkip  int

	mu    sync.Mutex
	locks map[domain.SessionID]*sync.Mutex
}

// New constructs a session manager. maxSkip <= 0 selects the ratchet
// default.
func New(prekeys domain.PreKeyStore, sessions domain.SessionStore, log *logrus.Logger, maxSkip int) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		prekeys:  prekeys,
		sessions: sessions,
		log:      log,
		maxSkip:  maxSkip,
		locks:    make(map[domain.SessionID]*sync.Mutex),
	}
}

// lockFor returns the mutex serialising operations on one session.
func (m *Manager) lockFor(id domain.SessionID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// Initiate runs X3DH against the peer's bundle, initializes the ratchet
// as initiator and persists the session. The InitialMessage is also
// remembered on the session and attached to outgoing envelopes until
// the peer's first reply confirms the handshake.
func (m *Manager) Initiate(ctx context.Context, bundle domain.PreKeyBundle) (domain.SessionState, domain.InitialMessage, error) {
	identity, chain, err := m.identity(ctx)
	if err != nil {
		return domain.SessionState{}, domain.InitialMessage{}, err
	}
	if bundle.Chain != identity.Chain {
		return domain.SessionState{}, domain.InitialMessage{}, fmt.Errorf(
			"%w: bundle chain %q, identity chain %q", domain.ErrInvalidPreKeyBundle, bundle.Chain, identity.Chain)
	}

	secret, initial, err := x3dh.Initiate(chain, identity, bundle)
	if err != nil {
		return domain.SessionState{}, domain.InitialMessage{}, err
	}
	st, err := ratchet.InitInitiator(chain, secret, bundle.SignedPreKey)
	if err != nil {
		return domain.SessionState{}, domain.InitialMessage{}, err
	}

	now := time.Now().Unix()
	s := domain.SessionState{
		ID:             domain.SessionID(uuid.NewString()),
		RemoteAddress:  bundle.Address,
		RemoteChain:    bundle.Chain,
		Ratchet:        st,
		CreatedAt:      now,
		LastActivityAt: now,
		PendingInitial: &initial,
	}
	if err := m.sessions.SaveSession(ctx, s); err != nil {
		return domain.SessionState{}, domain.InitialMessage{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	m.log.WithFields(logrus.Fields{"session": s.ID, "peer": s.RemoteAddress}).Debug("session initiated")
	return s, initial, nil
}

// Encrypt ratchets the session forward, seals a signed envelope and
// persists the mutated state before returning it.
func (m *Manager) Encrypt(ctx context.Context, id domain.SessionID, plaintext []byte) (domain.Envelope, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s, ok, err := m.sessions.LoadSession(ctx, id)
	if err != nil {
		return domain.Envelope{}, err
	}
	if !ok {
		return domain.Envelope{}, fmt.Errorf("%w: %q", domain.ErrSessionNotFound, id)
	}
	identity, chain, err := m.identity(ctx)
	if err != nil {
		return domain.Envelope{}, err
	}

	header, ct, err := ratchet.Encrypt(chain, &s.Ratchet, nil, plaintext)
	if err != nil {
		return domain.Envelope{}, err
	}
	env, err := envelope.Seal(chain, identity,
		domain.Party{Address: s.RemoteAddress, Chain: s.RemoteChain},
		header, ct, s.PendingInitial)
	if err != nil {
		return domain.Envelope{}, err
	}

	s.LastActivityAt = time.Now().Unix()
	s.MessageCount++
	if err := m.sessions.SaveSession(ctx, s); err != nil {
		// The in-memory ratchet already advanced; the caller must not
		// treat the message as sent.
		return domain.Envelope{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return env, nil
}

// Decrypt verifies and opens an envelope. A first message carrying an
// InitialMessage completes the handshake as responder on the fly.
func (m *Manager) Decrypt(ctx context.Context, env domain.Envelope) ([]byte, error) {
	header, ct, err := envelope.Open(env)
	if err != nil {
		return nil, err
	}

	s, ok, err := m.sessions.LoadSessionByPeer(ctx, env.Sender.Address, env.Sender.Chain)
	if err != nil {
		return nil, err
	}
	if !ok {
		if env.Initial == nil {
			return nil, fmt.Errorf("%w: no session with %s and no initial message", domain.ErrSessionNotFound, env.Sender.Address)
		}
		if s, err = m.accept(ctx, env); err != nil {
			return nil, err
		}
	}

	lock := m.lockFor(s.ID)
	lock.Lock()
	defer lock.Unlock()

	// Reload under the lock; another decrypt may have advanced state
	// between lookup and acquisition.
	if cur, ok, err := m.sessions.LoadSession(ctx, s.ID); err != nil {
		return nil, err
	} else if ok {
		s = cur
	}

	_, chain, err := m.identity(ctx)
	if err != nil {
		return nil, err
	}
	pt, err := ratchet.Decrypt(chain, &s.Ratchet, nil, header, ct, m.maxSkip)
	if err != nil {
		m.log.WithFields(logrus.Fields{"session": s.ID, "message": env.MessageID}).WithError(err).Warn("decrypt failed")
		return nil, err
	}

	// The peer evidently holds the session; stop re-sending the
	// handshake payload.
	s.PendingInitial = nil
	s.LastActivityAt = time.Now().Unix()
	s.MessageCount++
	if err := m.sessions.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return pt, nil
}

// accept completes the handshake as responder: recompute the X3DH
// secret from our signed pre-key (and the consumed one-time pre-key, if
// any) and seed the ratchet.
func (m *Manager) accept(ctx context.Context, env domain.Envelope) (domain.SessionState, error) {
	identity, chain, err := m.identity(ctx)
	if err != nil {
		return domain.SessionState{}, err
	}
	if env.Sender.Chain != identity.Chain {
		return domain.SessionState{}, fmt.Errorf("%w: sender chain %q, identity chain %q",
			domain.ErrInvalidPreKeyBundle, env.Sender.Chain, identity.Chain)
	}
	initial := *env.Initial
	if !bytes.Equal(initial.IdentityKey, env.Sender.PublicKey) {
		return domain.SessionState{}, fmt.Errorf("%w: initial message identity does not match sender", domain.ErrInvalidSignature)
	}

	spk, ok, err := m.prekeys.LoadSignedPreKey(ctx, initial.SignedPreKeyID)
	if err != nil {
		return domain.SessionState{}, err
	}
	if !ok {
		return domain.SessionState{}, fmt.Errorf("%w: signed pre-key %q", domain.ErrKeyNotFound, initial.SignedPreKeyID)
	}

	var opkPriv []byte
	if initial.OneTimePreKeyID != "" {
		opk, ok, err := m.prekeys.ConsumeOneTimePreKey(ctx, initial.OneTimePreKeyID)
		if err != nil {
			return domain.SessionState{}, err
		}
		if !ok {
			return domain.SessionState{}, fmt.Errorf("%w: one-time pre-key %q already consumed", domain.ErrKeyNotFound, initial.OneTimePreKeyID)
		}
		opkPriv = opk.KeyPair.PrivateKey
	}

	secret, err := x3dh.Respond(chain, identity, spk.KeyPair.PrivateKey, opkPriv, initial)
	if err != nil {
		return domain.SessionState{}, err
	}

	now := time.Now().Unix()
	s := domain.SessionState{
		ID:             domain.SessionID(uuid.NewString()),
		RemoteAddress:  env.Sender.Address,
		RemoteChain:    env.Sender.Chain,
		Ratchet:        ratchet.InitResponder(secret, spk.KeyPair),
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := m.sessions.SaveSession(ctx, s); err != nil {
		return domain.SessionState{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	m.log.WithFields(logrus.Fields{"session": s.ID, "peer": s.RemoteAddress}).Debug("session accepted")
	return s, nil
}

// Session returns a session by id.
func (m *Manager) Session(ctx context.Context, id domain.SessionID) (domain.SessionState, error) {
	s, ok, err := m.sessions.LoadSession(ctx, id)
	if err != nil {
		return domain.SessionState{}, err
	}
	if !ok {
		return domain.SessionState{}, fmt.Errorf("%w: %q", domain.ErrSessionNotFound, id)
	}
	return s, nil
}

// SessionByPeer returns the session with the given peer, if any.
func (m *Manager) SessionByPeer(ctx context.Context, addr domain.Address, chain domain.ChainType) (domain.SessionState, error) {
	s, ok, err := m.sessions.LoadSessionByPeer(ctx, addr, chain)
	if err != nil {
		return domain.SessionState{}, err
	}
	if !ok {
		return domain.SessionState{}, fmt.Errorf("%w: peer %s on %s", domain.ErrSessionNotFound, addr, chain)
	}
	return s, nil
}

// Sessions lists summaries of all stored sessions.
func (m *Manager) Sessions(ctx context.Context) ([]domain.SessionSummary, error) {
	return m.sessions.ListSessionSummaries(ctx)
}

// Delete removes a session permanently.
func (m *Manager) Delete(ctx context.Context, id domain.SessionID) error {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	return m.sessions.DeleteSession(ctx, id)
}

func (m *Manager) identity(ctx context.Context) (domain.IdentityKeyPair, chains.Chain, error) {
	id, ok, err := m.prekeys.LoadIdentity(ctx)
	if err != nil {
		return domain.IdentityKeyPair{}, nil, err
	}
	if !ok {
		return domain.IdentityKeyPair{}, nil, fmt.Errorf("%w: no identity derived yet", domain.ErrKeyNotFound)
	}
	chain, err := chains.ForChain(id.Chain)
	if err != nil {
		return domain.IdentityKeyPair{}, nil, err
	}
	return id, chain, nil
}

// Compile-time assertion that Manager implements domain.SessionManager.
var _ domain.SessionManager = (*Manager)(nil)
