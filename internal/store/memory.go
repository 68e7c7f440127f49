package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Deyond-Management/deyondcrypt/internal/domain"
)

// Memory keeps all state in process. Records are stored in serialized
// form so loads always return independent copies.
type Memory struct {
	mu         sync.Mutex
	identity   []byte
	spks       map[domain.SignedPreKeyID][]byte
	currentSPK domain.SignedPreKeyID
	opks       map[domain.OneTimePreKeyID][]byte
	sessions   map[domain.SessionID][]byte
	groups     map[domain.GroupID][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		spks:     make(map[domain.SignedPreKeyID][]byte),
		opks:     make(map[domain.OneTimePreKeyID][]byte),
		sessions: make(map[domain.SessionID][]byte),
		groups:   make(map[domain.GroupID][]byte),
	}
}

// ---------- PreKeyStore ----------

func (m *Memory) SaveIdentity(_ context.Context, id domain.IdentityKeyPair) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = raw
	return nil
}

func (m *Memory) LoadIdentity(_ context.Context) (domain.IdentityKeyPair, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return domain.IdentityKeyPair{}, false, nil
	}
	var id domain.IdentityKeyPair
	if err := json.Unmarshal(m.identity, &id); err != nil {
		return domain.IdentityKeyPair{}, false, err
	}
	return id, true, nil
}

func (m *Memory) DeleteIdentity(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = nil
	m.spks = make(map[domain.SignedPreKeyID][]byte)
	m.opks = make(map[domain.OneTimePreKeyID][]byte)
	m.currentSPK = ""
	return nil
}

func (m *Memory) SaveSignedPreKey(_ context.Context, spk domain.SignedPreKey) error {
	raw, err := json.Marshal(spk)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spks[spk.ID] = raw
	return nil
}

func (m *Memory) LoadSignedPreKey(_ context.Context, id domain.SignedPreKeyID) (domain.SignedPreKey, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.spks[id]
	if !ok {
		return domain.SignedPreKey{}, false, nil
	}
	var spk domain.SignedPreKey
	if err := json.Unmarshal(raw, &spk); err != nil {
		return domain.SignedPreKey{}, false, err
	}
	return spk, true, nil
}

func (m *Memory) SetCurrentSignedPreKeyID(_ context.Context, id domain.SignedPreKeyID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentSPK = id
	return nil
}

func (m *Memory) CurrentSignedPreKeyID(_ context.Context) (domain.SignedPreKeyID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentSPK, m.currentSPK != "", nil
}

func (m *Memory) SaveOneTimePreKeys(_ context.Context, keys []domain.OneTimePreKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		raw, err := json.Marshal(k)
		if err != nil {
			return err
		}
		m.opks[k.ID] = raw
	}
	return nil
}

// ConsumeOneTimePreKey removes and returns the key in one critical
// section; a second consume of the same id reports not found.
func (m *Memory) ConsumeOneTimePreKey(_ context.Context, id domain.OneTimePreKeyID) (domain.OneTimePreKey, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.opks[id]
	if !ok {
		return domain.OneTimePreKey{}, false, nil
	}
	delete(m.opks, id)
	var key domain.OneTimePreKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return domain.OneTimePreKey{}, false, err
	}
	return key, true, nil
}

func (m *Memory) CountOneTimePreKeys(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.opks), nil
}

func (m *Memory) ListOneTimePreKeyPublics(_ context.Context) ([]domain.OneTimePreKeyPublic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.OneTimePreKeyPublic, 0, len(m.opks))
	for _, raw := range m.opks {
		var key domain.OneTimePreKey
		if err := json.Unmarshal(raw, &key); err != nil {
			return nil, err
		}
		out = append(out, domain.OneTimePreKeyPublic{ID: key.ID, PublicKey: key.KeyPair.PublicKey})
	}
	return out, nil
}

// ---------- SessionStore ----------

func (m *Memory) SaveSession(_ context.Context, s domain.SessionState) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = raw
	return nil
}

func (m *Memory) LoadSession(_ context.Context, id domain.SessionID) (domain.SessionState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.sessions[id]
	if !ok {
		return domain.SessionState{}, false, nil
	}
	var s domain.SessionState
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.SessionState{}, false, err
	}
	return s, true, nil
}

func (m *Memory) LoadSessionByPeer(_ context.Context, addr domain.Address, chain domain.ChainType) (domain.SessionState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, raw := range m.sessions {
		var s domain.SessionState
		if err := json.Unmarshal(raw, &s); err != nil {
			return domain.SessionState{}, false, err
		}
		if s.RemoteAddress == addr && s.RemoteChain == chain {
			return s, true, nil
		}
	}
	return domain.SessionState{}, false, nil
}

func (m *Memory) DeleteSession(_ context.Context, id domain.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *Memory) ListSessionIDs(_ context.Context) ([]domain.SessionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SessionID, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	return out, nil
}

func (m *Memory) ListSessionSummaries(_ context.Context) ([]domain.SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SessionSummary, 0, len(m.sessions))
	for _, raw := range m.sessions {
		var s domain.SessionState
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		out = append(out, summarize(s))
	}
	return out, nil
}

// ---------- GroupStore ----------

func (m *Memory) SaveGroup(_ context.Context, g domain.GroupSessionState) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[g.ID] = raw
	return nil
}

func (m *Memory) LoadGroup(_ context.Context, id domain.GroupID) (domain.GroupSessionState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.groups[id]
	if !ok {
		return domain.GroupSessionState{}, false, nil
	}
	var g domain.GroupSessionState
	if err := json.Unmarshal(raw, &g); err != nil {
		return domain.GroupSessionState{}, false, err
	}
	return g, true, nil
}

func (m *Memory) DeleteGroup(_ context.Context, id domain.GroupID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.groups, id)
	return nil
}

func (m *Memory) ListGroupSummaries(_ context.Context) ([]domain.GroupSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.GroupSummary, 0, len(m.groups))
	for _, raw := range m.groups {
		var g domain.GroupSessionState
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, err
		}
		out = append(out, summarizeGroup(g))
	}
	return out, nil
}

func summarize(s domain.SessionState) domain.SessionSummary {
	return domain.SessionSummary{
		ID:             s.ID,
		RemoteAddress:  s.RemoteAddress,
		RemoteChain:    s.RemoteChain,
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.LastActivityAt,
		MessageCount:   s.MessageCount,
	}
}

func summarizeGroup(g domain.GroupSessionState) domain.GroupSummary {
	return domain.GroupSummary{
		ID:          g.ID,
		Name:        g.Name,
		MemberCount: len(g.Members),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// Compile-time assertions that Memory implements the store contracts.
var (
	_ domain.PreKeyStore  = (*Memory)(nil)
	_ domain.SessionStore = (*Memory)(nil)
	_ domain.GroupStore   = (*Memory)(nil)
)
