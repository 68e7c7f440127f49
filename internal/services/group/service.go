package group

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Deyond-Management/deyondcrypt/internal/domain"
	"github.com/Deyond-Management/deyondcrypt/internal/envelope"
	"github.com/Deyond-Management/deyondcrypt/internal/protocol/senderkeys"
)

// Manager implements domain.GroupManager over the pre-key and group
// stores.
type Manager struct {
	prekeys      domain.PreKeyStore
	groups       domain.GroupStore
	log          *logrus.Logger
	maxLookahead int

	mu    sync.Mutex
	locks map[domain.GroupID]*sync.Mutex
}

// New constructs a group manager. maxLookahead <= 0 selects the
// sender-key default.
func New(prekeys domain.PreKeyStore, groups domain.GroupStore, log *logrus.Logger, maxLookahead int) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		prekeys:      prekeys,
		groups:       groups,
		log:          log,
		maxLookahead: maxLookahead,
		locks:        make(map[domain.GroupID]*sync.Mutex),
	}
}

func (m *Manager) lockFor(id domain.GroupID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// Create builds a new group with a fresh own sender key and returns one
// distribution per invited member for fan-out.
func (m *Manager) Create(ctx context.Context, id domain.GroupID, name string, members []domain.Address) (domain.GroupSessionState, []domain.SenderKeyDistribution, error) {
	identity, err := m.identity(ctx)
	if err != nil {
		return domain.GroupSessionState{}, nil, err
	}

	own, err := senderkeys.NewState(identity.Address, identity.Chain)
	if err != nil {
		return domain.GroupSessionState{}, nil, err
	}
	dist, err := senderkeys.NewDistribution(id, own)
	if err != nil {
		return domain.GroupSessionState{}, nil, err
	}

	now := time.Now().Unix()
	g := domain.GroupSessionState{
		ID:        id,
		Name:      name,
		Own:       own,
		Senders:   make(map[domain.Address]domain.SenderKeyState),
		Members:   append([]domain.Address{identity.Address}, members...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.groups.SaveGroup(ctx, g); err != nil {
		return domain.GroupSessionState{}, nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	dists := make([]domain.SenderKeyDistribution, len(members))
	for i := range members {
		dists[i] = dist
	}
	m.log.WithFields(logrus.Fields{"group": id, "members": len(g.Members)}).Debug("group created")
	return g, dists, nil
}

// Join creates local state for a group we were invited to and returns
// our signed distribution for fan-out to the other members.
func (m *Manager) Join(ctx context.Context, id domain.GroupID, name string, members []domain.Address) (domain.SenderKeyDistribution, error) {
	identity, err := m.identity(ctx)
	if err != nil {
		return domain.SenderKeyDistribution{}, err
	}

	own, err := senderkeys.NewState(identity.Address, identity.Chain)
	if err != nil {
		return domain.SenderKeyDistribution{}, err
	}
	dist, err := senderkeys.NewDistribution(id, own)
	if err != nil {
		return domain.SenderKeyDistribution{}, err
	}

	now := time.Now().Unix()
	g := domain.GroupSessionState{
		ID:        id,
		Name:      name,
		Own:       own,
		Senders:   make(map[domain.Address]domain.SenderKeyState),
		Members:   members,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.groups.SaveGroup(ctx, g); err != nil {
		return domain.SenderKeyDistribution{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	m.log.WithFields(logrus.Fields{"group": id}).Debug("group joined")
	return dist, nil
}

// ProcessDistribution verifies another member's sender key announcement
// and records it. The signature is checked before anything is stored.
func (m *Manager) ProcessDistribution(ctx context.Context, dist domain.SenderKeyDistribution) error {
	if err := senderkeys.VerifyDistribution(dist); err != nil {
		return err
	}

	lock := m.lockFor(dist.GroupID)
	lock.Lock()
	defer lock.Unlock()

	g, ok, err := m.groups.LoadGroup(ctx, dist.GroupID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: group %q unknown", domain.ErrSenderKeyNotFound, dist.GroupID)
	}

	if g.Senders == nil {
		g.Senders = make(map[domain.Address]domain.SenderKeyState)
	}
	g.Senders[dist.Sender] = senderkeys.StateFromDistribution(dist)
	if !containsAddress(g.Members, dist.Sender) {
		g.Members = append(g.Members, dist.Sender)
	}
	g.UpdatedAt = time.Now().Unix()
	if err := m.groups.SaveGroup(ctx, g); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// AddMember records a new member on the group roster. The member only
// becomes readable once their distribution is processed.
func (m *Manager) AddMember(ctx context.Context, id domain.GroupID, member domain.Address) error {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	g, ok, err := m.groups.LoadGroup(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: group %q unknown", domain.ErrSenderKeyNotFound, id)
	}
	if containsAddress(g.Members, member) {
		return nil
	}
	g.Members = append(g.Members, member)
	g.UpdatedAt = time.Now().Unix()
	if err := m.groups.SaveGroup(ctx, g); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// Distribution re-issues our current signed distribution, for members
// who joined after the key was first fanned out.
func (m *Manager) Distribution(ctx context.Context, id domain.GroupID) (domain.SenderKeyDistribution, error) {
	g, ok, err := m.groups.LoadGroup(ctx, id)
	if err != nil {
		return domain.SenderKeyDistribution{}, err
	}
	if !ok {
		return domain.SenderKeyDistribution{}, fmt.Errorf("%w: group %q unknown", domain.ErrSenderKeyNotFound, id)
	}
	return senderkeys.NewDistribution(id, g.Own)
}

// Encrypt advances our own sender chain, seals a signed group message
// and persists the mutated state before returning it.
func (m *Manager) Encrypt(ctx context.Context, id domain.GroupID, plaintext []byte) (domain.GroupMessage, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	g, ok, err := m.groups.LoadGroup(ctx, id)
	if err != nil {
		return domain.GroupMessage{}, err
	}
	if !ok {
		return domain.GroupMessage{}, fmt.Errorf("%w: group %q unknown", domain.ErrSenderKeyNotFound, id)
	}

	ad := associatedData(id, g.Own.Sender, g.Own.KeyID)
	iteration, nonce, ct, err := senderkeys.Encrypt(&g.Own, ad, plaintext)
	if err != nil {
		return domain.GroupMessage{}, err
	}
	msg, err := envelope.SealGroup(id, g.Own.Sender, g.Own.Chain, g.Own.KeyID, iteration, nonce, ct, g.Own.SigningPrivateKey)
	if err != nil {
		return domain.GroupMessage{}, err
	}

	g.UpdatedAt = time.Now().Unix()
	if err := m.groups.SaveGroup(ctx, g); err != nil {
		return domain.GroupMessage{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return msg, nil
}

// Decrypt verifies a group message against the sender's announced
// signing key and opens it with their chain. Messages from senders we
// hold no distribution for fail with ErrSenderKeyNotFound.
func (m *Manager) Decrypt(ctx context.Context, msg domain.GroupMessage) ([]byte, error) {
	lock := m.lockFor(msg.GroupID)
	lock.Lock()
	defer lock.Unlock()

	g, ok, err := m.groups.LoadGroup(ctx, msg.GroupID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: group %q unknown", domain.ErrSenderKeyNotFound, msg.GroupID)
	}
	st, ok := g.Senders[msg.Sender]
	if !ok || st.KeyID != msg.KeyID {
		return nil, fmt.Errorf("%w: no key %q for sender %s in group %q",
			domain.ErrSenderKeyNotFound, msg.KeyID, msg.Sender, msg.GroupID)
	}
	if err := envelope.OpenGroup(msg, st.SigningPublicKey); err != nil {
		return nil, err
	}

	ad := associatedData(msg.GroupID, msg.Sender, msg.KeyID)
	pt, err := senderkeys.Decrypt(&st, msg.Iteration, msg.Nonce, msg.Ciphertext, ad, m.maxLookahead)
	if err != nil {
		m.log.WithFields(logrus.Fields{"group": msg.GroupID, "sender": msg.Sender, "message": msg.MessageID}).
			WithError(err).Warn("group decrypt failed")
		return nil, err
	}

	g.Senders[msg.Sender] = st
	g.UpdatedAt = time.Now().Unix()
	if err := m.groups.SaveGroup(ctx, g); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return pt, nil
}

// Leave removes all local state for a group, including every sender
// chain we hold.
func (m *Manager) Leave(ctx context.Context, id domain.GroupID) error {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	return m.groups.DeleteGroup(ctx, id)
}

// Groups lists summaries of all stored groups.
func (m *Manager) Groups(ctx context.Context) ([]domain.GroupSummary, error) {
	return m.groups.ListGroupSummaries(ctx)
}

func (m *Manager) identity(ctx context.Context) (domain.IdentityKeyPair, error) {
	id, ok, err := m.prekeys.LoadIdentity(ctx)
	if err != nil {
		return domain.IdentityKeyPair{}, err
	}
	if !ok {
		return domain.IdentityKeyPair{}, fmt.Errorf("%w: no identity derived yet", domain.ErrKeyNotFound)
	}
	return id, nil
}

// associatedData binds ciphertexts to the group, sender and key they
// were produced under.
func associatedData(id domain.GroupID, sender domain.Address, keyID domain.SenderKeyID) []byte {
	ad := make([]byte, 0, len(id)+len(sender)+len(keyID)+2)
	ad = append(ad, id...)
	ad = append(ad, '|')
	ad = append(ad, sender...)
	ad = append(ad, '|')
	ad = append(ad, keyID...)
	return ad
}

func containsAddress(list []domain.Address, a domain.Address) bool {
	for _, m := range list {
		if m == a {
			return true
		}
	}
	return false
}

// Compile-time assertion that Manager implements domain.GroupManager.
var _ domain.GroupManager = (*Manager)(nil)
