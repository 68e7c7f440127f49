package prekey

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Deyond-Management/deyondcrypt/internal/chains"
	"github.com/Deyond-Management/deyondcrypt/internal/domain"
)

// Service manages pre-key pairs and builds the public bundle.
type Service struct {
	store domain.PreKeyStore
	log   *logrus.Logger
}

// New returns a pre-key service backed by the given store.
func New(store domain.PreKeyStore, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{store: store, log: log}
}

// RotateSignedPreKey generates a fresh signed pre-key, self-signed with
// the identity key, and marks it current. The previous key stays loadable
// so in-flight handshakes targeting it still complete.
func (s *Service) RotateSignedPreKey(ctx context.Context) (domain.SignedPreKey, error) {
	id, chain, err := s.identity(ctx)
	if err != nil {
		return domain.SignedPreKey{}, err
	}

	pair, err := chain.GenerateKeyPair()
	if err != nil {
		return domain.SignedPreKey{}, err
	}
	sig, err := chain.Sign(id.PrivateKey, pair.PublicKey)
	if err != nil {
		return domain.SignedPreKey{}, err
	}
	spk := domain.SignedPreKey{
		ID:        domain.SignedPreKeyID("spk-" + uuid.NewString()),
		KeyPair:   pair,
		Signature: sig,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.store.SaveSignedPreKey(ctx, spk); err != nil {
		return domain.SignedPreKey{}, err
	}
	if err := s.store.SetCurrentSignedPreKeyID(ctx, spk.ID); err != nil {
		return domain.SignedPreKey{}, err
	}
	s.log.WithField("id", spk.ID).Debug("signed pre-key rotated")
	return spk, nil
}

// ReplenishOneTimePreKeys tops up the one-time pool by n keys.
func (s *Service) ReplenishOneTimePreKeys(ctx context.Context, n int) error {
	_, chain, err := s.identity(ctx)
	if err != nil {
		return err
	}
	keys := make([]domain.OneTimePreKey, 0, n)
	for i := 0; i < n; i++ {
		pair, err := chain.GenerateKeyPair()
		if err != nil {
			return err
		}
		keys = append(keys, domain.OneTimePreKey{
			ID:      domain.OneTimePreKeyID("opk-" + uuid.NewString()),
			KeyPair: pair,
		})
	}
	if err := s.store.SaveOneTimePreKeys(ctx, keys); err != nil {
		return err
	}
	s.log.WithField("count", n).Debug("one-time pre-keys replenished")
	return nil
}

// RemainingOneTimePreKeys reports the unconsumed pool size.
func (s *Service) RemainingOneTimePreKeys(ctx context.Context) (int, error) {
	return s.store.CountOneTimePreKeys(ctx)
}

// Bundle assembles the current public bundle, attaching one unused
// one-time pre-key when the pool is not empty.
func (s *Service) Bundle(ctx context.Context) (domain.PreKeyBundle, error) {
	id, _, err := s.identity(ctx)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}

	spkID, ok, err := s.store.CurrentSignedPreKeyID(ctx)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if !ok {
		return domain.PreKeyBundle{}, fmt.Errorf("%w: no current signed pre-key", domain.ErrKeyNotFound)
	}
	spk, ok, err := s.store.LoadSignedPreKey(ctx, spkID)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if !ok {
		return domain.PreKeyBundle{}, fmt.Errorf("%w: signed pre-key %q", domain.ErrKeyNotFound, spkID)
	}

	bundle := domain.PreKeyBundle{
		Address:               id.Address,
		Chain:                 id.Chain,
		IdentityKey:           id.PublicKey,
		SignedPreKeyID:        spk.ID,
		SignedPreKey:          spk.KeyPair.PublicKey,
		SignedPreKeySignature: spk.Signature,
	}

	opks, err := s.store.ListOneTimePreKeyPublics(ctx)
	if err != nil {
		return domain.PreKeyBundle{}, err
	}
	if len(opks) > 0 {
		bundle.OneTimePreKey = &opks[0]
	}
	return bundle, nil
}

func (s *Service) identity(ctx context.Context) (domain.IdentityKeyPair, chains.Chain, error) {
	id, ok, err := s.store.LoadIdentity(ctx)
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

// Compile-time assertion that Service implements domain.PreKeyService.
var _ domain.PreKeyService = (*Service)(nil)
