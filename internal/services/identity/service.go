package identity

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Deyond-Management/deyondcrypt/internal/chains"
	"github.com/Deyond-Management/deyondcrypt/internal/domain"
)

// Service derives the messaging identity from wallet key material and
// owns its lifecycle: one identity per store, destroyed only by Reset.
type Service struct {
	store domain.PreKeyStore
	log   *logrus.Logger
}

// New returns an identity service backed by the given store.
func New(store domain.PreKeyStore, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{store: store, log: log}
}

// Derive deterministically derives the messaging identity for the
// wallet key on the given chain and persists it. Re-deriving with the
// same inputs yields the same identity; deriving for a different chain
// yields an unrelated one.
func (s *Service) Derive(ctx context.Context, walletPrivateKey []byte, chainType domain.ChainType) (domain.IdentityKeyPair, error) {
	chain, err := chains.ForChain(chainType)
	if err != nil {
		return domain.IdentityKeyPair{}, err
	}
	kp, err := chain.DeriveMessagingKeyPair(walletPrivateKey, chainType.String())
	if err != nil {
		return domain.IdentityKeyPair{}, fmt.Errorf("derive messaging key pair: %w", err)
	}
	addr, err := chain.PublicKeyToAddress(kp.PublicKey)
	if err != nil {
		return domain.IdentityKeyPair{}, err
	}

	id := domain.IdentityKeyPair{KeyPair: kp, Chain: chainType, Address: addr}
	if err := s.store.SaveIdentity(ctx, id); err != nil {
		return domain.IdentityKeyPair{}, err
	}
	s.log.WithFields(logrus.Fields{"chain": chainType, "address": addr}).Debug("messaging identity derived")
	return id, nil
}

// Identity returns the stored identity.
func (s *Service) Identity(ctx context.Context) (domain.IdentityKeyPair, error) {
	id, ok, err := s.store.LoadIdentity(ctx)
	if err != nil {
		return domain.IdentityKeyPair{}, err
	}
	if !ok {
		return domain.IdentityKeyPair{}, fmt.Errorf("%w: no identity derived yet", domain.ErrKeyNotFound)
	}
	return id, nil
}

// Reset destroys the identity and all pre-key material.
func (s *Service) Reset(ctx context.Context) error {
	s.log.Warn("resetting messaging identity")
	return s.store.DeleteIdentity(ctx)
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
