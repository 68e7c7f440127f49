package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/Deyond-Management/deyondcrypt/internal/domain"
)

// Key prefixes partition the database.
const (
	keyIdentity   = "identity"
	keySPKCurrent = "spk-current"
	prefixSPK     = "spk/"
	prefixOPK     = "opk/"
	prefixSession = "session/"
	prefixGroup   = "group/"
)

// BadgerConfig configures the durable store.
type BadgerConfig struct {
	// Dir is the database directory.
	Dir string
	// Logger is optional; nil gets a default logger.
	Logger *logrus.Logger
}

// Badger persists all core state in a Badger key-value database.
type Badger struct {
	db  *badger.DB
	log *logrus.Logger
}

// NewBadger opens (creating if needed) the database at cfg.Dir.
func NewBadger(cfg BadgerConfig) (*Badger, error) {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	log.WithField("dir", cfg.Dir).Debug("badger store opened")
	return &Badger{db: db, log: log}, nil
}

// Close releases the underlying database.
func (b *Badger) Close() error { return b.db.Close() }

func (b *Badger) set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
}

func (b *Badger) get(key string, v any) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (b *Badger) delete(keys ...string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// forEach streams every value under prefix into fn, which unmarshals it.
func (b *Badger) forEach(prefix string, fn func(val []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

// ---------- PreKeyStore ----------

func (b *Badger) SaveIdentity(_ context.Context, id domain.IdentityKeyPair) error {
	return b.set(keyIdentity, id)
}

func (b *Badger) LoadIdentity(_ context.Context) (domain.IdentityKeyPair, bool, error) {
	var id domain.IdentityKeyPair
	ok, err := b.get(keyIdentity, &id)
	return id, ok, err
}

// DeleteIdentity removes the identity and every pre-key, the wallet
// reset path.
func (b *Badger) DeleteIdentity(_ context.Context) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(keyIdentity)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(keySPKCurrent)); err != nil {
			return err
		}
		for _, prefix := range []string{prefixSPK, prefixOPK} {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(prefix)
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			for it.Rewind(); it.Valid(); it.Next() {
				key := it.Item().KeyCopy(nil)
				if err := txn.Delete(key); err != nil {
					it.Close()
					return err
				}
			}
			it.Close()
		}
		return nil
	})
}

func (b *Badger) SaveSignedPreKey(_ context.Context, spk domain.SignedPreKey) error {
	return b.set(prefixSPK+spk.ID.String(), spk)
}

func (b *Badger) LoadSignedPreKey(_ context.Context, id domain.SignedPreKeyID) (domain.SignedPreKey, bool, error) {
	var spk domain.SignedPreKey
	ok, err := b.get(prefixSPK+id.String(), &spk)
	return spk, ok, err
}

func (b *Badger) SetCurrentSignedPreKeyID(_ context.Context, id domain.SignedPreKeyID) error {
	return b.set(keySPKCurrent, id)
}

func (b *Badger) CurrentSignedPreKeyID(_ context.Context) (domain.SignedPreKeyID, bool, error) {
	var id domain.SignedPreKeyID
	ok, err := b.get(keySPKCurrent, &id)
	return id, ok, err
}

func (b *Badger) SaveOneTimePreKeys(_ context.Context, keys []domain.OneTimePreKey) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			raw, err := json.Marshal(k)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(prefixOPK+k.ID.String()), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// ConsumeOneTimePreKey reads and deletes the key in a single
// transaction; concurrent consumers of the same id conflict and retry,
// so exactly one obtains the key.
func (b *Badger) ConsumeOneTimePreKey(_ context.Context, id domain.OneTimePreKeyID) (domain.OneTimePreKey, bool, error) {
	var key domain.OneTimePreKey
	found := false
	err := b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixOPK + id.String()))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &key)
		}); err != nil {
			return err
		}
		found = true
		return txn.Delete([]byte(prefixOPK + id.String()))
	})
	if err != nil {
		return domain.OneTimePreKey{}, false, err
	}
	return key, found, nil
}

func (b *Badger) CountOneTimePreKeys(_ context.Context) (int, error) {
	count := 0
	err := b.forEach(prefixOPK, func([]byte) error {
		count++
		return nil
	})
	return count, err
}

func (b *Badger) ListOneTimePreKeyPublics(_ context.Context) ([]domain.OneTimePreKeyPublic, error) {
	var out []domain.OneTimePreKeyPublic
	err := b.forEach(prefixOPK, func(val []byte) error {
		var key domain.OneTimePreKey
		if err := json.Unmarshal(val, &key); err != nil {
			return err
		}
		out = append(out, domain.OneTimePreKeyPublic{ID: key.ID, PublicKey: key.KeyPair.PublicKey})
		return nil
	})
	return out, err
}

// ---------- SessionStore ----------

func (b *Badger) SaveSession(_ context.Context, s domain.SessionState) error {
	return b.set(prefixSession+s.ID.String(), s)
}

func (b *Badger) LoadSession(_ context.Context, id domain.SessionID) (domain.SessionState, bool, error) {
	var s domain.SessionState
	ok, err := b.get(prefixSession+id.String(), &s)
	return s, ok, err
}

func (b *Badger) LoadSessionByPeer(_ context.Context, addr domain.Address, chain domain.ChainType) (domain.SessionState, bool, error) {
	var (
		match domain.SessionState
		found bool
	)
	err := b.forEach(prefixSession, func(val []byte) error {
		if found {
			return nil
		}
		var s domain.SessionState
		if err := json.Unmarshal(val, &s); err != nil {
			return err
		}
		if s.RemoteAddress == addr && s.RemoteChain == chain {
			match, found = s, true
		}
		return nil
	})
	return match, found, err
}

func (b *Badger) DeleteSession(_ context.Context, id domain.SessionID) error {
	return b.delete(prefixSession + id.String())
}

func (b *Badger) ListSessionIDs(_ context.Context) ([]domain.SessionID, error) {
	var out []domain.SessionID
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixSession)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			out = append(out, domain.SessionID(bytes.TrimPrefix(key, []byte(prefixSession))))
		}
		return nil
	})
	return out, err
}

func (b *Badger) ListSessionSummaries(_ context.Context) ([]domain.SessionSummary, error) {
	var out []domain.SessionSummary
	err := b.forEach(prefixSession, func(val []byte) error {
		var s domain.SessionState
		if err := json.Unmarshal(val, &s); err != nil {
			return err
		}
		out = append(out, summarize(s))
		return nil
	})
	return out, err
}

// ---------- GroupStore ----------

func (b *Badger) SaveGroup(_ context.Context, g domain.GroupSessionState) error {
	return b.set(prefixGroup+g.ID.String(), g)
}

func (b *Badger) LoadGroup(_ context.Context, id domain.GroupID) (domain.GroupSessionState, bool, error) {
	var g domain.GroupSessionState
	ok, err := b.get(prefixGroup+id.String(), &g)
	return g, ok, err
}

func (b *Badger) DeleteGroup(_ context.Context, id domain.GroupID) error {
	return b.delete(prefixGroup + id.String())
}

func (b *Badger) ListGroupSummaries(_ context.Context) ([]domain.GroupSummary, error) {
	var out []domain.GroupSummary
	err := b.forEach(prefixGroup, func(val []byte) error {
		var g domain.GroupSessionState
		if err := json.Unmarshal(val, &g); err != nil {
			return err
		}
		out = append(out, summarizeGroup(g))
		return nil
	})
	return out, err
}

// Compile-time assertions that Badger implements the store contracts.
var (
	_ domain.PreKeyStore  = (*Badger)(nil)
	_ domain.SessionStore = (*Badger)(nil)
	_ domain.GroupStore   = (*Badger)(nil)
)
