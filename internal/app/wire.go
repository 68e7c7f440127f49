package app

import (
	"github.com/sirupsen/logrus"

	"github.com/Deyond-Management/deyondcrypt/internal/domain"
	groupsvc "github.com/Deyond-Management/deyondcrypt/internal/services/group"
	identitysvc "github.com/Deyond-Management/deyondcrypt/internal/services/identity"
	prekeysvc "github.com/Deyond-Management/deyondcrypt/internal/services/prekey"
	sessionsvc "github.com/Deyond-Management/deyondcrypt/internal/services/session"
	"github.com/Deyond-Management/deyondcrypt/internal/store"
)

// Wire bundles all stores and services for the CLI.
type Wire struct {
	PreKeys  domain.PreKeyStore
	Identity domain.IdentityService
	Prekey   domain.PreKeyService
	Sessions domain.SessionManager
	Groups   domain.GroupManager
	Log      *logrus.Logger

	closer func() error
}

// NewWire constructs the dependency graph from cfg. With a DataDir the
// stores are Badger-backed, otherwise everything lives in memory.
func NewWire(cfg Config) (*Wire, error) {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}

	var (
		prekeyStore  domain.PreKeyStore
		sessionStore domain.SessionStore
		groupStore   domain.GroupStore
		closer       func() error
	)
	if cfg.DataDir == "" {
		mem := store.NewMemory()
		prekeyStore, sessionStore, groupStore = mem, mem, mem
	} else {
		db, err := store.NewBadger(store.BadgerConfig{Dir: cfg.DataDir, Logger: log})
		if err != nil {
			return nil, err
		}
		prekeyStore, sessionStore, groupStore = db, db, db
		closer = db.Close
	}

	return &Wire{
		PreKeys:  prekeyStore,
		Identity: identitysvc.New(prekeyStore, log),
		Prekey:   prekeysvc.New(prekeyStore, log),
		Sessions: sessionsvc.New(prekeyStore, sessionStore, log, cfg.MaxSkip),
		Groups:   groupsvc.New(prekeyStore, groupStore, log, cfg.MaxSkip),
		Log:      log,
		closer:   closer,
	}, nil
}

// Close releases the underlying stores. Safe to call on the in-memory
// wiring.
func (w *Wire) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer()
}
