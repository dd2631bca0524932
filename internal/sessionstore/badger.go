package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/foldernotes/notes-server/internal/auth"
	"github.com/foldernotes/notes-server/internal/domain"
)

// gcInterval is how often the value log is garbage collected.
const gcInterval = 10 * time.Minute

// Badger stores sessions in an embedded Badger database. Entries carry a
// TTL, so expired sessions vanish without a sweep.
type Badger struct {
	db     *badger.DB
	logger *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

var _ auth.SessionStore = (*Badger)(nil)

// OpenBadger opens (or creates) a session database at path.
func OpenBadger(path string, logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	return openBadger(opts, logger, true)
}

// OpenBadgerInMemory opens a session database that lives only in memory.
func OpenBadgerInMemory(logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	return openBadger(opts, logger, false)
}

func openBadger(opts badger.Options, logger *slog.Logger, gc bool) (*Badger, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger session store: %w", err)
	}

	b := &Badger{db: db, logger: logger, done: make(chan struct{})}
	if gc {
		go b.gcLoop()
	}

	logger.Info("Badger session store opened", "path", opts.Dir, "in_memory", opts.InMemory)
	return b, nil
}

// Save implements auth.SessionStore.
func (b *Badger) Save(_ context.Context, sessionID string, identity domain.Identity, ttl time.Duration) error {
	data, err := encode(identity)
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(sessionKey(sessionID)), data).WithTTL(ttl))
	})
}

// Load implements auth.SessionStore.
func (b *Badger) Load(_ context.Context, sessionID string) (domain.Identity, error) {
	var identity domain.Identity

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKey(sessionID)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			identity, err = decode(val)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Identity{}, auth.ErrSessionNotFound
	}
	if err != nil {
		return domain.Identity{}, err
	}

	return identity, nil
}

// Delete implements auth.SessionStore.
func (b *Badger) Delete(_ context.Context, sessionID string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionKey(sessionID)))
	})
}

// Ping implements auth.SessionStore.
func (b *Badger) Ping(context.Context) error {
	if b.db.IsClosed() {
		return errors.New("badger session store is closed")
	}
	return nil
}

// Close stops garbage collection and closes the database.
func (b *Badger) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = b.db.Close()
	})
	return err
}

func (b *Badger) gcLoop() {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			// RunValueLogGC returns ErrNoRewrite when there is nothing to reclaim.
			for b.db.RunValueLogGC(0.5) == nil {
			}
		}
	}
}
