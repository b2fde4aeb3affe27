package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/encodelab/taenc/internal/constraint"
	"github.com/encodelab/taenc/internal/plan"
	"github.com/encodelab/taenc/internal/ta"
)

// PersistentBackend stores finalized automata systems in a BadgerDB
// instance, keyed by the same content hash as Cache, so an encoding built
// in a previous process survives a restart.
type PersistentBackend struct {
	db *badger.DB
}

// OpenPersistentBackend opens (creating if absent) a BadgerDB-backed
// encoding cache rooted at path.
func OpenPersistentBackend(path string) (*PersistentBackend, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: failed to open badger: %w", err)
	}
	return &PersistentBackend{db: db}, nil
}

// Close releases the underlying database handle.
func (b *PersistentBackend) Close() error {
	return b.db.Close()
}

// Get retrieves a finalized system previously stored under (pl, infos).
func (b *PersistentBackend) Get(pl plan.Plan, infos []constraint.ICInfo) (*ta.AutomataSystem, bool) {
	key := []byte(computeKey(pl, infos))

	var system ta.AutomataSystem
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&system)
		})
	})
	if err != nil {
		return nil, false
	}
	return &system, true
}

// Set persists a finalized system under (pl, infos).
func (b *PersistentBackend) Set(pl plan.Plan, infos []constraint.ICInfo, system *ta.AutomataSystem) error {
	key := []byte(computeKey(pl, infos))

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(system); err != nil {
		return fmt.Errorf("cache: failed to encode automata system: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf.Bytes())
	})
}
