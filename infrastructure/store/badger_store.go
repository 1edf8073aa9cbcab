// Package store provides submission log implementations backed by
// BadgerDB for durable deployments and by memory for simulation and
// tests, plus a filesystem artifact store implementing the side-file
// convention.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/peerbench/peerbench/internal/domain"
	"github.com/peerbench/peerbench/internal/ports"
)

// Key prefixes in the Badger keyspace. Submissions live under their
// CID, series ownership under the merge ID.
const (
	submissionPrefix = "sub:"
	seriesPrefix     = "series:"
)

var _ ports.SubmissionStore = (*BadgerStore)(nil)

// BadgerConfig holds configuration for a Badger-backed submission log.
type BadgerConfig struct {
	// Path is the directory for the database files. Ignored when
	// InMemory is true.
	Path string

	// InMemory enables in-memory mode with no disk persistence.
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool
}

// DefaultBadgerConfig returns production defaults: durable synchronous
// writes at the given path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{Path: path, SyncWrites: true}
}

// InMemoryBadgerConfig returns a configuration for tests: in-memory,
// asynchronous writes.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// BadgerStore is an append-only submission log on BadgerDB. Badger's
// transactions give writers atomicity for multi-record payloads and
// give readers snapshot isolation, so leaderboard folds never block on
// concurrent ingestion.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a Badger-backed submission log.
func OpenBadgerStore(config BadgerConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(config.Path).
		WithInMemory(config.InMemory).
		WithSyncWrites(config.SyncWrites).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Put appends a submission under its CID. Re-writing an existing CID is
// a no-op. The submission and, for series chunks, the series owner
// record are committed in one transaction.
func (s *BadgerStore) Put(ctx context.Context, sub domain.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode submission %s: %w", sub.CID, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(submissionPrefix + sub.CID)
		if _, err := txn.Get(key); err == nil {
			// Identical payloads produce identical CIDs; storing the
			// same submission twice is a no-op.
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}

		if sub.InSeries() {
			seriesKey := []byte(seriesPrefix + sub.MergeID)
			if _, err := txn.Get(seriesKey); errors.Is(err, badger.ErrKeyNotFound) {
				return txn.Set(seriesKey, []byte(sub.UploaderID))
			} else if err != nil {
				return err
			}
		}
		return nil
	})
}

// Get returns the submission stored under cid, if any.
func (s *BadgerStore) Get(ctx context.Context, cid string) (domain.Submission, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Submission{}, false, err
	}

	var sub domain.Submission
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(submissionPrefix + cid))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sub)
		})
	})
	return sub, found, err
}

// Has reports whether a submission with the given CID exists.
func (s *BadgerStore) Has(ctx context.Context, cid string) (bool, error) {
	_, found, err := s.Get(ctx, cid)
	return found, err
}

// Snapshot returns a point-in-time view of the full log. Badger key
// iteration is ordered, so the result is sorted by CID without an
// explicit sort.
func (s *BadgerStore) Snapshot(ctx context.Context) ([]domain.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var subs []domain.Submission
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(submissionPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var sub domain.Submission
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &sub)
			})
			if err != nil {
				return err
			}
			subs = append(subs, sub)
		}
		return nil
	})
	return subs, err
}

// SeriesOwner returns the uploader that started the given merge series.
func (s *BadgerStore) SeriesOwner(ctx context.Context, mergeID string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var owner string
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(seriesPrefix + mergeID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			owner = string(val)
			return nil
		})
	})
	return owner, found, err
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error { return s.db.Close() }
