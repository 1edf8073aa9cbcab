package store

import (
	"context"
	"sort"
	"sync"

	"github.com/peerbench/peerbench/internal/domain"
	"github.com/peerbench/peerbench/internal/ports"
)

var _ ports.SubmissionStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory submission log for simulation runs and
// tests. Simulation never writes to a production store, so each run
// gets a fresh MemoryStore.
//
// The store is safe for concurrent use; readers copy the log under a
// read lock, giving them an immutable snapshot.
type MemoryStore struct {
	mu          sync.RWMutex
	submissions map[string]domain.Submission
	series      map[string]string
}

// NewMemoryStore creates an empty in-memory submission log.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		submissions: make(map[string]domain.Submission),
		series:      make(map[string]string),
	}
}

// Put appends a submission. Re-writing an existing CID is a no-op.
func (s *MemoryStore) Put(ctx context.Context, sub domain.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.submissions[sub.CID]; exists {
		return nil
	}
	s.submissions[sub.CID] = sub

	if sub.InSeries() {
		if _, exists := s.series[sub.MergeID]; !exists {
			s.series[sub.MergeID] = sub.UploaderID
		}
	}
	return nil
}

// Get returns the submission stored under cid, if any.
func (s *MemoryStore) Get(ctx context.Context, cid string) (domain.Submission, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Submission{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[cid]
	return sub, ok, nil
}

// Has reports whether a submission with the given CID exists.
func (s *MemoryStore) Has(ctx context.Context, cid string) (bool, error) {
	_, ok, err := s.Get(ctx, cid)
	return ok, err
}

// Snapshot returns a copy of the full log sorted by CID.
func (s *MemoryStore) Snapshot(ctx context.Context) ([]domain.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	subs := make([]domain.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		subs = append(subs, sub)
	}
	s.mu.RUnlock()

	sort.Slice(subs, func(i, j int) bool { return subs[i].CID < subs[j].CID })
	return subs, nil
}

// SeriesOwner returns the uploader that started the given merge series.
func (s *MemoryStore) SeriesOwner(ctx context.Context, mergeID string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.series[mergeID]
	return owner, ok, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
