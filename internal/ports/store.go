package ports

import (
	"context"

	"github.com/peerbench/peerbench/internal/domain"
)

// SubmissionStore persists accepted submissions as an append-only log
// keyed by content identity. Implementations must give readers a
// consistent snapshot that never blocks on concurrent writes of
// unrelated submissions.
type SubmissionStore interface {
	// Put appends a submission to the log. Writing a CID that already
	// exists must be a no-op, never an error, preserving ingestion
	// idempotence. A submission embedding multiple records is stored
	// atomically.
	Put(ctx context.Context, sub domain.Submission) error

	// Get returns the submission stored under cid, if any.
	Get(ctx context.Context, cid string) (domain.Submission, bool, error)

	// Has reports whether a submission with the given CID exists.
	Has(ctx context.Context, cid string) (bool, error)

	// Snapshot returns a point-in-time view of the full log, ordered
	// by CID for determinism. Aggregation folds over snapshots, never
	// over live mutable state.
	Snapshot(ctx context.Context) ([]domain.Submission, error)

	// SeriesOwner returns the uploader that started the given merge
	// series, if any chunk of it has been accepted.
	SeriesOwner(ctx context.Context, mergeID string) (string, bool, error)

	// Close releases store resources.
	Close() error
}

// ArtifactStore persists signed artifacts to durable storage alongside
// their <name>.cid and <name>.signature side files, enabling offline
// verification without re-deriving state from a database.
type ArtifactStore interface {
	// WriteSigned writes the artifact payload plus its side files.
	// The signature side file is omitted when signature is empty.
	WriteSigned(ctx context.Context, name string, payload []byte, cid, signature string) error

	// ReadSigned reads an artifact payload and its side-file values.
	ReadSigned(ctx context.Context, name string) (payload []byte, cid, signature string, err error)
}
