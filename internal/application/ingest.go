package application

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/peerbench/peerbench/internal/domain"
	"github.com/peerbench/peerbench/internal/identity"
	"github.com/peerbench/peerbench/internal/ports"
)

// Structured rejection and acceptance reasons returned to submitters.
const (
	ReasonDuplicate = "duplicate"
	ReasonIntegrity = "integrity"
	ReasonSignature = "signature"
	ReasonOwnership = "ownership"
)

// IngestResult reports an ingestion outcome to the submitter. Rejected
// submissions always carry a reason; accepted duplicates carry
// ReasonDuplicate so callers can distinguish idempotent re-ingestion
// from first acceptance.
type IngestResult struct {
	// Accepted reports whether the submission entered the log.
	Accepted bool `json:"accepted"`

	// Reason carries the dedup or rejection cause, empty for a plain
	// accept.
	Reason string `json:"reason,omitempty"`
}

// Ingestor validates, deduplicates, and persists signed submissions.
// It is the only component that mutates shared state: writes within one
// merge series are serialized by a per-series lock while unrelated
// submissions ingest fully in parallel.
//
// A submission moves Received -> IntegrityChecked -> {Rejected |
// Accepted}; once rejected it never transitions back, and accepted
// submissions are never retracted here (retraction is a flag payload
// the aggregation engine subtracts).
type Ingestor struct {
	store   ports.SubmissionStore
	policy  IngestionPolicy
	metrics ports.MetricsCollector
	tracer  trace.Tracer
	series  keyedMutex
}

// NewIngestor creates an ingestion pipeline over the given store and
// policy. The metrics collector may not be nil; use a nop collector to
// discard observations.
func NewIngestor(store ports.SubmissionStore, policy IngestionPolicy, metrics ports.MetricsCollector) (*Ingestor, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Ingestor{
		store:   store,
		policy:  policy,
		metrics: metrics,
		tracer:  otel.Tracer("ingestor"),
	}, nil
}

// Ingest runs the full acceptance pipeline for one submission:
// CID recomputation, CID-level deduplication, signature verification
// under the configured mode, and merge-series ownership enforcement,
// then persists atomically. Rejections return both a structured
// IngestResult and a domain.RejectionError wrapping the sentinel cause;
// they are never silently dropped.
func (ing *Ingestor) Ingest(ctx context.Context, sub domain.Submission) (IngestResult, error) {
	ctx, span := ing.tracer.Start(ctx, "Ingestor.Ingest",
		trace.WithAttributes(
			attribute.String("submission.cid", sub.CID),
			attribute.String("submission.uploader", sub.UploaderID),
			attribute.Bool("submission.in_series", sub.InSeries()),
		),
	)
	defer span.End()

	start := time.Now()
	result, err := ing.ingest(ctx, sub)
	ing.metrics.RecordIngestionLatency(time.Since(start).Seconds())

	status := "accepted"
	if !result.Accepted {
		status = "rejected"
	}
	ing.metrics.RecordIngestion(status, result.Reason)
	span.SetAttributes(
		attribute.Bool("ingest.accepted", result.Accepted),
		attribute.String("ingest.reason", result.Reason),
	)
	if err != nil {
		span.RecordError(err)
	}
	return result, err
}

func (ing *Ingestor) ingest(ctx context.Context, sub domain.Submission) (IngestResult, error) {
	canonical, err := identity.CanonicalJSON(sub.Payload)
	if err != nil {
		return IngestResult{Reason: ReasonIntegrity},
			domain.NewRejectionError(sub.CID, domain.ErrIntegrity)
	}

	// The CID must be a pure function of the payload bytes; a claimed
	// CID that disagrees with the recomputed one is tampering or
	// corruption, not a recoverable condition.
	if identity.ComputeCID(canonical) != sub.CID {
		return IngestResult{Reason: ReasonIntegrity},
			domain.NewRejectionError(sub.CID, domain.ErrIntegrity)
	}

	exists, err := ing.store.Has(ctx, sub.CID)
	if err != nil {
		return IngestResult{}, err
	}
	if exists {
		// Identical payloads collapse to one log entry; re-ingestion
		// is idempotent success, never double-counted downstream.
		return IngestResult{Accepted: true, Reason: ReasonDuplicate}, nil
	}

	if sub.Signature != "" {
		if !identity.Verify(canonical, sub.Signature, sub.SignerAddress) {
			return IngestResult{Reason: ReasonSignature},
				domain.NewRejectionError(sub.CID, domain.ErrSignature)
		}
	} else if ing.policy.Mode == ModeValidator {
		return IngestResult{Reason: ReasonSignature},
			domain.NewRejectionError(sub.CID, domain.ErrSignature)
	}

	if sub.InSeries() {
		// Serialize the owner check and write per series so two
		// writers cannot race a chunk into someone else's upload.
		unlock := ing.series.lock(sub.MergeID)
		defer unlock()

		owner, found, err := ing.store.SeriesOwner(ctx, sub.MergeID)
		if err != nil {
			return IngestResult{}, err
		}
		if found && owner != sub.UploaderID {
			return IngestResult{Reason: ReasonOwnership},
				domain.NewRejectionError(sub.CID, domain.ErrOwnership)
		}
	}

	if err := ing.store.Put(ctx, sub); err != nil {
		return IngestResult{}, err
	}
	return IngestResult{Accepted: true}, nil
}

// keyedMutex serializes work per string key while leaving unrelated
// keys fully parallel. Locks are created on first use and kept for the
// process lifetime; the key space (active merge series) is small.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
