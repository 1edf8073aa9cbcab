package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the trust pipeline. Ingestion-time errors are
// fatal for the submission that triggered them; scoring unavailability
// is recoverable and only excludes the sample from denominators.
var (
	// ErrIntegrity indicates the recomputed CID disagrees with the
	// claimed CID.
	ErrIntegrity = errors.New("cid does not match payload")

	// ErrSignature indicates a bad or missing signature under a policy
	// that requires one.
	ErrSignature = errors.New("signature verification failed")

	// ErrOwnership indicates a chunk continuing a merge series was
	// uploaded by a party other than the series owner.
	ErrOwnership = errors.New("uploader does not own merge series")

	// ErrScoringUnavailable indicates a scorer cannot judge a pair.
	// The sample is excluded from denominators, never surfaced to the
	// submitter.
	ErrScoringUnavailable = errors.New("scorer cannot judge this pair")

	// ErrPolicyConfig indicates an unknown weighting or scoring
	// algorithm version. Fatal at configuration time, never silently
	// defaulted.
	ErrPolicyConfig = errors.New("invalid policy configuration")

	// ErrMissingCredential indicates signing was requested without a
	// configured private key. Callers decide whether an unsigned
	// submission is still acceptable.
	ErrMissingCredential = errors.New("no signing key configured")

	// ErrDuplicate marks the idempotent re-ingestion of an already
	// stored CID. It is a success reason, not a failure.
	ErrDuplicate = errors.New("duplicate submission")
)

// RejectionError is the structured rejection returned to a submitter
// when ingestion refuses a submission. It carries the offending CID and
// wraps the sentinel describing why.
type RejectionError struct {
	// CID is the content identifier of the rejected submission.
	CID string

	// Err is the underlying sentinel error.
	Err error
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	return fmt.Sprintf("submission %s rejected: %v", e.CID, e.Err)
}

// Unwrap returns the underlying sentinel, supporting errors.Is checks.
func (e *RejectionError) Unwrap() error { return e.Err }

// NewRejectionError creates a RejectionError for the given CID and cause.
func NewRejectionError(cid string, err error) *RejectionError {
	return &RejectionError{CID: cid, Err: err}
}
