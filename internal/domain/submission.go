package domain

import "time"

// SubmitterTier distinguishes validator-operated submissions from
// community ("user") submissions. The weighting policy scales user data
// by a configurable multiplier.
type SubmitterTier string

// Submitter tiers.
const (
	// TierValidator marks data submitted by a registered validator.
	TierValidator SubmitterTier = "validator"

	// TierUser marks data submitted by a non-validator participant.
	TierUser SubmitterTier = "user"
)

// PayloadType identifies what a submission envelope carries.
type PayloadType string

// Payload types.
const (
	// PayloadResponses carries one or more provider responses.
	PayloadResponses PayloadType = "responses"

	// PayloadScores carries one or more scores.
	PayloadScores PayloadType = "scores"

	// PayloadFlag carries a review that excludes previously accepted
	// submissions from aggregation.
	PayloadFlag PayloadType = "flag"
)

// SubmissionPayload is the canonicalized content a submission's CID and
// signature are computed over. A payload embedding multiple responses or
// scores is persisted all-or-nothing.
type SubmissionPayload struct {
	// Type identifies the payload kind.
	Type PayloadType `json:"type"`

	// PromptSetID scopes the payload to a prompt set.
	PromptSetID string `json:"promptSetId,omitempty"`

	// Responses holds provider responses for PayloadResponses payloads.
	Responses []PromptResponse `json:"responses,omitempty"`

	// Scores holds score records for PayloadScores payloads.
	Scores []Score `json:"scores,omitempty"`

	// FlaggedCIDs lists submission CIDs a PayloadFlag payload retracts
	// from aggregation.
	FlaggedCIDs []string `json:"flaggedCids,omitempty"`
}

// Submission is the unit of trust: a content-addressed, signed envelope
// wrapping responses or scores. The CID is a pure function of the
// canonical payload bytes, so identical payloads always produce
// identical CIDs and deduplicate naturally.
type Submission struct {
	// CID is the content identifier of the canonical payload bytes.
	CID string `json:"cid"`

	// Signature signs the canonical payload bytes. Empty for unsigned
	// submissions, which are only accepted under an open ingestion
	// policy.
	Signature string `json:"signature,omitempty"`

	// SignerAddress is the address the signature verifies against.
	SignerAddress string `json:"signerAddress,omitempty"`

	// UploaderID identifies the submitting party, independent of the
	// signing key.
	UploaderID string `json:"uploaderId"`

	// Tier classifies the submitter for weighting purposes.
	Tier SubmitterTier `json:"tier"`

	// MergeID, when non-empty, identifies the chunked upload series
	// this submission continues. Chunks of one series share an owner
	// and are reconstructed only on finalize.
	MergeID string `json:"mergeId,omitempty"`

	// ChunkSeq orders chunks within a MergeID series.
	ChunkSeq int `json:"chunkSeq,omitempty"`

	// Final marks the last chunk of a MergeID series. Partial series
	// are never visible to aggregation.
	Final bool `json:"final,omitempty"`

	// CreatedAt records when the submission was created.
	CreatedAt time.Time `json:"createdAt"`

	// Payload is the content-addressed body.
	Payload SubmissionPayload `json:"payload"`
}

// InSeries reports whether the submission continues a chunked upload
// series.
func (s Submission) InSeries() bool { return s.MergeID != "" }
