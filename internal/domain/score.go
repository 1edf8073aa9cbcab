package domain

// Score is the output of a scorer applied to one prompt response.
// Scores are produced once and never mutated; re-scoring produces a new
// Score record.
type Score struct {
	// Scorer is the identifier of the scorer that produced this score.
	Scorer string `json:"scorerIdentifier"`

	// PromptID references the scored prompt.
	PromptID string `json:"promptId"`

	// ResponseID references the scored response.
	ResponseID string `json:"responseId"`

	// EntityID identifies the entity the score attributes to, typically
	// "provider/model" for provider rankings or a validator address for
	// validator rankings.
	EntityID string `json:"entityId"`

	// Value is the bounded score in [0,1]. Only meaningful when Valid
	// is true.
	Value float64 `json:"value"`

	// Valid reports whether the pair was scorable. Invalid scores are
	// excluded from aggregation denominators rather than counted as
	// zero.
	Valid bool `json:"valid"`
}

// WeightedScore is a Score annotated with decay-adjusted weights.
// It is computed on read and never persisted, so weighting policy
// changes require no backfill.
type WeightedScore struct {
	// Score is the underlying score record.
	Score Score `json:"score"`

	// AgeWeight is the prompt-age decay multiplier in [0,1].
	AgeWeight float64 `json:"ageWeight"`

	// DelayWeight is the response-delay decay multiplier in [0,1].
	DelayWeight float64 `json:"delayWeight"`

	// Weight is the combined contribution weight in [0,1], produced by
	// the policy's versioned scoring algorithm. A weight of zero
	// contributes to neither numerator nor denominator.
	Weight float64 `json:"weight"`

	// CoveragePass reports whether the owning entity met the policy's
	// minimum coverage at aggregation time.
	CoveragePass bool `json:"coveragePass"`

	// SubmissionCID ties the score back to its carrying submission so
	// flag reviews can exclude it post hoc.
	SubmissionCID string `json:"submissionCid"`

	// Tier is the carrying submission's submitter tier.
	Tier SubmitterTier `json:"tier"`
}

// LeaderboardEntry is the per-entity aggregate produced by the
// aggregation engine. Entries are recomputed per query from the
// submission log plus the active weighting policy and are never
// persisted as mutable rows.
type LeaderboardEntry struct {
	// EntityID identifies the ranked entity.
	EntityID string `json:"entityId"`

	// WeightedMeanScore is sum(score*weight)/sum(weight) over the
	// entity's non-zero-weight scores.
	WeightedMeanScore float64 `json:"weightedMeanScore"`

	// SampleCount is the number of scores that contributed.
	SampleCount int `json:"sampleCount"`

	// Coverage is the fraction of the eligible prompt set the entity
	// answered, in [0,1].
	Coverage float64 `json:"coverage"`

	// Rank is the 1-indexed leaderboard position.
	Rank int `json:"rank"`
}
