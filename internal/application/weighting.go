package application

import (
	"math"
	"time"

	"github.com/peerbench/peerbench/internal/domain"
)

// hoursPerDay converts the policy's day-denominated knobs into the
// duration math below.
const hoursPerDay = 24

// combineFunc is a versioned strategy combining the age and delay
// weight components into a single contribution weight. Implementations
// must be pure: released versions never change numeric output.
type combineFunc func(ageWeight, delayWeight float64) float64

// scoringAlgorithms is the closed registry of combine strategies.
// Resolution happens at configuration load; unknown identifiers are a
// PolicyConfigError, never a runtime fallback.
var scoringAlgorithms = map[string]combineFunc{
	ScoringAlgorithmV1: func(ageWeight, delayWeight float64) float64 {
		return ageWeight * delayWeight
	},
	ScoringAlgorithmV2: func(ageWeight, delayWeight float64) float64 {
		return (ageWeight + delayWeight) / 2
	},
}

// WeightingEngine computes per-submission weight multipliers from the
// configured temporal and coverage policies. It holds no mutable state:
// the same (score, prompt, response, submission, reference time) tuple
// always yields the same WeightedScore under the same policy.
type WeightingEngine struct {
	policy  WeightingPolicy
	combine combineFunc
}

// NewWeightingEngine creates a weighting engine for the given policy,
// resolving the scoring algorithm version up front.
func NewWeightingEngine(policy WeightingPolicy) (*WeightingEngine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &WeightingEngine{
		policy:  policy,
		combine: scoringAlgorithms[policy.UserScoringAlgorithm],
	}, nil
}

// Policy returns the engine's policy.
func (e *WeightingEngine) Policy() WeightingPolicy { return e.policy }

// Weigh annotates a score with its decay-adjusted weights. The asOf
// parameter is the reference time for prompt age; passing the same
// asOf reproduces the same weights, which keeps leaderboard folds
// deterministic. Invalid scores weigh zero.
func (e *WeightingEngine) Weigh(
	score domain.Score,
	prompt domain.Prompt,
	response domain.PromptResponse,
	sub domain.Submission,
	asOf time.Time,
) domain.WeightedScore {
	ws := domain.WeightedScore{
		Score:         score,
		SubmissionCID: sub.CID,
		Tier:          sub.Tier,
	}

	if !score.Valid {
		return ws
	}

	ws.AgeWeight = decay(
		e.policy.PromptAgeWeighting,
		asOf.Sub(prompt.CreatedAt),
		e.policy.PromptAgeHorizonDays,
		e.policy.PromptAgeHalfLifeDays,
	)
	ws.DelayWeight = decay(
		e.policy.ResponseDelayWeighting,
		response.RespondedAt.Sub(prompt.CreatedAt),
		e.policy.ResponseDelayHorizonDays,
		e.policy.ResponseDelayHalfLifeDays,
	)

	weight := e.combine(ws.AgeWeight, ws.DelayWeight)
	if sub.Tier == domain.TierUser {
		weight *= e.policy.UserWeightMultiplier
	}
	ws.Weight = clamp01(weight)
	return ws
}

// decay computes one weight component in [0,1] for the given age.
// Negative ages (clock skew, future-dated prompts) clamp to zero age
// rather than amplifying the weight.
func decay(kind DecayKind, age time.Duration, horizonDays, halfLifeDays float64) float64 {
	if age < 0 {
		age = 0
	}
	ageDays := age.Hours() / hoursPerDay

	switch kind {
	case DecayLinear:
		return clamp01(1 - ageDays/horizonDays)
	case DecayExponential:
		return clamp01(math.Exp2(-ageDays / halfLifeDays))
	default:
		return 1
	}
}

// clamp01 bounds v to [0,1]. Weights above 1 can arise from the user
// weight multiplier; the weight-boundedness invariant caps them.
func clamp01(v float64) float64 {
	switch {
	case v < 0, math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
