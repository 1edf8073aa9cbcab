// Package application wires the trust pipeline together: scorer
// registry, ingestion, weighting, aggregation, and the leaderboard
// query surface.
package application

import (
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/peerbench/peerbench/internal/domain"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// DecayKind selects the shape of a decay curve.
type DecayKind string

// Supported decay curves.
const (
	// DecayNone applies no decay; the weight component is always 1.
	DecayNone DecayKind = "none"

	// DecayLinear decays linearly to zero at the configured horizon:
	// w = max(0, 1 - age/horizon).
	DecayLinear DecayKind = "linear"

	// DecayExponential halves the weight every half-life:
	// w = 2^(-age/halfLife).
	DecayExponential DecayKind = "exponential"
)

// Versioned user scoring algorithm identifiers. Published leaderboards
// reference these; a version's numeric output must never change once
// released, so new formulas get new identifiers.
const (
	// ScoringAlgorithmV1 multiplies the age and delay weights.
	ScoringAlgorithmV1 = "simScores001"

	// ScoringAlgorithmV2 blends the age and delay weights
	// arithmetically.
	ScoringAlgorithmV2 = "simScores002"
)

// WeightingPolicy holds the knobs of the weighting and decay engine.
// Every knob is independently selectable and every derived weight is a
// deterministic function of (submission, policy, reference time), which
// is what makes leaderboards reproducible and lets the simulation
// harness validate policy changes offline.
type WeightingPolicy struct {
	// PromptAgeWeighting reduces weight as prompts age.
	PromptAgeWeighting DecayKind `yaml:"prompt_age_weighting" json:"prompt_age_weighting" validate:"required,oneof=none linear exponential"`

	// PromptAgeHorizonDays is the age in days at which linear prompt
	// age decay reaches zero.
	PromptAgeHorizonDays float64 `yaml:"prompt_age_horizon_days" json:"prompt_age_horizon_days" validate:"min=0"`

	// PromptAgeHalfLifeDays is the half-life in days for exponential
	// prompt age decay.
	PromptAgeHalfLifeDays float64 `yaml:"prompt_age_half_life_days" json:"prompt_age_half_life_days" validate:"min=0"`

	// ResponseDelayWeighting penalizes slow responders, who have more
	// opportunity to have seen other validators' answers.
	ResponseDelayWeighting DecayKind `yaml:"response_delay_weighting" json:"response_delay_weighting" validate:"required,oneof=none linear exponential"`

	// ResponseDelayHorizonDays is the delay in days at which linear
	// delay decay reaches zero.
	ResponseDelayHorizonDays float64 `yaml:"response_delay_horizon_days" json:"response_delay_horizon_days" validate:"min=0"`

	// ResponseDelayHalfLifeDays is the half-life in days for
	// exponential delay decay.
	ResponseDelayHalfLifeDays float64 `yaml:"response_delay_half_life_days" json:"response_delay_half_life_days" validate:"min=0"`

	// MinCoverage is the minimum percentage of the eligible prompt set
	// an entity must have answered to appear on the leaderboard.
	// Prevents cherry-picking easy prompts to inflate a score.
	MinCoverage float64 `yaml:"min_coverage" json:"min_coverage" validate:"min=0,max=100"`

	// UserWeightMultiplier scales the influence of user-tier
	// submissions relative to validator data: 0 disables user data,
	// 1 is neutral, values above 1 over-weight it experimentally.
	UserWeightMultiplier float64 `yaml:"user_weight_multiplier" json:"user_weight_multiplier" validate:"min=0,max=2"`

	// UserScoringAlgorithm selects the versioned formula that combines
	// the age and delay weights into the contribution weight.
	UserScoringAlgorithm string `yaml:"user_scoring_algorithm" json:"user_scoring_algorithm" validate:"required"`
}

// DefaultWeightingPolicy returns the production defaults: exponential
// prompt age decay over a 30-day half-life, no delay decay, a 50%
// coverage gate, neutral user weighting, and the v1 scoring algorithm.
func DefaultWeightingPolicy() WeightingPolicy {
	return WeightingPolicy{
		PromptAgeWeighting:     DecayExponential,
		PromptAgeHalfLifeDays:  30,
		ResponseDelayWeighting: DecayNone,
		MinCoverage:            50,
		UserWeightMultiplier:   1,
		UserScoringAlgorithm:   ScoringAlgorithmV1,
	}
}

// Validate checks the policy for structural validity and resolvable
// algorithm identifiers. Unknown identifiers and missing decay
// parameters fail here, at configuration time, never by silent default.
func (p WeightingPolicy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPolicyConfig, err)
	}
	if _, ok := scoringAlgorithms[p.UserScoringAlgorithm]; !ok {
		return fmt.Errorf("%w: unknown user scoring algorithm %q", domain.ErrPolicyConfig, p.UserScoringAlgorithm)
	}
	if p.PromptAgeWeighting == DecayLinear && p.PromptAgeHorizonDays <= 0 {
		return fmt.Errorf("%w: linear prompt age decay requires a positive horizon", domain.ErrPolicyConfig)
	}
	if p.PromptAgeWeighting == DecayExponential && p.PromptAgeHalfLifeDays <= 0 {
		return fmt.Errorf("%w: exponential prompt age decay requires a positive half-life", domain.ErrPolicyConfig)
	}
	if p.ResponseDelayWeighting == DecayLinear && p.ResponseDelayHorizonDays <= 0 {
		return fmt.Errorf("%w: linear delay decay requires a positive horizon", domain.ErrPolicyConfig)
	}
	if p.ResponseDelayWeighting == DecayExponential && p.ResponseDelayHalfLifeDays <= 0 {
		return fmt.Errorf("%w: exponential delay decay requires a positive half-life", domain.ErrPolicyConfig)
	}
	return nil
}

// LoadWeightingPolicy reads a YAML weighting policy, overlaying the
// defaults and validating the result. Unknown YAML fields are errors.
func LoadWeightingPolicy(r io.Reader) (WeightingPolicy, error) {
	policy := DefaultWeightingPolicy()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&policy); err != nil && err != io.EOF {
		return WeightingPolicy{}, fmt.Errorf("%w: %v", domain.ErrPolicyConfig, err)
	}

	if err := policy.Validate(); err != nil {
		return WeightingPolicy{}, err
	}
	return policy, nil
}

// IngestionMode selects how ingestion treats unsigned submissions.
type IngestionMode string

// Ingestion modes.
const (
	// ModeOpen accepts unsigned submissions as community data.
	ModeOpen IngestionMode = "open"

	// ModeValidator rejects submissions without a verifying signature.
	ModeValidator IngestionMode = "validator"
)

// IngestionPolicy configures the ingestion pipeline.
type IngestionPolicy struct {
	// Mode decides whether unsigned submissions are accepted.
	Mode IngestionMode `yaml:"mode" json:"mode" validate:"required,oneof=open validator"`
}

// DefaultIngestionPolicy returns the validator-only production default.
func DefaultIngestionPolicy() IngestionPolicy {
	return IngestionPolicy{Mode: ModeValidator}
}

// Validate checks the ingestion policy.
func (p IngestionPolicy) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPolicyConfig, err)
	}
	return nil
}
