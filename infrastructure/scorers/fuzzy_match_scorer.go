package scorers

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/peerbench/peerbench/internal/domain"
	"github.com/peerbench/peerbench/internal/ports"
)

var _ ports.Scorer = (*FuzzyMatchScorer)(nil)

// FuzzyMatchScorer scores responses by string similarity to the
// reference answer using the Levenshtein edit distance, producing
// values between 0.0 and 1.0. It targets the prompt types where a
// provider's answer is expected to be close but not byte-identical to
// the reference: typo correction, text replacement, and sentence
// reordering.
//
// The scorer is deterministic, requires no LLM, and is stateless and
// safe for concurrent execution.
type FuzzyMatchScorer struct {
	// config contains the validated configuration parameters.
	config FuzzyMatchConfig
}

// FuzzyMatchConfig defines the configuration parameters for the
// FuzzyMatchScorer. All fields are validated during creation.
type FuzzyMatchConfig struct {
	// Algorithm specifies the fuzzy matching algorithm.
	// Currently only "levenshtein" is supported.
	Algorithm string `yaml:"algorithm" json:"algorithm" validate:"required,oneof=levenshtein"`

	// Threshold is the minimum similarity (0.0-1.0) for a non-zero
	// score. Similarities below the threshold score 0.0.
	Threshold float64 `yaml:"threshold" json:"threshold" validate:"min=0.0,max=1.0"`

	// CaseSensitive determines whether comparison is case-sensitive.
	// When false, Unicode case folding is applied to both sides.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`
}

// DefaultFuzzyMatchConfig returns production defaults: Levenshtein
// matching, a 0.5 similarity floor, case-insensitive.
func DefaultFuzzyMatchConfig() FuzzyMatchConfig {
	return FuzzyMatchConfig{
		Algorithm:     "levenshtein",
		Threshold:     0.5,
		CaseSensitive: false,
	}
}

// NewFuzzyMatchScorer creates a FuzzyMatchScorer with validated
// configuration.
func NewFuzzyMatchScorer(config FuzzyMatchConfig) (*FuzzyMatchScorer, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &FuzzyMatchScorer{config: config}, nil
}

// Identifier returns the stable registry identifier for this scorer.
func (fms *FuzzyMatchScorer) Identifier() string { return IdentifierFuzzyMatch }

// CanScore reports whether the pair carries a free-text reference
// answer to compare against. Multiple-choice prompts belong to the
// multiple-choice scorer.
func (fms *FuzzyMatchScorer) CanScore(prompt domain.Prompt, response domain.PromptResponse) bool {
	switch prompt.Type {
	case domain.PromptTypo, domain.PromptTextReplacement, domain.PromptSentenceReorder, domain.PromptFreeForm:
		return prompt.Answer != "" && response.Data != ""
	default:
		return false
	}
}

// ScoreOne computes the normalized Levenshtein similarity between the
// response and the reference answer: 1 - distance/maxRuneLen. Values
// below the configured threshold collapse to 0.0.
func (fms *FuzzyMatchScorer) ScoreOne(
	ctx context.Context,
	prompt domain.Prompt,
	response domain.PromptResponse,
) (domain.Score, error) {
	if !fms.CanScore(prompt, response) {
		return unscorable(IdentifierFuzzyMatch, prompt, response), nil
	}

	candidate := response.Data
	reference := prompt.Answer
	if !fms.config.CaseSensitive {
		candidate = foldCaser.String(candidate)
		reference = foldCaser.String(reference)
	}

	value := similarity(candidate, reference)
	if value < fms.config.Threshold {
		value = 0.0
	}
	return scored(IdentifierFuzzyMatch, prompt, response, value), nil
}

// similarity converts a Levenshtein distance into a similarity score in
// [0,1], normalizing by the longer string's rune count.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}
