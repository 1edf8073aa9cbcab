// Package scorers provides the scorer strategies that convert a single
// (Prompt, PromptResponse) pair into a bounded numeric score, each
// implementing the ports.Scorer interface.
package scorers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"

	"github.com/peerbench/peerbench/internal/domain"
)

// Stable scorer identifiers. Published scores reference these, so they
// are part of the wire contract and must never be renamed.
const (
	IdentifierExactMatch     = "exact-match"
	IdentifierMultipleChoice = "multiple-choice"
	IdentifierFuzzyMatch     = "fuzzy-match"
	IdentifierLLMJudge       = "llm-judge"
)

// Common errors returned by scorer constructors.
var (
	// ErrNilJudgeClient is returned when a judge-backed scorer is
	// created without a client.
	ErrNilJudgeClient = errors.New("judge client cannot be nil")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// foldCaser is a package-level Unicode case folder.
// This avoids creating a new caser for each string preparation.
var foldCaser = cases.Fold()

// normalize trims surrounding whitespace and applies Unicode case
// folding, the shared preparation step before deterministic comparison.
func normalize(s string) string {
	return foldCaser.String(strings.TrimSpace(s))
}

// unscorable returns the canonical not-scorable Score for a pair,
// attributed to the given scorer.
func unscorable(identifier string, prompt domain.Prompt, response domain.PromptResponse) domain.Score {
	return domain.Score{
		Scorer:     identifier,
		PromptID:   prompt.ID,
		ResponseID: response.ID,
		EntityID:   entityID(response),
		Valid:      false,
	}
}

// scored returns a valid Score with the given value clamped to [0,1].
func scored(identifier string, prompt domain.Prompt, response domain.PromptResponse, value float64) domain.Score {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	return domain.Score{
		Scorer:     identifier,
		PromptID:   prompt.ID,
		ResponseID: response.ID,
		EntityID:   entityID(response),
		Value:      value,
		Valid:      true,
	}
}

// entityID derives the aggregation entity key for a response:
// "provider/model", degrading to whichever half is present.
func entityID(response domain.PromptResponse) string {
	switch {
	case response.ProviderID != "" && response.ModelID != "":
		return response.ProviderID + "/" + response.ModelID
	case response.ModelID != "":
		return response.ModelID
	default:
		return response.ProviderID
	}
}
