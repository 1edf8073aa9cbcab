package scorers

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/peerbench/peerbench/internal/domain"
	"github.com/peerbench/peerbench/internal/ports"
)

var _ ports.Scorer = (*ExactMatchScorer)(nil)

// ExactMatchScorer performs deterministic exact string matching between
// a response and the prompt's reference. For prompts carrying options
// it compares against the answer key; otherwise it compares against the
// free-form reference answer. Each scorable pair receives a binary
// score: 1.0 for an exact match, 0.0 otherwise.
//
// This scorer provides deterministic evaluation without LLM costs,
// making it the default for prompts with known ground truth.
//
// Concurrency: ExactMatchScorer is stateless and safe for concurrent
// execution.
type ExactMatchScorer struct {
	// config contains the validated configuration parameters.
	config ExactMatchConfig
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// ExactMatchConfig controls string normalization during exact matching.
// The zero value provides case-sensitive matching without whitespace
// trimming; DefaultExactMatchConfig gives the production defaults.
type ExactMatchConfig struct {
	// CaseSensitive controls case sensitivity during comparison.
	// When false, Unicode-aware case folding is applied to both sides.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`

	// TrimWhitespace controls leading/trailing whitespace
	// normalization before comparison.
	TrimWhitespace bool `yaml:"trim_whitespace" json:"trim_whitespace"`
}

// DefaultExactMatchConfig returns production defaults:
// case-insensitive matching with whitespace trimming enabled.
func DefaultExactMatchConfig() ExactMatchConfig {
	return ExactMatchConfig{CaseSensitive: false, TrimWhitespace: true}
}

// NewExactMatchScorer creates an ExactMatchScorer with validated
// configuration. The scorer is immediately ready for concurrent use.
func NewExactMatchScorer(config ExactMatchConfig) (*ExactMatchScorer, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &ExactMatchScorer{
		config: config,
		tracer: otel.Tracer("exact-match-scorer"),
	}, nil
}

// Identifier returns the stable registry identifier for this scorer.
func (ems *ExactMatchScorer) Identifier() string { return IdentifierExactMatch }

// CanScore reports whether the pair has both sides of a comparison:
// non-empty response data and either an answer key (with options) or a
// reference answer.
func (ems *ExactMatchScorer) CanScore(prompt domain.Prompt, response domain.PromptResponse) bool {
	if response.Data == "" {
		return false
	}
	if prompt.HasOptions() {
		return prompt.AnswerKey != ""
	}
	return prompt.Answer != ""
}

// ScoreOne compares the response against the prompt's reference and
// returns a binary score. Pairs missing either side yield an invalid
// score rather than an error, so they drop out of denominators.
func (ems *ExactMatchScorer) ScoreOne(
	ctx context.Context,
	prompt domain.Prompt,
	response domain.PromptResponse,
) (domain.Score, error) {
	_, span := ems.tracer.Start(ctx, "ExactMatchScorer.ScoreOne",
		trace.WithAttributes(
			attribute.String("scorer.id", IdentifierExactMatch),
			attribute.String("prompt.id", prompt.ID),
			attribute.Bool("config.case_sensitive", ems.config.CaseSensitive),
		),
	)
	defer span.End()

	if !ems.CanScore(prompt, response) {
		span.SetAttributes(attribute.Bool("eval.scorable", false))
		return unscorable(IdentifierExactMatch, prompt, response), nil
	}

	reference := prompt.Answer
	if prompt.HasOptions() {
		reference = prompt.AnswerKey
	}

	value := 0.0
	if ems.prepare(response.Data) == ems.prepare(reference) {
		value = 1.0
	}

	span.SetAttributes(
		attribute.Float64("eval.score", value),
		// Deterministic scorers have no LLM cost; the attribute lets
		// observability tools filter them.
		attribute.Bool("no_llm_cost", true),
	)

	return scored(IdentifierExactMatch, prompt, response, value), nil
}

// prepare normalizes a string according to the scorer's configuration:
// whitespace trimming first, then Unicode case folding.
func (ems *ExactMatchScorer) prepare(s string) string {
	result := s
	if ems.config.TrimWhitespace {
		result = strings.TrimSpace(result)
	}
	if !ems.config.CaseSensitive {
		result = foldCaser.String(result)
	}
	return result
}
