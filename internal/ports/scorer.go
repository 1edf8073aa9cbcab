// Package ports defines the core interfaces that form the contract
// between the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system
// testable.
package ports

import (
	"context"

	"github.com/peerbench/peerbench/internal/domain"
)

// Scorer converts a single (Prompt, PromptResponse) pair into a bounded
// numeric score. Scorers must be stateless and safe for concurrent use.
type Scorer interface {
	// Identifier returns the registry identifier for this scorer.
	// The identifier is stable across releases; published scores
	// reference it.
	Identifier() string

	// CanScore reports whether this scorer is applicable to the pair.
	// It must be side-effect-free and cheap, because it is used to
	// filter large batches before expensive scoring such as an LLM
	// judge call.
	CanScore(prompt domain.Prompt, response domain.PromptResponse) bool

	// ScoreOne scores one pair. Malformed input never raises; it
	// produces a Score with Valid=false so the aggregation engine can
	// exclude the sample from denominators instead of counting a zero.
	// Errors are reserved for infrastructure failures such as a judge
	// transport breaking mid-call.
	ScoreOne(ctx context.Context, prompt domain.Prompt, response domain.PromptResponse) (domain.Score, error)
}
