package ports

import (
	"context"

	"github.com/peerbench/peerbench/internal/domain"
)

// PromptSource is the read contract to the upstream prompt persistence.
// Collectors and generators that produce prompts are external; the
// engine only needs to resolve prompt metadata (type, reference answer,
// creation time) when scoring and weighting.
type PromptSource interface {
	// Prompts returns the known prompts keyed by ID.
	Prompts(ctx context.Context) (map[string]domain.Prompt, error)
}

// StaticPrompts is a PromptSource over a fixed in-memory prompt set,
// used by the simulation harness and tests.
type StaticPrompts map[string]domain.Prompt

// Prompts returns the fixed prompt set.
func (p StaticPrompts) Prompts(ctx context.Context) (map[string]domain.Prompt, error) {
	return p, nil
}
