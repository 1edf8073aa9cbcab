package application

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/peerbench/peerbench/internal/domain"
	"github.com/peerbench/peerbench/internal/ports"
)

// DefaultScoringConcurrency bounds parallel ScoreOne calls when the
// caller does not specify a limit. Judge-backed scorers are the only
// expensive path; deterministic scorers are cheap either way.
const DefaultScoringConcurrency = 5

// ScorerRegistry maps scorer identifiers to instances. The registry is
// closed at configuration load: resolving an unknown identifier is a
// configuration error, never a runtime fallback.
type ScorerRegistry struct {
	mu      sync.RWMutex
	scorers map[string]ports.Scorer
}

// NewScorerRegistry creates a registry holding the given scorers.
func NewScorerRegistry(scorers ...ports.Scorer) (*ScorerRegistry, error) {
	r := &ScorerRegistry{scorers: make(map[string]ports.Scorer, len(scorers))}
	for _, sc := range scorers {
		if err := r.Register(sc); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a scorer under its identifier. Duplicate identifiers
// are a configuration error.
func (r *ScorerRegistry) Register(sc ports.Scorer) error {
	if sc == nil {
		return fmt.Errorf("%w: nil scorer", domain.ErrPolicyConfig)
	}
	id := sc.Identifier()
	if id == "" {
		return fmt.Errorf("%w: scorer identifier cannot be empty", domain.ErrPolicyConfig)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.scorers[id]; exists {
		return fmt.Errorf("%w: duplicate scorer identifier %q", domain.ErrPolicyConfig, id)
	}
	r.scorers[id] = sc
	return nil
}

// Resolve returns the scorer registered under the identifier.
func (r *ScorerRegistry) Resolve(identifier string) (ports.Scorer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sc, ok := r.scorers[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: unknown scorer identifier %q", domain.ErrPolicyConfig, identifier)
	}
	return sc, nil
}

// ScoreResponses scores every applicable (prompt, response) pair with
// the identified scorer, running ScoreOne calls concurrently with the
// given limit (DefaultScoringConcurrency when limit <= 0). Pairs the
// scorer declares unscorable are filtered by CanScore before the
// expensive path and excluded from the result.
//
// Results are returned in the order of the responses slice for
// determinism, regardless of completion order.
func (r *ScorerRegistry) ScoreResponses(
	ctx context.Context,
	scorerID string,
	prompts map[string]domain.Prompt,
	responses []domain.PromptResponse,
	limit int,
) ([]domain.Score, error) {
	sc, err := r.Resolve(scorerID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultScoringConcurrency
	}

	results := make([]*domain.Score, len(responses))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, response := range responses {
		i, response := i, response
		prompt, ok := prompts[response.PromptID]
		if !ok || !sc.CanScore(prompt, response) {
			continue
		}

		g.Go(func() error {
			score, err := sc.ScoreOne(gctx, prompt, response)
			if err != nil {
				return fmt.Errorf("scorer %s failed on response %s: %w", scorerID, response.ID, err)
			}
			mu.Lock()
			results[i] = &score
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	scores := make([]domain.Score, 0, len(responses))
	for _, s := range results {
		if s != nil {
			scores = append(scores, *s)
		}
	}
	return scores, nil
}
