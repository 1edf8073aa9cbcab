package application

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/peerbench/peerbench/internal/domain"
	"github.com/peerbench/peerbench/internal/ports"
)

// GroupByFunc derives the grouping key for a weighted score. The
// default groups by the score's entity ID.
type GroupByFunc func(domain.WeightedScore) string

// AggregateOptions tune one aggregation fold.
type AggregateOptions struct {
	// GroupBy derives the entity key. Nil groups by Score.EntityID.
	GroupBy GroupByFunc

	// MinCoverage is the coverage gate percentage in [0,100]. Entities
	// below it are excluded entirely.
	MinCoverage float64

	// EligiblePrompts is the set of prompt IDs forming the coverage
	// denominator. When empty, the denominator is derived from the
	// distinct prompt IDs seen across the input.
	EligiblePrompts map[string]struct{}

	// ExcludeCIDs drops scores carried by the listed submission CIDs,
	// implementing post-hoc retraction by flag reviews.
	ExcludeCIDs map[string]struct{}
}

// Aggregator folds weighted scores into per-entity leaderboard entries.
// Aggregation is read-derived and pure: repeated folds over unchanged
// input produce byte-identical ordered output.
type Aggregator struct {
	metrics ports.MetricsCollector
}

// NewAggregator creates an aggregation engine.
func NewAggregator(metrics ports.MetricsCollector) *Aggregator {
	return &Aggregator{metrics: metrics}
}

// groupStats accumulates one entity's fold.
type groupStats struct {
	weightedSum float64
	weightTotal float64
	samples     int
	prompts     map[string]struct{}
}

// Aggregate groups weighted scores by entity, computes weighted means
// and coverage, applies the coverage gate, and returns entries ranked
// deterministically: weighted mean descending, sample count descending,
// entity ID ascending. Independent groups fold concurrently; the final
// sort restores determinism.
//
// A zero weight contributes to neither numerator nor denominator,
// which keeps it distinct from a score of zero. Entities whose weights
// all vanish degrade to omission rather than an error.
func (a *Aggregator) Aggregate(
	ctx context.Context,
	weighted []domain.WeightedScore,
	opts AggregateOptions,
) ([]domain.LeaderboardEntry, error) {
	start := time.Now()

	groupBy := opts.GroupBy
	if groupBy == nil {
		groupBy = func(ws domain.WeightedScore) string { return ws.Score.EntityID }
	}

	groups := make(map[string][]domain.WeightedScore)
	eligible := make(map[string]struct{}, len(opts.EligiblePrompts))
	for id := range opts.EligiblePrompts {
		eligible[id] = struct{}{}
	}
	deriveEligible := len(eligible) == 0

	for _, ws := range weighted {
		if !ws.Score.Valid {
			continue
		}
		if _, excluded := opts.ExcludeCIDs[ws.SubmissionCID]; excluded {
			continue
		}
		key := groupBy(ws)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], ws)
		if deriveEligible {
			eligible[ws.Score.PromptID] = struct{}{}
		}
	}

	totalEligible := len(eligible)
	if totalEligible == 0 {
		a.metrics.RecordAggregation(0, time.Since(start).Seconds())
		return []domain.LeaderboardEntry{}, nil
	}

	// Fold independent groups concurrently; no ordering dependency
	// exists between entities.
	stats := make(map[string]groupStats, len(groups))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for key, scores := range groups {
		key, scores := key, scores
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			gs := foldGroup(scores)
			mu.Lock()
			stats[key] = gs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(stats))
	for key, gs := range stats {
		if gs.weightTotal <= 0 {
			continue
		}
		coverage := float64(len(gs.prompts)) / float64(totalEligible)
		if coverage*100 < opts.MinCoverage {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			EntityID:          key,
			WeightedMeanScore: gs.weightedSum / gs.weightTotal,
			SampleCount:       gs.samples,
			Coverage:          coverage,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].WeightedMeanScore != entries[j].WeightedMeanScore {
			return entries[i].WeightedMeanScore > entries[j].WeightedMeanScore
		}
		if entries[i].SampleCount != entries[j].SampleCount {
			return entries[i].SampleCount > entries[j].SampleCount
		}
		return entries[i].EntityID < entries[j].EntityID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	a.metrics.RecordAggregation(len(entries), time.Since(start).Seconds())
	return entries, nil
}

// foldGroup accumulates one entity's weighted scores. Coverage counts
// every answered prompt, including zero-weight ones; the weighted mean
// counts only positive finite weights.
func foldGroup(scores []domain.WeightedScore) groupStats {
	gs := groupStats{prompts: make(map[string]struct{})}
	for _, ws := range scores {
		gs.prompts[ws.Score.PromptID] = struct{}{}
		if ws.Weight <= 0 || math.IsNaN(ws.Weight) || math.IsInf(ws.Weight, 0) {
			continue
		}
		gs.weightedSum += ws.Score.Value * ws.Weight
		gs.weightTotal += ws.Weight
		gs.samples++
	}
	return gs
}

// Paginate slices entries for the 1-indexed page of the given size.
// Rank assignments are preserved from the full ordering. A page beyond
// the end returns an empty slice.
func Paginate(entries []domain.LeaderboardEntry, page, pageSize int) []domain.LeaderboardEntry {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		return entries
	}
	startIdx := (page - 1) * pageSize
	if startIdx >= len(entries) {
		return []domain.LeaderboardEntry{}
	}
	endIdx := startIdx + pageSize
	if endIdx > len(entries) {
		endIdx = len(entries)
	}
	return entries[startIdx:endIdx]
}
