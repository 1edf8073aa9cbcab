package application

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/peerbench/peerbench/internal/domain"
	"github.com/peerbench/peerbench/internal/ports"
)

// LeaderboardFilters narrow a leaderboard query.
type LeaderboardFilters struct {
	// OwnerID restricts input to submissions from one uploader.
	OwnerID string `json:"ownerId,omitempty"`

	// EntityID restricts output to one entity.
	EntityID string `json:"id,omitempty"`

	// Provider restricts output to entities of one provider.
	Provider string `json:"provider,omitempty"`
}

// LeaderboardQuery is the query surface consumed by the web boundary.
// Zero-valued policy overrides fall back to the engine's base policy;
// a zero AsOf uses the current time.
type LeaderboardQuery struct {
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
	Filters  LeaderboardFilters `json:"filters"`

	// AccessReason and RequestedByUserID are audit passthroughs from
	// the web boundary; they only annotate the query span.
	AccessReason      string `json:"accessReason,omitempty"`
	RequestedByUserID string `json:"requestedByUserId,omitempty"`

	// Policy overrides, each optional.
	UserScoringAlgorithm   string    `json:"userScoringAlgorithm,omitempty"`
	UserWeightMultiplier   *float64  `json:"userWeightMultiplier,omitempty"`
	MinCoverage            *float64  `json:"minCoverage,omitempty"`
	PromptAgeWeighting     DecayKind `json:"promptAgeWeighting,omitempty"`
	ResponseDelayWeighting DecayKind `json:"responseDelayWeighting,omitempty"`

	// AsOf fixes the reference time for decay; queries with the same
	// AsOf over the same log are byte-identical.
	AsOf time.Time `json:"asOf,omitempty"`
}

// LeaderboardStats summarizes a leaderboard result.
type LeaderboardStats struct {
	TotalEntities int     `json:"totalEntities"`
	TotalSamples  int     `json:"totalSamples"`
	MeanScore     float64 `json:"meanScore"`
}

// Pagination describes the returned page.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// LeaderboardResponse is the full query result.
type LeaderboardResponse struct {
	Data                  []domain.LeaderboardEntry `json:"data"`
	Stats                 LeaderboardStats          `json:"stats"`
	PromptSetDistribution map[string]int            `json:"promptSetDistribution"`
	Pagination            Pagination                `json:"pagination"`
}

// Leaderboard answers ranking queries by folding the submission log
// through the weighting and aggregation engines at query time. Nothing
// is cached or mutated in place: every query reads a store snapshot, so
// results never go stale and queries never block on unrelated
// ingestion.
type Leaderboard struct {
	store      ports.SubmissionStore
	prompts    ports.PromptSource
	basePolicy WeightingPolicy
	aggregator *Aggregator
	tracer     trace.Tracer
}

// NewLeaderboard creates a leaderboard query engine.
func NewLeaderboard(
	store ports.SubmissionStore,
	prompts ports.PromptSource,
	basePolicy WeightingPolicy,
	aggregator *Aggregator,
) (*Leaderboard, error) {
	if err := basePolicy.Validate(); err != nil {
		return nil, err
	}
	return &Leaderboard{
		store:      store,
		prompts:    prompts,
		basePolicy: basePolicy,
		aggregator: aggregator,
		tracer:     otel.Tracer("leaderboard"),
	}, nil
}

// Query computes the leaderboard for the given query. Bad historical
// submissions were already rejected at ingestion, so queries never fail
// on log content: unknown prompts, unfinalized series, and flagged
// submissions degrade to omission.
func (l *Leaderboard) Query(ctx context.Context, q LeaderboardQuery) (*LeaderboardResponse, error) {
	ctx, span := l.tracer.Start(ctx, "Leaderboard.Query",
		trace.WithAttributes(
			attribute.String("query.access_reason", q.AccessReason),
			attribute.String("query.requested_by", q.RequestedByUserID),
			attribute.Int("query.page", q.Page),
		),
	)
	defer span.End()

	policy, err := l.effectivePolicy(q)
	if err != nil {
		return nil, err
	}
	engine, err := NewWeightingEngine(policy)
	if err != nil {
		return nil, err
	}

	asOf := q.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	snapshot, err := l.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	prompts, err := l.prompts.Prompts(ctx)
	if err != nil {
		return nil, err
	}

	view := buildLogView(snapshot, q.Filters.OwnerID)

	// Weigh every visible score against its prompt and response.
	// Samples without resolvable context drop out of denominators.
	weighted := make([]domain.WeightedScore, 0, len(view.scores))
	distribution := make(map[string]int)
	for _, rec := range view.scores {
		prompt, ok := prompts[rec.score.PromptID]
		if !ok {
			continue
		}
		response, ok := view.responses[rec.score.ResponseID]
		if !ok {
			continue
		}
		weighted = append(weighted, engine.Weigh(rec.score, prompt, response, rec.sub, asOf))
		distribution[prompt.PromptSetID]++
	}

	entries, err := l.aggregator.Aggregate(ctx, weighted, AggregateOptions{
		MinCoverage: policy.MinCoverage,
		ExcludeCIDs: view.flagged,
	})
	if err != nil {
		return nil, err
	}

	entries = filterEntries(entries, q.Filters)

	stats := LeaderboardStats{TotalEntities: len(entries)}
	for _, e := range entries {
		stats.TotalSamples += e.SampleCount
		stats.MeanScore += e.WeightedMeanScore
	}
	if len(entries) > 0 {
		stats.MeanScore /= float64(len(entries))
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	totalPages := 1
	if pageSize > 0 {
		totalPages = (len(entries) + pageSize - 1) / pageSize
		if totalPages == 0 {
			totalPages = 1
		}
	}

	span.SetAttributes(attribute.Int("query.entities", len(entries)))

	return &LeaderboardResponse{
		Data:                  Paginate(entries, page, pageSize),
		Stats:                 stats,
		PromptSetDistribution: distribution,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: len(entries),
			TotalPages: totalPages,
		},
	}, nil
}

// effectivePolicy overlays the query's optional overrides onto the base
// policy and validates the result, so an unknown algorithm version in a
// query fails the query rather than silently defaulting.
func (l *Leaderboard) effectivePolicy(q LeaderboardQuery) (WeightingPolicy, error) {
	policy := l.basePolicy
	if q.UserScoringAlgorithm != "" {
		policy.UserScoringAlgorithm = q.UserScoringAlgorithm
	}
	if q.UserWeightMultiplier != nil {
		policy.UserWeightMultiplier = *q.UserWeightMultiplier
	}
	if q.MinCoverage != nil {
		policy.MinCoverage = *q.MinCoverage
	}
	if q.PromptAgeWeighting != "" {
		policy.PromptAgeWeighting = q.PromptAgeWeighting
	}
	if q.ResponseDelayWeighting != "" {
		policy.ResponseDelayWeighting = q.ResponseDelayWeighting
	}
	if err := policy.Validate(); err != nil {
		return WeightingPolicy{}, err
	}
	return policy, nil
}

// scoreRecord pairs a score with its carrying submission.
type scoreRecord struct {
	score domain.Score
	sub   domain.Submission
}

// logView is the aggregation-visible projection of a log snapshot.
type logView struct {
	scores    []scoreRecord
	responses map[string]domain.PromptResponse
	flagged   map[string]struct{}
}

// buildLogView projects a snapshot into scores, responses, and flagged
// CIDs. Chunked series contribute only once finalized; partial series
// are never visible to aggregation.
func buildLogView(snapshot []domain.Submission, ownerID string) logView {
	finalized := make(map[string]bool)
	for _, sub := range snapshot {
		if sub.InSeries() && sub.Final {
			finalized[sub.MergeID] = true
		}
	}

	view := logView{
		responses: make(map[string]domain.PromptResponse),
		flagged:   make(map[string]struct{}),
	}
	for _, sub := range snapshot {
		if sub.InSeries() && !finalized[sub.MergeID] {
			continue
		}
		if ownerID != "" && sub.UploaderID != ownerID {
			continue
		}

		switch sub.Payload.Type {
		case domain.PayloadResponses:
			for _, resp := range sub.Payload.Responses {
				view.responses[resp.ID] = resp
			}
		case domain.PayloadScores:
			for _, score := range sub.Payload.Scores {
				view.scores = append(view.scores, scoreRecord{score: score, sub: sub})
			}
		case domain.PayloadFlag:
			for _, cid := range sub.Payload.FlaggedCIDs {
				view.flagged[cid] = struct{}{}
			}
		}
	}
	return view
}

// filterEntries applies entity-level filters, re-ranking the survivors
// so ranks stay contiguous in the filtered view.
func filterEntries(entries []domain.LeaderboardEntry, f LeaderboardFilters) []domain.LeaderboardEntry {
	if f.EntityID == "" && f.Provider == "" {
		return entries
	}
	filtered := make([]domain.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		if f.EntityID != "" && e.EntityID != f.EntityID {
			continue
		}
		if f.Provider != "" && !strings.HasPrefix(e.EntityID, f.Provider+"/") && e.EntityID != f.Provider {
			continue
		}
		filtered = append(filtered, e)
	}
	for i := range filtered {
		filtered[i].Rank = i + 1
	}
	return filtered
}
