package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/peerbench/peerbench/infrastructure/metrics"
	"github.com/peerbench/peerbench/infrastructure/scorers"
	"github.com/peerbench/peerbench/infrastructure/store"
	"github.com/peerbench/peerbench/internal/application"
	"github.com/peerbench/peerbench/internal/domain"
	"github.com/peerbench/peerbench/internal/identity"
	"github.com/peerbench/peerbench/internal/ports"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// PersonaSpec requests a number of personas of one profile and tier.
type PersonaSpec struct {
	Profile BehaviorProfile      `yaml:"profile" validate:"required,oneof=altruistic greedy cabal random malicious"`
	Count   int                  `yaml:"count" validate:"min=1"`
	Tier    domain.SubmitterTier `yaml:"tier" validate:"required,oneof=validator user"`
}

// Config parameterizes one simulation run. The same Config and Seed
// always reproduce the same leaderboard.
type Config struct {
	// Seed feeds the run's single random source.
	Seed int64 `yaml:"seed"`

	// PromptSetSize is the number of multiple-choice prompts generated.
	PromptSetSize int `yaml:"prompt_set_size" validate:"min=1"`

	// Rounds is the number of submission rounds each persona plays.
	Rounds int `yaml:"rounds" validate:"min=1"`

	// Personas lists the actors in the run.
	Personas []PersonaSpec `yaml:"personas" validate:"min=1,dive"`

	// Policy is the weighting policy under evaluation.
	Policy application.WeightingPolicy `yaml:"policy"`
}

// DefaultConfig returns a run with one persona of each honest and
// dishonest profile plus a three-member cabal, over twenty prompts and
// three rounds, under the default weighting policy.
func DefaultConfig() Config {
	return Config{
		Seed:          1,
		PromptSetSize: 20,
		Rounds:        3,
		Personas: []PersonaSpec{
			{Profile: ProfileAltruistic, Count: 1, Tier: domain.TierValidator},
			{Profile: ProfileGreedy, Count: 1, Tier: domain.TierValidator},
			{Profile: ProfileRandom, Count: 1, Tier: domain.TierUser},
			{Profile: ProfileMalicious, Count: 1, Tier: domain.TierUser},
			{Profile: ProfileCabal, Count: 3, Tier: domain.TierUser},
		},
		Policy: application.DefaultWeightingPolicy(),
	}
}

// Result reports what a simulation run produced: the final leaderboard
// next to the ground-truth profile of every entity, so a policy change
// can be judged by whether honest entities still outrank dishonest
// ones.
type Result struct {
	// RunID identifies the run in logs and reports.
	RunID string `json:"runId"`

	// Entries is the final leaderboard, ranked.
	Entries []domain.LeaderboardEntry `json:"entries"`

	// GroundTruth maps entity IDs to the profile that produced them.
	GroundTruth map[string]BehaviorProfile `json:"groundTruth"`

	// Ingestion outcome counts across all submissions of the run.
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
	Rejected   int `json:"rejected"`
}

// Harness drives synthetic personas through the real ingestion,
// scoring, weighting, and aggregation pipeline against an in-memory
// store. No production component is stubbed: the harness observes the
// same code paths production traffic does.
type Harness struct {
	cfg Config
}

// NewHarness validates the config and creates a harness.
func NewHarness(cfg Config) (*Harness, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPolicyConfig, err)
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	return &Harness{cfg: cfg}, nil
}

// Run executes the simulation to completion. The context cancels the
// run cooperatively between rounds and within scoring.
func (h *Harness) Run(ctx context.Context) (*Result, error) {
	rng := rand.New(rand.NewSource(h.cfg.Seed))

	personas, err := h.buildPersonas(rng)
	if err != nil {
		return nil, err
	}
	prompts, baseTime := h.buildPromptSet(rng)

	submissionStore := store.NewMemoryStore()
	defer submissionStore.Close()

	ingestor, err := application.NewIngestor(
		submissionStore,
		application.IngestionPolicy{Mode: application.ModeValidator},
		metrics.NopMetrics{},
	)
	if err != nil {
		return nil, err
	}
	registry, err := application.NewScorerRegistry(scorers.NewMultipleChoiceScorer())
	if err != nil {
		return nil, err
	}
	leaderboard, err := application.NewLeaderboard(
		submissionStore,
		ports.StaticPrompts(prompts),
		h.cfg.Policy,
		application.NewAggregator(metrics.NopMetrics{}),
	)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:       uuid.NewString(),
		GroundTruth: make(map[string]BehaviorProfile, len(personas)),
	}
	for _, p := range personas {
		result.GroundTruth[p.EntityID()] = p.Profile
	}

	ordered := orderedPrompts(prompts)
	for round := 0; round < h.cfg.Rounds; round++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for _, p := range personas {
			responses := h.playRound(p, ordered, round, rng)
			if len(responses) == 0 {
				continue
			}

			if err := h.submit(ctx, ingestor, p, result, domain.SubmissionPayload{
				Type:        domain.PayloadResponses,
				PromptSetID: promptSetID,
				Responses:   responses,
			}); err != nil {
				return nil, err
			}

			scores, err := registry.ScoreResponses(
				ctx, scorers.IdentifierMultipleChoice, prompts, responses, 0)
			if err != nil {
				return nil, err
			}
			if len(scores) == 0 {
				continue
			}
			if err := h.submit(ctx, ingestor, p, result, domain.SubmissionPayload{
				Type:        domain.PayloadScores,
				PromptSetID: promptSetID,
				Scores:      scores,
			}); err != nil {
				return nil, err
			}
		}
	}

	resp, err := leaderboard.Query(ctx, application.LeaderboardQuery{
		AsOf: baseTime.Add(time.Duration(h.cfg.Rounds+1) * 24 * time.Hour),
	})
	if err != nil {
		return nil, err
	}
	result.Entries = resp.Data
	return result, nil
}

// RunSimulation validates cfg and runs one simulation to completion.
// It is the package's one-call entry point.
func RunSimulation(ctx context.Context, cfg Config) (*Result, error) {
	harness, err := NewHarness(cfg)
	if err != nil {
		return nil, err
	}
	return harness.Run(ctx)
}

// promptSetID names the synthetic prompt set of every run.
const promptSetID = "simulated-prompt-set"

// responseDelay is the fixed answering delay. Keeping it constant makes
// colluding payloads byte-identical within a round.
const responseDelay = time.Hour

// buildPersonas expands the persona specs into concrete personas with
// derived key pairs.
func (h *Harness) buildPersonas(rng *rand.Rand) ([]*Persona, error) {
	var personas []*Persona
	counts := make(map[BehaviorProfile]int)
	for _, spec := range h.cfg.Personas {
		for i := 0; i < spec.Count; i++ {
			p, err := newPersona(spec.Profile, counts[spec.Profile], spec.Tier, rng)
			if err != nil {
				return nil, err
			}
			counts[spec.Profile]++
			personas = append(personas, p)
		}
	}
	return personas, nil
}

// buildPromptSet generates the run's multiple-choice prompts, staggered
// one per hour from a fixed base time so age decay has texture, and
// returns the prompt map with the base time.
func (h *Harness) buildPromptSet(rng *rand.Rand) (map[string]domain.Prompt, time.Time) {
	baseTime := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	letters := []string{"A", "B", "C", "D"}

	prompts := make(map[string]domain.Prompt, h.cfg.PromptSetSize)
	for i := 0; i < h.cfg.PromptSetSize; i++ {
		id := fmt.Sprintf("prompt-%03d", i)
		options := make(map[string]string, len(letters))
		for _, l := range letters {
			options[l] = fmt.Sprintf("option %s of %s", l, id)
		}
		prompts[id] = domain.Prompt{
			ID:          id,
			Type:        domain.PromptMultipleChoice,
			Question:    fmt.Sprintf("synthetic question %d", i),
			Options:     options,
			AnswerKey:   letters[rng.Intn(len(letters))],
			PromptSetID: promptSetID,
			CreatedAt:   baseTime.Add(time.Duration(i) * time.Hour),
		}
	}
	return prompts, baseTime
}

// playRound produces one persona's responses for one round. Response
// IDs are deterministic functions of (entity, prompt, round) so that
// colluding personas produce identical payloads.
func (h *Harness) playRound(
	p *Persona,
	ordered []domain.Prompt,
	round int,
	rng *rand.Rand,
) []domain.PromptResponse {
	provider, model := p.providerModel()

	var responses []domain.PromptResponse
	for i, prompt := range ordered {
		answer, ok := p.answer(prompt, i, len(ordered), rng)
		if !ok {
			continue
		}
		responses = append(responses, domain.PromptResponse{
			ID:          fmt.Sprintf("resp-%s-%s-r%d", p.EntityID(), prompt.ID, round),
			PromptID:    prompt.ID,
			ProviderID:  provider,
			ModelID:     model,
			Data:        answer,
			RespondedAt: prompt.CreatedAt.Add(time.Duration(round)*24*time.Hour + responseDelay),
		})
	}
	return responses
}

// submit wraps a payload into a signed submission, ingests it, and
// folds the outcome into the result counters.
func (h *Harness) submit(
	ctx context.Context,
	ingestor *application.Ingestor,
	p *Persona,
	result *Result,
	payload domain.SubmissionPayload,
) error {
	canonical, err := identity.CanonicalJSON(payload)
	if err != nil {
		return err
	}
	signer := p.Signer()
	sig, err := signer.Sign(canonical)
	if err != nil {
		return err
	}

	sub := domain.Submission{
		CID:           identity.ComputeCID(canonical),
		Signature:     sig,
		SignerAddress: signer.Address(),
		UploaderID:    p.ID,
		Tier:          p.Tier,
		CreatedAt:     time.Now().UTC(),
		Payload:       payload,
	}

	outcome, err := ingestor.Ingest(ctx, sub)
	switch {
	case err != nil:
		// Rejections are an expected simulation outcome, not a run
		// failure.
		result.Rejected++
		var rejection *domain.RejectionError
		if errors.As(err, &rejection) {
			return nil
		}
		return err
	case outcome.Reason == application.ReasonDuplicate:
		result.Duplicates++
	default:
		result.Accepted++
	}
	return nil
}

// providerModel splits the persona's entity into the provider and model
// halves a response carries.
func (p *Persona) providerModel() (string, string) {
	if p.Profile == ProfileCabal {
		return "cabal", "colluding-model"
	}
	return p.ID, ""
}

// orderedPrompts returns prompts sorted by ID, fixing the iteration
// order cherry-picking and payload construction depend on.
func orderedPrompts(prompts map[string]domain.Prompt) []domain.Prompt {
	ids := make([]string, 0, len(prompts))
	for id := range prompts {
		ids = append(ids, id)
	}
	sortStrings(ids)

	ordered := make([]domain.Prompt, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, prompts[id])
	}
	return ordered
}
