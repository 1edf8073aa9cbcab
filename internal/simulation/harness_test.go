package simulation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerbench/peerbench/internal/domain"
)

func TestNewHarness_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "no personas",
			mutate: func(c *Config) { c.Personas = nil },
		},
		{
			name:   "zero prompts",
			mutate: func(c *Config) { c.PromptSetSize = 0 },
		},
		{
			name:   "zero rounds",
			mutate: func(c *Config) { c.Rounds = 0 },
		},
		{
			name: "unknown profile",
			mutate: func(c *Config) {
				c.Personas[0].Profile = "sneaky"
			},
		},
		{
			name: "bad policy",
			mutate: func(c *Config) {
				c.Policy.UserScoringAlgorithm = "simScores999"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := NewHarness(cfg)
			assert.Error(t, err)
		})
	}

	_, err := NewHarness(DefaultConfig())
	assert.NoError(t, err)
}

func TestHarness_Run(t *testing.T) {
	harness, err := NewHarness(DefaultConfig())
	require.NoError(t, err)

	result, err := harness.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Zero(t, result.Rejected, "well-formed submissions are never rejected")

	// Three cabal members submit identical response and score payloads
	// each round: two of each collapse as duplicates.
	assert.Equal(t, 4*DefaultConfig().Rounds, result.Duplicates)

	// Five ground-truth entities: the cabal shares one.
	assert.Len(t, result.GroundTruth, 5)
	assert.Equal(t, ProfileCabal, result.GroundTruth["cabal/colluding-model"])
}

func TestHarness_HonestyOrdering(t *testing.T) {
	harness, err := NewHarness(DefaultConfig())
	require.NoError(t, err)

	result, err := harness.Run(context.Background())
	require.NoError(t, err)

	ranks := make(map[BehaviorProfile]int)
	means := make(map[BehaviorProfile]float64)
	for _, e := range result.Entries {
		profile := result.GroundTruth[e.EntityID]
		ranks[profile] = e.Rank
		means[profile] = e.WeightedMeanScore
	}

	require.Contains(t, ranks, ProfileAltruistic)
	require.Contains(t, ranks, ProfileMalicious)
	require.Contains(t, ranks, ProfileCabal)

	assert.Equal(t, 1, ranks[ProfileAltruistic], "honest full coverage must top the board")
	assert.InDelta(t, 1.0, means[ProfileAltruistic], 1e-9)

	assert.Less(t, ranks[ProfileAltruistic], ranks[ProfileMalicious])
	assert.Less(t, ranks[ProfileAltruistic], ranks[ProfileCabal])

	// Collusion buys the cabal nothing: its duplicated submissions
	// collapse at ingestion and its wrong answers score zero.
	assert.Zero(t, means[ProfileCabal])

	// Cherry-picking 40% of the prompt set fails the 50% coverage gate.
	assert.NotContains(t, ranks, ProfileGreedy,
		"greedy persona must be excluded by the coverage gate")
}

func TestHarness_SameSeedReproduces(t *testing.T) {
	cfg := DefaultConfig()

	run := func() *Result {
		result, err := RunSimulation(context.Background(), cfg)
		require.NoError(t, err)
		return result
	}

	first := run()
	second := run()

	assert.Equal(t, first.Entries, second.Entries)
	assert.Equal(t, first.GroundTruth, second.GroundTruth)
	assert.Equal(t, first.Accepted, second.Accepted)
	assert.Equal(t, first.Duplicates, second.Duplicates)
}

func TestHarness_DifferentSeedsDiverge(t *testing.T) {
	// Random and malicious answers draw from the seeded source, so
	// their means differ between seeds even when the ranking shape
	// agrees.
	cfgA := DefaultConfig()
	cfgA.Seed = 1
	cfgB := DefaultConfig()
	cfgB.Seed = 2

	harnessA, err := NewHarness(cfgA)
	require.NoError(t, err)
	resultA, err := harnessA.Run(context.Background())
	require.NoError(t, err)

	harnessB, err := NewHarness(cfgB)
	require.NoError(t, err)
	resultB, err := harnessB.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, resultA.Entries, resultB.Entries)
}

func TestHarness_CancelledContext(t *testing.T) {
	harness, err := NewHarness(DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = harness.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHarness_UserMultiplierZeroSilencesUserTiers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Policy.UserWeightMultiplier = 0

	harness, err := NewHarness(cfg)
	require.NoError(t, err)
	result, err := harness.Run(context.Background())
	require.NoError(t, err)

	for _, e := range result.Entries {
		profile := result.GroundTruth[e.EntityID]
		tier := domain.TierValidator
		for _, spec := range cfg.Personas {
			if spec.Profile == profile {
				tier = spec.Tier
			}
		}
		assert.Equal(t, domain.TierValidator, tier,
			"user-tier entities must vanish when their weight multiplier is zero")
	}
}

func TestPersona_AnswerBias(t *testing.T) {
	prompt := domain.Prompt{
		ID:        "p1",
		Type:      domain.PromptMultipleChoice,
		Options:   map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
		AnswerKey: "C",
	}

	t.Run("altruistic answers correctly", func(t *testing.T) {
		p := &Persona{Profile: ProfileAltruistic}
		answer, ok := p.answer(prompt, 0, 10, nil)
		require.True(t, ok)
		assert.Equal(t, "C", answer)
	})

	t.Run("greedy skips the tail of the set", func(t *testing.T) {
		p := &Persona{Profile: ProfileGreedy}

		answer, ok := p.answer(prompt, 0, 10, nil)
		require.True(t, ok)
		assert.Equal(t, "C", answer)

		_, ok = p.answer(prompt, 5, 10, nil)
		assert.False(t, ok, "prompts past the coverage cut are skipped")
	})

	t.Run("cabal answers are deterministically wrong", func(t *testing.T) {
		p := &Persona{Profile: ProfileCabal}
		first, ok := p.answer(prompt, 0, 10, nil)
		require.True(t, ok)
		second, _ := p.answer(prompt, 0, 10, nil)

		assert.Equal(t, first, second)
		assert.NotEqual(t, prompt.AnswerKey, first)
	})
}

func TestHarness_PolicyOverridesFlowThrough(t *testing.T) {
	// Disabling the coverage gate lets the greedy persona rank.
	cfg := DefaultConfig()
	cfg.Policy.MinCoverage = 0

	harness, err := NewHarness(cfg)
	require.NoError(t, err)
	result, err := harness.Run(context.Background())
	require.NoError(t, err)

	found := false
	for _, e := range result.Entries {
		if result.GroundTruth[e.EntityID] == ProfileGreedy {
			found = true
			assert.InDelta(t, 0.4, e.Coverage, 1e-9)
		}
	}
	assert.True(t, found)

	// Sanity: the adjusted config still validates as a production
	// policy.
	require.NoError(t, cfg.Policy.Validate())
}
