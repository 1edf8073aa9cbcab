// Package simulation generates synthetic personas and submission
// streams that exercise the production ingestion, weighting, and
// aggregation engines, so weighting policy changes can be calibrated
// and regression-tested without touching production data.
package simulation

import (
	"fmt"
	"math/rand"

	"github.com/peerbench/peerbench/internal/domain"
	"github.com/peerbench/peerbench/internal/identity"
)

// BehaviorProfile is a synthetic validator/provider archetype.
type BehaviorProfile string

// Supported behavior profiles.
const (
	// ProfileAltruistic answers every prompt correctly.
	ProfileAltruistic BehaviorProfile = "altruistic"

	// ProfileGreedy answers correctly but cherry-picks a fraction of
	// the prompt set, testing the coverage gate.
	ProfileGreedy BehaviorProfile = "greedy"

	// ProfileCabal colludes with other cabal members to promote a
	// shared entity, submitting identical payloads from distinct
	// identities.
	ProfileCabal BehaviorProfile = "cabal"

	// ProfileRandom answers uniformly at random.
	ProfileRandom BehaviorProfile = "random"

	// ProfileMalicious flips a fraction of answers to wrong options.
	ProfileMalicious BehaviorProfile = "malicious"
)

// Behavior tuning constants. These shape the archetypes the acceptance
// tests assert against.
const (
	// greedyCoverage is the fraction of the prompt set a greedy
	// persona bothers to answer.
	greedyCoverage = 0.4

	// maliciousFlipRate is the fraction of answers a malicious persona
	// flips to a wrong option.
	maliciousFlipRate = 0.9
)

// cabalEntityID is the entity all cabal members collude to promote.
const cabalEntityID = "cabal/colluding-model"

// Persona is a synthetic actor with its own signing identity. Personas
// exist only within a simulation run and are discarded afterwards.
type Persona struct {
	// ID identifies the persona and, for non-cabal profiles, the
	// entity its responses attribute to.
	ID string

	// Profile selects the persona's answer bias.
	Profile BehaviorProfile

	// Tier is the submitter tier the persona's submissions carry.
	Tier domain.SubmitterTier

	keys *identity.KeyPair
}

// Signer returns a signer over the persona's key pair.
func (p *Persona) Signer() *identity.Signer { return identity.NewSigner(p.keys) }

// EntityID returns the entity the persona's answers attribute to.
// Cabal members all attribute to the shared cabal entity.
func (p *Persona) EntityID() string {
	if p.Profile == ProfileCabal {
		return cabalEntityID
	}
	return p.ID
}

// newPersona creates a persona with a key pair derived from the run's
// seeded random source, keeping identities reproducible across runs.
func newPersona(profile BehaviorProfile, index int, tier domain.SubmitterTier, rng *rand.Rand) (*Persona, error) {
	seed := make([]byte, 32)
	if _, err := rng.Read(seed); err != nil {
		return nil, fmt.Errorf("derive persona seed: %w", err)
	}
	keys, err := identity.KeyPairFromSeed(seed)
	if err != nil {
		return nil, err
	}
	return &Persona{
		ID:      fmt.Sprintf("%s-%d", profile, index+1),
		Profile: profile,
		Tier:    tier,
		keys:    keys,
	}, nil
}

// answer applies the persona's bias to produce an answer letter for a
// multiple-choice prompt, or ok=false when the persona skips the
// prompt. promptIndex orders the prompt within the set so cherry-
// picking is deterministic.
func (p *Persona) answer(prompt domain.Prompt, promptIndex, promptSetSize int, rng *rand.Rand) (string, bool) {
	letters := optionLetters(prompt)

	switch p.Profile {
	case ProfileAltruistic:
		return prompt.AnswerKey, true

	case ProfileGreedy:
		if float64(promptIndex) >= greedyCoverage*float64(promptSetSize) {
			return "", false
		}
		return prompt.AnswerKey, true

	case ProfileRandom:
		return letters[rng.Intn(len(letters))], true

	case ProfileMalicious:
		if rng.Float64() < maliciousFlipRate {
			return wrongAnswer(prompt, letters), true
		}
		return prompt.AnswerKey, true

	case ProfileCabal:
		// Deterministic wrong answer shared by every member, so the
		// colluding payloads are byte-identical and collapse to one
		// CID at ingestion.
		return wrongAnswer(prompt, letters), true

	default:
		return "", false
	}
}

// wrongAnswer picks the first option letter that is not the answer key.
func wrongAnswer(prompt domain.Prompt, letters []string) string {
	for _, l := range letters {
		if l != prompt.AnswerKey {
			return l
		}
	}
	return prompt.AnswerKey
}

// optionLetters returns the prompt's option letters in sorted order.
func optionLetters(prompt domain.Prompt) []string {
	letters := make([]string, 0, len(prompt.Options))
	for l := range prompt.Options {
		letters = append(letters, l)
	}
	sortStrings(letters)
	return letters
}

// sortStrings is a tiny insertion sort; option sets are at most a
// handful of letters.
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
