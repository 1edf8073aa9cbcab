package scorers

import (
	"context"
	"strings"

	"github.com/peerbench/peerbench/internal/domain"
	"github.com/peerbench/peerbench/internal/ports"
)

var _ ports.Scorer = (*MultipleChoiceScorer)(nil)

// MultipleChoiceScorer scores multiple-choice responses by comparing
// the chosen option letter against the prompt's answer key. Letters are
// normalized before comparison: surrounding whitespace and decoration
// such as "(a)" or "B." are stripped, then Unicode case folding is
// applied, so "b", " B ", and "(B)" all match an answer key of "B".
//
// The scorer is stateless and safe for concurrent execution.
type MultipleChoiceScorer struct{}

// NewMultipleChoiceScorer creates a MultipleChoiceScorer.
func NewMultipleChoiceScorer() *MultipleChoiceScorer { return &MultipleChoiceScorer{} }

// Identifier returns the stable registry identifier for this scorer.
func (mcs *MultipleChoiceScorer) Identifier() string { return IdentifierMultipleChoice }

// CanScore reports whether the pair is a multiple-choice question with
// an answer key and a non-empty response.
func (mcs *MultipleChoiceScorer) CanScore(prompt domain.Prompt, response domain.PromptResponse) bool {
	return prompt.Type == domain.PromptMultipleChoice &&
		prompt.HasOptions() &&
		prompt.AnswerKey != "" &&
		response.Data != ""
}

// ScoreOne compares the normalized response letter against the
// normalized answer key. A response letter that does not name any of
// the prompt's options is still a scorable wrong answer (0.0), not an
// unscorable pair.
func (mcs *MultipleChoiceScorer) ScoreOne(
	ctx context.Context,
	prompt domain.Prompt,
	response domain.PromptResponse,
) (domain.Score, error) {
	if !mcs.CanScore(prompt, response) {
		return unscorable(IdentifierMultipleChoice, prompt, response), nil
	}

	value := 0.0
	if normalizeLetter(response.Data) == normalizeLetter(prompt.AnswerKey) {
		value = 1.0
	}
	return scored(IdentifierMultipleChoice, prompt, response, value), nil
}

// normalizeLetter strips whitespace and common option decoration from a
// choice letter, then case-folds it.
func normalizeLetter(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "().:")
	return foldCaser.String(strings.TrimSpace(s))
}
