// Package domain contains pure, dependency-free domain models and types
// for the trust aggregation engine.
package domain

import "time"

// PromptType classifies the kind of test content a Prompt carries.
// The type determines which scorers consider themselves applicable.
type PromptType string

// Supported prompt types.
const (
	// PromptMultipleChoice presents lettered options and expects an
	// answer key letter.
	PromptMultipleChoice PromptType = "multiple-choice"

	// PromptTextReplacement asks the provider to restore a replaced
	// span of text.
	PromptTextReplacement PromptType = "text-replacement"

	// PromptSentenceReorder asks the provider to restore shuffled
	// sentence order.
	PromptSentenceReorder PromptType = "sentence-reorder"

	// PromptTypo asks the provider to correct an injected typo.
	PromptTypo PromptType = "typo"

	// PromptFreeForm expects an open-ended answer compared against a
	// reference answer.
	PromptFreeForm PromptType = "free-form"
)

// Prompt is an immutable unit of test content. Prompts are owned by a
// prompt set and are never mutated after creation; corrections create a
// new prompt with a new ID.
type Prompt struct {
	// ID uniquely identifies this prompt.
	ID string `json:"id"`

	// Type classifies the prompt content.
	Type PromptType `json:"type"`

	// Question is the text presented to the provider.
	Question string `json:"question"`

	// Options maps option letters to option text for multiple-choice
	// prompts. Empty for non-multiple-choice prompts. Iteration order
	// is the natural letter order.
	Options map[string]string `json:"options,omitempty"`

	// AnswerKey is the correct option letter when Options is non-empty.
	AnswerKey string `json:"answerKey,omitempty"`

	// Answer is the reference answer for prompts without options.
	Answer string `json:"answer,omitempty"`

	// PromptSetID identifies the owning prompt set.
	PromptSetID string `json:"promptSetId"`

	// CreatedAt records when the prompt was created. Age-based decay is
	// computed from this timestamp.
	CreatedAt time.Time `json:"createdAt"`
}

// HasOptions reports whether the prompt carries multiple-choice options.
func (p Prompt) HasOptions() bool { return len(p.Options) > 0 }

// PromptResponse is a provider's answer to a Prompt. It is created by a
// validator run and immutable once signed.
type PromptResponse struct {
	// ID uniquely identifies this response.
	ID string `json:"id"`

	// PromptID references the prompt being answered.
	PromptID string `json:"promptId"`

	// ProviderID identifies the AI provider that produced the answer.
	ProviderID string `json:"providerId"`

	// ModelID identifies the specific model within the provider.
	ModelID string `json:"modelId"`

	// Data is the raw answer text.
	Data string `json:"data"`

	// RespondedAt records when the provider answered. Delay-based decay
	// is computed from RespondedAt minus the prompt's CreatedAt.
	RespondedAt time.Time `json:"respondedAt"`

	// Signature optionally signs the response payload.
	Signature string `json:"signature,omitempty"`

	// PublicKey is the key the optional signature verifies against.
	PublicKey string `json:"publicKey,omitempty"`
}
