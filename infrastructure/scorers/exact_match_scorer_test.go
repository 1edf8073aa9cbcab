package scorers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerbench/peerbench/internal/domain"
)

func TestNewExactMatchScorer(t *testing.T) {
	scorer, err := NewExactMatchScorer(DefaultExactMatchConfig())
	require.NoError(t, err)
	assert.Equal(t, IdentifierExactMatch, scorer.Identifier())
}

func TestExactMatchScorer_ScoreOne(t *testing.T) {
	freeForm := domain.Prompt{
		ID:     "p1",
		Type:   domain.PromptFreeForm,
		Answer: "hello world",
	}

	tests := []struct {
		name      string
		config    ExactMatchConfig
		prompt    domain.Prompt
		data      string
		wantValue float64
		wantValid bool
	}{
		{
			name:      "default config folds case and trims",
			config:    DefaultExactMatchConfig(),
			prompt:    freeForm,
			data:      "  Hello World  ",
			wantValue: 1.0,
			wantValid: true,
		},
		{
			name:      "case sensitive mismatch",
			config:    ExactMatchConfig{CaseSensitive: true, TrimWhitespace: true},
			prompt:    freeForm,
			data:      "Hello World",
			wantValue: 0.0,
			wantValid: true,
		},
		{
			name:      "whitespace preserved without trimming",
			config:    ExactMatchConfig{CaseSensitive: false, TrimWhitespace: false},
			prompt:    freeForm,
			data:      " hello world",
			wantValue: 0.0,
			wantValid: true,
		},
		{
			name:      "options compare against answer key",
			config:    DefaultExactMatchConfig(),
			prompt:    mcPrompt(),
			data:      "b",
			wantValue: 1.0,
			wantValid: true,
		},
		{
			name:      "plain mismatch",
			config:    DefaultExactMatchConfig(),
			prompt:    freeForm,
			data:      "goodbye world",
			wantValue: 0.0,
			wantValid: true,
		},
		{
			name:      "empty response is unscorable",
			config:    DefaultExactMatchConfig(),
			prompt:    freeForm,
			data:      "",
			wantValid: false,
		},
		{
			name:      "missing reference is unscorable",
			config:    DefaultExactMatchConfig(),
			prompt:    domain.Prompt{ID: "p2", Type: domain.PromptFreeForm},
			data:      "anything",
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer, err := NewExactMatchScorer(tt.config)
			require.NoError(t, err)

			score, err := scorer.ScoreOne(context.Background(), tt.prompt, domain.PromptResponse{
				ID:       "r1",
				PromptID: tt.prompt.ID,
				Data:     tt.data,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantValid, score.Valid)
			if tt.wantValid {
				assert.Equal(t, tt.wantValue, score.Value)
			}
		})
	}
}
