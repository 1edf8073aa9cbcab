package scorers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/peerbench/peerbench/internal/domain"
	"github.com/peerbench/peerbench/internal/ports"
)

var _ ports.Scorer = (*LLMJudgeScorer)(nil)

// Default configuration values for the LLM judge.
const (
	DefaultJudgeMaxTokens   = 256 // enough for a short verdict with reasoning
	DefaultJudgeTemperature = 0.0 // deterministic scoring
)

// LLMJudgeScorer delegates scoring to an external judge model through
// an injected ports.JudgeClient. The judge is asked for a JSON verdict
// with a score in [0,1]; malformed judge output is repaired on a
// best-effort basis, and pairs whose verdicts cannot be repaired score
// as invalid rather than erroring, so a flaky judge never fails a
// batch.
//
// The scorer is stateless apart from its injected client and is safe
// for concurrent execution; rate limiting lives inside the client.
type LLMJudgeScorer struct {
	// config contains the validated configuration parameters.
	config LLMJudgeConfig
	// client is the injected judge model transport.
	client ports.JudgeClient
	// promptTemplate is the compiled template for safe prompt
	// generation.
	promptTemplate *template.Template
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// LLMJudgeConfig defines the configuration parameters for the
// LLMJudgeScorer. All fields are validated during creation.
type LLMJudgeConfig struct {
	// JudgePrompt is the Go template used to build the judge prompt.
	// It may reference {{.Question}}, {{.Answer}}, and {{.Reference}}.
	JudgePrompt string `yaml:"judge_prompt" json:"judge_prompt" validate:"required,min=20"`

	// Temperature controls randomness in judge output (0.0-1.0).
	Temperature float64 `yaml:"temperature" json:"temperature" validate:"min=0.0,max=1.0"`

	// MaxTokens limits the length of the judge's verdict.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens" validate:"required,min=50,max=2000"`
}

// judgeVerdict is the JSON structure expected from the judge model.
type judgeVerdict struct {
	// Score is the judge's score in [0,1].
	Score float64 `json:"score"`

	// Confidence is how certain the judge is in its verdict (0.0-1.0).
	Confidence float64 `json:"confidence"`

	// Reasoning explains the score.
	Reasoning string `json:"reasoning"`
}

// DefaultLLMJudgeConfig returns production defaults: a generic grading
// prompt, zero temperature, and room for a short reasoning string.
func DefaultLLMJudgeConfig() LLMJudgeConfig {
	return LLMJudgeConfig{
		JudgePrompt: "Grade the following answer to the question on a scale from 0.0 to 1.0." +
			"\n\nQuestion: {{.Question}}\nReference answer: {{.Reference}}\nCandidate answer: {{.Answer}}" +
			"\n\nConsider factual accuracy and completeness.",
		Temperature: DefaultJudgeTemperature,
		MaxTokens:   DefaultJudgeMaxTokens,
	}
}

// NewLLMJudgeScorer creates an LLMJudgeScorer with the given judge
// client and validated configuration.
func NewLLMJudgeScorer(client ports.JudgeClient, config LLMJudgeConfig) (*LLMJudgeScorer, error) {
	if client == nil {
		return nil, ErrNilJudgeClient
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	tmpl, err := template.New("judgePrompt").Parse(config.JudgePrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse judge prompt template: %w", err)
	}

	return &LLMJudgeScorer{
		config:         config,
		client:         client,
		promptTemplate: tmpl,
		tracer:         otel.Tracer("llm-judge-scorer"),
	}, nil
}

// Identifier returns the stable registry identifier for this scorer.
func (ljs *LLMJudgeScorer) Identifier() string { return IdentifierLLMJudge }

// CanScore reports whether the pair has a question and a non-empty
// response. The judge can grade without a reference answer, but not
// without content. CanScore is cheap and makes no judge calls, so it
// can filter large batches before the expensive path.
func (ljs *LLMJudgeScorer) CanScore(prompt domain.Prompt, response domain.PromptResponse) bool {
	return prompt.Question != "" && response.Data != ""
}

// ScoreOne asks the judge model for a verdict on the pair. Judge output
// that is not well-formed JSON goes through best-effort repair; when
// repair fails the pair scores as invalid with a nil error. Transport
// failures are returned as errors since they are infrastructure
// problems, not properties of the pair.
func (ljs *LLMJudgeScorer) ScoreOne(
	ctx context.Context,
	prompt domain.Prompt,
	response domain.PromptResponse,
) (domain.Score, error) {
	ctx, span := ljs.tracer.Start(ctx, "LLMJudgeScorer.ScoreOne",
		trace.WithAttributes(
			attribute.String("scorer.id", IdentifierLLMJudge),
			attribute.String("prompt.id", prompt.ID),
			attribute.String("judge.model", ljs.client.GetModel()),
		),
	)
	defer span.End()

	if !ljs.CanScore(prompt, response) {
		span.SetAttributes(attribute.Bool("eval.scorable", false))
		return unscorable(IdentifierLLMJudge, prompt, response), nil
	}

	var promptBuf bytes.Buffer
	templateData := struct {
		Question  string
		Answer    string
		Reference string
	}{
		Question:  prompt.Question,
		Answer:    response.Data,
		Reference: prompt.Answer,
	}
	if err := ljs.promptTemplate.Execute(&promptBuf, templateData); err != nil {
		return domain.Score{}, fmt.Errorf("failed to execute judge prompt template: %w", err)
	}

	judgePrompt := promptBuf.String() +
		"\n\nIMPORTANT: You must respond with valid JSON in exactly this format:\n" +
		`{"score": <0.0-1.0>, "confidence": <0.0-1.0>, "reasoning": "<short explanation>"}`

	options := map[string]any{
		"temperature": ljs.config.Temperature,
		"max_tokens":  ljs.config.MaxTokens,
	}

	raw, err := ljs.client.Complete(ctx, judgePrompt, options)
	if err != nil {
		span.RecordError(err)
		return domain.Score{}, fmt.Errorf("judge call failed for prompt %s: %w", prompt.ID, err)
	}

	verdict, ok := parseVerdict(raw)
	if !ok {
		// Unrepairable judge output excludes the sample, it does not
		// fail the batch.
		span.SetAttributes(attribute.Bool("eval.verdict_parsed", false))
		return unscorable(IdentifierLLMJudge, prompt, response), nil
	}

	span.SetAttributes(
		attribute.Float64("eval.score", verdict.Score),
		attribute.Float64("eval.confidence", verdict.Confidence),
	)
	return scored(IdentifierLLMJudge, prompt, response, verdict.Score), nil
}

// trailingComma matches a comma directly before a closing brace or
// bracket, the most common malformation in judge output.
var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// parseVerdict extracts and decodes a judge verdict from raw model
// output, applying best-effort repair before giving up.
func parseVerdict(raw string) (judgeVerdict, bool) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return judgeVerdict{}, false
	}

	var verdict judgeVerdict
	if err := json.Unmarshal([]byte(jsonStr), &verdict); err != nil {
		repaired := trailingComma.ReplaceAllString(jsonStr, "$1")
		if err := json.Unmarshal([]byte(repaired), &verdict); err != nil {
			return judgeVerdict{}, false
		}
	}

	if verdict.Score < 0 || verdict.Score > 1 {
		return judgeVerdict{}, false
	}
	return verdict, true
}

// extractJSON attempts to extract a JSON object from a response that
// might contain additional text before or after it. It handles markdown
// code blocks and text surrounding the object.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	// Prefer fenced ```json blocks when present.
	if strings.Contains(response, "```json") {
		start := strings.Index(response, "```json") + 7
		if end := strings.Index(response[start:], "```"); end != -1 {
			return strings.TrimSpace(response[start : start+end])
		}
	}

	// Generic fenced blocks, skipping any language identifier line.
	if strings.Contains(response, "```") {
		start := strings.Index(response, "```") + 3
		if newlineIdx := strings.Index(response[start:], "\n"); newlineIdx != -1 {
			start += newlineIdx + 1
		}
		if end := strings.Index(response[start:], "```"); end != -1 {
			candidate := strings.TrimSpace(response[start : start+end])
			if strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	// Find the matching closing brace, tracking strings and escapes so
	// braces inside reasoning text do not terminate early.
	braceCount := 0
	inString := false
	escapeNext := false

	for i := start; i < len(response); i++ {
		char := response[i]

		if escapeNext {
			escapeNext = false
			continue
		}
		if char == '\\' {
			escapeNext = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return response[start : i+1]
				}
			}
		}
	}

	return ""
}
