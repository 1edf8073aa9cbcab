package judge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// recordingJudge records call order annotations applied by middleware.
type recordingJudge struct {
	model string
	calls int
	trace []string
}

func (r *recordingJudge) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	r.calls++
	r.trace = append(r.trace, "core")
	return "response", nil
}

func (r *recordingJudge) GetModel() string { return r.model }

// tagMiddleware appends its tag to the trace before delegating.
func tagMiddleware(target *recordingJudge, tag string) Middleware {
	return func(next CoreJudge) CoreJudge {
		return tagged{next: next, target: target, tag: tag}
	}
}

type tagged struct {
	next   CoreJudge
	target *recordingJudge
	tag    string
}

func (t tagged) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	t.target.trace = append(t.target.trace, t.tag)
	return t.next.DoRequest(ctx, prompt, opts)
}

func (t tagged) GetModel() string { return t.next.GetModel() }

func TestNewClient(t *testing.T) {
	t.Run("empty api key", func(t *testing.T) {
		_, err := NewClient("openai", ClientConfig{})
		assert.ErrorIs(t, err, ErrEmptyAPIKey)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewClient("acme-llm", ClientConfig{APIKey: "key"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown judge provider")
	})

	t.Run("registered providers construct", func(t *testing.T) {
		for _, provider := range []string{"openai", "anthropic"} {
			client, err := NewClient(provider, ClientConfig{APIKey: "key"})
			require.NoError(t, err, provider)
			assert.NotEmpty(t, client.GetModel())
		}
	})
}

func TestNewClient_MiddlewareOrder(t *testing.T) {
	core := &recordingJudge{model: "test-model"}
	RegisterProviderFactory("recording", func(ClientConfig) (CoreJudge, error) {
		return core, nil
	})

	client, err := NewClient("recording", ClientConfig{
		APIKey: "key",
		Middleware: []Middleware{
			tagMiddleware(core, "outer"),
			tagMiddleware(core, "inner"),
		},
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "prompt", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"outer", "inner", "core"}, core.trace,
		"the first middleware entry must be the outermost wrapper")
	assert.Equal(t, "test-model", client.GetModel())
}

func TestRateLimitMiddleware(t *testing.T) {
	core := &recordingJudge{model: "test-model"}
	limited := RateLimitMiddleware(rate.Limit(100), 1)(core)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := limited.DoRequest(context.Background(), "prompt", nil)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, core.calls)
	// Burst of one, 100 rps: two of the three calls wait ~10ms each.
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
	assert.Equal(t, "test-model", limited.GetModel())
}

func TestRateLimitMiddleware_ContextCancellation(t *testing.T) {
	core := &recordingJudge{model: "test-model"}
	limited := RateLimitMiddleware(rate.Limit(0.001), 1)(core)

	// Drain the single burst token.
	_, err := limited.DoRequest(context.Background(), "prompt", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = limited.DoRequest(ctx, "prompt", nil)
	assert.Error(t, err)
	assert.Equal(t, 1, core.calls, "a cancelled wait must not reach the provider")
}

func TestOptionHelpers(t *testing.T) {
	opts := map[string]any{
		"temperature": 0.5,
		"max_tokens":  256,
		"int_temp":    1,
		"float_max":   512.0,
	}

	temp, ok := optFloat(opts, "temperature")
	assert.True(t, ok)
	assert.Equal(t, 0.5, temp)

	intTemp, ok := optFloat(opts, "int_temp")
	assert.True(t, ok)
	assert.Equal(t, 1.0, intTemp)

	maxTokens, ok := optInt(opts, "max_tokens")
	assert.True(t, ok)
	assert.Equal(t, 256, maxTokens)

	floatMax, ok := optInt(opts, "float_max")
	assert.True(t, ok)
	assert.Equal(t, 512, floatMax)

	_, ok = optFloat(opts, "missing")
	assert.False(t, ok)
	_, ok = optInt(nil, "anything")
	assert.False(t, ok)
}
