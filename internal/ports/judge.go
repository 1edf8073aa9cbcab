package ports

import "context"

// JudgeClient abstracts the external judge model used by the LLM judge
// scorer. The engine treats judging as an injected capability returning
// a numeric verdict; transport, authentication, and rate limiting live
// behind this interface.
type JudgeClient interface {
	// Complete sends a prompt to the judge model and returns the raw
	// response text. The options map allows provider-specific settings
	// such as temperature or max tokens.
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// GetModel returns the configured judge model name.
	GetModel() string
}

// MetricsCollector records operational metrics for ingestion and
// aggregation. Implementations must be safe for concurrent use.
type MetricsCollector interface {
	// RecordIngestion counts one ingestion outcome. Status is
	// "accepted" or "rejected"; reason carries the dedup or rejection
	// cause, empty for a plain accept.
	RecordIngestion(status, reason string)

	// RecordIngestionLatency observes one ingestion duration in
	// seconds.
	RecordIngestionLatency(seconds float64)

	// RecordAggregation observes one aggregation fold: the number of
	// entity groups produced and the fold duration in seconds.
	RecordAggregation(groups int, seconds float64)
}
