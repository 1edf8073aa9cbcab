package judge

import "errors"

// Common errors returned by the judge client and providers.
var (
	// ErrEmptyAPIKey indicates that an API key was required but not
	// provided.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")

	// ErrEmptyResponse indicates that the provider's API returned an
	// empty response body.
	ErrEmptyResponse = errors.New("empty response from judge API")

	// ErrNoResponseChoice indicates that the provider's response
	// contained no valid choices.
	ErrNoResponseChoice = errors.New("no response choices returned")
)
