package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrAPIKeyMissing indicates a required API key environment variable is not set.
	ErrAPIKeyMissing = errors.New("API key environment variable not set")

	// ErrOutputIsInput indicates the output path would overwrite the input video.
	ErrOutputIsInput = errors.New("output path is the input video")

	// ErrLLMCheckFailed indicates the LLM connectivity check did not get an answer.
	ErrLLMCheckFailed = errors.New("LLM check failed")
)
