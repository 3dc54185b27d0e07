package transcribe

import "errors"

var (
	// ErrEmptyTranscript indicates the engine returned no text for the whole file.
	ErrEmptyTranscript = errors.New("empty transcript")

	// ErrAPIKeyMissing indicates the hosted engine has no credentials.
	ErrAPIKeyMissing = errors.New("transcription API key not set")
)
