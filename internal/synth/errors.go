package synth

import "errors"

// Sentinel errors for speech synthesis.
var (
	// ErrSynthesisFailed indicates both the primary and the alternate
	// configuration failed to produce audio.
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// ErrEmptyText indicates there was nothing to speak.
	ErrEmptyText = errors.New("no text to synthesize")

	// ErrEmptyAudio indicates the provider answered with no audio bytes.
	ErrEmptyAudio = errors.New("synthesized audio is empty")

	// ErrUnsupportedProvider indicates an unknown provider name in the config.
	ErrUnsupportedProvider = errors.New("unsupported synthesis provider")
)
