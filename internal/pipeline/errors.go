package pipeline

import "errors"

// Sentinel errors for a dubbing run.
var (
	// ErrInputNotFound indicates the input video does not exist or is a directory.
	ErrInputNotFound = errors.New("input video not found")

	// ErrOutputLocked indicates another run is writing the same output.
	ErrOutputLocked = errors.New("output is locked by another run")

	// ErrManualTranslationEmpty indicates the manual translation file holds no text.
	ErrManualTranslationEmpty = errors.New("manual translation file is empty")

	// ErrExtractFailed indicates the audio track could not be extracted.
	ErrExtractFailed = errors.New("audio extraction failed")

	// ErrTranslationUnavailable indicates machine translation produced no
	// text in the target script. The pivot text has been saved for manual
	// translation.
	ErrTranslationUnavailable = errors.New("target-language translation unavailable")

	// ErrMuxFailed indicates the dubbed audio could not be muxed into the video.
	ErrMuxFailed = errors.New("muxing failed")
)
