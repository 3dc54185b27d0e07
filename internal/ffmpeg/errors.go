package ffmpeg

import "errors"

// ErrNotFound indicates ffmpeg or ffprobe is not installed or not where FFMPEG_PATH/FFPROBE_PATH point.
var ErrNotFound = errors.New("ffmpeg not found")

// ErrCommandFailed indicates an ffmpeg invocation exited with an error.
var ErrCommandFailed = errors.New("ffmpeg command failed")

// ErrNoAudioStream indicates the input has no audio track to extract.
var ErrNoAudioStream = errors.New("input has no audio stream")

// ErrProbeFailed indicates ffprobe could not report a usable duration.
var ErrProbeFailed = errors.New("ffprobe failed")
