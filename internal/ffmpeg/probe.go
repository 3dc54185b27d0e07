package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ProbeResult is the subset of `ffprobe -of json` output the pipeline reads.
type ProbeResult struct {
	Streams []ProbeStream `json:"streams"`
	Format  ProbeFormat   `json:"format"`
}

// ProbeStream describes a single stream in the container.
type ProbeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// ProbeFormat captures container-level metadata.
type ProbeFormat struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// DurationSeconds returns the container duration, falling back to the longest
// stream duration. ok is false when neither is a positive finite number.
func (r ProbeResult) DurationSeconds() (float64, bool) {
	if d, ok := parsePositive(r.Format.Duration); ok {
		return d, true
	}
	best := 0.0
	for _, s := range r.Streams {
		if d, ok := parsePositive(s.Duration); ok && d > best {
			best = d
		}
	}
	return best, best > 0
}

// HasStream reports whether the container has a stream of codecType ("audio", "video").
func (r ProbeResult) HasStream(codecType string) bool {
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, codecType) {
			return true
		}
	}
	return false
}

// Probe runs ffprobe against path and decodes its JSON report.
func (t *Tool) Probe(ctx context.Context, path string) (ProbeResult, error) {
	args := []string{"-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path}
	out, err := t.exec.Run(ctx, t.bin.FFprobe, args)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("%w: %w", ErrProbeFailed, err)
	}

	var result ProbeResult
	if err := json.Unmarshal(out.Stdout, &result); err != nil {
		return ProbeResult{}, fmt.Errorf("%w: parse output: %v", ErrProbeFailed, err)
	}
	return result, nil
}

// Duration returns the duration of a media file in seconds.
// A file without a positive duration is an error, never zero.
func (t *Tool) Duration(ctx context.Context, path string) (float64, error) {
	result, err := t.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	seconds, ok := result.DurationSeconds()
	if !ok {
		return 0, fmt.Errorf("%w: no duration reported for %s", ErrProbeFailed, path)
	}
	return seconds, nil
}

func parsePositive(value string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}
