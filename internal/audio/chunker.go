// Package audio splits extracted speech into chunks small enough for a
// transcription upload.
package audio

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/insee-t/tt/internal/format"
)

// Chunk is a segment of audio cut from a larger file.
// Chunks live in a directory owned by the caller's workspace.
type Chunk struct {
	Path      string        // Absolute path to the chunk file.
	Index     int           // Zero-based index for ordering.
	StartTime time.Duration // Start timestamp in the source audio.
	EndTime   time.Duration // End timestamp in the source audio.
}

// Duration returns the length of this chunk.
func (c Chunk) Duration() time.Duration {
	return c.EndTime - c.StartTime
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %s-%s",
		c.Index,
		format.Duration(c.StartTime),
		format.Duration(c.EndTime))
}

// Prober reads the duration of a media file in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Cutter writes [start, end) of in to out, re-encoded for upload.
type Cutter interface {
	Cut(ctx context.Context, in, out string, start, end time.Duration) error
}

// Default chunking parameters.
const (
	// DefaultTargetDuration keeps each upload well under the 25MB API limit
	// at the 16kHz mono Ogg encoding.
	DefaultTargetDuration = 5 * time.Minute

	// DefaultOverlap makes words on a boundary land whole in at least one chunk.
	DefaultOverlap = 2 * time.Second
)

// TimeChunker splits audio into fixed-duration chunks with overlap.
type TimeChunker struct {
	prober         Prober
	cutter         Cutter
	parentDir      string
	targetDuration time.Duration
	overlap        time.Duration

	// Injectable dependencies (defaults to OS implementations).
	tempDir tempDirCreator
	files   fileRemover
}

// TimeChunkerOption configures a TimeChunker.
type TimeChunkerOption func(*TimeChunker)

// WithTargetDuration sets the chunk length. Non-positive values keep the default.
func WithTargetDuration(d time.Duration) TimeChunkerOption {
	return func(tc *TimeChunker) {
		if d > 0 {
			tc.targetDuration = d
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks. Negative values become zero.
func WithOverlap(d time.Duration) TimeChunkerOption {
	return func(tc *TimeChunker) {
		tc.overlap = max(d, 0)
	}
}

// withTempDir sets the temp directory creator (for testing).
func withTempDir(t tempDirCreator) TimeChunkerOption {
	return func(tc *TimeChunker) { tc.tempDir = t }
}

// withFileRemover sets the file remover (for testing).
func withFileRemover(f fileRemover) TimeChunkerOption {
	return func(tc *TimeChunker) { tc.files = f }
}

// NewTimeChunker creates a TimeChunker that writes chunks into a fresh
// directory under parentDir ("" means the directory of the audio file).
func NewTimeChunker(prober Prober, cutter Cutter, parentDir string, opts ...TimeChunkerOption) (*TimeChunker, error) {
	tc := &TimeChunker{
		prober:         prober,
		cutter:         cutter,
		parentDir:      parentDir,
		targetDuration: DefaultTargetDuration,
		overlap:        DefaultOverlap,
		tempDir:        osTempDirCreator{},
		files:          osFileRemover{},
	}
	for _, opt := range opts {
		opt(tc)
	}

	if tc.overlap >= tc.targetDuration {
		return nil, fmt.Errorf("%w: overlap %v >= target %v", ErrInvalidOverlap, tc.overlap, tc.targetDuration)
	}
	return tc, nil
}

// Chunk splits audioPath into ordered chunk files.
// On error no chunk directory is left behind.
func (tc *TimeChunker) Chunk(ctx context.Context, audioPath string) ([]Chunk, error) {
	seconds, err := tc.prober.Duration(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: probe duration: %w", ErrChunkingFailed, err)
	}
	total := time.Duration(math.Round(seconds * float64(time.Second)))

	parent := tc.parentDir
	if parent == "" {
		parent = filepath.Dir(audioPath)
	}
	dir, err := tc.tempDir.MkdirTemp(parent, "chunks-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	bounds := Boundaries(total, tc.targetDuration, tc.overlap)
	chunks := make([]Chunk, 0, len(bounds))
	for i, b := range bounds {
		path := filepath.Join(dir, fmt.Sprintf("chunk_%03d.ogg", i))
		if err := tc.cutter.Cut(ctx, audioPath, path, b[0], b[1]); err != nil {
			_ = tc.files.RemoveAll(dir) // best-effort cleanup; original error takes precedence
			return nil, fmt.Errorf("%w: %s: %w", ErrChunkingFailed, filepath.Base(path), err)
		}
		chunks = append(chunks, Chunk{Path: path, Index: i, StartTime: b[0], EndTime: b[1]})
	}

	return chunks, nil
}

// Boundaries returns [start, end) pairs covering total in steps of
// target-overlap. A zero total yields no chunks.
func Boundaries(total, target, overlap time.Duration) [][2]time.Duration {
	if total <= 0 || target <= 0 || overlap >= target {
		return nil
	}
	var out [][2]time.Duration
	step := target - overlap
	for start := time.Duration(0); start < total; start += step {
		end := min(start+target, total)
		out = append(out, [2]time.Duration{start, end})
		if end >= total {
			break
		}
	}
	return out
}

// Cleanup removes the directory holding chunks.
func Cleanup(chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return osFileRemover{}.RemoveAll(filepath.Dir(chunks[0].Path))
}
