package ffmpeg

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/insee-t/tt/internal/tempo"
)

func newTestTool(rec *recordingRun) *Tool {
	return NewTool(Binaries{FFmpeg: "/bin/ffmpeg", FFprobe: "/bin/ffprobe"},
		WithExecutor(NewExecutor(WithRunFunc(rec.run))))
}

func TestTool_Commands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		call func(*Tool) error
		want []string
	}{
		{
			name: "cut",
			call: func(tl *Tool) error {
				return tl.Cut(context.Background(), "audio.wav", "chunk_000.ogg", 0, 5*time.Minute)
			},
			want: []string{
				"-y", "-i", "audio.wav", "-ss", "00:00:00.000", "-to", "00:05:00.000",
				"-c:a", "libvorbis", "-ar", "16000", "-ac", "1", "-q:a", "2", "chunk_000.ogg",
			},
		},
		{
			name: "trim",
			call: func(tl *Tool) error { return tl.Trim(context.Background(), "a.mp3", "a.trim.mp3", 42.5) },
			want: []string{"-y", "-i", "a.mp3", "-t", "42.500", "a.trim.mp3"},
		},
		{
			name: "mux",
			call: func(tl *Tool) error { return tl.Mux(context.Background(), "in.mp4", "th.mp3", "out.mp4") },
			want: []string{
				"-y", "-i", "in.mp4", "-i", "th.mp3", "-c:v", "copy", "-c:a", "aac",
				"-map", "0:v:0", "-map", "1:a:0", "-shortest", "out.mp4",
			},
		},
		{
			name: "atempo chain",
			call: func(tl *Tool) error {
				return tl.Atempo().Apply(context.Background(), "a.mp3", "a.atempo.mp3", tempo.NewPlan(3.5))
			},
			want: []string{"-y", "-i", "a.mp3", "-filter:a", "atempo=2,atempo=1.75", "a.atempo.mp3"},
		},
		{
			name: "rubberband full factor",
			call: func(tl *Tool) error {
				return tl.Rubberband().Apply(context.Background(), "a.mp3", "a.rubberband.mp3", tempo.NewPlan(3.5))
			},
			want: []string{"-y", "-i", "a.mp3", "-filter:a", "rubberband=tempo=3.5", "a.rubberband.mp3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &recordingRun{}
			if err := tt.call(newTestTool(rec)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rec.calls) != 1 {
				t.Fatalf("got %d invocations, want 1", len(rec.calls))
			}
			if rec.paths[0] != "/bin/ffmpeg" {
				t.Errorf("binary = %q, want /bin/ffmpeg", rec.paths[0])
			}
			if !slices.Equal(rec.calls[0], tt.want) {
				t.Errorf("args = %q\nwant   %q", rec.calls[0], tt.want)
			}
		})
	}
}

func TestTool_ExtractAudio(t *testing.T) {
	t.Parallel()

	extractArgs := []string{"-y", "-i", "in.mp4", "-vn", "-acodec", "pcm_s16le", "audio.wav"}

	tests := []struct {
		name       string
		streams    string
		streamsErr error
		wantErr    error
		wantCalls  []string
	}{
		{
			name:      "audio stream present",
			streams:   `{"streams":[{"codec_type":"video"},{"codec_type":"audio"}]}`,
			wantCalls: []string{"/bin/ffprobe", "/bin/ffmpeg"},
		},
		{
			name:      "no audio stream",
			streams:   `{"streams":[{"codec_type":"video"}]}`,
			wantErr:   ErrNoAudioStream,
			wantCalls: []string{"/bin/ffprobe"},
		},
		{
			name:       "stream listing failure leaves the error to ffmpeg",
			streamsErr: errors.New("exit status 1"),
			wantCalls:  []string{"/bin/ffprobe", "/bin/ffmpeg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var paths []string
			var ffmpegArgs []string
			run := func(_ context.Context, path string, args []string) (Output, error) {
				paths = append(paths, path)
				if path == "/bin/ffprobe" {
					return Output{Stdout: []byte(tt.streams)}, tt.streamsErr
				}
				ffmpegArgs = args
				return Output{}, nil
			}
			tl := NewTool(Binaries{FFmpeg: "/bin/ffmpeg", FFprobe: "/bin/ffprobe"},
				WithExecutor(NewExecutor(WithRunFunc(run))))

			err := tl.ExtractAudio(context.Background(), "in.mp4", "audio.wav")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ExtractAudio() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("ExtractAudio() unexpected error: %v", err)
			}

			if !slices.Equal(paths, tt.wantCalls) {
				t.Errorf("invoked %q, want %q", paths, tt.wantCalls)
			}
			if ffmpegArgs != nil && !slices.Equal(ffmpegArgs, extractArgs) {
				t.Errorf("args = %q\nwant   %q", ffmpegArgs, extractArgs)
			}
		})
	}
}

func TestTool_CommandFailure(t *testing.T) {
	t.Parallel()

	rec := &recordingRun{err: errors.New("exit status 1")}
	tl := newTestTool(rec)

	if err := tl.Mux(context.Background(), "v", "a", "o"); !errors.Is(err, ErrCommandFailed) {
		t.Errorf("Mux() error = %v, want ErrCommandFailed", err)
	}
	if err := tl.Atempo().Apply(context.Background(), "a", "b", tempo.NewPlan(2)); !errors.Is(err, ErrCommandFailed) {
		t.Errorf("Atempo.Apply() error = %v, want ErrCommandFailed", err)
	}
}

func TestAtempoFilter_RejectsIdentityPlan(t *testing.T) {
	t.Parallel()

	rec := &recordingRun{}
	err := newTestTool(rec).Atempo().Apply(context.Background(), "a", "b", tempo.NewPlan(1))
	if err == nil {
		t.Error("Apply(identity) error = nil, want error")
	}
	if len(rec.calls) != 0 {
		t.Errorf("ffmpeg invoked %d times for identity plan", len(rec.calls))
	}
}

func TestFilterNames(t *testing.T) {
	t.Parallel()

	tl := newTestTool(&recordingRun{})
	if got := tl.Atempo().Name(); got != "atempo" {
		t.Errorf("Atempo().Name() = %q", got)
	}
	if got := tl.Rubberband().Name(); got != "rubberband" {
		t.Errorf("Rubberband().Name() = %q", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{1500 * time.Millisecond, "00:00:01.500"},
		{9*time.Minute + 30*time.Second, "00:09:30.000"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03.000"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.d); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
