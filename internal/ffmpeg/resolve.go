package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
)

// Environment variables for custom binary paths.
const (
	envFFmpegPath  = "FFMPEG_PATH"
	envFFprobePath = "FFPROBE_PATH"
)

// minFFmpegMajorVersion is the minimum supported ffmpeg version.
// Older builds lack the chained atempo range and JSON ffprobe output we rely on.
const minFFmpegMajorVersion = 4

// Binaries holds the resolved paths of the two tools the pipeline shells out to.
type Binaries struct {
	FFmpeg  string
	FFprobe string
}

// ---------------------------------------------------------------------------
// Resolver - testable binary resolution with dependency injection
// ---------------------------------------------------------------------------

// Resolver finds ffmpeg and ffprobe.
type Resolver struct {
	stat fileStatter
	env  envProvider
	goos string

	// Paths from the config file; environment variables take precedence.
	ffmpegOverride  string
	ffprobeOverride string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFileStatter sets the stat implementation.
func WithFileStatter(s fileStatter) ResolverOption {
	return func(r *Resolver) { r.stat = s }
}

// WithEnvProvider sets the environment provider implementation.
func WithEnvProvider(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// WithPlatform sets the target OS (for testing executable suffixes).
func WithPlatform(goos string) ResolverOption {
	return func(r *Resolver) { r.goos = goos }
}

// WithConfiguredPaths sets paths from the config file's [ffmpeg] section.
// Empty strings mean "not configured".
func WithConfiguredPaths(ffmpegPath, ffprobePath string) ResolverOption {
	return func(r *Resolver) {
		r.ffmpegOverride = ffmpegPath
		r.ffprobeOverride = ffprobePath
	}
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		stat: osFileStatter{},
		env:  osEnvProvider{},
		goos: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds both binaries. Each uses the following precedence:
//  1. FFMPEG_PATH / FFPROBE_PATH environment variable (error if set but invalid)
//  2. path from the config file (error if set but invalid)
//  3. for ffprobe only: next to the resolved ffmpeg
//  4. system PATH
func (r *Resolver) Resolve(_ context.Context) (Binaries, error) {
	ffmpegPath, err := r.resolveOne("ffmpeg", envFFmpegPath, r.ffmpegOverride, "")
	if err != nil {
		return Binaries{}, err
	}

	sibling := filepath.Join(filepath.Dir(ffmpegPath), r.executable("ffprobe"))
	ffprobePath, err := r.resolveOne("ffprobe", envFFprobePath, r.ffprobeOverride, sibling)
	if err != nil {
		return Binaries{}, err
	}

	return Binaries{FFmpeg: ffmpegPath, FFprobe: ffprobePath}, nil
}

func (r *Resolver) resolveOne(name, envKey, configured, sibling string) (string, error) {
	if envPath := r.env.Getenv(envKey); envPath != "" {
		if _, err := r.stat.Stat(envPath); err != nil {
			return "", fmt.Errorf("%w: %s is set to %q but binary not found", ErrNotFound, envKey, envPath)
		}
		return envPath, nil
	}

	if configured != "" {
		if _, err := r.stat.Stat(configured); err != nil {
			return "", fmt.Errorf("%w: config sets %s to %q but binary not found", ErrNotFound, name, configured)
		}
		return configured, nil
	}

	if sibling != "" {
		if _, err := r.stat.Stat(sibling); err == nil {
			return sibling, nil
		}
	}

	if path, err := r.env.LookPath(name); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: %s is not on PATH\n\n%s", ErrNotFound, name, r.manualInstallInstructions())
}

func (r *Resolver) executable(name string) string {
	if r.goos == "windows" {
		return name + ".exe"
	}
	return name
}

// manualInstallInstructions returns platform-specific instructions.
// Distribution builds include ffprobe and the rubberband filter.
func (r *Resolver) manualInstallInstructions() string {
	switch r.goos {
	case "darwin":
		return `To install FFmpeg:
  brew install ffmpeg

Or set FFMPEG_PATH and FFPROBE_PATH to your binaries.`
	case "linux":
		return `To install FFmpeg:
  Ubuntu/Debian: sudo apt install ffmpeg
  Fedora:        sudo dnf install ffmpeg
  Arch:          sudo pacman -S ffmpeg

Or set FFMPEG_PATH and FFPROBE_PATH to your binaries.`
	case "windows":
		return `To install FFmpeg:
  winget install ffmpeg

Or set FFMPEG_PATH and FFPROBE_PATH to your ffmpeg.exe and ffprobe.exe.`
	default:
		return `To install FFmpeg, download from https://ffmpeg.org/download.html
Or set FFMPEG_PATH and FFPROBE_PATH to your binaries.`
	}
}

// ---------------------------------------------------------------------------
// VersionChecker
// ---------------------------------------------------------------------------

// VersionChecker verifies ffmpeg version requirements.
type VersionChecker struct {
	executor *Executor
	logger   *slog.Logger
}

// VersionCheckerOption configures a VersionChecker.
type VersionCheckerOption func(*VersionChecker)

// WithVersionExecutor sets the executor for running ffmpeg.
func WithVersionExecutor(e *Executor) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.executor = e }
}

// WithVersionLogger sets the logger for the outdated-version warning.
func WithVersionLogger(l *slog.Logger) VersionCheckerOption {
	return func(vc *VersionChecker) { vc.logger = l }
}

// NewVersionChecker creates a VersionChecker with the given options.
func NewVersionChecker(opts ...VersionCheckerOption) *VersionChecker {
	vc := &VersionChecker{
		executor: NewExecutor(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(vc)
	}
	return vc
}

// Check reads the major version of ffmpegPath and warns when it is below the
// supported minimum. It returns the major version, or 0 when it could not be
// determined; an unreadable version never blocks a run.
func (vc *VersionChecker) Check(ctx context.Context, ffmpegPath string) int {
	out, err := vc.executor.Run(ctx, ffmpegPath, []string{"-version"})
	if err != nil && len(out.Stdout) == 0 {
		return 0
	}

	major := parseMajorVersion(string(out.Stdout))
	if major == 0 {
		return 0
	}
	if major < minFFmpegMajorVersion {
		vc.logger.Warn("ffmpeg is older than recommended",
			"version", major, "recommended", minFFmpegMajorVersion)
	}
	return major
}

// parseMajorVersion reads "ffmpeg version 6.1.1 ..." or "ffmpeg version n6.1.1 ...".
func parseMajorVersion(output string) int {
	first, _, _ := strings.Cut(output, "\n")
	var major int
	if _, err := fmt.Sscanf(first, "ffmpeg version %d", &major); err == nil {
		return major
	}
	if _, err := fmt.Sscanf(first, "ffmpeg version n%d", &major); err == nil {
		return major
	}
	return 0
}
