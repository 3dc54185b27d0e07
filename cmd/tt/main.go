package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/insee-t/tt/internal/apierr"
	"github.com/insee-t/tt/internal/cli"
	"github.com/insee-t/tt/internal/config"
	"github.com/insee-t/tt/internal/ffmpeg"
	"github.com/insee-t/tt/internal/interrupt"
	"github.com/insee-t/tt/internal/lang"
	"github.com/insee-t/tt/internal/pipeline"
	"github.com/insee-t/tt/internal/synth"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Compile-time interface verification.
var _ pipeline.ExitHooks = (*interrupt.Handler)(nil)

// Exit codes.
const (
	ExitOK          = 0
	ExitGeneral     = 1
	ExitUsage       = 2
	ExitSetup       = 3
	ExitValidation  = 4
	ExitMedia       = 5
	ExitTranslation = 6
	ExitSynthesis   = 7
	ExitInterrupt   = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// First Ctrl+C cancels the run and lets it clean up; a second one exits.
	handler, ctx := interrupt.NewHandler(context.Background())
	defer handler.Stop()

	env := cli.NewEnv(cli.WithExitHooks(handler))

	rootCmd := &cobra.Command{
		Use:   "tt",
		Short: "Dub Chinese videos into Thai",
		Long: `tt dubs a Chinese video into Thai: it transcribes the speech, translates it
through English, synthesizes Thai speech fitted to the video duration and
replaces the audio track.

API keys are read from the environment or a .env file in the working
directory: OPENAI_API_KEY, GOOGLE_API_KEY, TYPHOON_API_KEY.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(cli.RunCmd(env))
	rootCmd.AddCommand(cli.CheckLLMCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := exitCode(err)
		// A killed ffmpeg reports its own error rather than context.Canceled.
		if handler.WasInterrupted() {
			code = ExitInterrupt
		}
		handler.Stop()
		os.Exit(code)
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors (ExitUsage = 2): Cobra flag/arg parsing errors.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors (ExitSetup = 3).
	if errors.Is(err, ffmpeg.ErrNotFound) || errors.Is(err, cli.ErrAPIKeyMissing) ||
		errors.Is(err, config.ErrInvalid) || errors.Is(err, config.ErrExists) ||
		errors.Is(err, lang.ErrInvalid) || errors.Is(err, cli.ErrLLMCheckFailed) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4).
	if errors.Is(err, pipeline.ErrInputNotFound) || errors.Is(err, pipeline.ErrOutputLocked) ||
		errors.Is(err, pipeline.ErrManualTranslationEmpty) || errors.Is(err, cli.ErrOutputIsInput) {
		return ExitValidation
	}

	// Media errors (ExitMedia = 5).
	if errors.Is(err, pipeline.ErrExtractFailed) || errors.Is(err, pipeline.ErrMuxFailed) {
		return ExitMedia
	}

	// Translation errors (ExitTranslation = 6).
	if errors.Is(err, pipeline.ErrTranslationUnavailable) {
		return ExitTranslation
	}

	// Synthesis errors (ExitSynthesis = 7). API failures surface here too:
	// synthesis is the only stage that does not degrade around them.
	if errors.Is(err, synth.ErrSynthesisFailed) || errors.Is(err, apierr.ErrQuotaExceeded) ||
		errors.Is(err, apierr.ErrAuthFailed) {
		return ExitSynthesis
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"unknown command",           // Subcommand doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
