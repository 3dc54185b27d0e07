package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/insee-t/tt/internal/align"
	"github.com/insee-t/tt/internal/audio"
	"github.com/insee-t/tt/internal/config"
	"github.com/insee-t/tt/internal/logging"
	"github.com/insee-t/tt/internal/pipeline"
	"github.com/insee-t/tt/internal/synth"
	"github.com/insee-t/tt/internal/tempo"
	"github.com/insee-t/tt/internal/transcribe"
	"github.com/insee-t/tt/internal/translate"
)

// runOptions holds the parsed arguments of "tt run".
type runOptions struct {
	input      string
	output     string
	manualFile string
	configPath string
}

// RunCmd creates the run command.
// The env parameter provides injectable dependencies for testing.
func RunCmd(env *Env) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <input-video> <output-video>",
		Short: "Dub a Chinese video into Thai",
		Long: `Dub a video: extract its soundtrack, transcribe the speech, translate it
through English into Thai, synthesize Thai speech, fit the speech to the video
duration and write a copy of the video with the new audio track.

If machine translation does not produce Thai text, the English translation is
saved next to the output video so it can be translated by hand and passed back
with --manual-translation-file.`,
		Example: `  tt run lecture.mp4 lecture_th.mp4
  tt run lecture.mp4 lecture_th.mp4 --manual-translation-file thai.txt
  tt run lecture.mp4 lecture_th.mp4 --config ./tt.toml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input, opts.output = args[0], args[1]
			return runRun(cmd, env, opts)
		},
	}

	cmd.Flags().StringVar(&opts.manualFile, "manual-translation-file", "", "Thai text to use instead of machine translation")
	addConfigFlag(cmd, &opts.configPath)

	return cmd
}

// addConfigFlag registers --config on cmd.
func addConfigFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVar(path, "config", "", "Config file path (default: $TT_CONFIG or ~/.config/tt/config.toml)")
}

// runRun executes a dubbing run.
// Validation order: config -> output path -> API keys -> ffmpeg -> collaborators
func runRun(cmd *cobra.Command, env *Env, opts runOptions) error {
	ctx := cmd.Context()

	// === VALIDATION (fail-fast) ===

	cfg, _, _, err := env.ConfigLoader.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: env.Stderr,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	if samePath(opts.input, opts.output) {
		return fmt.Errorf("%w: %s", ErrOutputIsInput, opts.output)
	}

	creds := config.CredentialsFromEnv(env.Getenv)
	if err := checkCredentials(cfg, creds, logger); err != nil {
		return err
	}

	// === SETUP ===

	bins, err := env.FFmpegResolver.Resolve(ctx, cfg.FFmpeg)
	if err != nil {
		return err
	}
	env.FFmpegResolver.CheckVersion(ctx, bins.FFmpeg, logger)

	media := env.MediaFactory.NewMedia(bins)

	chunker, err := audio.NewTimeChunker(media, media, "",
		audio.WithTargetDuration(time.Duration(cfg.Transcription.ChunkSeconds)*time.Second),
		audio.WithOverlap(time.Duration(cfg.Transcription.OverlapSeconds)*time.Second),
	)
	if err != nil {
		return err
	}
	single := env.TranscriberFactory.NewTranscriber(cfg.Transcription, cfg.SourceLanguage(), creds.OpenAIKey, logger)

	adjuster := align.NewAdjuster(media, media, media.RateFilters(),
		align.WithPolicy(tempo.Policy{DefaultFactor: cfg.Alignment.DefaultFactor}),
		align.WithTolerance(cfg.Alignment.ToleranceSeconds),
		align.WithLogger(logger),
	)

	driver := pipeline.New(pipeline.Stages{
		Media:       media,
		Transcriber: transcribe.NewChunkedTranscriber(chunker, single, cfg.Transcription.Parallel),
		Translator:  env.TranslatorFactory.NewTranslator(cfg.Translation, creds, logger),
		Synthesizer: env.SynthesizerFactory.NewSynthesizer(cfg.Synthesis, creds, logger),
		Adjuster:    adjuster,
	},
		pipeline.WithLanguages(pipeline.Languages{
			Source: cfg.SourceLanguage(),
			Pivot:  cfg.PivotLanguage(),
			Target: cfg.TargetLanguage(),
		}),
		pipeline.WithLogger(logger),
		pipeline.WithProgress(env.Stderr),
		pipeline.WithExitHooks(env.ExitHooks),
	)

	// === RUN ===

	summary, err := driver.Run(ctx, pipeline.Request{
		Input:                 opts.input,
		Output:                opts.output,
		ManualTranslationFile: opts.manualFile,
	})
	if len(summary.Stages) > 0 {
		fmt.Fprintln(env.Stdout, summary.Table())
	}
	return err
}

// checkCredentials fails on the first API key a non-degrading stage needs but
// the environment lacks. Missing keys for transcription and translation are
// only logged: those stages fall back to an empty transcript and untranslated
// text, and a manual translation file can still complete the run.
func checkCredentials(cfg *config.Config, creds config.Credentials, logger *slog.Logger) error {
	type requirement struct {
		needed   bool
		present  bool
		envVar   string
		purpose  string
		degrades bool
	}
	reqs := []requirement{
		{cfg.Transcription.BaseURL == "", creds.OpenAIKey != "", config.EnvOpenAIKey, "transcription", true},
		{cfg.Translation.Provider == translate.ProviderGoogle, creds.GoogleKey != "", config.EnvGoogleKey, "Google translation", true},
		{cfg.Translation.Provider == translate.ProviderLLM, creds.TyphoonKey != "", config.EnvTyphoonKey, "LLM translation", true},
		{cfg.Synthesis.Provider == synth.ProviderOpenAI, creds.OpenAIKey != "", config.EnvOpenAIKey, "OpenAI speech", false},
	}
	for _, r := range reqs {
		if !r.needed || r.present {
			continue
		}
		if r.degrades {
			logger.Warn("API key not set, stage will be skipped", "env", r.envVar, "purpose", r.purpose)
			continue
		}
		return fmt.Errorf("%w: %s is needed for %s (set it with: export %s=...)",
			ErrAPIKeyMissing, r.envVar, r.purpose, r.envVar)
	}
	return nil
}

// samePath reports whether a and b name the same file path after cleaning.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
