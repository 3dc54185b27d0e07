package config

import (
	"github.com/insee-t/tt/internal/align"
	"github.com/insee-t/tt/internal/lang"
	"github.com/insee-t/tt/internal/synth"
	"github.com/insee-t/tt/internal/tempo"
	"github.com/insee-t/tt/internal/transcribe"
	"github.com/insee-t/tt/internal/translate"
)

const (
	defaultChunkSeconds   = 300
	defaultOverlapSeconds = 0
	defaultLogLevel       = "info"
	defaultLogFormat      = "auto"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Languages: Languages{
			Source: string(lang.Chinese),
			Pivot:  string(lang.English),
			Target: string(lang.Thai),
		},
		Transcription: Transcription{
			Model:          transcribe.DefaultModel,
			ChunkSeconds:   defaultChunkSeconds,
			OverlapSeconds: defaultOverlapSeconds,
			Parallel:       transcribe.DefaultParallel,
		},
		Translation: Translation{
			Provider: translate.ProviderGoogle,
			BaseURL:  translate.DefaultLLMBaseURL,
			Model:    translate.DefaultLLMModel,
		},
		Synthesis: Synthesis{
			Provider:       synth.ProviderGoogle,
			Model:          string(synth.DefaultOpenAIModel),
			AlternateModel: string(synth.AlternateOpenAIModel),
			Voice:          string(synth.DefaultOpenAIVoice),
		},
		Alignment: Alignment{
			ToleranceSeconds: align.DefaultTolerance,
			DefaultFactor:    tempo.DefaultFactor,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
