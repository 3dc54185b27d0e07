// Package config loads the tt configuration file.
//
// The file is TOML. Every key is optional: Load starts from Default, decodes
// the file over it, normalizes the result and validates it. API keys are never
// read from the file; they come from the environment through Credentials.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/insee-t/tt/internal/lang"
)

//go:embed sample_config.toml
var sampleConfig string

// Environment variables.
const (
	EnvConfigPath = "TT_CONFIG"
	EnvLogLevel   = "TT_LOG_LEVEL"
	EnvOpenAIKey  = "OPENAI_API_KEY"
	EnvGoogleKey  = "GOOGLE_API_KEY"
	EnvTyphoonKey = "TYPHOON_API_KEY"
)

// Languages names the dubbing pair and the language translated through.
type Languages struct {
	Source string `toml:"source"`
	Pivot  string `toml:"pivot"`
	Target string `toml:"target"`
}

// FFmpeg holds explicit binary paths. Empty means search PATH.
type FFmpeg struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
}

// Transcription configures the speech-to-text endpoint and chunking.
type Transcription struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Prompt         string `toml:"prompt"`
	ChunkSeconds   int    `toml:"chunk_seconds"`
	OverlapSeconds int    `toml:"overlap_seconds"`
	Parallel       int    `toml:"parallel"`
}

// Translation selects the translation provider.
// BaseURL and Model apply to the llm provider only.
type Translation struct {
	Provider string `toml:"provider"`
	BaseURL  string `toml:"base_url"`
	Model    string `toml:"model"`
}

// Synthesis selects the text-to-speech provider.
// Model, AlternateModel and Voice apply to the openai provider only.
type Synthesis struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	AlternateModel string `toml:"alternate_model"`
	Voice          string `toml:"voice"`
}

// Alignment tunes duration matching of the synthesized track.
type Alignment struct {
	// ToleranceSeconds is the accepted distance from the video duration.
	ToleranceSeconds float64 `toml:"tolerance_seconds"`
	// DefaultFactor is the speed factor used when either duration is unknown.
	DefaultFactor float64 `toml:"default_factor"`
}

// Logging configures log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the complete tt configuration.
type Config struct {
	Languages     Languages     `toml:"languages"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	Synthesis     Synthesis     `toml:"synthesis"`
	Alignment     Alignment     `toml:"alignment"`
	Logging       Logging       `toml:"logging"`
}

// Credentials carries API keys from the environment.
type Credentials struct {
	OpenAIKey  string
	GoogleKey  string
	TyphoonKey string
}

// CredentialsFromEnv reads API keys with getenv (os.Getenv in production).
func CredentialsFromEnv(getenv func(string) string) Credentials {
	return Credentials{
		OpenAIKey:  strings.TrimSpace(getenv(EnvOpenAIKey)),
		GoogleKey:  strings.TrimSpace(getenv(EnvGoogleKey)),
		TyphoonKey: strings.TrimSpace(getenv(EnvTyphoonKey)),
	}
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/tt.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tt"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "tt"), nil
}

// DefaultPath returns the config file location: $TT_CONFIG when set,
// otherwise config.toml in the configuration directory.
func DefaultPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return expandPath(p)
	}
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config.toml"), nil
}

// ResolvePath expands path, or returns DefaultPath when path is empty.
func ResolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultPath()
	}
	return expandPath(path)
}

// Load reads the config file at path (DefaultPath when empty). A missing
// file is not an error: defaults apply and exists is false.
func Load(path string) (cfg *Config, resolved string, exists bool, err error) {
	c := Default()

	resolved, exists, err = resolvePath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolved) // #nosec G304 -- path chosen by the user
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(data, &c); err != nil {
			return nil, "", false, fmt.Errorf("%s: %w", resolved, err)
		}
	}

	if err := c.Finalize(); err != nil {
		return nil, "", false, err
	}
	return &c, resolved, exists, nil
}

// Decode parses TOML data over cfg. Unknown keys are rejected so typos do
// not silently fall back to defaults.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%w: unknown keys:\n%s", ErrInvalid, strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("%w: line %d column %d: %s", ErrInvalid, row, col, decodeErr.Error())
		}
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Finalize normalizes and validates c in place.
func (c *Config) Finalize() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

// Encode renders c as TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}

// SourceLanguage returns the spoken language of the input video.
func (c *Config) SourceLanguage() lang.Code { return lang.Code(c.Languages.Source) }

// PivotLanguage returns the language translated through.
func (c *Config) PivotLanguage() lang.Code { return lang.Code(c.Languages.Pivot) }

// TargetLanguage returns the dubbing language.
func (c *Config) TargetLanguage() lang.Code { return lang.Code(c.Languages.Target) }

// SampleConfig returns the commented sample written by "tt config init".
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample config to path, creating parent directories.
// An existing file is only replaced when overwrite is true.
func WriteSample(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat config: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}
	// #nosec G306 -- config file with standard permissions
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, bool, error) {
	path, err := ResolvePath(path)
	if err != nil {
		return "", false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("%w: %s is a directory", ErrInvalid, path)
	}
	return path, true, nil
}

// expandPath resolves a leading "~" and makes p absolute.
func expandPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return p, nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, p[1:])
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}
