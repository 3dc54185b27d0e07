package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/insee-t/tt/internal/logging"
)

func TestNew_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		format   string
		wantJSON bool
	}{
		{name: "json", format: "json", wantJSON: true},
		{name: "console", format: "Console", wantJSON: false},
		// A bytes.Buffer is never a terminal.
		{name: "auto off a terminal", format: "auto", wantJSON: true},
		{name: "empty means auto", format: "", wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger, err := logging.New(logging.Options{Level: "info", Format: tt.format, Writer: &buf})
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			logger.Info("stage done", "stage", "extract")

			var entry map[string]any
			isJSON := json.Unmarshal(buf.Bytes(), &entry) == nil
			if isJSON != tt.wantJSON {
				t.Errorf("output %q: json = %v, want %v", buf.String(), isJSON, tt.wantJSON)
			}
			if !strings.Contains(buf.String(), "extract") {
				t.Errorf("output %q missing attribute", buf.String())
			}
		})
	}
}

func TestNew_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	if _, err := logging.New(logging.Options{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Error("New(xml) expected error")
	}
}

func TestNew_LevelFilters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("output = %q, want only the warning", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := logging.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsTerminal_NonFile(t *testing.T) {
	t.Parallel()

	if logging.IsTerminal(&bytes.Buffer{}) {
		t.Error("IsTerminal(buffer) = true, want false")
	}
}
