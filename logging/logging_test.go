package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/use-agent/docharvest/config"
)

func TestCritical_RendersLevelName(t *testing.T) {
	var buf bytes.Buffer
	l := New(config.LogConfig{Level: "info", Format: "text"}, &buf)

	Critical(l, "site harvest failed", "source", "react")

	out := buf.String()
	if !strings.Contains(out, "level=CRITICAL") {
		t.Fatalf("expected level=CRITICAL in %q", out)
	}
	if !strings.Contains(out, "source=react") {
		t.Fatalf("expected source attr in %q", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(config.LogConfig{Level: "debug", Format: "json"}, &buf)

	l.Debug("parsed_doc", "title", "Installation")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["level"] != "DEBUG" || rec["msg"] != "parsed_doc" || rec["title"] != "Installation" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(config.LogConfig{Level: "warn"}, &buf)

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"critical", LevelCritical},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.name); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}
