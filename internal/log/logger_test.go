package log

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New("debug", &buf)
	logger.Info().Str("channel", "programming").Msg("joined")

	out := buf.String()
	if !strings.Contains(out, "joined") || !strings.Contains(out, "channel=programming") {
		t.Fatalf("unexpected log output: %q", out)
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hcchat.log")
	logger, closer, err := NewFile("info", path)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	defer closer.Close()
	logger.Info().Msg("hello")
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatalf("expected non-nil logger")
	}
	l := New("info", &bytes.Buffer{})
	if OrNop(l) != l {
		t.Fatalf("expected same logger back")
	}
}
