package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew_JSONWithFileAndRecent(t *testing.T) {
	var out bytes.Buffer
	dir := filepath.Join(t.TempDir(), "logs")

	l := New(Config{Level: "debug", Format: "json", Path: dir, Recent: 2, Output: &out})
	defer l.Close()

	log := l.WithComponent("decisioning")
	log.Debug().Str("runId", "r1").Msg("Evaluating releases")
	log.Trace().Msg("hidden")
	log.Info().Int("approved", 3).Msg("Decisions ready")
	log.Warn().Msg("Run cancelled")

	if !strings.Contains(out.String(), `"component":"decisioning"`) {
		t.Errorf("console output missing component field: %s", out.String())
	}
	if strings.Contains(out.String(), "hidden") {
		t.Error("trace entry should be filtered at debug level")
	}

	if l.FilePath() != filepath.Join(dir, FileName) {
		t.Errorf("FilePath() = %q", l.FilePath())
	}
	data, err := os.ReadFile(l.FilePath())
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != 3 {
		t.Errorf("log file has %d lines, want 3", got)
	}

	recent := l.RecentEntries()
	if len(recent) != 2 {
		t.Fatalf("RecentEntries() returned %d entries, want 2", len(recent))
	}
	if recent[0].Message != "Decisions ready" || recent[1].Message != "Run cancelled" {
		t.Errorf("unexpected recent entries: %+v", recent)
	}
	if recent[0].Component != "decisioning" || recent[0].Level != "info" {
		t.Errorf("entry fields not extracted: %+v", recent[0])
	}
	if recent[0].Fields["approved"] != float64(3) {
		t.Errorf("Fields[approved] = %v, want 3", recent[0].Fields["approved"])
	}
}

func TestNew_ConsoleOnly(t *testing.T) {
	var out bytes.Buffer
	l := New(Config{Output: &out})

	l.Info().Msg("Starting server")
	if !strings.Contains(out.String(), "Starting server") {
		t.Errorf("console output = %q", out.String())
	}
	if l.FilePath() != "" {
		t.Errorf("FilePath() = %q, want empty", l.FilePath())
	}
	if l.RecentEntries() != nil {
		t.Error("RecentEntries() should be nil when disabled")
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestEntryBuffer_IgnoresNonJSON(t *testing.T) {
	b := NewEntryBuffer(4)
	n, err := b.Write([]byte("not json\n"))
	if err != nil || n != 9 {
		t.Errorf("Write() = %d, %v", n, err)
	}
	if len(b.Entries()) != 0 {
		t.Error("non-JSON line should be dropped")
	}
}

func TestRingBuffer(t *testing.T) {
	r := NewRingBuffer[int](3)
	if got := r.GetAll(); len(got) != 0 {
		t.Errorf("empty buffer GetAll() = %v", got)
	}

	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	got := r.GetAll()
	want := []int{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("GetAll() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("GetAll()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}

	partial := NewRingBuffer[string](0)
	partial.Push("only")
	partial.Push("latest")
	if all := partial.GetAll(); len(all) != 1 || all[0] != "latest" {
		t.Errorf("capacity-1 buffer GetAll() = %v", all)
	}
}
