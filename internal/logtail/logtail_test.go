package logtail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "petdesk.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}
	if err := os.WriteFile(logPath, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestLevelOf(t *testing.T) {
	tests := []struct {
		line string
		want slog.Level
		ok   bool
	}{
		{`time=2026-01-02T03:04:05Z level=WARN msg="session expired" reason=401`, slog.LevelWarn, true},
		{`time=2026-01-02T03:04:05Z level=DEBUG msg="renewal shared"`, slog.LevelDebug, true},
		{`{"time":"2026-01-02T03:04:05Z","level":"ERROR","msg":"list failed"}`, slog.LevelError, true},
		{`{"level":"INFO+2","msg":"x"}`, slog.LevelInfo + 2, true},
		{`  continuation of a multi-line value`, 0, false},
		{`{not json`, 0, false},
		{`level=LOUD msg=x`, 0, false},
	}
	for _, tt := range tests {
		got, ok := LevelOf(tt.line)
		if ok != tt.ok || got != tt.want {
			t.Errorf("LevelOf(%q) = %v, %v; want %v, %v", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFilter(t *testing.T) {
	lines := []string{
		`level=DEBUG msg=a`,
		`level=INFO msg=b`,
		`plain line`,
		`level=WARN msg=c`,
		`{"level":"ERROR","msg":"d"}`,
	}
	got := Filter(lines, slog.LevelWarn)
	want := []string{`plain line`, `level=WARN msg=c`, `{"level":"ERROR","msg":"d"}`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Filter() = %v, want %v", got, want)
	}
	if len(lines) != 5 {
		t.Fatalf("Filter() modified its input")
	}
}
