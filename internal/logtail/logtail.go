package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A missing
// file is not an error. maxLines <= 0 returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if maxLines <= 0 {
		var all []string
		for scanner.Scan() {
			all = append(all, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return all, nil
	}

	ring := make([]string, maxLines)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// LevelOf extracts the slog level from a text ("level=WARN") or JSON
// ({"level":"WARN"}) log line.
func LevelOf(line string) (slog.Level, bool) {
	trimmed := strings.TrimSpace(line)
	var raw string
	if strings.HasPrefix(trimmed, "{") {
		var rec struct {
			Level string `json:"level"`
		}
		if json.Unmarshal([]byte(trimmed), &rec) != nil {
			return 0, false
		}
		raw = rec.Level
	} else {
		for _, field := range strings.Fields(trimmed) {
			if v, ok := strings.CutPrefix(field, "level="); ok {
				raw = v
				break
			}
		}
	}
	if raw == "" {
		return 0, false
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		return 0, false
	}
	return lvl, true
}

// Filter keeps lines at or above minLevel, plus lines with no level.
func Filter(lines []string, minLevel slog.Level) []string {
	out := lines[:0:0]
	for _, line := range lines {
		if lvl, ok := LevelOf(line); ok && lvl < minLevel {
			continue
		}
		out = append(out, line)
	}
	return out
}
