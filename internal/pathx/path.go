// Package pathx resolves user-supplied file paths.
package pathx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Expand trims path, expands a leading "~" to the home directory and returns
// the absolute form.
func Expand(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

// MustExpand is Expand that falls back to the input on error.
func MustExpand(path string) string {
	expanded, err := Expand(path)
	if err != nil {
		return path
	}
	return expanded
}
