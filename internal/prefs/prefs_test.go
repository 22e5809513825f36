package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	p := Load("")
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
	if p.Username != "" {
		t.Fatalf("Username = %q, want empty", p.Username)
	}
}

func TestLoad_ReadsDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "petdesk")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prefs.toml"), []byte("theme = \"Slate\"\nusername = \" admin \"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p := Load("")
	if p.Theme != "Slate" || p.Username != "admin" {
		t.Fatalf("prefs = %+v, want Slate/admin", p)
	}
}

func TestLoad_InvalidFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	if err := os.WriteFile(path, []byte("theme = ["), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if p := Load(path); p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
}

func TestUpdate_RoundTripsThroughDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.toml")

	if err := Update(path, func(p *Prefs) { p.Username = "admin" }); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := Update(path, func(p *Prefs) { p.Theme = "Nord" }); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	p := Load(path)
	if p.Theme != "Nord" || p.Username != "admin" {
		t.Fatalf("prefs = %+v, want Nord/admin", p)
	}
}
