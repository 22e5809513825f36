package ui

import "testing"

func TestGetTheme_FallsBackToNightfox(t *testing.T) {
	if got := GetTheme("does-not-exist").Name; got != "Nightfox" {
		t.Fatalf("GetTheme fallback = %q, want Nightfox", got)
	}
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate) = %q", got)
	}
}

func TestNextTheme_Cycles(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames len = %d, want 3", len(names))
	}
	for i, name := range names {
		want := names[(i+1)%len(names)]
		if got := NextTheme(name); got != want {
			t.Fatalf("NextTheme(%q) = %q, want %q", name, got, want)
		}
	}
	if got := NextTheme("unknown"); got != names[0] {
		t.Fatalf("NextTheme(unknown) = %q, want %q", got, names[0])
	}
}

func TestThemes_CoverCollectionStatuses(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, status := range []string{"idle", "loading", "ready", "failed", "offline"} {
			if th.StatusColor(status) == "" {
				t.Fatalf("theme %s has no color for %q", name, status)
			}
		}
	}
}

func TestTruncateAndPad(t *testing.T) {
	if got := truncate("  Labrador Retriever  ", 10); got != "Labrado..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("Rex", 10); got != "Rex" {
		t.Fatalf("truncate short = %q", got)
	}
	if got := padRight("Rex", 5); got != "Rex  " {
		t.Fatalf("padRight = %q", got)
	}
	if got := orDash(" "); got != "-" {
		t.Fatalf("orDash blank = %q", got)
	}
}
