package tui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPaletteBuiltin(t *testing.T) {
	p, err := LoadPalette("dark", "")
	if err != nil {
		t.Fatalf("LoadPalette: %v", err)
	}
	if p.Up != DarkPalette().Up {
		t.Fatalf("Up = %q, want %q", p.Up, DarkPalette().Up)
	}
}

func TestLoadPaletteFromFile(t *testing.T) {
	dir := t.TempDir()
	data := "base: dark\naccent: \"#FF00FF\"\n"
	if err := os.WriteFile(filepath.Join(dir, "ocean.yml"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPalette("ocean", dir)
	if err != nil {
		t.Fatalf("LoadPalette: %v", err)
	}
	if p.Name != "ocean" {
		t.Fatalf("Name = %q, want ocean", p.Name)
	}
	if p.Accent != "#FF00FF" {
		t.Fatalf("Accent = %q, want #FF00FF", p.Accent)
	}
	// unset keys inherit the dark base
	if p.Down != DarkPalette().Down {
		t.Fatalf("Down = %q, want %q", p.Down, DarkPalette().Down)
	}
}

func TestLoadPaletteUnknown(t *testing.T) {
	if _, err := LoadPalette("solarized", t.TempDir()); err == nil {
		t.Fatal("expected error for unknown theme")
	}
}

func TestInitializeThemeFallsBack(t *testing.T) {
	t.Cleanup(func() { _ = InitializeTheme("light", "") })

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.yml"), []byte("accent: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := InitializeTheme("broken", dir); err == nil {
		t.Fatal("expected parse error")
	}
	if ActiveTheme() != "light" {
		t.Fatalf("ActiveTheme = %q, want light", ActiveTheme())
	}
}
