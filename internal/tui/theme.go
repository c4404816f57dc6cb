package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Palette is a named set of colors. Custom palettes are YAML files named
// <name>.yml in the theme directory; keys left out keep the light (or, for
// palettes based on "dark", the dark) defaults.
type Palette struct {
	Name       string `yaml:"name"`
	Base       string `yaml:"base"`
	Foreground string `yaml:"foreground"`
	Muted      string `yaml:"muted"`
	Accent     string `yaml:"accent"`
	Up         string `yaml:"up"`
	Down       string `yaml:"down"`
	Selection  string `yaml:"selection"`
	StatusBar  string `yaml:"status_bar"`
	StatusText string `yaml:"status_text"`
}

// Active colors, set by InitializeTheme.
var (
	ColorForeground lipgloss.Color
	ColorMuted      lipgloss.Color
	ColorAccent     lipgloss.Color
	ColorUp         lipgloss.Color
	ColorDown       lipgloss.Color
	ColorSelection  lipgloss.Color
	ColorStatusBar  lipgloss.Color
	ColorStatusText lipgloss.Color

	activeTheme = "light"
)

func init() {
	applyPalette(LightPalette())
}

// LightPalette is the default palette.
func LightPalette() Palette {
	return Palette{
		Name:       "light",
		Base:       "light",
		Foreground: "#1F2933",
		Muted:      "#7B8794",
		Accent:     "#3A66DB",
		Up:         "#0E9F6E",
		Down:       "#E02424",
		Selection:  "#DCE6FA",
		StatusBar:  "#3A66DB",
		StatusText: "#FFFFFF",
	}
}

// DarkPalette is the dark palette.
func DarkPalette() Palette {
	return Palette{
		Name:       "dark",
		Base:       "dark",
		Foreground: "#E4E7EB",
		Muted:      "#9AA5B1",
		Accent:     "#7CA2FF",
		Up:         "#31C48D",
		Down:       "#F98080",
		Selection:  "#27354F",
		StatusBar:  "#1A2238",
		StatusText: "#E4E7EB",
	}
}

// LoadPalette resolves a palette by name. light and dark are built in and
// can be overridden by a file of the same name in dir.
func LoadPalette(name, dir string) (Palette, error) {
	var builtin *Palette
	switch name {
	case "", "light":
		p := LightPalette()
		builtin = &p
	case "dark":
		p := DarkPalette()
		builtin = &p
	}

	if dir == "" {
		if builtin == nil {
			return LightPalette(), fmt.Errorf("tui: unknown theme %q", name)
		}
		return *builtin, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, name+".yml"))
	if errors.Is(err, os.ErrNotExist) {
		if builtin == nil {
			return LightPalette(), fmt.Errorf("tui: unknown theme %q", name)
		}
		return *builtin, nil
	}
	if err != nil {
		return LightPalette(), fmt.Errorf("tui: read theme %q: %w", name, err)
	}

	var head struct {
		Base string `yaml:"base"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return LightPalette(), fmt.Errorf("tui: parse theme %q: %w", name, err)
	}
	p := LightPalette()
	if head.Base == "dark" || (head.Base == "" && name == "dark") {
		p = DarkPalette()
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return LightPalette(), fmt.Errorf("tui: parse theme %q: %w", name, err)
	}
	p.Name = name
	return p, nil
}

// InitializeTheme loads and activates the named palette. On error the light
// palette is activated and the error returned.
func InitializeTheme(name, dir string) error {
	p, err := LoadPalette(name, dir)
	applyPalette(p)
	return err
}

// ActiveTheme returns the name of the active palette.
func ActiveTheme() string {
	return activeTheme
}

func applyPalette(p Palette) {
	activeTheme = p.Name
	ColorForeground = lipgloss.Color(p.Foreground)
	ColorMuted = lipgloss.Color(p.Muted)
	ColorAccent = lipgloss.Color(p.Accent)
	ColorUp = lipgloss.Color(p.Up)
	ColorDown = lipgloss.Color(p.Down)
	ColorSelection = lipgloss.Color(p.Selection)
	ColorStatusBar = lipgloss.Color(p.StatusBar)
	ColorStatusText = lipgloss.Color(p.StatusText)
}
