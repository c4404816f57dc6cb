// Package prefs loads and saves user preferences over a key/value store.
package prefs

import (
	"fmt"
	"log"

	"github.com/novacrypto/nova/internal/format"
	"github.com/novacrypto/nova/internal/model"
)

// Themes accepted by SetTheme.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Prefs reads and writes the theme and quote currency preferences.
type Prefs struct {
	store model.KeyValueStore
}

// New returns preferences backed by store.
func New(store model.KeyValueStore) *Prefs {
	return &Prefs{store: store}
}

// Theme returns the saved theme, or the default when absent or corrupt.
func (p *Prefs) Theme() (string, error) {
	v := p.load(model.KeyTheme, model.DefaultTheme)
	if v != ThemeLight && v != ThemeDark {
		log.Printf("prefs: %v: %s=%q, using %q", model.ErrPersistenceCorrupt, model.KeyTheme, v, model.DefaultTheme)
		return model.DefaultTheme, nil
	}
	return v, nil
}

// SetTheme persists the theme.
func (p *Prefs) SetTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: theme %q", model.ErrInvalidView, theme)
	}
	return p.save(model.KeyTheme, theme)
}

// Currency returns the saved quote currency, or the default when absent or corrupt.
func (p *Prefs) Currency() string {
	v := p.load(model.KeyCurrency, model.DefaultCurrency)
	code, err := format.NormalizeCurrency(v)
	if err != nil {
		log.Printf("prefs: %v: %s=%q, using %q", model.ErrPersistenceCorrupt, model.KeyCurrency, v, model.DefaultCurrency)
		return model.DefaultCurrency
	}
	return code
}

// SetCurrency persists a normalized quote currency code.
func (p *Prefs) SetCurrency(code string) error {
	return p.save(model.KeyCurrency, code)
}

func (p *Prefs) load(key, def string) string {
	if p.store == nil {
		return def
	}
	v, ok, err := p.store.Get(key)
	if err != nil {
		log.Printf("prefs: load %s: %v", key, err)
		return def
	}
	if !ok {
		return def
	}
	return v
}

func (p *Prefs) save(key, value string) error {
	if p.store == nil {
		return nil
	}
	if err := p.store.Set(key, value); err != nil {
		return fmt.Errorf("prefs: save %s: %w", key, err)
	}
	return nil
}
