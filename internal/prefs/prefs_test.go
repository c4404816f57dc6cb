package prefs

import (
	"errors"
	"testing"

	"github.com/novacrypto/nova/internal/model"
)

type mapStore map[string]string

func (m mapStore) Get(key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapStore) Set(key, value string) error {
	m[key] = value
	return nil
}

func TestDefaults(t *testing.T) {
	p := New(mapStore{})
	theme, err := p.Theme()
	if err != nil || theme != "light" {
		t.Errorf("Theme() = %q, %v; want light, nil", theme, err)
	}
	if got := p.Currency(); got != "usd" {
		t.Errorf("Currency() = %q, want usd", got)
	}
}

func TestCorruptFallsBack(t *testing.T) {
	p := New(mapStore{
		"nova_crypto_theme":    "purple",
		"nova_crypto_currency": "not-a-code",
	})
	if theme, _ := p.Theme(); theme != "light" {
		t.Errorf("Theme() = %q, want light", theme)
	}
	if got := p.Currency(); got != "usd" {
		t.Errorf("Currency() = %q, want usd", got)
	}
}

func TestSetTheme(t *testing.T) {
	s := mapStore{}
	p := New(s)
	if err := p.SetTheme("dark"); err != nil {
		t.Fatalf("SetTheme(dark): %v", err)
	}
	if s["nova_crypto_theme"] != "dark" {
		t.Errorf("stored theme = %q, want dark", s["nova_crypto_theme"])
	}
	if err := p.SetTheme("sepia"); !errors.Is(err, model.ErrInvalidView) {
		t.Errorf("SetTheme(sepia) err = %v, want ErrInvalidView", err)
	}
}

func TestCurrencyRoundTrip(t *testing.T) {
	p := New(mapStore{})
	if err := p.SetCurrency("eur"); err != nil {
		t.Fatalf("SetCurrency: %v", err)
	}
	if got := p.Currency(); got != "eur" {
		t.Errorf("Currency() = %q, want eur", got)
	}
}
