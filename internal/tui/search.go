package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// searchInput wraps the text input used for the asset search. Every edit is
// reported so the filter applies while typing.
type searchInput struct {
	input  textinput.Model
	active bool
}

func newSearchInput() searchInput {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "name or symbol"
	ti.CharLimit = 64
	return searchInput{input: ti}
}

// Start focuses the input with the current term.
func (s *searchInput) Start(term string) tea.Cmd {
	s.active = true
	s.input.SetValue(term)
	s.input.CursorEnd()
	return s.input.Focus()
}

func (s *searchInput) stop() {
	s.active = false
	s.input.Blur()
}

// Update handles a key while the input is active. It returns the new term
// when the term changed and whether the caller should apply it.
func (s *searchInput) Update(msg tea.KeyMsg, keys KeyMap) (term string, changed bool, cmd tea.Cmd) {
	before := s.input.Value()
	switch {
	case key.Matches(msg, keys.Escape):
		s.input.SetValue("")
		s.stop()
		return "", before != "", nil
	case msg.Type == tea.KeyEnter:
		s.stop()
		return s.input.Value(), false, nil
	}

	s.input, cmd = s.input.Update(msg)
	after := s.input.Value()
	return after, after != before, cmd
}

func (s *searchInput) View() string {
	return s.input.View()
}
