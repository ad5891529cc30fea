// Package cli provides an interactive terminal UI for driving a translator
// engine directly, for debugging and manual testing.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/inkwell-ime/imecore/pkg/candidate"
	"github.com/inkwell-ime/imecore/pkg/dict"
	"github.com/inkwell-ime/imecore/pkg/server"
)

const maxDisplayedCandidates = 20

var (
	promptStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	commentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	preeditStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model drives a translator engine interactively: every keystroke re-queries,
// arrow keys move the highlighted candidate, and Enter commits it back
// through Memorize.
type Model struct {
	input       textinput.Model
	engine      server.Engine
	memorize    server.MemorizeFunc
	translation candidate.Translation
	candidates  []candidate.Candidate
	cursor      int
	status      string
	err         error
}

// NewModel builds a TUI model bound to engine, with memorize optional (nil
// disables commits).
func NewModel(engine server.Engine, memorize server.MemorizeFunc) Model {
	ti := textinput.New()
	ti.Placeholder = "type a spelling or shape code..."
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40
	return Model{input: ti, engine: engine, memorize: memorize}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case tea.KeyDown:
			if m.cursor < len(m.candidates)-1 {
				m.cursor++
			}
			return m, nil
		case tea.KeyEnter:
			m.commitSelected()
			return m, nil
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != before {
			m.runQuery()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) runQuery() {
	m.cursor = 0
	m.candidates = nil
	m.err = nil
	m.status = ""

	input := m.input.Value()
	if input == "" {
		m.translation = nil
		return
	}

	translation, ok := m.engine.Query(input, 0)
	if !ok {
		m.translation = nil
		m.status = "no candidates"
		return
	}
	m.translation = translation

	for !translation.Exhausted() && len(m.candidates) < maxDisplayedCandidates {
		if c := translation.Peek(); c != nil {
			m.candidates = append(m.candidates, c)
		}
		if !translation.Next() {
			break
		}
	}
}

func (m *Model) commitSelected() {
	if m.cursor >= len(m.candidates) {
		return
	}
	c := m.candidates[m.cursor]
	if m.memorize == nil {
		m.status = "memorize not configured"
		return
	}
	element := dict.DictEntry{Text: c.Text(), Code: c.Code(), Weight: c.Quality()}
	if err := m.memorize(c.Text(), []dict.DictEntry{element}); err != nil {
		m.err = err
		return
	}
	m.status = fmt.Sprintf("committed %q", c.Text())
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render("imecore debug"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	for i, c := range m.candidates {
		line := fmt.Sprintf("%2d. %-16s", i+1, c.Text())
		if c.Comment() != "" {
			line += commentStyle.Render(" " + c.Comment())
		}
		if c.Preedit() != "" {
			line += preeditStyle.Render(" [" + c.Preedit() + "]")
		}
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n" + errStyle.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString("\n" + footerStyle.Render(m.status) + "\n")
	}

	b.WriteString("\n" + footerStyle.Render("↑/↓ select · enter commit · esc quit"))
	return b.String()
}

// Run starts the TUI program and blocks until it exits.
func Run(engine server.Engine, memorize server.MemorizeFunc) error {
	p := tea.NewProgram(NewModel(engine, memorize))
	_, err := p.Run()
	return err
}
