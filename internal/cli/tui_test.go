package cli

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/inkwell-ime/imecore/pkg/candidate"
	"github.com/inkwell-ime/imecore/pkg/dict"
	"github.com/inkwell-ime/imecore/pkg/spelling"
)

type stubCandidate struct {
	text, comment, preedit string
	quality                float64
}

func (c *stubCandidate) Start() int                                 { return 0 }
func (c *stubCandidate) End() int                                   { return len(c.text) }
func (c *stubCandidate) Text() string                               { return c.text }
func (c *stubCandidate) Preedit() string                            { return c.preedit }
func (c *stubCandidate) Comment() string                            { return c.comment }
func (c *stubCandidate) Quality() float64                           { return c.quality }
func (c *stubCandidate) Code() []spelling.SyllableId                { return nil }
func (c *stubCandidate) Syllabification() candidate.Syllabification { return nil }

type stubTranslation struct {
	candidates []candidate.Candidate
	pos        int
}

func (t *stubTranslation) Peek() candidate.Candidate {
	if t.Exhausted() {
		return nil
	}
	return t.candidates[t.pos]
}

func (t *stubTranslation) Next() bool {
	if t.pos < len(t.candidates) {
		t.pos++
	}
	return !t.Exhausted()
}

func (t *stubTranslation) Exhausted() bool { return t.pos >= len(t.candidates) }

type stubEngine struct {
	ok          bool
	translation *stubTranslation
}

func (e *stubEngine) Query(input string, start int) (candidate.Translation, bool) {
	if !e.ok {
		return nil, false
	}
	e.translation.pos = 0
	return e.translation, true
}

func typeInto(m Model, s string) Model {
	for _, r := range s {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

func TestRunQueryPopulatesCandidatesOnInput(t *testing.T) {
	engine := &stubEngine{ok: true, translation: &stubTranslation{
		candidates: []candidate.Candidate{
			&stubCandidate{text: "你好", comment: "greeting"},
			&stubCandidate{text: "你"},
		},
	}}
	m := NewModel(engine, nil)
	m = typeInto(m, "nihao")

	if len(m.candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(m.candidates))
	}
	if m.candidates[0].Text() != "你好" {
		t.Errorf("candidates[0].Text() = %q, want 你好", m.candidates[0].Text())
	}
}

func TestRunQueryNoMatchSetsStatus(t *testing.T) {
	engine := &stubEngine{ok: false}
	m := NewModel(engine, nil)
	m = typeInto(m, "zzz")

	if len(m.candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(m.candidates))
	}
	if m.status != "no candidates" {
		t.Errorf("status = %q, want 'no candidates'", m.status)
	}
}

func TestClearingInputClearsTranslation(t *testing.T) {
	engine := &stubEngine{ok: true, translation: &stubTranslation{
		candidates: []candidate.Candidate{&stubCandidate{text: "你"}},
	}}
	m := NewModel(engine, nil)
	m = typeInto(m, "a")
	if m.translation == nil {
		t.Fatal("expected a translation after typing")
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = updated.(Model)
	if m.translation != nil {
		t.Error("expected translation to be cleared once input is empty")
	}
}

func TestArrowKeysMoveCursorWithinBounds(t *testing.T) {
	engine := &stubEngine{ok: true, translation: &stubTranslation{
		candidates: []candidate.Candidate{
			&stubCandidate{text: "a"}, &stubCandidate{text: "b"}, &stubCandidate{text: "c"},
		},
	}}
	m := NewModel(engine, nil)
	m = typeInto(m, "a")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(Model)
	if m.cursor != 0 {
		t.Errorf("cursor should not go below 0, got %d", m.cursor)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	if m.cursor != 2 {
		t.Errorf("cursor should clamp at len(candidates)-1=2, got %d", m.cursor)
	}
}

func TestCommitSelectedInvokesMemorize(t *testing.T) {
	var gotText string
	memorize := func(text string, elements []dict.DictEntry) error {
		gotText = text
		return nil
	}
	engine := &stubEngine{ok: true, translation: &stubTranslation{
		candidates: []candidate.Candidate{&stubCandidate{text: "你好", quality: 3}},
	}}
	m := NewModel(engine, memorize)
	m = typeInto(m, "a")

	m.commitSelected()
	if gotText != "你好" {
		t.Errorf("memorize called with %q, want 你好", gotText)
	}
	if m.status == "" {
		t.Error("expected a status message after a successful commit")
	}
}

func TestCommitSelectedWithoutMemorizeSetsStatus(t *testing.T) {
	engine := &stubEngine{ok: true, translation: &stubTranslation{
		candidates: []candidate.Candidate{&stubCandidate{text: "你"}},
	}}
	m := NewModel(engine, nil)
	m = typeInto(m, "a")

	m.commitSelected()
	if m.status != "memorize not configured" {
		t.Errorf("status = %q, want 'memorize not configured'", m.status)
	}
}

func TestCommitSelectedPropagatesMemorizeError(t *testing.T) {
	memorize := func(text string, elements []dict.DictEntry) error {
		return errors.New("boom")
	}
	engine := &stubEngine{ok: true, translation: &stubTranslation{
		candidates: []candidate.Candidate{&stubCandidate{text: "你"}},
	}}
	m := NewModel(engine, memorize)
	m = typeInto(m, "a")

	m.commitSelected()
	if m.err == nil {
		t.Error("expected commitSelected to record the memorize error")
	}
}

func TestEscKeyQuits(t *testing.T) {
	m := NewModel(&stubEngine{}, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Error("expected Esc to return a quit command")
	}
}
