// Package candidate holds the shared candidate/phrase/sentence types and the
// Translation/Syllabification capability interfaces both translators expose.
package candidate

import "github.com/inkwell-ime/imecore/pkg/spelling"

// Syllabification is the caret-navigation capability a candidate's weak
// back-reference exposes. Implementations are held by the translation that
// produced the candidates; a candidate itself never owns one.
type Syllabification interface {
	PreviousStop(caret int) int
	NextStop(caret int) int
}

// Candidate is the capability set every translator's output satisfies.
type Candidate interface {
	Start() int
	End() int
	Text() string
	Preedit() string
	Comment() string
	Quality() float64
	Code() []spelling.SyllableId
	// Syllabification returns the weak back-reference, or nil if the
	// translation that produced this candidate has since been released.
	Syllabification() Syllabification
}

// Translation is the lazy iterator every translator's Query returns.
type Translation interface {
	Peek() Candidate
	Next() bool
	Exhausted() bool
}

// Phrase is the concrete Candidate emitted by both translators for
// non-sentence hits: a single dictionary or user-dict entry.
type Phrase struct {
	StartPos    int
	EndPos      int
	TextValue   string
	PreeditText string
	CommentText string
	QualityVal  float64
	CodeVal     []spelling.SyllableId
	SyllRef     WeakSyllabification
}

func (p *Phrase) Start() int                        { return p.StartPos }
func (p *Phrase) End() int                          { return p.EndPos }
func (p *Phrase) Text() string                      { return p.TextValue }
func (p *Phrase) Preedit() string                   { return p.PreeditText }
func (p *Phrase) Comment() string                   { return p.CommentText }
func (p *Phrase) Quality() float64                  { return p.QualityVal }
func (p *Phrase) Code() []spelling.SyllableId       { return p.CodeVal }
func (p *Phrase) Syllabification() Syllabification  { return p.SyllRef.Upgrade() }

// Sentence is a Candidate built from several syllables' worth of dict/user
// entries stitched together by a sentence DP.
type Sentence struct {
	Phrase
	SyllableLengths []int
	Weight          float64
}

// Extend appends one more entry's worth of text/code/weight to the sentence,
// advancing EndPos to endPos and recording the syllable length consumed.
func (s *Sentence) Extend(text string, code []spelling.SyllableId, weight float64, endPos int) {
	s.TextValue += text
	s.CodeVal = append(s.CodeVal, code...)
	s.SyllableLengths = append(s.SyllableLengths, endPos-s.EndPos)
	s.Weight += weight
	s.EndPos = endPos
}

// Offset shifts a sentence built against a graph rooted at 0 to its true
// position within a larger input.
func (s *Sentence) Offset(start int) {
	s.StartPos += start
	s.EndPos += start
}

// WeakSyllabification is a non-owning handle: it never keeps the referenced
// Syllabification alive, matching the "relation + lookup, never ownership"
// rule for candidates that outlive their translation.
type WeakSyllabification struct {
	ref *syllabificationHolder
}

type syllabificationHolder struct {
	value Syllabification
	live  bool
}

// SyllabificationOwner is held by a Translation; it hands out weak handles
// and is invalidated exactly once, when the translation is released.
type SyllabificationOwner struct {
	holder *syllabificationHolder
}

// NewSyllabificationOwner wraps value as the thing weak handles resolve to
// until Release is called.
func NewSyllabificationOwner(value Syllabification) *SyllabificationOwner {
	return &SyllabificationOwner{holder: &syllabificationHolder{value: value, live: true}}
}

// Weak returns a new non-owning handle to the owned syllabification.
func (o *SyllabificationOwner) Weak() WeakSyllabification {
	return WeakSyllabification{ref: o.holder}
}

// Release invalidates every weak handle derived from this owner.
func (o *SyllabificationOwner) Release() {
	o.holder.live = false
}

// Upgrade resolves the weak handle, returning nil once the owning
// translation has been released.
func (w WeakSyllabification) Upgrade() Syllabification {
	if w.ref == nil || !w.ref.live {
		return nil
	}
	return w.ref.value
}
