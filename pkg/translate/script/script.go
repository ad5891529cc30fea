// Package script implements the phonetic-code translator: syllabify the
// input, fuse dictionary and user-dictionary phrase lookups with an
// optional sentence built over the syllable graph, and stream the result as
// a lazy candidate.Translation.
package script

import (
	"strings"
	"time"

	"github.com/inkwell-ime/imecore/pkg/candidate"
	"github.com/inkwell-ime/imecore/pkg/dict"
	"github.com/inkwell-ime/imecore/pkg/graph"
	"github.com/inkwell-ime/imecore/pkg/metrics"
	"github.com/inkwell-ime/imecore/pkg/poet"
	"github.com/inkwell-ime/imecore/pkg/spelling"
	"github.com/inkwell-ime/imecore/pkg/userdict"
)

const penaltyForAmbiguousSyllable = 1e-10

// Translator holds the per-schema settings and collaborators a Query needs.
type Translator struct {
	Dict             dict.Dictionary
	UserDict         userdict.UserDictionary
	Poet             poet.Poet
	Delimiters       string
	StrictSpelling   bool
	EnableCompletion bool
	EnableUserDict   bool
	InitialQuality   float64
	SpellingHints    int
	PreeditFormatter func(string) string
	CommentFormatter func(string) string
}

func (t *Translator) formatPreedit(s string) string {
	if t.PreeditFormatter != nil {
		return t.PreeditFormatter(s)
	}
	return s
}

func (t *Translator) formatComment(s string) string {
	if t.CommentFormatter != nil {
		return t.CommentFormatter(s)
	}
	return s
}

func (t *Translator) delimiter() byte {
	if len(t.Delimiters) == 0 {
		return 0
	}
	return t.Delimiters[0]
}

// Spell renders code as its original spelling text, delimiter-joined and
// run through the comment formatter; used for the "original spelling" hint.
func (t *Translator) Spell(code []spelling.SyllableId) string {
	syllables := t.Dict.Decode(code)
	if len(syllables) == 0 {
		return ""
	}
	sep := ""
	if len(t.Delimiters) > 0 {
		sep = string(t.Delimiters[0])
	}
	return t.formatComment(strings.Join(syllables, sep))
}

// Memorize records a commit: elements only touch their tick (delta 0) when
// the commit spans more than one dict entry and at least one of them spans
// more than one syllable; the aggregate commit always bumps by one.
func (t *Translator) Memorize(commit dict.DictEntry, elements []dict.DictEntry) error {
	if t.UserDict == nil {
		return nil
	}
	updateElements := false
	if len(elements) > 1 {
		for _, e := range elements {
			if len(e.Code) > 1 {
				updateElements = true
				break
			}
		}
	}
	if updateElements {
		for _, e := range elements {
			if err := t.UserDict.UpdateEntry(e, 0); err != nil {
				return err
			}
		}
	}
	if err := t.UserDict.UpdateEntry(commit, 1); err != nil {
		return err
	}
	metrics.UserDictCommitTotal.WithLabelValues("script").Inc()
	return nil
}

// Query builds a syllable graph for input and evaluates dictionary/user-dict
// lookups against it, returning nil when neither side has anything or the
// dictionary isn't loaded.
func (t *Translator) Query(input string, start int) (candidate.Translation, bool) {
	started := time.Now()
	defer func() {
		metrics.QueryLatencySeconds.WithLabelValues("script").Observe(time.Since(started).Seconds())
	}()
	if t.Dict == nil || !t.Dict.Loaded() {
		return nil, false
	}
	tr := &Translation{translator: t, input: input, start: start}
	if !tr.evaluate() {
		return nil, false
	}
	return tr, true
}

// Translation is the lazy iterator Query returns; it also implements
// candidate.Syllabification for caret navigation over its own graph.
type Translation struct {
	translator *Translator
	input      string
	start      int

	g          *graph.SyllableGraph
	phrase     *dict.Collector
	userPhrase *dict.Collector

	phraseLengths []int
	userLengths   []int
	phraseIdx     int
	userIdx       int

	sentence  *candidate.Sentence
	owner     *candidate.SyllabificationOwner
	exhausted bool
}

func (tr *Translation) evaluate() bool {
	s := &graph.Syllabifier{
		Delimiters:       tr.translator.Delimiters,
		StrictSpelling:   tr.translator.StrictSpelling,
		EnableCompletion: tr.translator.EnableCompletion,
	}
	tr.g = graph.NewSyllableGraph()
	consumed := s.BuildSyllableGraph(tr.input, tr.translator.Dict.Prism(), tr.g)

	tr.phrase, _ = tr.translator.Dict.Lookup(tr.g, 0, 1.0)
	if tr.translator.EnableUserDict && tr.translator.UserDict != nil && tr.translator.UserDict.Loaded() {
		tr.userPhrase, _ = tr.translator.UserDict.Lookup(tr.g, 0, 1.0)
	}

	phraseEmpty := tr.phrase == nil || tr.phrase.Empty()
	userEmpty := tr.userPhrase == nil || tr.userPhrase.Empty()
	if phraseEmpty && userEmpty {
		return false
	}

	translatedLen := 0
	if !phraseEmpty {
		tr.phraseLengths = tr.phrase.Lengths()
		if tr.phraseLengths[0] > translatedLen {
			translatedLen = tr.phraseLengths[0]
		}
	}
	if !userEmpty {
		tr.userLengths = tr.userPhrase.Lengths()
		if tr.userLengths[0] > translatedLen {
			translatedLen = tr.userLengths[0]
		}
	}

	if translatedLen < consumed && len(tr.g.Edges) > 1 {
		tr.sentence = tr.makeSentence()
	}

	tr.owner = candidate.NewSyllabificationOwner(tr)
	return !tr.checkEmpty()
}

func (tr *Translation) currentPhrase() (int, dict.DictEntryIterator) {
	for tr.phraseIdx < len(tr.phraseLengths) {
		length := tr.phraseLengths[tr.phraseIdx]
		it := tr.phrase.Bucket(length)
		if it != nil && it.Peek() != nil {
			return length, it
		}
		tr.phraseIdx++
	}
	return 0, nil
}

func (tr *Translation) currentUser() (int, dict.DictEntryIterator) {
	for tr.userIdx < len(tr.userLengths) {
		length := tr.userLengths[tr.userIdx]
		it := tr.userPhrase.Bucket(length)
		if it != nil && it.Peek() != nil {
			return length, it
		}
		tr.userIdx++
	}
	return 0, nil
}

func (tr *Translation) checkEmpty() bool {
	_, pit := tr.currentPhrase()
	_, uit := tr.currentUser()
	tr.exhausted = tr.sentence == nil && pit == nil && uit == nil
	return tr.exhausted
}

func (tr *Translation) isNormalSpelling() bool {
	maxPos := -1
	for p := range tr.g.Vertices {
		if p > maxPos {
			maxPos = p
		}
	}
	return maxPos >= 0 && tr.g.Vertices[maxPos] == spelling.Normal
}

func isNormalBonus(normal bool, ifNormal, ifNot float64) float64 {
	if normal {
		return ifNormal
	}
	return ifNot
}

func (tr *Translation) Exhausted() bool { return tr.exhausted }

func (tr *Translation) Next() bool {
	if tr.exhausted {
		return false
	}
	if tr.sentence != nil {
		tr.sentence = nil
		return !tr.checkEmpty()
	}
	uLen, uit := tr.currentUser()
	pLen, pit := tr.currentPhrase()
	if uLen > 0 && uLen >= pLen {
		if !uit.Next() {
			tr.userIdx++
		}
	} else if pLen > 0 {
		if !pit.Next() {
			tr.phraseIdx++
		}
	}
	return !tr.checkEmpty()
}

func (tr *Translation) Peek() candidate.Candidate {
	if tr.exhausted {
		return nil
	}
	if tr.sentence != nil {
		if tr.sentence.PreeditText == "" {
			if s, ok := delimitSyllables(tr.input, tr.translator.delimiter(), tr.g,
				tr.sentence.CodeVal, tr.sentence.StartPos-tr.start, tr.sentence.EndPos-tr.start); ok {
				tr.sentence.PreeditText = tr.translator.formatPreedit(s)
			}
		}
		if tr.sentence.CommentText == "" {
			if sp := tr.translator.Spell(tr.sentence.CodeVal); sp != "" && sp != tr.sentence.PreeditText {
				tr.sentence.CommentText = sp
			}
		}
		tr.sentence.SyllRef = tr.owner.Weak()
		return tr.sentence
	}

	uLen, uit := tr.currentUser()
	pLen, pit := tr.currentPhrase()

	var cand *candidate.Phrase
	normal := tr.isNormalSpelling()
	switch {
	case uLen > 0 && uLen >= pLen:
		e := uit.Peek()
		cand = &candidate.Phrase{
			StartPos:   tr.start,
			EndPos:     tr.start + uLen,
			TextValue:  e.Text,
			CodeVal:    e.Code,
			QualityVal: e.Weight + tr.translator.InitialQuality + isNormalBonus(normal, 0.5, -0.5),
		}
	case pLen > 0:
		e := pit.Peek()
		cand = &candidate.Phrase{
			StartPos:   tr.start,
			EndPos:     tr.start + pLen,
			TextValue:  e.Text,
			CodeVal:    e.Code,
			QualityVal: e.Weight + tr.translator.InitialQuality + isNormalBonus(normal, 0, -1),
		}
	default:
		return nil
	}

	if s, ok := delimitSyllables(tr.input, tr.translator.delimiter(), tr.g,
		cand.CodeVal, cand.StartPos-tr.start, cand.EndPos-tr.start); ok {
		cand.PreeditText = tr.translator.formatPreedit(s)
	}
	if len(cand.CodeVal) <= tr.translator.SpellingHints {
		if sp := tr.translator.Spell(cand.CodeVal); sp != "" && sp != cand.PreeditText {
			cand.CommentText = sp
		}
	}
	cand.SyllRef = tr.owner.Weak()
	return cand
}

// PreviousStop and NextStop implement candidate.Syllabification: a linear
// scan of the graph's vertices for the nearest one strictly before/after
// caret, translated back into the full input's coordinates.
func (tr *Translation) PreviousStop(caret int) int {
	offset := caret - tr.start
	best := -1
	for p := range tr.g.Vertices {
		if p < offset && p > best {
			best = p
		}
	}
	if best < 0 {
		return caret
	}
	return best + tr.start
}

func (tr *Translation) NextStop(caret int) int {
	offset := caret - tr.start
	best := -1
	for p := range tr.g.Vertices {
		if p > offset && (best < 0 || p < best) {
			best = p
		}
	}
	if best < 0 {
		return caret
	}
	return best + tr.start
}

func (tr *Translation) makeSentence() *candidate.Sentence {
	wg := poet.WordGraph{}
	for start := range tr.g.Edges {
		credibility := 1.0
		if tr.g.Vertices[start] >= spelling.Ambiguous {
			credibility = penaltyForAmbiguousSyllable
		}
		dest := map[int][]poet.Entry{}

		if tr.translator.EnableUserDict && tr.translator.UserDict != nil {
			if coll, ok := tr.translator.UserDict.Lookup(tr.g, start, credibility); ok {
				for _, length := range coll.Lengths() {
					dest[length] = collectorEntries(coll.Bucket(length), length)
				}
			}
		}
		if coll, ok := tr.translator.Dict.Lookup(tr.g, start, credibility); ok {
			for _, length := range coll.Lengths() {
				if _, exists := dest[length]; exists {
					continue
				}
				it := coll.Bucket(length)
				if e := it.Peek(); e != nil {
					dest[length] = []poet.Entry{poet.FromDictEntry(*e, length)}
				}
			}
		}
		wg[start] = dest
	}

	result, ok := tr.translator.Poet.MakeSentence(wg, tr.g.InterpretedLength)
	if !ok {
		return nil
	}
	sentence := &candidate.Sentence{}
	for _, pick := range result.Picks {
		code := make([]spelling.SyllableId, len(pick.Code))
		for i, c := range pick.Code {
			code[i] = spelling.SyllableId(c)
		}
		sentence.Extend(pick.Text, code, pick.Weight, sentence.EndPos+pick.Length)
	}
	sentence.Offset(tr.start)
	return sentence
}

func collectorEntries(it dict.DictEntryIterator, length int) []poet.Entry {
	var entries []poet.Entry
	for e := it.Peek(); e != nil; {
		entries = append(entries, poet.FromDictEntry(*e, length))
		if !it.Next() {
			break
		}
		e = it.Peek()
	}
	return entries
}

// delimitSyllables performs the preferred-longer-edge DFS described for
// preedit construction: it tries to spell code along some path in g from
// startPos to endPos, using input's own bytes for each segment.
func delimitSyllables(input string, delim byte, g *graph.SyllableGraph, code []spelling.SyllableId, startPos, endPos int) (string, bool) {
	var dfs func(pos, depth int) (string, bool)
	dfs = func(pos, depth int) (string, bool) {
		if depth == len(code) {
			if pos == endPos {
				return "", true
			}
			return "", false
		}
		row, ok := g.Edges[pos]
		if !ok {
			return "", false
		}
		ends := make([]int, 0, len(row))
		for end := range row {
			ends = append(ends, end)
		}
		sortDesc(ends)
		for _, end := range ends {
			if end > endPos {
				continue
			}
			if _, present := row[end][code[depth]]; !present {
				continue
			}
			rest, ok := dfs(end, depth+1)
			if !ok {
				continue
			}
			segment := input[pos:end]
			prefix := ""
			if depth > 0 && pos > 0 && delim != 0 && input[pos-1] != delim {
				prefix = string(delim)
			}
			return prefix + segment + rest, true
		}
		return "", false
	}
	return dfs(startPos, 0)
}

func sortDesc(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] < xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
