// Package table implements the shape-code translator: literal-code lookups
// against a dictionary and user dictionary, with lazy limit-expanding
// pagination for completion, optional unity-encoder phrase construction, and
// a sentence mode that shares the poet package's DP with the script
// translator.
package table

import (
	"strings"
	"time"

	"github.com/inkwell-ime/imecore/pkg/candidate"
	"github.com/inkwell-ime/imecore/pkg/dict"
	"github.com/inkwell-ime/imecore/pkg/metrics"
	"github.com/inkwell-ime/imecore/pkg/poet"
	"github.com/inkwell-ime/imecore/pkg/spelling"
	"github.com/inkwell-ime/imecore/pkg/userdict"
)

const (
	initialSearchLimit = 10
	expandingFactor    = 10
)

// Translator holds the per-schema settings and collaborators a Query needs.
type Translator struct {
	Dict                   dict.Dictionary
	UserDict               userdict.UserDictionary
	Encoder                userdict.UnityEncoder
	Poet                   poet.Poet
	Delimiters             string
	EnableUserDict         bool
	EnableCompletion       bool
	EnableCharsetFilter    bool
	EnableSentence         bool
	SentenceOverCompletion bool
	EnableEncoder          bool
	EncodeCommitHistory    bool
	MaxPhraseLength        int
	InitialQuality         float64
	PreeditFormatter       func(string) string
	CommentFormatter       func(string) string
	CharsetFilter          func(*dict.DictEntry) bool
	IsUserDictDisabledFor  func(input string) bool
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

func (t *Translator) userDictEnabled(input string) bool {
	if !t.EnableUserDict || t.UserDict == nil || !t.UserDict.Loaded() {
		return false
	}
	if t.IsUserDictDisabledFor != nil && t.IsUserDictDisabledFor(input) {
		return false
	}
	return true
}

// Memorize commits every element of a commit: constructed (unity-encoded)
// entries have their marker stripped before being written back to the user
// dictionary; multi-element commits are also fed to the encoder so future
// typing of the same shape produces the phrase directly.
func (t *Translator) Memorize(commitText string, elements []dict.DictEntry) error {
	if t.UserDict == nil {
		return nil
	}
	for _, e := range elements {
		if userdict.IsConstructed(e.CustomCode) {
			e.CustomCode = strings.TrimPrefix(e.CustomCode, userdict.UnityPrefix)
		}
		if err := t.UserDict.UpdateEntry(e, 1); err != nil {
			return err
		}
	}
	if t.Encoder != nil && t.EnableEncoder {
		if len(elements) > 1 {
			if err := t.Encoder.EncodePhrase(commitText, "1"); err != nil {
				return err
			}
		}
	}
	metrics.UserDictCommitTotal.WithLabelValues("table").Inc()
	return nil
}

// Query returns a translation over input's shape code, either a lazily
// expanding entry stream or, when a longer sentence exists past what a
// direct code lookup covers, a sentence translation.
func (t *Translator) Query(input string, start int) (candidate.Translation, bool) {
	started := time.Now()
	defer func() {
		metrics.QueryLatencySeconds.WithLabelValues("table").Observe(time.Since(started).Seconds())
	}()
	if t.Dict == nil || !t.Dict.Loaded() {
		return nil, false
	}
	code := strings.TrimRight(input, t.Delimiters)
	enableUserDict := t.userDictEnabled(input)

	tr := &Translation{translator: t, code: code, start: start, enableUserDict: enableUserDict}
	tr.preedit = t.formatPreedit(input)
	tr.fetchUser()
	tr.fetchTable()
	empty := tr.checkEmpty()

	var result candidate.Translation
	switch {
	case empty:
		if t.EnableSentence {
			if sentence := t.MakeSentence(code, start); sentence != nil {
				result = &SentenceTranslation{sentence: sentence, rest: tr}
			}
		}
	case t.SentenceOverCompletion && tr.firstEntryIncomplete():
		if sentence := t.MakeSentence(code, start); sentence != nil {
			result = &SentenceTranslation{sentence: sentence, rest: tr}
		} else {
			result = tr
		}
	default:
		result = tr
	}

	if result == nil {
		return nil, false
	}
	filtered := newUniqueFilter(result)
	if filtered.Exhausted() {
		return nil, false
	}
	return filtered, true
}

// Translation is the lazily-expanding entry stream Query returns for the
// non-sentence path.
type Translation struct {
	translator     *Translator
	code           string
	start          int
	preedit        string
	enableUserDict bool

	tableEntries []dict.DictEntry
	tablePos     int
	tableLimit   int
	tableDone    bool
	tableKey     string

	userEntries []dict.DictEntry
	userPos     int
	userLimit   int
	userDone    bool
	userKey     string

	exhausted bool
	owner     *candidate.SyllabificationOwner
}

func (tr *Translation) fetchTable() {
	if tr.translator.Dict == nil {
		tr.tableDone = true
		return
	}
	limit := 0
	if tr.translator.EnableCompletion {
		limit = initialSearchLimit
	}
	it, lastKey, count := tr.translator.Dict.LookupWords(tr.code, tr.translator.EnableCompletion, limit, "")
	tr.appendTable(it)
	tr.tableKey = lastKey
	if !tr.translator.EnableCompletion || limit == 0 || count < limit {
		tr.tableDone = true
	} else {
		tr.tableLimit = limit * expandingFactor
	}
}

func (tr *Translation) fetchMoreTable() bool {
	if tr.tableDone || tr.tableLimit == 0 {
		return false
	}
	it, lastKey, count := tr.translator.Dict.LookupWords(tr.code, true, tr.tableLimit, tr.tableKey)
	tr.appendTable(it)
	tr.tableKey = lastKey
	if count < tr.tableLimit {
		tr.tableDone = true
	} else {
		tr.tableLimit *= expandingFactor
	}
	return count > 0
}

func (tr *Translation) appendTable(it dict.DictEntryIterator) {
	slice, ok := it.(*dict.SliceIterator)
	if !ok {
		return
	}
	for _, e := range slice.Entries() {
		if tr.translator.EnableCharsetFilter && tr.translator.CharsetFilter != nil && !tr.translator.CharsetFilter(&e) {
			continue
		}
		tr.tableEntries = append(tr.tableEntries, e)
	}
}

func (tr *Translation) fetchUser() {
	if !tr.enableUserDict {
		tr.userDone = true
		return
	}
	it, lastKey, count := tr.translator.UserDict.LookupWords(tr.code, false, 0, "")
	tr.appendUser(it)
	if tr.translator.Encoder != nil && tr.translator.EnableEncoder {
		if eit, n := tr.translator.Encoder.LookupPhrases(tr.code, false, 0); n > 0 {
			tr.appendUser(eit)
			count += n
		}
	}
	tr.userKey = lastKey
	if !tr.translator.EnableCompletion {
		tr.userDone = true
		return
	}
	tr.userLimit = initialSearchLimit
}

func (tr *Translation) fetchMoreUser() bool {
	if !tr.enableUserDict || tr.userDone || tr.userLimit == 0 {
		return false
	}
	it, lastKey, count := tr.translator.UserDict.LookupWords(tr.code, true, tr.userLimit, tr.userKey)
	tr.appendUser(it)
	tr.userKey = lastKey
	if count < tr.userLimit {
		tr.userDone = true
	} else {
		tr.userLimit *= expandingFactor
	}
	return count > 0
}

func (tr *Translation) appendUser(it dict.DictEntryIterator) {
	slice, ok := it.(*dict.SliceIterator)
	if !ok {
		return
	}
	for _, e := range slice.Entries() {
		if tr.translator.EnableCharsetFilter && tr.translator.CharsetFilter != nil && !tr.translator.CharsetFilter(&e) {
			continue
		}
		tr.userEntries = append(tr.userEntries, e)
	}
}

func isConstructed(e *dict.DictEntry) bool {
	return e != nil && userdict.IsConstructed(e.CustomCode)
}

func (tr *Translation) preferUserPhrase() bool {
	if tr.userPos >= len(tr.userEntries) && !tr.fetchMoreUser() {
		return false
	}
	if tr.userPos >= len(tr.userEntries) {
		return false
	}
	if tr.tablePos >= len(tr.tableEntries) && !tr.fetchMoreTable() {
		return true
	}
	if tr.tablePos >= len(tr.tableEntries) {
		return true
	}
	t := &tr.tableEntries[tr.tablePos]
	u := &tr.userEntries[tr.userPos]
	if t.RemainingCodeLength == 0 && (u.RemainingCodeLength != 0 || isConstructed(u)) {
		return false
	}
	return true
}

// firstEntryIncomplete reports whether the entry Peek would currently
// produce has residual code, i.e. the primary lookup's best candidate is a
// completion of code rather than an exact hit.
func (tr *Translation) firstEntryIncomplete() bool {
	if tr.exhausted {
		return false
	}
	if tr.preferUserPhrase() {
		return tr.userEntries[tr.userPos].RemainingCodeLength != 0
	}
	return tr.tableEntries[tr.tablePos].RemainingCodeLength != 0
}

func (tr *Translation) checkEmpty() bool {
	if tr.tablePos >= len(tr.tableEntries) {
		tr.fetchMoreTable()
	}
	if tr.userPos >= len(tr.userEntries) {
		tr.fetchMoreUser()
	}
	tr.exhausted = tr.tablePos >= len(tr.tableEntries) && tr.userPos >= len(tr.userEntries)
	return tr.exhausted
}

func (tr *Translation) Exhausted() bool { return tr.exhausted }

func (tr *Translation) Next() bool {
	if tr.exhausted {
		return false
	}
	if tr.preferUserPhrase() {
		tr.userPos++
		if tr.userPos >= len(tr.userEntries) {
			tr.fetchMoreUser()
		}
	} else {
		tr.tablePos++
		if tr.tablePos >= len(tr.tableEntries) {
			tr.fetchMoreTable()
		}
	}
	return !tr.checkEmpty()
}

func (tr *Translation) Peek() candidate.Candidate {
	if tr.exhausted {
		return nil
	}
	isUser := tr.preferUserPhrase()
	var e dict.DictEntry
	if isUser {
		e = tr.userEntries[tr.userPos]
	} else {
		e = tr.tableEntries[tr.tablePos]
	}
	comment := e.Comment
	if isConstructed(&e) {
		comment = userdict.UnitySymbol
	}
	comment = tr.translator.formatComment(comment)

	incomplete := e.RemainingCodeLength != 0
	quality := e.Weight + tr.translator.InitialQuality
	if incomplete {
		quality -= 1
	}
	if isUser {
		quality += 0.5
	}

	if tr.owner == nil {
		tr.owner = candidate.NewSyllabificationOwner(noopSyllabification{})
	}

	return &candidate.Phrase{
		StartPos:    tr.start,
		EndPos:      tr.start + len(tr.code),
		TextValue:   e.Text,
		PreeditText: tr.preedit,
		CommentText: comment,
		QualityVal:  quality,
		CodeVal:     e.Code,
		SyllRef:     tr.owner.Weak(),
	}
}

// noopSyllabification satisfies candidate.Syllabification for a table
// translation, which has no syllable graph: any caret movement is a no-op.
type noopSyllabification struct{}

func (noopSyllabification) PreviousStop(caret int) int { return caret }
func (noopSyllabification) NextStop(caret int) int     { return caret }

// SentenceTranslation wraps a shape-code sentence built by MakeSentence: it
// emits the sentence first, then falls through to whatever the primary
// dict/user lookup already found, in rest's own preferUserPhrase order: a
// user entry comes first unless the table entry is an exact hit and the user
// entry is a completion or a constructed phrase. The entries after the
// sentence are not reordered by code length.
type SentenceTranslation struct {
	sentence *candidate.Sentence
	rest     *Translation
}

func (st *SentenceTranslation) Exhausted() bool {
	return st.sentence == nil && (st.rest == nil || st.rest.Exhausted())
}

func (st *SentenceTranslation) Next() bool {
	if st.sentence != nil {
		st.sentence = nil
		return !st.Exhausted()
	}
	if st.rest == nil {
		return false
	}
	return st.rest.Next()
}

func (st *SentenceTranslation) Peek() candidate.Candidate {
	if st.sentence != nil {
		return st.sentence
	}
	if st.rest == nil {
		return nil
	}
	return st.rest.Peek()
}

// uniqueFilter wraps a Translation and skips candidates whose text has
// already been emitted, so a sentence and the lookup it concatenates with
// don't surface the same phrase twice.
type uniqueFilter struct {
	inner candidate.Translation
	seen  map[string]bool
}

func newUniqueFilter(inner candidate.Translation) *uniqueFilter {
	return &uniqueFilter{inner: inner, seen: map[string]bool{}}
}

func (f *uniqueFilter) skipSeen() {
	for !f.inner.Exhausted() {
		c := f.inner.Peek()
		if c == nil || !f.seen[c.Text()] {
			return
		}
		if !f.inner.Next() {
			return
		}
	}
}

func (f *uniqueFilter) Exhausted() bool {
	f.skipSeen()
	return f.inner.Exhausted()
}

func (f *uniqueFilter) Peek() candidate.Candidate {
	f.skipSeen()
	if f.inner.Exhausted() {
		return nil
	}
	return f.inner.Peek()
}

func (f *uniqueFilter) Next() bool {
	f.skipSeen()
	if f.inner.Exhausted() {
		return false
	}
	if c := f.inner.Peek(); c != nil {
		f.seen[c.Text()] = true
	}
	ok := f.inner.Next()
	f.skipSeen()
	return ok
}

// MakeSentence builds a shape-code sentence by dynamic programming over
// every substring of code, each position's best dict/user entry winning a
// spot in the poet.WordGraph exactly like a single-length Collector bucket.
func (t *Translator) MakeSentence(code string, start int) *candidate.Sentence {
	if len(code) == 0 {
		return nil
	}
	wg := poet.WordGraph{}
	for pos := 0; pos < len(code); pos++ {
		dest := map[int][]poet.Entry{}
		remaining := code[pos:]
		for span := 1; span <= len(remaining); span++ {
			key := remaining[:span]
			var best *dict.DictEntry
			var fromUser bool
			if t.EnableUserDict && t.UserDict != nil && t.UserDict.Loaded() {
				if it, _, count := t.UserDict.LookupWords(key, false, 0, ""); count > 0 {
					best = it.Peek()
					fromUser = true
				}
			}
			if best == nil && t.Dict != nil && t.Dict.Loaded() {
				if it, _, count := t.Dict.LookupWords(key, false, 0, ""); count > 0 {
					best = it.Peek()
				}
			}
			if best == nil {
				continue
			}
			weight := best.Weight
			if fromUser {
				weight += 0.5
			}
			dest[span] = []poet.Entry{{Text: best.Text, Weight: weight, Length: span, Code: intCode(best.Code)}}
		}
		wg[pos] = dest
	}

	result, ok := t.Poet.MakeSentence(wg, len(code))
	if !ok {
		return nil
	}
	sentence := &candidate.Sentence{}
	for _, pick := range result.Picks {
		codeIDs := make([]spelling.SyllableId, len(pick.Code))
		for i, c := range pick.Code {
			codeIDs[i] = spelling.SyllableId(c)
		}
		sentence.Extend(pick.Text, codeIDs, pick.Weight, sentence.EndPos+pick.Length)
	}
	sentence.Offset(start)
	sentence.PreeditText = t.formatPreedit(delimitByLength(code, t.Delimiters, sentence.SyllableLengths))
	return sentence
}

func intCode(code []spelling.SyllableId) []int {
	out := make([]int, len(code))
	for i, c := range code {
		out[i] = int(c)
	}
	return out
}

// delimitByLength reinserts one delimiter byte at each syllable boundary of
// code that doesn't already end on one, mirroring the space insertion a
// sentence's preedit gets in the original.
func delimitByLength(code, delimiters string, lengths []int) string {
	if len(delimiters) == 0 {
		return code
	}
	sep := delimiters[0]
	var b strings.Builder
	pos := 0
	for i, length := range lengths {
		if i > 0 && pos > 0 && code[pos-1] != sep {
			b.WriteByte(sep)
		}
		end := pos + length
		if end > len(code) {
			end = len(code)
		}
		b.WriteString(code[pos:end])
		pos = end
	}
	return b.String()
}
