package userdict

import (
	"strings"

	"github.com/inkwell-ime/imecore/pkg/dict"
	"github.com/inkwell-ime/imecore/pkg/graph"
	"github.com/inkwell-ime/imecore/pkg/metrics"
	"github.com/inkwell-ime/imecore/pkg/prism"
	"github.com/inkwell-ime/imecore/pkg/spelling"
)

// keySep separates a user-dict entry's code text from its word text within
// a single store key, since one code can commit several different words.
const keySep = "\x1f"

const maxPhraseSyllables = 5

// UserDictionary is the external collaborator both translators query for
// user-committed phrases: the Dictionary shape, plus UpdateEntry for
// commit-time feedback and a resume-key form of LookupWords for paging.
type UserDictionary interface {
	Loaded() bool
	Lookup(g *graph.SyllableGraph, start int, credibility float64) (*dict.Collector, bool)
	LookupWords(key string, prefix bool, limit int, resumeKey string) (dict.DictEntryIterator, string, int)
	Decode(code []spelling.SyllableId) []string
	Prism() prism.Prism
	UpdateEntry(entry dict.DictEntry, commitDelta int) error
}

// UserDict is the reference UserDictionary, backed by a Store and the same
// syllable alphabet a MemDictionary uses to turn graph paths into code text.
type UserDict struct {
	store    Store
	p        prism.Prism
	alphabet map[spelling.SyllableId]string
}

// NewUserDict wraps store for lookups against p's spellings.
func NewUserDict(store Store, p prism.Prism, alphabet map[spelling.SyllableId]string) *UserDict {
	return &UserDict{store: store, p: p, alphabet: alphabet}
}

func (d *UserDict) Loaded() bool          { return true }
func (d *UserDict) Prism() prism.Prism    { return d.p }

func (d *UserDict) Decode(code []spelling.SyllableId) []string {
	out := make([]string, len(code))
	for i, sid := range code {
		out[i] = d.alphabet[sid]
	}
	return out
}

func splitKey(key string) (codeText, text string, ok bool) {
	codeText, text, ok = strings.Cut(key, keySep)
	return
}

func entryFromRecord(codeText, text, record string) dict.DictEntry {
	v := Unpack(record)
	return dict.DictEntry{
		Text:   text,
		Weight: v.Dee,
	}
}

// Lookup walks graph paths from start exactly like a MemDictionary, but
// checks the store for any committed word under each accumulated code text
// via a prefix scan on codeText+keySep. Matches are bucketed by graph span
// (end position minus start), matching MemDictionary.Lookup's convention.
func (d *UserDict) Lookup(g *graph.SyllableGraph, start int, credibility float64) (*dict.Collector, bool) {
	collector := dict.NewCollector()

	var walk func(pos int, codeText string, code []spelling.SyllableId, cred float64)
	walk = func(pos int, codeText string, code []spelling.SyllableId, cred float64) {
		if len(code) >= maxPhraseSyllables {
			return
		}
		row, ok := g.Edges[pos]
		if !ok {
			return
		}
		for end, spellings := range row {
			for sid, props := range spellings {
				text := d.alphabet[sid]
				if text == "" {
					continue
				}
				nextCode := append(append([]spelling.SyllableId{}, code...), sid)
				nextText := codeText + text
				nextCred := cred * props.Credibility
				span := end - start

				var hits []dict.DictEntry
				_ = d.store.PrefixIterate(nextText+keySep, "", func(key, value string) bool {
					_, word, ok := splitKey(key)
					if !ok {
						return true
					}
					e := entryFromRecord(nextText, word, value)
					e.Weight *= nextCred
					e.Code = nextCode
					hits = append(hits, e)
					return true
				})
				if len(hits) > 0 {
					existing := collector.Bucket(span)
					if existing != nil {
						hits = append(existing.(*dict.SliceIterator).Entries(), hits...)
					}
					collector.Put(span, dict.NewSliceIterator(hits))
				}
				walk(end, nextText, nextCode, nextCred)
			}
		}
	}
	walk(start, "", nil, credibility)

	hit := !collector.Empty()
	if hit {
		metrics.DictLookupTotal.WithLabelValues("user", "hit").Inc()
	} else {
		metrics.DictLookupTotal.WithLabelValues("user", "miss").Inc()
	}
	return collector, hit
}

// LookupWords looks up key directly, or (prefix=true) expands over every
// committed word whose code starts with key, resuming past resumeKey.
func (d *UserDict) LookupWords(key string, prefix bool, limit int, resumeKey string) (dict.DictEntryIterator, string, int) {
	var hits []dict.DictEntry
	lastKey := resumeKey
	count := 0

	scanPrefix := key
	if !prefix {
		scanPrefix = key + keySep
	}
	_ = d.store.PrefixIterate(scanPrefix, resumeKey, func(k, value string) bool {
		if limit > 0 && count >= limit {
			return false
		}
		codeText, word, ok := splitKey(k)
		if !ok {
			return true
		}
		hits = append(hits, entryFromRecord(codeText, word, value))
		lastKey = k
		count++
		return true
	})
	return dict.NewSliceIterator(hits), lastKey, len(hits)
}

// UpdateEntry records a commit against entry, keyed by its code text and
// word: commits accumulate by commitDelta, dee bumps by one per positive
// commit, and tick advances the logical clock by one.
func (d *UserDict) UpdateEntry(entry dict.DictEntry, commitDelta int) error {
	codeText := strings.Join(d.Decode(entry.Code), "")
	key := codeText + keySep + entry.Text

	v := Value{}
	existing, ok := d.store.Get(key)
	if ok {
		v = Unpack(existing)
	}
	v.Commits += commitDelta
	if commitDelta > 0 {
		v.Dee++
	}
	v.Tick++
	if err := d.store.Put(key, v.Pack()); err != nil {
		return err
	}
	if !ok {
		metrics.UserDictEntries.WithLabelValues("user").Inc()
	}
	return nil
}
