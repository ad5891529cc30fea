package prism

import (
	"sort"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/inkwell-ime/imecore/pkg/spelling"
)

// spellingEntry is one syllable a stored spelling resolves to.
type spellingEntry struct {
	id  spelling.SyllableId
	typ spelling.Type
}

// PatriciaPrism is the reference Prism, backed by a patricia trie keyed on
// the raw spelling bytes. Each leaf holds the slice of syllables that
// spelling maps to; callers register fuzzy/abbreviation mappings explicitly
// with InsertSpelling, since this trie has no spelling algebra of its own.
type PatriciaPrism struct {
	trie *patricia.Trie
}

// NewPatriciaPrism returns an empty prism ready for InsertSpelling calls.
func NewPatriciaPrism() *PatriciaPrism {
	return &PatriciaPrism{trie: patricia.NewTrie()}
}

// InsertSpelling registers one more syllable a spelling resolves to. Calling
// it twice for the same spelling with different syllables is how fuzzy or
// abbreviated spellings are modeled: "zh" can carry an Abbreviation entry
// for every syllable starting with "zh".
func (p *PatriciaPrism) InsertSpelling(text string, id spelling.SyllableId, typ spelling.Type) {
	key := patricia.Prefix(text)
	existing := p.trie.Get(key)
	var entries []spellingEntry
	if existing != nil {
		entries = existing.([]spellingEntry)
	}
	entries = append(entries, spellingEntry{id: id, typ: typ})
	if existing != nil {
		p.trie.Delete(key)
	}
	p.trie.Insert(key, entries)
}

// CommonPrefixSearch returns every spelling stored in the trie that is a
// prefix of s, shortest to longest.
func (p *PatriciaPrism) CommonPrefixSearch(s string) []Match {
	var matches []Match
	err := p.trie.VisitPrefixes(patricia.Prefix(s), func(prefix patricia.Prefix, item patricia.Item) error {
		matches = append(matches, Match{Value: item, Length: len(prefix)})
		return nil
	})
	if err != nil {
		return nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Length < matches[j].Length })
	return matches
}

// ExpandSearch enumerates up to limit spellings that start with s, used to
// build completion candidates once the user has typed a recognizable prefix.
func (p *PatriciaPrism) ExpandSearch(s string, limit int) []Match {
	var matches []Match
	err := p.trie.VisitSubtree(patricia.Prefix(s), func(prefix patricia.Prefix, item patricia.Item) error {
		if len(matches) >= limit {
			return patricia.SkipSubtree
		}
		matches = append(matches, Match{Value: item, Length: len(prefix)})
		return nil
	})
	if err != nil {
		return nil
	}
	return matches
}

// QuerySpelling returns an accessor over the syllables stored at value, which
// must be a []spellingEntry as handed back by CommonPrefixSearch/ExpandSearch.
func (p *PatriciaPrism) QuerySpelling(value any) SpellingAccessor {
	entries, _ := value.([]spellingEntry)
	return &patriciaAccessor{entries: entries}
}

type patriciaAccessor struct {
	entries []spellingEntry
	pos     int
}

func (a *patriciaAccessor) Exhausted() bool {
	return a.pos >= len(a.entries)
}

func (a *patriciaAccessor) SyllableId() spelling.SyllableId {
	if a.Exhausted() {
		return -1
	}
	return a.entries[a.pos].id
}

func (a *patriciaAccessor) Properties() spelling.Properties {
	if a.Exhausted() {
		return spelling.Properties{}
	}
	e := a.entries[a.pos]
	return spelling.NewProperties(e.typ, 0)
}

func (a *patriciaAccessor) Next() {
	if !a.Exhausted() {
		a.pos++
	}
}
