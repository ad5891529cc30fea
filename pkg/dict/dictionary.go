package dict

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/inkwell-ime/imecore/pkg/graph"
	"github.com/inkwell-ime/imecore/pkg/metrics"
	"github.com/inkwell-ime/imecore/pkg/prism"
	"github.com/inkwell-ime/imecore/pkg/spelling"
)

const maxPhraseSyllables = 5

// Dictionary is the external collaborator both translators query: the
// script translator through Lookup over a syllable graph, the table
// translator through LookupWords over literal code strings.
type Dictionary interface {
	Loaded() bool
	// Lookup walks the graph from start, scaling every matched entry's
	// weight by credibility, and buckets hits by the graph span (end
	// position minus start) each match consumed.
	Lookup(g *graph.SyllableGraph, start int, credibility float64) (*Collector, bool)
	// LookupWords looks up key directly (prefix expansion when prefix is
	// true), returning the entries of up to limit matching keys (0 =
	// unbounded) starting after resumeKey, plus the resume key to continue
	// from and the count of entries found.
	LookupWords(key string, prefix bool, limit int, resumeKey string) (DictEntryIterator, string, int)
	Decode(code []spelling.SyllableId) []string
	Prism() prism.Prism
}

// MemDictionary is the reference Dictionary: a patricia trie keyed on
// literal code text (spelling concatenation for phonetic entries, raw shape
// code for table entries), guarded by a mutex the way the teacher's
// ChunkLoader guards its own trie.
type MemDictionary struct {
	mu       sync.RWMutex
	trie     *patricia.Trie
	alphabet map[spelling.SyllableId]string
	p        prism.Prism
	loaded   bool
}

// NewMemDictionary returns an empty dictionary bound to p, whose
// CommonPrefixSearch/QuerySpelling results are what Lookup walks.
func NewMemDictionary(p prism.Prism) *MemDictionary {
	return &MemDictionary{
		trie:     patricia.NewTrie(),
		alphabet: make(map[spelling.SyllableId]string),
		p:        p,
	}
}

// AddSyllable records the canonical spelling text for a syllable id, used to
// reconstruct code text during graph-driven Lookup and for Decode.
func (d *MemDictionary) AddSyllable(id spelling.SyllableId, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alphabet[id] = text
}

// AddEntry inserts one entry under codeText, the literal string a
// LookupWords caller would type or a graph traversal would spell out.
func (d *MemDictionary) AddEntry(codeText string, entry DictEntry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := patricia.Prefix(codeText)
	existing := d.trie.Get(key)
	var entries []DictEntry
	if existing != nil {
		entries = existing.([]DictEntry)
		d.trie.Delete(key)
	}
	entries = append(entries, entry)
	d.trie.Insert(key, entries)
	d.loaded = true
}

func (d *MemDictionary) Loaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

func (d *MemDictionary) Prism() prism.Prism { return d.p }

// Alphabet returns a copy of the syllable id -> spelling text map, for
// collaborators (like a UserDict) that need to decode the same ids this
// dictionary does.
func (d *MemDictionary) Alphabet() map[spelling.SyllableId]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[spelling.SyllableId]string, len(d.alphabet))
	for k, v := range d.alphabet {
		out[k] = v
	}
	return out
}

func (d *MemDictionary) Decode(code []spelling.SyllableId) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(code))
	for i, sid := range code {
		out[i] = d.alphabet[sid]
	}
	return out
}

// Lookup walks every path through g starting at start, up to
// maxPhraseSyllables syllables long, spelling out each path's canonical code
// text and checking the trie for an exact match at every step. Matches are
// bucketed by the graph span they consumed (end position minus start), the
// same unit a candidate's End() is computed in.
func (d *MemDictionary) Lookup(g *graph.SyllableGraph, start int, credibility float64) (*Collector, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	collector := NewCollector()
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

				if item := d.trie.Get(patricia.Prefix(nextText)); item != nil {
					entries := item.([]DictEntry)
					scaled := make([]DictEntry, len(entries))
					for i, e := range entries {
						scaled[i] = e
						scaled[i].Weight = e.Weight * nextCred
						scaled[i].Code = nextCode
					}
					existing := collector.Bucket(span)
					if existing != nil {
						scaled = append(existing.(*SliceIterator).Entries(), scaled...)
					}
					collector.Put(span, NewSliceIterator(scaled))
				}
				walk(end, nextText, nextCode, nextCred)
			}
		}
	}
	walk(start, "", nil, credibility)

	hit := !collector.Empty()
	if hit {
		metrics.DictLookupTotal.WithLabelValues("dict", "hit").Inc()
	} else {
		metrics.DictLookupTotal.WithLabelValues("dict", "miss").Inc()
	}
	return collector, hit
}

// LookupWords looks codeword up directly; with prefix true it expands over
// every key that starts with codeword, paging past resumeKey.
func (d *MemDictionary) LookupWords(key string, prefix bool, limit int, resumeKey string) (DictEntryIterator, string, int) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var hits []DictEntry
	var keys []string
	if !prefix {
		if item := d.trie.Get(patricia.Prefix(key)); item != nil {
			hits = append(hits, item.([]DictEntry)...)
			keys = append(keys, key)
			metrics.DictLookupTotal.WithLabelValues("dict", "hit").Inc()
		} else {
			metrics.DictLookupTotal.WithLabelValues("dict", "miss").Inc()
		}
		return NewSliceIterator(hits), key, len(hits)
	}

	type kv struct {
		key     string
		entries []DictEntry
	}
	var all []kv
	_ = d.trie.VisitSubtree(patricia.Prefix(key), func(p patricia.Prefix, item patricia.Item) error {
		all = append(all, kv{key: string(p), entries: item.([]DictEntry)})
		return nil
	})
	sort.Slice(all, func(i, j int) bool { return all[i].key < all[j].key })

	lastKey := resumeKey
	count := 0
	for _, kvp := range all {
		if resumeKey != "" && kvp.key <= resumeKey {
			continue
		}
		if limit > 0 && count >= limit {
			break
		}
		remaining := len(kvp.key) - len(key)
		added := len(hits)
		hits = append(hits, kvp.entries...)
		for i := added; i < len(hits); i++ {
			hits[i].RemainingCodeLength = remaining
		}
		keys = append(keys, kvp.key)
		lastKey = kvp.key
		count++
	}
	return NewSliceIterator(hits), lastKey, len(hits)
}

// LoadAlphabetTSV registers one syllable per non-blank, non-comment line of
// spelling text, assigning sequential ids and inserting each into both the
// dictionary's alphabet and its bound prism as a Normal spelling. Lines are
// expected in ascending frequency/priority order, the way a schema's
// syllable table would be authored.
func (d *MemDictionary) LoadAlphabetTSV(lines []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var next spelling.SyllableId = 1
	for id := range d.alphabet {
		if id >= next {
			next = id + 1
		}
	}

	loaded := 0
	for _, line := range lines {
		text := strings.TrimSpace(line)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		id := next
		next++
		d.alphabet[id] = text
		d.p.InsertSpelling(text, id, spelling.Normal)
		loaded++
	}
	log.Debugf("dict: loaded %d alphabet entries", loaded)
	return nil
}

// LoadTSV populates the dictionary from lines of
// "text\tcode\tweight[\tcustom_code[\tcomment]]", one entry per line, where
// code is whitespace-joined spellings already known to the alphabet. Blank
// lines and lines starting with '#' are skipped.
func (d *MemDictionary) LoadTSV(lines []string) error {
	loaded := 0
	for lineNo, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return fmt.Errorf("dict line %d: expected at least 3 fields, got %d", lineNo+1, len(fields))
		}
		text := fields[0]
		codeText := strings.ReplaceAll(fields[1], " ", "")
		var weight float64
		if _, err := fmt.Sscanf(fields[2], "%g", &weight); err != nil {
			return fmt.Errorf("dict line %d: bad weight %q: %w", lineNo+1, fields[2], err)
		}
		entry := DictEntry{Text: text, Weight: weight}
		if len(fields) > 3 {
			entry.CustomCode = fields[3]
		}
		if len(fields) > 4 {
			entry.Comment = fields[4]
		}
		d.AddEntry(codeText, entry)
		loaded++
	}
	log.Debugf("dict: loaded %d entries", loaded)
	return nil
}
