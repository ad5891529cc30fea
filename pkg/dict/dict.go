// Package dict defines the dictionary entry/iterator/collector contracts
// both translators consume, plus one concrete implementation backed by a
// patricia trie keyed on literal code text.
package dict

import "github.com/inkwell-ime/imecore/pkg/spelling"

// DictEntry is one dictionary hit: a word/phrase, the syllable code that
// produced it, and enough metadata to score and display it.
type DictEntry struct {
	Text                string
	Code                []spelling.SyllableId
	CustomCode          string
	Weight              float64
	RemainingCodeLength int
	Comment             string
}

// DictEntryIterator is an ordered, exhaustible, lazily-advanced view over a
// run of DictEntry values, with an escape hatch for post-hoc filtering.
type DictEntryIterator interface {
	Peek() *DictEntry
	Next() bool
	Skip(n int) int
	AddFilter(f func(*DictEntry) bool)
	EntryCount() int
}

// SliceIterator is the reference DictEntryIterator: a plain slice plus a
// cursor and an optional chain of filters applied lazily as the cursor
// advances, so filtering never forces eager materialization.
type SliceIterator struct {
	entries []DictEntry
	pos     int
	filters []func(*DictEntry) bool
}

// NewSliceIterator wraps entries for iteration, taking ownership of the slice.
func NewSliceIterator(entries []DictEntry) *SliceIterator {
	it := &SliceIterator{entries: entries}
	it.skipFiltered()
	return it
}

func (it *SliceIterator) passes(e *DictEntry) bool {
	for _, f := range it.filters {
		if !f(e) {
			return false
		}
	}
	return true
}

func (it *SliceIterator) skipFiltered() {
	for it.pos < len(it.entries) && !it.passes(&it.entries[it.pos]) {
		it.pos++
	}
}

func (it *SliceIterator) Peek() *DictEntry {
	if it.pos >= len(it.entries) {
		return nil
	}
	return &it.entries[it.pos]
}

func (it *SliceIterator) Next() bool {
	if it.pos >= len(it.entries) {
		return false
	}
	it.pos++
	it.skipFiltered()
	return it.pos < len(it.entries)
}

func (it *SliceIterator) Skip(n int) int {
	skipped := 0
	for skipped < n && it.pos < len(it.entries) {
		it.pos++
		skipped++
	}
	it.skipFiltered()
	return skipped
}

func (it *SliceIterator) AddFilter(f func(*DictEntry) bool) {
	it.filters = append(it.filters, f)
	it.skipFiltered()
}

func (it *SliceIterator) EntryCount() int { return len(it.entries) }

// Entries returns the full backing slice regardless of cursor position,
// letting callers merge one iterator's contents into another bucket.
func (it *SliceIterator) Entries() []DictEntry { return it.entries }

// Collector is an ordered mapping code_length -> DictEntryIterator. Lengths
// returns the lengths longest first, which is how both translators prefer
// more specific matches at a tie.
type Collector struct {
	buckets map[int]DictEntryIterator
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{buckets: make(map[int]DictEntryIterator)}
}

// Put installs it as the bucket for codeLength, replacing any existing one.
func (c *Collector) Put(codeLength int, it DictEntryIterator) {
	c.buckets[codeLength] = it
}

// Bucket returns the iterator for codeLength, or nil.
func (c *Collector) Bucket(codeLength int) DictEntryIterator {
	return c.buckets[codeLength]
}

// Lengths returns the known code lengths, longest first.
func (c *Collector) Lengths() []int {
	lengths := make([]int, 0, len(c.buckets))
	for l := range c.buckets {
		lengths = append(lengths, l)
	}
	for i := 1; i < len(lengths); i++ {
		for j := i; j > 0 && lengths[j-1] < lengths[j]; j-- {
			lengths[j-1], lengths[j] = lengths[j], lengths[j-1]
		}
	}
	return lengths
}

func (c *Collector) Empty() bool { return len(c.buckets) == 0 }
