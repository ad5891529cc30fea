// Package poet stands in for the n-gram language model a sentence builder
// consults: a weight-maximizing dynamic program over a WordGraph, with none
// of the smoothing or training a real language model would carry.
package poet

import "github.com/inkwell-ime/imecore/pkg/dict"

// Entry is one candidate word spanning from its WordGraph bucket's start
// position (implicit in the graph) to start+Length.
type Entry struct {
	Text   string
	Weight float64
	Length int
	Code   []int
}

// WordGraph maps a start position to the word candidates beginning there,
// grouped by how many positions they span, longest spans first within a
// caller's own iteration — the DP below doesn't care about bucket order.
type WordGraph map[int]map[int][]Entry

// Sentence is what MakeSentence returns: a chain of Entry picks plus their
// summed weight, long enough to let a caller rebuild text and syllable
// spans.
type Sentence struct {
	Picks  []Entry
	Weight float64
}

// Poet is the external collaborator consumed only through MakeSentence.
type Poet interface {
	MakeSentence(g WordGraph, length int) (*Sentence, bool)
}

// WeightMaxPoet keeps, for every position, the highest-total-weight chain of
// entries reaching it, and returns the chain that reaches length. A tie in
// total weight goes to the chain examined later: the one whose last entry
// starts at a later position, or, from the same start, the entry visited
// later (spans from one start are visited in map order, which is not
// defined). Fewer or longer entries get no preference.
type WeightMaxPoet struct{}

// MakeSentence runs the DP described above. It returns false if no entry
// chain reaches exactly length.
func (WeightMaxPoet) MakeSentence(g WordGraph, length int) (*Sentence, bool) {
	type state struct {
		weight float64
		prev   int
		entry  Entry
		ok     bool
	}
	best := make([]state, length+1)
	best[0].ok = true

	for pos := 0; pos <= length; pos++ {
		if !best[pos].ok {
			continue
		}
		buckets, ok := g[pos]
		if !ok {
			continue
		}
		for span, entries := range buckets {
			end := pos + span
			if end > length {
				continue
			}
			for _, e := range entries {
				weight := best[pos].weight + e.Weight
				if !best[end].ok || weight >= best[end].weight {
					best[end] = state{weight: weight, prev: pos, entry: e, ok: true}
				}
			}
		}
	}

	if !best[length].ok {
		return nil, false
	}

	var picks []Entry
	pos := length
	for pos > 0 {
		s := best[pos]
		picks = append([]Entry{s.entry}, picks...)
		pos = s.prev
	}
	return &Sentence{Picks: picks, Weight: best[length].weight}, true
}

// FromDictEntry adapts a dict.DictEntry into a poet Entry spanning span
// graph positions, for callers building a WordGraph from dictionary hits.
func FromDictEntry(e dict.DictEntry, span int) Entry {
	code := make([]int, len(e.Code))
	for i, sid := range e.Code {
		code[i] = int(sid)
	}
	return Entry{Text: e.Text, Weight: e.Weight, Length: span, Code: code}
}
