// Package prism defines the contract the syllabifier and dictionaries use
// to turn input bytes into syllable ids, and ships one reference
// implementation on top of a patricia trie. A production prism is normally a
// double-array trie with a hand-tuned spelling algebra table; this package
// exists so the rest of the core has something concrete to run against.
package prism

import "github.com/inkwell-ime/imecore/pkg/spelling"

// Match is one hit from a prefix or expansion search: Value is an opaque
// handle the same prism hands back to QuerySpelling, Length is how many
// input bytes it consumed.
type Match struct {
	Value  any
	Length int
}

// SpellingAccessor iterates the syllables a matched spelling resolves to.
// One spelling may resolve to several syllables (homophone abbreviations,
// fuzzy matches); callers walk the accessor until Exhausted.
type SpellingAccessor interface {
	Exhausted() bool
	SyllableId() spelling.SyllableId
	Properties() spelling.Properties
	Next()
}

// Prism turns input bytes into syllable candidates.
type Prism interface {
	// CommonPrefixSearch returns every prefix of s that the prism has an
	// entry for, longest match included.
	CommonPrefixSearch(s string) []Match
	// ExpandSearch enumerates up to limit entries whose key starts with s.
	ExpandSearch(s string, limit int) []Match
	// QuerySpelling returns an accessor over the syllables a Match.Value
	// resolves to.
	QuerySpelling(value any) SpellingAccessor
	// InsertSpelling registers one more syllable a spelling resolves to.
	InsertSpelling(text string, id spelling.SyllableId, typ spelling.Type)
}
