// Package graph builds the syllable graph a raw input string admits: the DAG
// of every way the input can be cut into syllables, fuzzy matches and
// completions included.
package graph

import "github.com/inkwell-ime/imecore/pkg/spelling"

// SyllableGraph is the output of BuildSyllableGraph. Vertices are input
// positions annotated with the best spelling type reaching them; edges carry
// the spelling map for each (start, end) span; indices is the transpose of
// edges, grouping spellings by syllable id for dictionary traversal.
type SyllableGraph struct {
	InputLength       int
	InterpretedLength int
	Vertices          map[int]spelling.Type
	Edges             map[int]map[int]spelling.Map
	Indices           map[int]map[spelling.SyllableId][]*spelling.Properties
}

// NewSyllableGraph returns an empty graph ready for BuildSyllableGraph.
func NewSyllableGraph() *SyllableGraph {
	return &SyllableGraph{
		Vertices: make(map[int]spelling.Type),
		Edges:    make(map[int]map[int]spelling.Map),
		Indices:  make(map[int]map[spelling.SyllableId][]*spelling.Properties),
	}
}

func (g *SyllableGraph) edgeRow(start int) map[int]spelling.Map {
	row, ok := g.Edges[start]
	if !ok {
		row = make(map[int]spelling.Map)
		g.Edges[start] = row
	}
	return row
}
