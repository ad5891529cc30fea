package graph

import (
	"container/heap"
	"sort"
	"strings"

	"github.com/inkwell-ime/imecore/pkg/prism"
	"github.com/inkwell-ime/imecore/pkg/spelling"
)

const expandSearchLimit = 512

// Syllabifier turns raw input into a SyllableGraph against a Prism. The zero
// value has no delimiters and both knobs off; set the fields directly before
// calling BuildSyllableGraph.
type Syllabifier struct {
	Delimiters       string
	StrictSpelling   bool
	EnableCompletion bool
}

// vertex is one entry in the best-first exploration queue: a position and
// the best spelling type known to reach it so far.
type vertex struct {
	pos int
	typ spelling.Type
}

type vertexQueue []vertex

func (q vertexQueue) Len() int { return len(q) }
func (q vertexQueue) Less(i, j int) bool {
	if q[i].pos != q[j].pos {
		return q[i].pos < q[j].pos
	}
	return q[i].typ < q[j].typ
}
func (q vertexQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *vertexQueue) Push(x any)         { *q = append(*q, x.(vertex)) }
func (q *vertexQueue) Pop() any {
	old := *q
	n := len(old)
	v := old[n-1]
	*q = old[:n-1]
	return v
}

// BuildSyllableGraph populates graph from input and returns the farthest
// input position it managed to cover. Empty input returns 0 and leaves graph
// untouched; a misbehaving prism is the prism's problem, not ours.
func (s *Syllabifier) BuildSyllableGraph(input string, p prism.Prism, g *SyllableGraph) int {
	if len(input) == 0 {
		return 0
	}

	farthest := 0
	q := &vertexQueue{{pos: 0, typ: spelling.Normal}}
	heap.Init(q)

	for q.Len() > 0 {
		v := heap.Pop(q).(vertex)
		currentPos := v.pos

		if _, seen := g.Vertices[currentPos]; seen {
			continue
		}
		g.Vertices[currentPos] = v.typ

		if currentPos > farthest {
			farthest = currentPos
		}

		matches := p.CommonPrefixSearch(input[currentPos:])
		if len(matches) == 0 {
			continue
		}
		for _, m := range matches {
			if m.Length == 0 {
				continue
			}
			endPos := currentPos + m.Length
			for endPos < len(input) && strings.IndexByte(s.Delimiters, input[endPos]) >= 0 {
				endPos++
			}
			matchesInput := currentPos == 0 && endPos == len(input)

			spellings := make(spelling.Map)
			edgeType := spelling.Invalid
			accessor := p.QuerySpelling(m.Value)
			for !accessor.Exhausted() {
				sid := accessor.SyllableId()
				props := accessor.Properties()
				if s.StrictSpelling && matchesInput && props.Type != spelling.Normal {
					accessor.Next()
					continue
				}
				props.EndPos = endPos
				spellings[sid] = props
				if props.Type < edgeType {
					edgeType = props.Type
				}
				accessor.Next()
			}
			if len(spellings) == 0 {
				continue
			}
			g.edgeRow(currentPos)[endPos] = spellings

			if edgeType < v.typ {
				edgeType = v.typ
			}
			heap.Push(q, vertex{pos: endPos, typ: edgeType})
		}
	}

	s.prune(g, farthest)

	if s.EnableCompletion && farthest < len(input) {
		farthest = s.extendCompletion(g, p, input, farthest)
	}

	g.InputLength = len(input)
	g.InterpretedLength = farthest

	transpose(g)

	return farthest
}

func (s *Syllabifier) prune(g *SyllableGraph, farthest int) {
	good := map[int]bool{farthest: true}
	lastType := g.Vertices[farthest]
	if lastType < spelling.Fuzzy {
		lastType = spelling.Fuzzy
	}

	for i := farthest - 1; i >= 0; i-- {
		if _, ok := g.Vertices[i]; !ok {
			continue
		}
		row := g.Edges[i]
		for j, spellings := range row {
			if !good[j] {
				delete(row, j)
				continue
			}
			edgeType := spelling.Invalid
			for sid, props := range spellings {
				if props.Type > lastType {
					delete(spellings, sid)
					continue
				}
				if props.Type < edgeType {
					edgeType = props.Type
				}
			}
			if len(spellings) == 0 {
				delete(row, j)
				continue
			}
			if edgeType < spelling.Abbreviation {
				s.checkOverlappedSpellings(g, i, j)
			}
		}
		if g.Vertices[i] > lastType || len(row) == 0 {
			delete(g.Vertices, i)
			delete(g.Edges, i)
			continue
		}
		good[i] = true
	}
}

// checkOverlappedSpellings marks the vertex between two consecutive
// syllables ambiguous when the same span can also be read as one syllable:
// if "Z" = "YX", the joint between Y and X is flagged.
func (s *Syllabifier) checkOverlappedSpellings(g *SyllableGraph, start, end int) {
	yEndVertices, ok := g.Edges[start]
	if !ok {
		return
	}
	joints := make([]int, 0, len(yEndVertices))
	for j := range yEndVertices {
		if j < end {
			joints = append(joints, j)
		}
	}
	sort.Ints(joints)
	for _, joint := range joints {
		xEndVertices, ok := g.Edges[joint]
		if !ok {
			continue
		}
		if _, ok := xEndVertices[end]; ok {
			g.Vertices[joint] = spelling.Ambiguous
		}
	}
}

func (s *Syllabifier) extendCompletion(g *SyllableGraph, p prism.Prism, input string, farthest int) int {
	keys := p.ExpandSearch(input[farthest:], expandSearchLimit)
	if len(keys) == 0 {
		return farthest
	}

	currentPos := farthest
	endPos := len(input)
	codeLength := endPos - currentPos
	endVertices := g.edgeRow(currentPos)
	spellings := endVertices[endPos]
	if spellings == nil {
		spellings = make(spelling.Map)
	}

	for _, m := range keys {
		if m.Length < codeLength {
			continue
		}
		accessor := p.QuerySpelling(m.Value)
		for !accessor.Exhausted() {
			sid := accessor.SyllableId()
			props := accessor.Properties()
			if props.Type < spelling.Abbreviation {
				props.Type = spelling.Completion
				props.Credibility *= 0.5
				props.EndPos = endPos
				spellings[sid] = props
			}
			accessor.Next()
		}
	}

	if len(spellings) == 0 {
		delete(endVertices, endPos)
		return farthest
	}
	endVertices[endPos] = spellings
	return endPos
}

// transpose fills graph.Indices as the reverse index of Edges, with longer
// spellings (larger end positions) inserted first so dictionary lookups that
// walk indices in order prefer the longest code at a tie.
func transpose(g *SyllableGraph) {
	for start, row := range g.Edges {
		ends := make([]int, 0, len(row))
		for end := range row {
			ends = append(ends, end)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(ends)))

		index := make(map[spelling.SyllableId][]*spelling.Properties)
		for _, end := range ends {
			spellings := row[end]
			for sid := range spellings {
				props := spellings[sid]
				index[sid] = append(index[sid], &props)
			}
		}
		g.Indices[start] = index
	}
}
