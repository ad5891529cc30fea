package graph

import (
	"testing"

	"github.com/inkwell-ime/imecore/pkg/prism"
	"github.com/inkwell-ime/imecore/pkg/spelling"
)

func TestBuildSyllableGraphDelimited(t *testing.T) {
	p := prism.NewPatriciaPrism()
	p.InsertSpelling("ni", 1, spelling.Normal)
	p.InsertSpelling("hao", 2, spelling.Normal)

	s := &Syllabifier{Delimiters: "'"}
	g := NewSyllableGraph()

	farthest := s.BuildSyllableGraph("ni'hao", p, g)

	if farthest != 6 {
		t.Fatalf("farthest = %d, want 6", farthest)
	}
	if g.InterpretedLength != 6 {
		t.Fatalf("interpreted length = %d, want 6", g.InterpretedLength)
	}
	wantVertices := map[int]spelling.Type{0: spelling.Normal, 3: spelling.Normal, 6: spelling.Normal}
	for pos, typ := range wantVertices {
		got, ok := g.Vertices[pos]
		if !ok || got != typ {
			t.Errorf("vertex[%d] = (%v,%v), want (%v,true)", pos, got, ok, typ)
		}
	}
	if _, ok := g.Edges[0][3]; !ok {
		t.Errorf("missing edge 0->3")
	}
	if _, ok := g.Edges[3][6]; !ok {
		t.Errorf("missing edge 3->6")
	}
}

func TestBuildSyllableGraphAbbreviationStrict(t *testing.T) {
	p := prism.NewPatriciaPrism()
	p.InsertSpelling("n", 1, spelling.Abbreviation)

	s := &Syllabifier{StrictSpelling: true}
	g := NewSyllableGraph()
	s.BuildSyllableGraph("n", p, g)

	if _, ok := g.Edges[0]; ok {
		t.Errorf("strict_spelling should have discarded the sole abbreviation match on full input, got edges %v", g.Edges[0])
	}
}

func TestBuildSyllableGraphAbbreviationNonStrict(t *testing.T) {
	p := prism.NewPatriciaPrism()
	p.InsertSpelling("n", 1, spelling.Abbreviation)

	s := &Syllabifier{StrictSpelling: false}
	g := NewSyllableGraph()
	s.BuildSyllableGraph("n", p, g)

	spellings, ok := g.Edges[0][1]
	if !ok {
		t.Fatalf("expected edge 0->1 to survive when strict_spelling is off")
	}
	if _, ok := spellings[1]; !ok {
		t.Errorf("expected syllable 1 on edge 0->1")
	}
}

func TestBuildSyllableGraphAmbiguousJoint(t *testing.T) {
	p := prism.NewPatriciaPrism()
	p.InsertSpelling("xian", 1, spelling.Normal)
	p.InsertSpelling("xi", 2, spelling.Normal)
	p.InsertSpelling("an", 3, spelling.Normal)

	s := &Syllabifier{}
	g := NewSyllableGraph()
	s.BuildSyllableGraph("xian", p, g)

	if typ, ok := g.Vertices[2]; !ok || typ != spelling.Ambiguous {
		t.Errorf("vertex[2] = (%v,%v), want (Ambiguous,true)", typ, ok)
	}
	if _, ok := g.Edges[0][4]; !ok {
		t.Errorf("expected single-syllable edge 0->4 to survive pruning")
	}
}

func TestTransposeIsReverseOfEdges(t *testing.T) {
	p := prism.NewPatriciaPrism()
	p.InsertSpelling("ni", 1, spelling.Normal)
	p.InsertSpelling("hao", 2, spelling.Normal)

	s := &Syllabifier{}
	g := NewSyllableGraph()
	s.BuildSyllableGraph("nihao", p, g)

	for start, row := range g.Edges {
		for end, spellings := range row {
			for sid := range spellings {
				found := false
				for _, props := range g.Indices[start][sid] {
					if props.EndPos == end {
						found = true
					}
				}
				if !found {
					t.Errorf("indices[%d][%d] missing entry for edge ending at %d", start, sid, end)
				}
			}
		}
	}
}

func TestEdgeEndPositionsRespectDelimiters(t *testing.T) {
	p := prism.NewPatriciaPrism()
	p.InsertSpelling("ni", 1, spelling.Normal)
	p.InsertSpelling("hao", 2, spelling.Normal)

	s := &Syllabifier{Delimiters: "'"}
	g := NewSyllableGraph()
	s.BuildSyllableGraph("ni'hao", p, g)

	for _, row := range g.Edges {
		for end := range row {
			if end < len("ni'hao") && "ni'hao"[end] == '\'' {
				t.Errorf("edge end position %d lands on an unconsumed delimiter", end)
			}
		}
	}
}

func TestEmptyInputReturnsZero(t *testing.T) {
	p := prism.NewPatriciaPrism()
	s := &Syllabifier{}
	g := NewSyllableGraph()
	if got := s.BuildSyllableGraph("", p, g); got != 0 {
		t.Fatalf("BuildSyllableGraph(\"\") = %d, want 0", got)
	}
}
