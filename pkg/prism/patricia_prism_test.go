package prism

import (
	"testing"

	"github.com/inkwell-ime/imecore/pkg/spelling"
)

func TestCommonPrefixSearchOrdersShortestToLongest(t *testing.T) {
	p := NewPatriciaPrism()
	p.InsertSpelling("zh", 1, spelling.Normal)
	p.InsertSpelling("zhong", 2, spelling.Normal)

	matches := p.CommonPrefixSearch("zhonghua")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Length != 2 || matches[1].Length != 5 {
		t.Errorf("expected lengths [2 5], got [%d %d]", matches[0].Length, matches[1].Length)
	}
}

func TestCommonPrefixSearchNoMatch(t *testing.T) {
	p := NewPatriciaPrism()
	p.InsertSpelling("zh", 1, spelling.Normal)
	if matches := p.CommonPrefixSearch("wo"); len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}

func TestExpandSearchRespectsLimit(t *testing.T) {
	p := NewPatriciaPrism()
	p.InsertSpelling("zha", 1, spelling.Normal)
	p.InsertSpelling("zhe", 2, spelling.Normal)
	p.InsertSpelling("zhi", 3, spelling.Normal)

	matches := p.ExpandSearch("zh", 2)
	if len(matches) != 2 {
		t.Errorf("expected 2 matches under limit, got %d", len(matches))
	}
}

func TestInsertSpellingAccumulatesMultipleSyllables(t *testing.T) {
	p := NewPatriciaPrism()
	p.InsertSpelling("zh", 10, spelling.Abbreviation)
	p.InsertSpelling("zh", 11, spelling.Abbreviation)

	matches := p.CommonPrefixSearch("zh")
	if len(matches) != 1 {
		t.Fatalf("expected 1 trie entry, got %d", len(matches))
	}

	acc := p.QuerySpelling(matches[0].Value)
	var ids []spelling.SyllableId
	for !acc.Exhausted() {
		ids = append(ids, acc.SyllableId())
		if acc.Properties().Type != spelling.Abbreviation {
			t.Errorf("expected Abbreviation type, got %v", acc.Properties().Type)
		}
		acc.Next()
	}
	if len(ids) != 2 || ids[0] != 10 || ids[1] != 11 {
		t.Errorf("expected syllable ids [10 11], got %v", ids)
	}
}

func TestQuerySpellingAccessorExhaustedAtEnd(t *testing.T) {
	p := NewPatriciaPrism()
	p.InsertSpelling("a", 1, spelling.Normal)
	matches := p.CommonPrefixSearch("a")
	acc := p.QuerySpelling(matches[0].Value)

	acc.Next()
	if !acc.Exhausted() {
		t.Fatal("expected accessor to be exhausted after consuming its only entry")
	}
	if acc.SyllableId() != -1 {
		t.Errorf("expected sentinel -1 syllable id past exhaustion, got %d", acc.SyllableId())
	}
}

func TestQuerySpellingWithNilValueReturnsEmptyAccessor(t *testing.T) {
	p := NewPatriciaPrism()
	acc := p.QuerySpelling(nil)
	if !acc.Exhausted() {
		t.Error("expected an accessor over a nil value to be immediately exhausted")
	}
}
