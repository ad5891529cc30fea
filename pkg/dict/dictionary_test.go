package dict

import (
	"testing"

	"github.com/inkwell-ime/imecore/pkg/graph"
	"github.com/inkwell-ime/imecore/pkg/prism"
	"github.com/inkwell-ime/imecore/pkg/spelling"
)

func newFixtureDict() *MemDictionary {
	p := prism.NewPatriciaPrism()
	p.InsertSpelling("ni", 1, spelling.Normal)
	p.InsertSpelling("hao", 2, spelling.Normal)

	d := NewMemDictionary(p)
	d.AddSyllable(1, "ni")
	d.AddSyllable(2, "hao")
	d.AddEntry("ni", DictEntry{Text: "你", Weight: 1})
	d.AddEntry("nihao", DictEntry{Text: "你好", Weight: 10})
	return d
}

func TestMemDictionaryLookupFindsEntriesAlongGraphPaths(t *testing.T) {
	d := newFixtureDict()
	syl := graph.Syllabifier{}
	g := graph.NewSyllableGraph()
	if farthest := syl.BuildSyllableGraph("nihao", d.Prism(), g); farthest == 0 {
		t.Fatal("expected the input to syllabify")
	}

	collector, hit := d.Lookup(g, 0, 1)
	if !hit {
		t.Fatal("expected at least one match")
	}

	found := false
	for _, length := range collector.Lengths() {
		it := collector.Bucket(length)
		for e := it.Peek(); e != nil; it.Next() {
			if e.Text == "你好" {
				found = true
			}
			e = it.Peek()
		}
	}
	if !found {
		t.Error("expected 你好 among the lookup results")
	}
}

func TestMemDictionaryLookupNoMatchReturnsFalse(t *testing.T) {
	d := newFixtureDict()
	syl := graph.Syllabifier{}
	g := graph.NewSyllableGraph()
	syl.BuildSyllableGraph("zzz", d.Prism(), g)

	_, hit := d.Lookup(g, 0, 1)
	if hit {
		t.Error("expected no matches for an unsyllabifiable input")
	}
}

func TestMemDictionaryLookupWordsExactMatch(t *testing.T) {
	d := newFixtureDict()
	it, lastKey, count := d.LookupWords("nihao", false, 0, "")
	if count != 1 || lastKey != "nihao" {
		t.Fatalf("got count=%d lastKey=%q, want count=1 lastKey=nihao", count, lastKey)
	}
	if e := it.Peek(); e == nil || e.Text != "你好" {
		t.Fatalf("expected 你好, got %+v", e)
	}
}

func TestMemDictionaryLookupWordsExactMissReturnsEmpty(t *testing.T) {
	d := newFixtureDict()
	it, _, count := d.LookupWords("missing", false, 0, "")
	if count != 0 || it.Peek() != nil {
		t.Errorf("expected no hits for an absent key, got count=%d", count)
	}
}

func TestMemDictionaryLookupWordsPrefixExpansionRespectsLimitAndResume(t *testing.T) {
	d := newFixtureDict()
	d.AddEntry("nihen", DictEntry{Text: "你很", Weight: 3})

	it, resumeKey, count := d.LookupWords("ni", true, 1, "")
	if count != 1 {
		t.Fatalf("expected limit=1 to cap count at 1, got %d", count)
	}
	first := it.Peek()
	if first == nil {
		t.Fatal("expected one entry")
	}

	it2, _, count2 := d.LookupWords("ni", true, 0, resumeKey)
	if count2 == 0 {
		t.Fatal("expected remaining entries past resumeKey")
	}
	if it2.Peek() == nil {
		t.Error("expected a usable iterator resuming past the first page")
	}
}

func TestMemDictionaryAlphabetReturnsIndependentCopy(t *testing.T) {
	d := newFixtureDict()
	a := d.Alphabet()
	a[99] = "zzz"

	if _, ok := d.Alphabet()[99]; ok {
		t.Error("mutating the returned alphabet copy should not affect the dictionary")
	}
	if a[1] != "ni" {
		t.Errorf("Alphabet()[1] = %q, want ni", a[1])
	}
}

func TestMemDictionaryLoadAlphabetTSVAssignsSequentialIds(t *testing.T) {
	p := prism.NewPatriciaPrism()
	d := NewMemDictionary(p)

	if err := d.LoadAlphabetTSV([]string{"# comment", "", "ni", "hao"}); err != nil {
		t.Fatalf("LoadAlphabetTSV: %v", err)
	}

	alphabet := d.Alphabet()
	if len(alphabet) != 2 {
		t.Fatalf("expected 2 registered syllables, got %d", len(alphabet))
	}
	matches := p.CommonPrefixSearch("nihao")
	if len(matches) == 0 {
		t.Error("expected the loaded alphabet to be registered in the bound prism")
	}
}

func TestMemDictionaryLoadAlphabetTSVContinuesFromExistingIds(t *testing.T) {
	d := newFixtureDict() // already has ids 1, 2
	if err := d.LoadAlphabetTSV([]string{"le"}); err != nil {
		t.Fatalf("LoadAlphabetTSV: %v", err)
	}
	alphabet := d.Alphabet()
	if len(alphabet) != 3 {
		t.Fatalf("expected 3 syllables after appending, got %d", len(alphabet))
	}
	if _, ok := alphabet[3]; !ok {
		t.Error("expected the new syllable to be assigned id 3, continuing past the existing ids")
	}
}

func TestMemDictionaryLoadTSVParsesFieldsAndSkipsComments(t *testing.T) {
	p := prism.NewPatriciaPrism()
	d := NewMemDictionary(p)
	lines := []string{
		"# a comment",
		"",
		"你好\tnihao\t10\tNIHAO\tgreeting",
	}
	if err := d.LoadTSV(lines); err != nil {
		t.Fatalf("LoadTSV: %v", err)
	}
	if !d.Loaded() {
		t.Error("expected Loaded() to report true after a successful load")
	}

	it, _, count := d.LookupWords("nihao", false, 0, "")
	if count != 1 {
		t.Fatalf("expected 1 entry, got %d", count)
	}
	e := it.Peek()
	if e.Text != "你好" || e.Weight != 10 || e.CustomCode != "NIHAO" || e.Comment != "greeting" {
		t.Errorf("unexpected parsed entry: %+v", e)
	}
}

func TestMemDictionaryLoadTSVRejectsTooFewFields(t *testing.T) {
	p := prism.NewPatriciaPrism()
	d := NewMemDictionary(p)
	if err := d.LoadTSV([]string{"你好\tnihao"}); err == nil {
		t.Error("expected an error for a line with too few fields")
	}
}

func TestMemDictionaryLoadTSVRejectsBadWeight(t *testing.T) {
	p := prism.NewPatriciaPrism()
	d := NewMemDictionary(p)
	if err := d.LoadTSV([]string{"你好\tnihao\tnot-a-number"}); err == nil {
		t.Error("expected an error for an unparsable weight field")
	}
}
