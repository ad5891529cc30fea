package server

import (
	"bytes"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/inkwell-ime/imecore/pkg/candidate"
	"github.com/inkwell-ime/imecore/pkg/dict"
	"github.com/inkwell-ime/imecore/pkg/spelling"
)

type stubCandidate struct {
	text, preedit, comment string
	start, end             int
	quality                float64
}

func (c *stubCandidate) Start() int                                { return c.start }
func (c *stubCandidate) End() int                                  { return c.end }
func (c *stubCandidate) Text() string                              { return c.text }
func (c *stubCandidate) Preedit() string                           { return c.preedit }
func (c *stubCandidate) Comment() string                           { return c.comment }
func (c *stubCandidate) Quality() float64     { return c.quality }
func (c *stubCandidate) Code() []spelling.SyllableId { return nil }
func (c *stubCandidate) Syllabification() candidate.Syllabification { return nil }

type stubTranslation struct {
	candidates []candidate.Candidate
	pos        int
}

func (t *stubTranslation) Peek() candidate.Candidate {
	if t.Exhausted() {
		return nil
	}
	return t.candidates[t.pos]
}

func (t *stubTranslation) Next() bool {
	if t.pos < len(t.candidates) {
		t.pos++
	}
	return !t.Exhausted()
}

func (t *stubTranslation) Exhausted() bool { return t.pos >= len(t.candidates) }

type stubEngine struct {
	translation *stubTranslation
	ok          bool
}

func (e *stubEngine) Query(input string, start int) (candidate.Translation, bool) {
	if !e.ok {
		return nil, false
	}
	return e.translation, true
}

func newTestServer(engine Engine, memorize MemorizeFunc) (*Server, *bytes.Buffer) {
	out := &bytes.Buffer{}
	s := NewServer(engine, memorize)
	s.writer = out
	return s, out
}

func decodeResponse(t *testing.T, buf *bytes.Buffer, out any) {
	t.Helper()
	if err := msgpack.Unmarshal(buf.Bytes(), out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func TestHandleQueryReturnsCandidatePage(t *testing.T) {
	engine := &stubEngine{ok: true, translation: &stubTranslation{
		candidates: []candidate.Candidate{&stubCandidate{text: "你好", start: 0, end: 2, quality: 10}},
	}}
	s, out := newTestServer(engine, nil)

	s.handleQuery("req1", map[string]any{"input": "nihao"})

	var resp QueryResponse
	decodeResponse(t, out, &resp)
	if resp.ID != "req1" {
		t.Errorf("ID = %q, want req1", resp.ID)
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].Text != "你好" {
		t.Fatalf("unexpected candidates: %+v", resp.Candidates)
	}
}

func TestHandleQueryNoMatchReturnsEmptyCandidates(t *testing.T) {
	engine := &stubEngine{ok: false}
	s, out := newTestServer(engine, nil)

	s.handleQuery("req2", map[string]any{"input": "zzz"})

	var resp QueryResponse
	decodeResponse(t, out, &resp)
	if len(resp.Candidates) != 0 {
		t.Errorf("expected no candidates, got %+v", resp.Candidates)
	}
}

func TestHandleQueryMissingInputReturnsError(t *testing.T) {
	s, out := newTestServer(&stubEngine{}, nil)
	s.handleQuery("req3", map[string]any{})

	var resp ErrorResponse
	decodeResponse(t, out, &resp)
	if resp.Code != 400 {
		t.Errorf("expected code 400, got %d", resp.Code)
	}
}

func TestHandleNavigateNextAdvancesAndReportsExhausted(t *testing.T) {
	translation := &stubTranslation{candidates: []candidate.Candidate{
		&stubCandidate{text: "a"},
	}}
	engine := &stubEngine{ok: true, translation: translation}
	s, out := newTestServer(engine, nil)

	s.handleQuery("req4", map[string]any{"input": "a"})
	out.Reset()

	s.handleNavigate("req4", map[string]any{"action": "next"})

	var resp NavigateResponse
	decodeResponse(t, out, &resp)
	if !resp.Exhausted {
		t.Error("expected the single-candidate translation to be exhausted after next")
	}
}

func TestHandleNavigateUnknownIDReturnsNotFound(t *testing.T) {
	s, out := newTestServer(&stubEngine{}, nil)
	s.handleNavigate("ghost", map[string]any{"action": "next"})

	var resp ErrorResponse
	decodeResponse(t, out, &resp)
	if resp.Code != 404 {
		t.Errorf("expected code 404, got %d", resp.Code)
	}
}

func TestHandleCommitInvokesMemorizeFunc(t *testing.T) {
	var gotText string
	var gotElements []dict.DictEntry
	memorize := func(text string, elements []dict.DictEntry) error {
		gotText = text
		gotElements = elements
		return nil
	}
	s, out := newTestServer(&stubEngine{}, memorize)

	s.handleCommit("req5", map[string]any{
		"text": "你好",
		"elements": []any{
			map[string]any{"text": "你好", "code": "nihao", "weight": float64(1)},
		},
	})

	var resp CommitResponse
	decodeResponse(t, out, &resp)
	if resp.Status != "ok" {
		t.Fatalf("expected status ok, got %+v", resp)
	}
	if gotText != "你好" || len(gotElements) != 1 || gotElements[0].CustomCode != "nihao" {
		t.Errorf("memorize called with unexpected args: text=%q elements=%+v", gotText, gotElements)
	}
}

func TestHandleCommitWithoutMemorizeReturnsIgnored(t *testing.T) {
	s, out := newTestServer(&stubEngine{}, nil)
	s.handleCommit("req6", map[string]any{"text": "x"})

	var resp CommitResponse
	decodeResponse(t, out, &resp)
	if resp.Status != "ignored" {
		t.Errorf("expected status ignored, got %+v", resp)
	}
}

func TestHandleRequestGeneratesIDWhenMissing(t *testing.T) {
	engine := &stubEngine{ok: true, translation: &stubTranslation{
		candidates: []candidate.Candidate{&stubCandidate{text: "a"}},
	}}
	s, out := newTestServer(engine, nil)

	s.handleRequest(map[string]any{"input": "a"})

	var resp QueryResponse
	decodeResponse(t, out, &resp)
	if resp.ID == "" {
		t.Error("expected a generated id when the request omitted one")
	}
}
