package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/inkwell-ime/imecore/pkg/candidate"
	"github.com/inkwell-ime/imecore/pkg/dict"
)

// Engine is the translation backend a Server queries. Both
// pkg/translate/script.Translator and pkg/translate/table.Translator satisfy it.
type Engine interface {
	Query(input string, start int) (candidate.Translation, bool)
}

// MemorizeFunc reports a committed selection back to an Engine. Signatures
// differ between translators (script.Translator.Memorize takes the commit as
// a dict.DictEntry, table.Translator.Memorize takes it as a string), so the
// caller supplies the adapter closure that fits its engine.
type MemorizeFunc func(text string, elements []dict.DictEntry) error

// Server handles msgpack IPC for candidate queries, caret navigation, and commits.
type Server struct {
	engine   Engine
	memorize MemorizeFunc
	reader   io.Reader
	writer   io.Writer

	mu     sync.Mutex
	active map[string]candidate.Translation
}

// NewServer creates a server over stdin/stdout for the given engine.
func NewServer(engine Engine, memorize MemorizeFunc) *Server {
	return &Server{
		engine:   engine,
		memorize: memorize,
		reader:   os.Stdin,
		writer:   os.Stdout,
		active:   make(map[string]candidate.Translation),
	}
}

// Start begins decoding msgpack requests until the stream closes.
func (s *Server) Start() error {
	log.Debug("Starting Server.")
	decoder := msgpack.NewDecoder(s.reader)

	for {
		var raw map[string]any
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			log.Errorf("Decoding request: %v", err)
			return err
		}
		s.handleRequest(raw)
	}
}

func (s *Server) handleRequest(raw map[string]any) {
	id, _ := raw["id"].(string)

	switch {
	case raw["action"] != nil:
		s.handleNavigate(id, raw)
	case raw["elements"] != nil:
		s.handleCommit(id, raw)
	case raw["input"] != nil:
		s.handleQuery(id, raw)
	default:
		s.sendError(id, "unrecognized request", 400)
	}
}

func (s *Server) handleQuery(id string, raw map[string]any) {
	if id == "" {
		id = uuid.NewString()
	}

	input, _ := raw["input"].(string)
	start := 0
	if v, ok := raw["start"].(int8); ok {
		start = int(v)
	} else if v, ok := raw["start"].(int64); ok {
		start = int(v)
	}

	if input == "" {
		s.sendError(id, "missing 'input' field", 400)
		return
	}

	started := time.Now()
	translation, ok := s.engine.Query(input, start)
	if !ok {
		s.send(QueryResponse{ID: id, TimeTaken: time.Since(started).Microseconds()})
		return
	}

	s.mu.Lock()
	s.active[id] = translation
	s.mu.Unlock()

	s.send(QueryResponse{
		ID:         id,
		Candidates: collectPage(translation),
		TimeTaken:  time.Since(started).Microseconds(),
	})
}

func (s *Server) handleNavigate(id string, raw map[string]any) {
	action, _ := raw["action"].(string)
	pos := 0
	if v, ok := raw["pos"].(int8); ok {
		pos = int(v)
	} else if v, ok := raw["pos"].(int64); ok {
		pos = int(v)
	}

	s.mu.Lock()
	translation, ok := s.active[id]
	s.mu.Unlock()
	if !ok {
		s.sendError(id, "no active query for this id", 404)
		return
	}

	switch action {
	case "next":
		exhausted := !translation.Next()
		s.send(NavigateResponse{ID: id, Candidates: collectPage(translation), Exhausted: exhausted})
	case "next_stop":
		s.send(NavigateResponse{ID: id, Pos: nextStop(translation, pos)})
	case "previous_stop":
		s.send(NavigateResponse{ID: id, Pos: previousStop(translation, pos)})
	default:
		s.sendError(id, fmt.Sprintf("unknown action: %s", action), 400)
	}
}

func (s *Server) handleCommit(id string, raw map[string]any) {
	text, _ := raw["text"].(string)
	rawElements, _ := raw["elements"].([]any)

	elements := make([]dict.DictEntry, 0, len(rawElements))
	for _, re := range rawElements {
		m, ok := re.(map[string]any)
		if !ok {
			continue
		}
		elements = append(elements, dict.DictEntry{
			Text:       stringField(m, "text"),
			CustomCode: stringField(m, "code"),
			Weight:     floatField(m, "weight"),
		})
	}

	if s.memorize == nil {
		s.send(CommitResponse{ID: id, Status: "ignored", Error: "memorize not configured"})
		return
	}
	if err := s.memorize(text, elements); err != nil {
		s.send(CommitResponse{ID: id, Status: "error", Error: err.Error()})
		return
	}
	s.send(CommitResponse{ID: id, Status: "ok"})
}

// collectPage reads the candidate at the current cursor; the caller advances
// with a "next" navigate request to page further.
func collectPage(translation candidate.Translation) []CandidateDTO {
	if translation.Exhausted() {
		return nil
	}
	c := translation.Peek()
	if c == nil {
		return nil
	}
	return []CandidateDTO{{
		Text:    c.Text(),
		Comment: c.Comment(),
		Preedit: c.Preedit(),
		Start:   c.Start(),
		End:     c.End(),
		Quality: c.Quality(),
	}}
}

func nextStop(translation candidate.Translation, pos int) int {
	c := translation.Peek()
	if c == nil {
		return pos
	}
	syll := c.Syllabification()
	if syll == nil {
		return pos
	}
	return syll.NextStop(pos)
}

func previousStop(translation candidate.Translation, pos int) int {
	c := translation.Peek()
	if c == nil {
		return pos
	}
	syll := c.Syllabification()
	if syll == nil {
		return pos
	}
	return syll.PreviousStop(pos)
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func floatField(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int8:
		return float64(v)
	default:
		return 0
	}
}

func (s *Server) send(response any) {
	data, err := msgpack.Marshal(response)
	if err != nil {
		log.Errorf("Marshaling response: %v", err)
		return
	}
	if _, err := s.writer.Write(data); err != nil {
		log.Errorf("Writing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
