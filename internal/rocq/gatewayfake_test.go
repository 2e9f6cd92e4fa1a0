package rocq

import (
	"context"
	"strings"
	"sync"
)

// fakeSentenceSpans splits text into RangedSpans at each sentence-ending
// period (one not inside a double-quoted string), mirroring the
// production fallback BuildSteps/Classify rely on when no AST descriptor
// is available. Used by fakeGateway.FlecheDocument so tests exercise the
// same text-driven classification path a real coq-lsp session without a
// structured span would.
func fakeSentenceSpans(text string) []RangedSpan {
	offsets := newLineOffsets(text)
	var spans []RangedSpan
	inString := false
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '"' {
			inString = !inString
			continue
		}
		if inString || c != '.' {
			continue
		}
		var next byte
		if i+1 < len(text) {
			next = text[i+1]
		}
		if next != 0 && next != ' ' && next != '\n' && next != '\t' {
			continue
		}
		end := i + 1
		if strings.TrimSpace(text[start:end]) != "" {
			spans = append(spans, RangedSpan{Range: Range{Start: offsets.toPosition(start), End: offsets.toPosition(end)}})
		}
		start = end
	}
	return spans
}

// fakeDoc is one open document's in-memory state inside fakeGateway.
type fakeDoc struct {
	version     int
	text        string
	diagnostics []Diagnostic
}

// fakeGateway is an in-memory ServerGateway for unit tests: it never
// spawns a subprocess, deriving spans from fakeSentenceSpans and goal
// answers from an injectable hook.
type fakeGateway struct {
	mu       sync.Mutex
	docs     map[string]*fakeDoc
	goalsFn  func(uri string, pos Position) (*GoalAnswer, error)
	onChange func(uri, text string) []Diagnostic
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{docs: make(map[string]*fakeDoc)}
}

func (fg *fakeGateway) Open(ctx context.Context, uri, text string) error {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	fg.docs[uri] = &fakeDoc{version: 1, text: text}
	return nil
}

func (fg *fakeGateway) Change(ctx context.Context, uri string, newVersion int, fullText string) error {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	doc, ok := fg.docs[uri]
	if !ok {
		doc = &fakeDoc{}
		fg.docs[uri] = doc
	}
	doc.version = newVersion
	doc.text = fullText
	if fg.onChange != nil {
		doc.diagnostics = fg.onChange(uri, fullText)
	}
	return nil
}

func (fg *fakeGateway) AwaitReady(ctx context.Context, uri string) error { return nil }

func (fg *fakeGateway) Goals(ctx context.Context, uri string, position Position) (*GoalAnswer, error) {
	if fg.goalsFn != nil {
		return fg.goalsFn(uri, position)
	}
	return &GoalAnswer{Position: position, Goals: &GoalConfig{Goals: []Goal{{Ty: "True"}}}}, nil
}

func (fg *fakeGateway) FlecheDocument(ctx context.Context, uri string) (*FlecheDocument, error) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	doc, ok := fg.docs[uri]
	if !ok {
		return &FlecheDocument{}, nil
	}
	return &FlecheDocument{Spans: fakeSentenceSpans(doc.text)}, nil
}

func (fg *fakeGateway) Diagnostics(uri string) []Diagnostic {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	if doc, ok := fg.docs[uri]; ok {
		return doc.diagnostics
	}
	return nil
}

func (fg *fakeGateway) Save(uri string) error { return nil }

func (fg *fakeGateway) Close(ctx context.Context, uri string) error {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	delete(fg.docs, uri)
	return nil
}

var _ ServerGateway = (*fakeGateway)(nil)
