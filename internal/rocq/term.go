package rocq

// term.go — TermContext: the accumulated symbol table. Walks the step
// sequence in document order, tracking a stack of module/section frames,
// and answers qualified/short-name lookups plus notation pattern+scope
// lookups.

import (
	"regexp"
	"sort"
	"strings"
)

// frame is one open Module/Section scope.
type frame struct {
	name      string
	isSection bool
	addedKeys []string // terms fully-qualified keys defined inside this frame
}

// TermContext accumulates a FileContext while walking a step sequence.
type TermContext struct {
	fc         *FileContext
	modulePath []string
	frames     []frame
}

// NewTermContext returns an empty TermContext with its own FileContext —
// never a shared default instance.
func NewTermContext() *TermContext {
	return &TermContext{fc: NewFileContext()}
}

// Context returns the accumulated FileContext.
func (tc *TermContext) Context() *FileContext { return tc.fc }

// Walk processes steps in order, absorbing definitions, module/section
// boundaries, imports and notations into the FileContext.
func (tc *TermContext) Walk(steps []Step) {
	for _, step := range steps {
		tc.walkOne(step)
	}
}

func (tc *TermContext) walkOne(step Step) {
	kind := step.ASTTag
	text := strings.TrimSpace(step.Text)

	switch {
	case kind.ModuleBoundary != nil && kind.ModuleBoundary.Open:
		tc.modulePath = append(tc.modulePath, kind.ModuleBoundary.Name)
		tc.frames = append(tc.frames, frame{
			name:      kind.ModuleBoundary.Name,
			isSection: kind.ModuleBoundary.IsSection,
		})

	case kind.ModuleBoundary != nil && !kind.ModuleBoundary.Open:
		tc.popFrame()

	case kind.Import != nil:
		tc.absorbImport(kind.Import)

	case kind.Notation != nil:
		tc.absorbNotation(kind, text, step.Range)

	case kind.Opener != nil:
		tc.absorbOpener(kind.Opener, text, step.Range)
	}
}

// popFrame pops the innermost frame. A Term's entry in fc.Terms is
// permanent once qualified, so terms defined inside a Module are never
// deleted — leaving the module's name path just means they now need
// their qualified name (or an Import alias) to resolve by a bare short
// name, which Lookup's walk-the-module-path step already enforces purely
// by modulePath shrinking. A Section's name, unlike a Module's, stops
// being needed once it closes, so closing one instead registers each of
// its local definitions under its bare short name permanently, as an
// alias to its section-qualified key.
func (tc *TermContext) popFrame() {
	if len(tc.frames) == 0 {
		return
	}
	top := tc.frames[len(tc.frames)-1]
	tc.frames = tc.frames[:len(tc.frames)-1]
	if len(tc.modulePath) > 0 {
		tc.modulePath = tc.modulePath[:len(tc.modulePath)-1]
	}
	if top.isSection {
		for _, key := range top.addedKeys {
			short := key
			if i := strings.LastIndex(key, "."); i >= 0 {
				short = key[i+1:]
			}
			tc.fc.Aliases[short] = key
		}
	}
}

func (tc *TermContext) absorbOpener(opener *OpenerKind, text string, rng Range) {
	if opener.Name == "" {
		return
	}
	term := Term{
		Text:       text,
		Type:       opener.Type,
		ModulePath: append([]string(nil), tc.modulePath...),
		Range:      rng,
	}
	key := term.QualifiedName(opener.Name)
	tc.fc.Terms[key] = term
	if len(tc.frames) > 0 {
		top := &tc.frames[len(tc.frames)-1]
		top.addedKeys = append(top.addedKeys, key)
	}
}

func (tc *TermContext) absorbNotation(kind SpanKind, text string, rng Range) {
	name := ""
	if kind.Opener != nil {
		name = kind.Opener.Name
	}
	term := Term{
		Text:       text,
		Type:       TermNotation,
		ModulePath: append([]string(nil), tc.modulePath...),
		Range:      rng,
	}
	if kind.Notation != nil {
		term.Pattern = kind.Notation.Pattern
		term.Scope = kind.Notation.Scope
	}
	tc.fc.Notations = append(tc.fc.Notations, term)

	if name != "" {
		key := term.QualifiedName(name)
		tc.fc.Terms[key] = term
		if len(tc.frames) > 0 {
			top := &tc.frames[len(tc.frames)-1]
			top.addedKeys = append(top.addedKeys, key)
		}
	}
}

// absorbImport computes short-name aliases for every term whose module
// path matches one of the imported modules. On conflict the most recent
// import wins, matching Coq's own shadowing rule.
func (tc *TermContext) absorbImport(imp *ImportKind) {
	for _, mod := range imp.Modules {
		prefix := mod + "."
		for key := range tc.fc.Terms {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			short := strings.TrimPrefix(key, prefix)
			if strings.Contains(short, ".") {
				continue // nested module member, not directly visible
			}
			tc.fc.Aliases[short] = key
		}
	}
}

// Lookup resolves a possibly-qualified name: first as a fully qualified
// key, then through aliases, then by walking enclosing module paths
// outward.
func (tc *TermContext) Lookup(name string) (Term, bool) {
	if t, ok := tc.fc.Terms[name]; ok {
		return t, true
	}
	if qualified, ok := tc.fc.Aliases[name]; ok {
		if t, ok := tc.fc.Terms[qualified]; ok {
			return t, true
		}
	}
	for i := len(tc.modulePath); i > 0; i-- {
		candidate := strings.Join(tc.modulePath[:i], ".") + "." + name
		if t, ok := tc.fc.Terms[candidate]; ok {
			return t, true
		}
	}
	return Term{}, false
}

// GetNotation returns the most recent notation whose pattern matches and
// whose scope matches: a scoped candidate always wins over an unscoped
// one, and an empty-scope notation matches any requested scope.
func (tc *TermContext) GetNotation(pattern, scope string) (Term, error) {
	var unscoped *Term
	for i := len(tc.fc.Notations) - 1; i >= 0; i-- {
		n := tc.fc.Notations[i]
		if n.Pattern != pattern {
			continue
		}
		if scope != "" && n.Scope == scope {
			return n, nil
		}
		if n.Scope == "" && unscoped == nil {
			cp := n
			unscoped = &cp
		}
	}
	if unscoped != nil {
		return *unscoped, nil
	}
	return Term{}, errNotationNotFound(pattern, scope)
}

// identRegex extracts identifier-like tokens from a step's text, used as
// the text-based reference extraction whenever StepContext is given no
// structural refs. The refs key of a span's AST descriptor is not carried
// into Step, and GoalAttacher always passes nil, so the engine's own
// contexts always come from this text path.
var identRegex = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_.']*`)

// notationUseRegex extracts quoted notation-like substrings (e.g. the "n +
// m" inside `rewrite "n + m"`-shaped steps) so notation references can be
// matched by pattern even when no structured descriptor is present.
var notationUseRegex = regexp.MustCompile(`"([^"]+)"`)

// StepContext computes the minimum set of terms a step's AST references,
// ordered by first occurrence.
func (tc *TermContext) StepContext(step Step, structuralRefs []string) []Term {
	seen := make(map[string]bool)
	var out []Term

	add := func(t Term, key string) {
		if t.Range == step.Range {
			return // the step's own definition is not part of its context
		}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, t)
	}

	if len(structuralRefs) > 0 {
		for _, ref := range structuralRefs {
			if t, ok := tc.Lookup(ref); ok {
				add(t, t.QualifiedName(ref))
			}
		}
		return out
	}

	type hit struct {
		pos int
		t   Term
		key string
	}
	var hits []hit
	for _, m := range notationUseRegex.FindAllStringSubmatchIndex(step.Text, -1) {
		if t, err := tc.GetNotation(step.Text[m[2]:m[3]], ""); err == nil {
			hits = append(hits, hit{m[0], t, t.Pattern + "@" + t.Scope})
		}
	}
	for _, loc := range identRegex.FindAllStringIndex(step.Text, -1) {
		ident := step.Text[loc[0]:loc[1]]
		if t, ok := tc.Lookup(ident); ok {
			hits = append(hits, hit{loc[0], t, t.QualifiedName(ident)})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].pos < hits[b].pos })
	for _, h := range hits {
		add(h.t, h.key)
	}
	return out
}
