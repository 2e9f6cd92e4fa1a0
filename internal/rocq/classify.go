package rocq

// classify.go — turns a span's opaque AST descriptor (or, failing that,
// its raw source text) into a SpanKind tagged variant. The server's
// span.v.expr arrives as an untyped JSON blob; rather than modeling the
// full Coq AST this does a bounded structural probe for a handful of
// conventional keys, falling back to a regex over the sentence text.

import (
	"encoding/json"
	"regexp"
	"strings"
)

// SpanKind is the tagged variant classifying one sentence.
type SpanKind struct {
	Opener         *OpenerKind
	Closer         *CloserKind
	Tactic         bool
	Import         *ImportKind
	ModuleBoundary *ModuleBoundaryKind
	Notation       *NotationKind
	Obligation     *ObligationKind
	Other          string // raw keyword, when nothing more specific applies
}

type OpenerKind struct {
	Keyword string
	Name    string
	Type    TermType
	Program bool // "Program Definition" and friends generate obligations
}

type CloserKind struct {
	Keyword string // Qed | Defined | Admitted | Save | Abort
}

type ImportKind struct {
	Modules []string
	Export  bool
}

type ModuleBoundaryKind struct {
	Open      bool
	Name      string
	IsSection bool
	IsModType bool
}

type NotationKind struct {
	Pattern string
	Scope   string
}

type ObligationKind struct {
	Number int // 0 when unnumbered ("Next Obligation")
}

// structuralSpan is the conventional shape this engine expects a span's
// JSON descriptor to carry when the server provides one (coq-lsp's real
// Vernacexpr serialization carries the same information under different
// key names depending on server version; only the key names below are
// recognized, and any other shape falls back to regex).
type structuralSpan struct {
	Keyword string   `json:"keyword"`
	Names   []string `json:"names"`
	Refs    []string `json:"refs"`
	Modules []string `json:"modules"`
	Pattern string   `json:"pattern"`
	Scope   string   `json:"scope"`
	Export  bool     `json:"export"`
	Program bool     `json:"program"`
	Number  int      `json:"number"`
}

var closerKeywords = map[string]bool{
	"Qed": true, "Defined": true, "Admitted": true, "Save": true, "Abort": true,
}

var keywordToTermType = map[string]TermType{
	"Inductive":    TermInductive,
	"CoInductive":  TermInductive,
	"Variant":      TermInductive,
	"Definition":   TermDefinition,
	"Notation":     TermNotation,
	"Fixpoint":     TermFixpoint,
	"CoFixpoint":   TermFixpoint,
	"Lemma":        TermLemma,
	"Theorem":      TermTheorem,
	"Remark":       TermRemark,
	"Fact":         TermFact,
	"Corollary":    TermCorollary,
	"Proposition":  TermProposition,
	"Property":     TermProperty,
	"Ltac":         TermTactic,
	"Record":       TermRecord,
	"Class":        TermClass,
	"Instance":     TermInstance,
	"Goal":         TermTheorem,
}

// openerRegex matches "Keyword Name" for any of the keywords above, plus
// "Program Definition", "Goal", and instance/class forms.
var openerRegex = regexp.MustCompile(
	`^\s*(Program\s+)?(Inductive|CoInductive|Variant|Definition|Notation|Fixpoint|CoFixpoint|Lemma|Theorem|Remark|Fact|Corollary|Proposition|Property|Ltac|Record|Class|Instance|Goal)\b\s*([A-Za-z_][A-Za-z0-9_']*)?`)

var moduleRegex = regexp.MustCompile(`^\s*(Module\s+Type|Module|Section)\s+([A-Za-z_][A-Za-z0-9_']*)`)
var endRegex = regexp.MustCompile(`^\s*End\s+([A-Za-z_][A-Za-z0-9_']*)\s*\.`)
var importRegex = regexp.MustCompile(`^\s*(Require\s+Import|Require\s+Export|Import|Export|Require)\s+(.+?)\.\s*$`)
var obligationRegex = regexp.MustCompile(`^\s*(Next\s+Obligation|Obligation\s+(\d+))\b`)
var closerRegex = regexp.MustCompile(`^\s*(Qed|Defined|Admitted|Save|Abort)\b`)
var notationPatternRegex = regexp.MustCompile(`Notation\s+"([^"]+)"(?:\s*:=.*?:\s*([A-Za-z_][A-Za-z0-9_']*)_scope)?`)

// Classify determines a sentence's SpanKind from its AST descriptor when
// present, falling back to regex over text.
func Classify(text string, ast json.RawMessage) SpanKind {
	trimmed := strings.TrimSpace(text)

	if len(ast) > 0 && string(ast) != "null" {
		var s structuralSpan
		if err := json.Unmarshal(ast, &s); err == nil && s.Keyword != "" {
			if kind, ok := classifyStructural(s); ok {
				return kind
			}
		}
	}

	return classifyText(trimmed)
}

func classifyStructural(s structuralSpan) (SpanKind, bool) {
	switch {
	case closerKeywords[s.Keyword]:
		return SpanKind{Closer: &CloserKind{Keyword: s.Keyword}}, true
	case s.Keyword == "Obligation" || s.Keyword == "NextObligation":
		return SpanKind{Obligation: &ObligationKind{Number: s.Number}}, true
	case s.Keyword == "Notation":
		name := ""
		if len(s.Names) > 0 {
			name = s.Names[0]
		}
		return SpanKind{
			Opener:   &OpenerKind{Keyword: s.Keyword, Name: name, Type: TermNotation},
			Notation: &NotationKind{Pattern: s.Pattern, Scope: s.Scope},
		}, true
	case s.Keyword == "Require" || s.Keyword == "Import" || s.Keyword == "Export":
		return SpanKind{Import: &ImportKind{Modules: s.Modules, Export: s.Export}}, true
	case s.Keyword == "Module" || s.Keyword == "ModuleType" || s.Keyword == "Section":
		name := ""
		if len(s.Names) > 0 {
			name = s.Names[0]
		}
		return SpanKind{ModuleBoundary: &ModuleBoundaryKind{
			Open: true, Name: name,
			IsSection: s.Keyword == "Section",
			IsModType: s.Keyword == "ModuleType",
		}}, true
	case s.Keyword == "End":
		name := ""
		if len(s.Names) > 0 {
			name = s.Names[0]
		}
		return SpanKind{ModuleBoundary: &ModuleBoundaryKind{Open: false, Name: name}}, true
	}
	if tt, ok := keywordToTermType[s.Keyword]; ok {
		name := ""
		if len(s.Names) > 0 {
			name = s.Names[0]
		}
		return SpanKind{Opener: &OpenerKind{Keyword: s.Keyword, Name: name, Type: tt, Program: s.Program}}, true
	}
	return SpanKind{}, false
}

func classifyText(trimmed string) SpanKind {
	if m := closerRegex.FindStringSubmatch(trimmed); m != nil {
		return SpanKind{Closer: &CloserKind{Keyword: m[1]}}
	}
	if m := obligationRegex.FindStringSubmatch(trimmed); m != nil {
		n := 0
		if m[2] != "" {
			n = atoiOrZero(m[2])
		}
		return SpanKind{Obligation: &ObligationKind{Number: n}}
	}
	if m := moduleRegex.FindStringSubmatch(trimmed); m != nil {
		kw := m[1]
		return SpanKind{ModuleBoundary: &ModuleBoundaryKind{
			Open:      true,
			Name:      m[2],
			IsSection: kw == "Section",
			IsModType: kw == "Module Type",
		}}
	}
	if m := endRegex.FindStringSubmatch(trimmed); m != nil {
		return SpanKind{ModuleBoundary: &ModuleBoundaryKind{Open: false, Name: m[1]}}
	}
	if m := importRegex.FindStringSubmatch(trimmed); m != nil {
		kw := m[1]
		mods := splitModuleList(m[2])
		return SpanKind{Import: &ImportKind{
			Modules: mods,
			Export:  strings.Contains(kw, "Export"),
		}}
	}
	if m := openerRegex.FindStringSubmatch(trimmed); m != nil {
		kw := m[2]
		name := m[3]
		tt := keywordToTermType[kw]
		kind := SpanKind{Opener: &OpenerKind{Keyword: kw, Name: name, Type: tt, Program: m[1] != ""}}
		if tt == TermNotation {
			if nm := notationPatternRegex.FindStringSubmatch(trimmed); nm != nil {
				kind.Notation = &NotationKind{Pattern: nm[1], Scope: nm[2]}
			}
		}
		return kind
	}
	if trimmed == "" {
		return SpanKind{Other: ""}
	}
	// Anything else inside a proof is an ordinary tactic step.
	return SpanKind{Tactic: true}
}

func splitModuleList(raw string) []string {
	parts := strings.Fields(raw)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(strings.TrimSpace(p), ",")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// IsProofOpener reports whether k opens a proof obligation: Theorem,
// Lemma, Instance and friends always do; a Definition or Fixpoint opens
// one only when its body is omitted (no ":=" before the terminating
// period), since the body is then supplied by subsequent tactics.
func (k SpanKind) IsProofOpener(text string) bool {
	if k.Opener == nil {
		return false
	}
	if proofOpenerTypes[k.Opener.Type] {
		return true
	}
	switch k.Opener.Type {
	case TermDefinition, TermFixpoint:
		return !strings.Contains(text, ":=")
	}
	return false
}
