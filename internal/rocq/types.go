package rocq

// types.go — the data model: LSP position/range primitives, Coq term
// records, proof-goal shapes mirroring the proof/goals protocol, and the
// span/step/proof records the engine builds from them.

import "encoding/json"

// Position is a 0-based line/character LSP position.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is an LSP start/end range.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Before reports whether r ends at or before other's start.
func (r Range) Before(other Range) bool {
	if r.End.Line != other.Start.Line {
		return r.End.Line < other.Start.Line
	}
	return r.End.Character <= other.Start.Character
}

// VersionedTextDocumentIdentifier names a document at a specific version.
type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

// Diagnostic is a standard LSP diagnostic.
type Diagnostic struct {
	Range    Range  `json:"range"`
	Severity int    `json:"severity"`
	Message  string `json:"message"`
}

// DiagnosticSeverity mirrors the LSP severity levels.
const (
	SeverityError       = 1
	SeverityWarning     = 2
	SeverityInformation = 3
	SeverityHint        = 4
)

// TermType classifies a Term by the Coq vernacular keyword that introduced it.
type TermType string

const (
	TermInductive   TermType = "INDUCTIVE"
	TermDefinition  TermType = "DEFINITION"
	TermNotation    TermType = "NOTATION"
	TermFixpoint    TermType = "FIXPOINT"
	TermLemma       TermType = "LEMMA"
	TermTheorem     TermType = "THEOREM"
	TermRemark      TermType = "REMARK"
	TermFact        TermType = "FACT"
	TermCorollary   TermType = "COROLLARY"
	TermProposition TermType = "PROPOSITION"
	TermProperty    TermType = "PROPERTY"
	TermTactic      TermType = "TACTIC"
	TermRecord      TermType = "RECORD"
	TermClass       TermType = "CLASS"
	TermInstance    TermType = "INSTANCE"
	TermObligation  TermType = "OBLIGATION"
	TermOther       TermType = "OTHER"
)

// proofOpenerTypes is the subset of TermType that also opens a proof
// obligation (as opposed to merely naming a term).
var proofOpenerTypes = map[TermType]bool{
	TermLemma:       true,
	TermTheorem:     true,
	TermRemark:      true,
	TermFact:        true,
	TermCorollary:   true,
	TermProposition: true,
	TermProperty:    true,
	TermInstance:    true,
	TermClass:       true,
}

// Term is a named Coq entity: a definition, inductive, notation, lemma, etc.
type Term struct {
	Text       string   `json:"text"`
	Type       TermType `json:"type"`
	ModulePath []string `json:"module_path"`
	Range      Range    `json:"range"`

	// Pattern and Scope are populated only when Type == TermNotation.
	Pattern string `json:"pattern,omitempty"`
	Scope   string `json:"scope,omitempty"`
}

// QualifiedName joins ModulePath and the term's short name with ".".
func (t Term) QualifiedName(shortName string) string {
	if len(t.ModulePath) == 0 {
		return shortName
	}
	out := t.ModulePath[0]
	for _, p := range t.ModulePath[1:] {
		out += "." + p
	}
	return out + "." + shortName
}

// Hyp is one hypothesis line of a Goal.
type Hyp struct {
	Names      []string `json:"names"`
	Ty         string   `json:"ty"`
	Definition *string  `json:"definition,omitempty"`
}

// Goal is a single proof obligation: hypotheses plus a conclusion type.
type Goal struct {
	Hyps []Hyp  `json:"hyps"`
	Ty   string `json:"ty"`
}

// GoalStackFrame holds the goals a bullet temporarily shelved (before) and
// the goals left when that bullet's focus closes (after).
type GoalStackFrame struct {
	Before []Goal `json:"before"`
	After  []Goal `json:"after"`
}

// GoalConfig is the full goal state at a point in the proof.
type GoalConfig struct {
	Goals   []Goal           `json:"goals"`
	Stack   []GoalStackFrame `json:"stack"`
	Shelf   []Goal           `json:"shelf"`
	GivenUp []Goal           `json:"given_up"`
	Bullet  *string          `json:"bullet,omitempty"`
}

// Message is a diagnostic-like message attached to a goal answer.
type Message struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Range *Range `json:"range,omitempty"`
}

// GoalAnswer is the snapshot returned by proof/goals at a position.
type GoalAnswer struct {
	DocumentID VersionedTextDocumentIdentifier `json:"textDocument"`
	Position   Position                        `json:"position"`
	Messages   []Message                       `json:"messages"`
	Goals      *GoalConfig                     `json:"goals,omitempty"`
	Error      *string                         `json:"error,omitempty"`
	Program    []string                        `json:"program,omitempty"`
}

// RangedSpan is one entry of a FlecheDocument: a source range plus the
// server's opaque AST descriptor for the sentence occupying it.
type RangedSpan struct {
	Range Range           `json:"range"`
	Span  json.RawMessage `json:"span,omitempty"`
}

// CompletionStatus reports how far the server has processed a document.
type CompletionStatus struct {
	Status string `json:"status"` // "Yes" | "Stopped" | "Failed"
	Range  Range  `json:"range"`
}

// FlecheDocument is the server's authoritative structured view of a file.
type FlecheDocument struct {
	Spans     []RangedSpan     `json:"spans"`
	Completed CompletionStatus `json:"completed"`
}

// CoqFileProgressKind classifies one processing-range entry.
type CoqFileProgressKind int

const (
	ProgressProcessing CoqFileProgressKind = 1
	ProgressFatalError CoqFileProgressKind = 2
)

// CoqFileProgressInfo is one entry of a $/coq/fileProgress notification.
type CoqFileProgressInfo struct {
	Range Range                `json:"range"`
	Kind  *CoqFileProgressKind `json:"kind,omitempty"`
}

// CoqFileProgressParams is the full $/coq/fileProgress payload.
type CoqFileProgressParams struct {
	TextDocument VersionedTextDocumentIdentifier `json:"textDocument"`
	Processing   []CoqFileProgressInfo           `json:"processing"`
}

// Step is one Coq sentence as segmented by SpanIndex.
type Step struct {
	Text   string   `json:"text"`
	Range  Range    `json:"range"`
	ASTTag SpanKind `json:"-"`
}

// ProofStep is a Step that lives inside a Proof, annotated with the goal
// state before it executes and the term context its AST references.
type ProofStep struct {
	Text    string     `json:"text"`
	Goals   GoalAnswer `json:"goals"`
	Context []Term     `json:"context"`

	stepIndex int // index into the document's step sequence, used by GoalAttacher
}

// Proof groups a proof opener with its tactic steps.
type Proof struct {
	OpenerStepIndex int         `json:"opener_step_index"`
	Text            string      `json:"text"`
	Type            TermType    `json:"type"`
	Context         []Term      `json:"context"`
	Steps           []ProofStep `json:"steps"`
	Closed          bool        `json:"closed"`
	ProofPath       []string    `json:"proof_path"`

	closerStepIndex int // -1 if still open
}

// FileContext is the symbol table accumulated by TermContext: fully
// qualified terms, short-name aliases, and an ordered notation list.
type FileContext struct {
	Terms     map[string]Term
	Aliases   map[string]string
	Notations []Term
}

// NewFileContext allocates a FileContext with fresh, non-shared
// containers. Every construction owns its own maps and slice; sharing a
// default instance would leak terms across files.
func NewFileContext() *FileContext {
	return &FileContext{
		Terms:   make(map[string]Term),
		Aliases: make(map[string]string),
	}
}

// Update merges other into fc: Terms/Aliases entries are replaced by key,
// Notations are appended in order.
func (fc *FileContext) Update(other *FileContext) {
	for k, v := range other.Terms {
		fc.Terms[k] = v
	}
	for k, v := range other.Aliases {
		fc.Aliases[k] = v
	}
	fc.Notations = append(fc.Notations, other.Notations...)
}
