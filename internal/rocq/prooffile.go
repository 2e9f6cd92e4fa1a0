package rocq

// prooffile.go — ProofFile: the read-only facade plus mutation API that
// wires ServerGateway, SpanIndex, TermContext, ProofGrouper and
// GoalAttacher together over one open document.

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// ProofFile is the engine's top-level handle on one Coq source file.
type ProofFile struct {
	path string
	uri  string
	gw   ServerGateway

	ownedGateway bool // Close() shuts the server down too, when true

	timeout time.Duration // bound on every blocking gateway call

	ce        *ChangeEngine
	tc        *TermContext
	allProofs []Proof

	// cursor is how many of ce.Steps() count as "taken" — it partitions
	// allProofs into Proofs() (closed before cursor) and OpenProofs()
	// (opened before cursor, not yet closed by it). It never touches the
	// server; Exec only moves this view.
	cursor int
}

// Open reads path, spawns a language server per cfg, and builds every
// derived view over the file.
func Open(ctx context.Context, path string, cfg Config) (*ProofFile, error) {
	workspaceURI := FileURI(filepath.Dir(path))
	if cfg.Workspace != "" {
		workspaceURI = FileURI(cfg.Workspace)
	}
	gw, err := NewLSPGateway(ctx, cfg, workspaceURI, log.Default())
	if err != nil {
		return nil, err
	}
	pf, err := OpenWithGateway(ctx, gw, path, cfg)
	if err != nil {
		return nil, err
	}
	pf.ownedGateway = true
	return pf, nil
}

// OpenWithGateway builds a ProofFile over an already-constructed
// ServerGateway — the entry point tests use to substitute a fake gateway.
func OpenWithGateway(ctx context.Context, gw ServerGateway, path string, cfg Config) (*ProofFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errInvalidFile(fmt.Sprintf("read %s", path), err)
	}
	text := string(data)
	uri := FileURI(path)

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	openCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := gw.Open(openCtx, uri, text); err != nil {
		return nil, err
	}
	doc, err := gw.FlecheDocument(openCtx, uri)
	if err != nil {
		return nil, errServerUnavailable(err)
	}
	steps, err := BuildSteps(doc, text)
	if err != nil {
		return nil, errInvalidFile("build initial steps", err)
	}

	pf := &ProofFile{
		path:    path,
		uri:     uri,
		gw:      gw,
		timeout: timeout,
		ce:      NewChangeEngine(gw, uri, text, steps),
	}
	if err := pf.rebuildDerived(openCtx); err != nil {
		return nil, err
	}
	pf.cursor = len(steps)
	return pf, nil
}

// rebuildDerived recomputes the term table, proof groups and attached
// goals from the engine's current step sequence. This always recomputes
// from scratch rather than patching just the changed suffix — simpler,
// and correct, at the cost of redoing work a finer-grained engine would
// skip.
func (pf *ProofFile) rebuildDerived(ctx context.Context) error {
	steps := pf.ce.Steps()

	tc := NewTermContext()
	tc.Walk(steps)

	proofs := NewProofGrouper().Group(steps)

	ga := NewGoalAttacher(pf.gw, pf.uri, tc, DefaultGoalConcurrency)
	if err := ga.Attach(ctx, steps, proofs); err != nil {
		return errServerUnavailable(err)
	}

	pf.tc = tc
	pf.allProofs = proofs
	return nil
}

// Steps returns every sentence in the file, in document order.
func (pf *ProofFile) Steps() []Step { return pf.ce.Steps() }

// StepsTaken returns the prefix of Steps() up to the current cursor.
func (pf *ProofFile) StepsTaken() []Step {
	steps := pf.ce.Steps()
	cursor := pf.cursor
	if cursor > len(steps) {
		cursor = len(steps)
	}
	return steps[:cursor]
}

// Proofs returns every proof fully closed before the cursor.
func (pf *ProofFile) Proofs() []Proof {
	var out []Proof
	for _, p := range pf.allProofs {
		if p.OpenerStepIndex < pf.cursor && p.Closed && p.closerStepIndex < pf.cursor {
			out = append(out, p)
		}
	}
	return out
}

// OpenProofs returns every proof opened before the cursor but not yet
// closed by it — either genuinely unclosed at EOF, or closed at or after
// the cursor position.
func (pf *ProofFile) OpenProofs() []Proof {
	var out []Proof
	for _, p := range pf.allProofs {
		if p.OpenerStepIndex >= pf.cursor {
			continue
		}
		if p.Closed && p.closerStepIndex < pf.cursor {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Exec moves the cursor by n steps (negative rewinds), clamped to
// [0, len(Steps())]. It never talks to the server — every step's goals
// were already attached when the file (or the last edit) was built.
func (pf *ProofFile) Exec(n int) {
	cursor := pf.cursor + n
	if cursor < 0 {
		cursor = 0
	}
	if max := len(pf.ce.Steps()); cursor > max {
		cursor = max
	}
	pf.cursor = cursor
}

// Diagnostics returns the server's latest diagnostics for the file.
func (pf *ProofFile) Diagnostics() []Diagnostic { return pf.gw.Diagnostics(pf.uri) }

// IsValid reports whether the file currently carries no error-severity
// diagnostics.
func (pf *ProofFile) IsValid() bool { return countErrorDiagnostics(pf.Diagnostics()) == 0 }

// Context returns the accumulated symbol table.
func (pf *ProofFile) Context() *FileContext { return pf.tc.Context() }

// withinOpenProof reports whether stepIndex sits at or after some proof's
// opener and before its closer (or, for an unclosed proof, anywhere from
// its opener on), whether or not the cursor has passed that closer — the
// region add_step/delete_step are allowed to touch directly.
func (pf *ProofFile) withinOpenProof(stepIndex int) bool {
	if stepIndex < 0 {
		return false
	}
	for _, p := range pf.allProofs {
		if stepIndex < p.OpenerStepIndex {
			continue
		}
		if p.Closed && stepIndex >= p.closerStepIndex {
			continue
		}
		return true
	}
	return false
}

// AddStep inserts one sentence after step afterIndex. Only valid when
// afterIndex lies inside a proof (from its opener up to, not including,
// its closer); use ChangeSteps for edits elsewhere in the file.
func (pf *ProofFile) AddStep(ctx context.Context, afterIndex int, text string) (string, error) {
	if !pf.withinOpenProof(afterIndex) {
		return "", errNotImplemented("add_step outside any proof is deliberately unsupported; use change_steps")
	}
	ctx, cancel := context.WithTimeout(ctx, pf.timeout)
	defer cancel()
	id, err := pf.ce.AddStep(ctx, afterIndex, text)
	if err != nil {
		return "", err
	}
	if err := pf.rebuildDerived(ctx); err != nil {
		return "", err
	}
	pf.clampCursor()
	return id, nil
}

// DeleteStep removes the step at index. Only valid when index lies inside
// a proof (from its opener up to, not including, its closer); use
// ChangeSteps for edits elsewhere in the file.
func (pf *ProofFile) DeleteStep(ctx context.Context, index int) (string, error) {
	if !pf.withinOpenProof(index) {
		return "", errNotImplemented("delete_step outside any proof is deliberately unsupported; use change_steps")
	}
	ctx, cancel := context.WithTimeout(ctx, pf.timeout)
	defer cancel()
	id, err := pf.ce.DeleteStep(ctx, index)
	if err != nil {
		return "", err
	}
	if err := pf.rebuildDerived(ctx); err != nil {
		return "", err
	}
	pf.clampCursor()
	return id, nil
}

// ChangeSteps applies an ordered batch of adds/deletes anywhere in the
// file, including outside any proof.
func (pf *ProofFile) ChangeSteps(ctx context.Context, edits []Edit) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pf.timeout)
	defer cancel()
	id, err := pf.ce.ChangeSteps(ctx, edits)
	if err != nil {
		return "", err
	}
	if err := pf.rebuildDerived(ctx); err != nil {
		return "", err
	}
	pf.clampCursor()
	return id, nil
}

func (pf *ProofFile) clampCursor() {
	if max := len(pf.ce.Steps()); pf.cursor > max {
		pf.cursor = max
	}
}

// Close closes the document and, if this ProofFile spawned its own
// gateway, shuts the server subprocess down too.
func (pf *ProofFile) Close(ctx context.Context) error {
	err := pf.gw.Close(ctx, pf.uri)
	if pf.ownedGateway {
		if lg, ok := pf.gw.(*LSPGateway); ok {
			if serr := lg.Shutdown(ctx); serr != nil && err == nil {
				err = serr
			}
		}
	}
	return err
}
