package rocq

// change.go — ChangeEngine: the staged-edit/rollback core behind
// add_step/delete_step/change_steps. Every edit is applied to the
// server as one full-text textDocument/didChange, validated against the
// server's re-synced span count and diagnostics, and rolled back
// wholesale on any violation — there is no partial commit.

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EditKind distinguishes the two primitive operations a ChangeSteps batch
// can combine.
type EditKind int

const (
	EditAdd EditKind = iota
	EditDelete
)

// Edit is one primitive buffer operation, addressed against the step
// indices of the engine's state *before* the batch containing it is
// applied — edits in a ChangeSteps batch never see each other's shifts.
type Edit struct {
	Kind       EditKind
	AfterIndex int    // EditAdd: insert after this step index; -1 inserts before step 0
	Index      int    // EditDelete: step index to remove
	Text       string // EditAdd: the new step's source text
}

// ChangeEngine owns the mutable document state (full text, LSP version,
// and the derived Step sequence) for one open file and mediates every
// mutation through the server.
type ChangeEngine struct {
	uri string
	gw  ServerGateway

	text    string
	version int
	steps   []Step
}

// NewChangeEngine wraps an already-opened document at version 1.
func NewChangeEngine(gw ServerGateway, uri, text string, steps []Step) *ChangeEngine {
	return &ChangeEngine{uri: uri, gw: gw, text: text, version: 1, steps: steps}
}

// Text, Version and Steps expose the engine's current committed state.
func (ce *ChangeEngine) Text() string { return ce.text }
func (ce *ChangeEngine) Version() int { return ce.version }
func (ce *ChangeEngine) Steps() []Step {
	out := make([]Step, len(ce.steps))
	copy(out, ce.steps)
	return out
}

// AddStep inserts one new sentence after step afterIndex (-1 for "before
// the first step") and validates the result.
func (ce *ChangeEngine) AddStep(ctx context.Context, afterIndex int, text string) (string, error) {
	if err := validateSingleSentence(text); err != nil {
		return "", err
	}
	return ce.apply(ctx, []Edit{{Kind: EditAdd, AfterIndex: afterIndex, Text: text}}, 1, KindInvalidAdd)
}

// DeleteStep removes the step at index and validates the result.
func (ce *ChangeEngine) DeleteStep(ctx context.Context, index int) (string, error) {
	return ce.apply(ctx, []Edit{{Kind: EditDelete, Index: index}}, -1, KindInvalidDelete)
}

// ChangeSteps applies an ordered batch of adds/deletes as a single
// version bump, validating the net step-count delta.
func (ce *ChangeEngine) ChangeSteps(ctx context.Context, edits []Edit) (string, error) {
	delta := 0
	for _, e := range edits {
		switch e.Kind {
		case EditAdd:
			if err := validateSingleSentence(e.Text); err != nil {
				return "", err
			}
			delta++
		case EditDelete:
			delta--
		}
	}
	return ce.apply(ctx, edits, delta, batchFailKind(edits))
}

// batchFailKind picks the error kind a failed batch surfaces with: a
// batch of only adds fails as an invalid add, only deletes as an invalid
// delete, and a mixed batch as the kind-ambiguous InvalidStep.
func batchFailKind(edits []Edit) Kind {
	adds, deletes := false, false
	for _, e := range edits {
		switch e.Kind {
		case EditAdd:
			adds = true
		case EditDelete:
			deletes = true
		}
	}
	switch {
	case adds && !deletes:
		return KindInvalidAdd
	case deletes && !adds:
		return KindInvalidDelete
	}
	return KindInvalidStep
}

// apply builds the new buffer, pushes it to the server, re-syncs the
// span sequence, and validates it against expectedDelta and the
// untouched-step/no-new-errors invariants, rolling back on any failure.
// failKind is the taxonomy kind a validation failure surfaces with.
func (ce *ChangeEngine) apply(ctx context.Context, edits []Edit, expectedDelta int, failKind Kind) (string, error) {
	snapshotText := ce.text
	snapshotVersion := ce.version
	snapshotSteps := ce.steps
	snapshotErrors := countErrorDiagnostics(ce.gw.Diagnostics(ce.uri))
	if snapshotErrors > 0 {
		return "", errInvalidFile("the file already contains errors; refusing to edit", nil)
	}

	newText, err := buildEditedText(snapshotSteps, edits)
	if err != nil {
		return "", err
	}
	newVersion := snapshotVersion + 1

	if err := ce.gw.Change(ctx, ce.uri, newVersion, newText); err != nil {
		return "", errServerUnavailable(err)
	}

	// Rollback sends a second change reverting to the previous text, with
	// another version bump — document versions only ever move forward. The
	// step/proof state is restored from the snapshot; only the version
	// records that the failed attempt happened.
	rollback := func(cause error) error {
		rctx := context.Background()
		ce.version = newVersion + 1
		_ = ce.gw.Change(rctx, ce.uri, ce.version, snapshotText)
		_ = ce.gw.AwaitReady(rctx, ce.uri)
		return cause
	}

	doc, err := ce.gw.FlecheDocument(ctx, ce.uri)
	if err != nil {
		return "", rollback(errServerUnavailable(err))
	}
	newSteps, err := BuildSteps(doc, newText)
	if err != nil {
		return "", rollback(errInvalidFile("rebuild steps after edit", err))
	}

	if len(newSteps) != len(snapshotSteps)+expectedDelta {
		return "", rollback(newErr(failKind, fmt.Sprintf(
			"expected %d steps after edit, got %d", len(snapshotSteps)+expectedDelta, len(newSteps)), nil))
	}
	if err := checkUntouchedSteps(snapshotSteps, newSteps, edits, failKind); err != nil {
		return "", rollback(err)
	}
	if n := countErrorDiagnostics(ce.gw.Diagnostics(ce.uri)); n > snapshotErrors {
		return "", rollback(newErr(failKind, "edit introduced a new error diagnostic", nil))
	}

	ce.text = newText
	ce.version = newVersion
	ce.steps = newSteps

	// The on-disk file is written back byte-exact on every successful
	// change.
	if err := ce.gw.Save(ce.uri); err != nil {
		return "", errServerUnavailable(fmt.Errorf("save after successful change: %w", err))
	}
	return uuid.NewString(), nil
}

// buildEditedText splices edits into steps' concatenated text, addressing
// every edit against the original (pre-batch) step indices.
func buildEditedText(steps []Step, edits []Edit) (string, error) {
	deleted := make(map[int]bool)
	inserts := make(map[int][]string)

	for _, e := range edits {
		switch e.Kind {
		case EditDelete:
			if e.Index < 0 || e.Index >= len(steps) {
				return "", errInvalidDelete(fmt.Sprintf("index %d out of range", e.Index))
			}
			deleted[e.Index] = true
		case EditAdd:
			if e.AfterIndex < -1 || e.AfterIndex >= len(steps) {
				return "", errInvalidAdd(fmt.Sprintf("after_index %d out of range", e.AfterIndex))
			}
			if strings.TrimSpace(e.Text) == "" {
				return "", errInvalidAdd("empty step text")
			}
			inserts[e.AfterIndex] = append(inserts[e.AfterIndex], e.Text)
		}
	}

	var b strings.Builder
	for _, t := range inserts[-1] {
		b.WriteString(t)
	}
	for i, s := range steps {
		if !deleted[i] {
			b.WriteString(s.Text)
		}
		for _, t := range inserts[i] {
			b.WriteString(t)
		}
	}
	return b.String(), nil
}

// checkUntouchedSteps verifies every surviving (non-deleted) step's text
// appears, unchanged and in order, inside newSteps, with exactly as many
// extra steps as the batch's adds. A violation surfaces as failKind.
func checkUntouchedSteps(oldSteps, newSteps []Step, edits []Edit, failKind Kind) error {
	deleted := make(map[int]bool)
	numInserted := 0
	for _, e := range edits {
		switch e.Kind {
		case EditDelete:
			deleted[e.Index] = true
		case EditAdd:
			numInserted++
		}
	}

	var survivors []string
	for i, s := range oldSteps {
		if !deleted[i] {
			survivors = append(survivors, s.Text)
		}
	}

	j := 0
	for _, ns := range newSteps {
		if j < len(survivors) && ns.Text == survivors[j] {
			j++
		}
	}
	if j != len(survivors) {
		return newErr(failKind, "an unmodified step's text changed", nil)
	}
	if len(newSteps)-len(survivors) != numInserted {
		return newErr(failKind, "unexpected number of steps after edit", nil)
	}
	return nil
}

func countErrorDiagnostics(diags []Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}

// validateSingleSentence rejects text that is empty, doesn't end with a
// terminating period, or encodes more than one Coq sentence — add_step
// and the individual entries of a change_steps batch may each introduce
// exactly one sentence.
func validateSingleSentence(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return errInvalidAdd("empty step text")
	}
	if !strings.HasSuffix(trimmed, ".") {
		return errInvalidAdd("step text must end with a terminating period")
	}

	count := 0
	inString := false
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		if c == '"' {
			inString = !inString
			continue
		}
		if inString || c != '.' {
			continue
		}
		var next byte
		if i+1 < len(trimmed) {
			next = trimmed[i+1]
		}
		if next == 0 || next == ' ' || next == '\n' || next == '\t' {
			count++
		}
	}
	if count != 1 {
		return errInvalidAdd("step text must contain exactly one sentence")
	}
	return nil
}
