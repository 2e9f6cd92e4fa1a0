package rocq

// proofgrouper.go — ProofGrouper: folds the step sequence into Proof
// groups, tracking nested proofs and Program obligations and skipping
// the declarative body of Module Type blocks entirely.

import "sort"

// proofFrame is one entry of the grouper's open-proof stack.
type proofFrame struct {
	proof *Proof
}

// ProofGrouper walks an ordered step sequence and folds it into Proofs.
type ProofGrouper struct{}

// NewProofGrouper returns a ready-to-use ProofGrouper. It carries no
// state of its own between Group calls.
func NewProofGrouper() *ProofGrouper { return &ProofGrouper{} }

// Group returns every Proof found in steps, in document order by opener
// position. A proof still open at EOF is included with Closed == false;
// an Abort'd proof never appears at all.
func (pg *ProofGrouper) Group(steps []Step) []Proof {
	var modulePath []string
	skipDepth := 0
	var stack []*proofFrame
	var finished []*Proof

	// pendingOpener holds a Definition/Fixpoint header (the "Program
	// Definition foo : T." shape) whose role isn't yet known: it might
	// turn out to be a standalone proof (tactics/closer follow directly)
	// or just a text-and-path source for a run of "Next Obligation."
	// proofs, in which case it never becomes a Proof of its own.
	// pendingUsed marks the latter case so it's discarded at EOF instead
	// of being materialized as a bogus unclosed proof.
	var pendingOpener *Proof
	pendingUsed := false

	// obligationParent is the most recent Program definition that carried
	// its own body: never a proof itself, but any "Obligation N." /
	// "Next Obligation." that follows attaches to its sentence.
	var obligationParent *Proof

	for i, step := range steps {
		kind := step.ASTTag

		if skipDepth > 0 {
			switch {
			case kind.ModuleBoundary != nil && kind.ModuleBoundary.Open:
				skipDepth++
			case kind.ModuleBoundary != nil && !kind.ModuleBoundary.Open:
				skipDepth--
			}
			continue
		}

		if pendingOpener != nil && len(stack) == 0 && kind.Obligation == nil {
			if pendingUsed {
				// Claimed by at least one obligation already; keep it around
				// only as the parent for any further obligations.
				obligationParent = pendingOpener
			} else {
				stack = append(stack, &proofFrame{proof: pendingOpener})
			}
			pendingOpener = nil
			pendingUsed = false
		}

		switch {
		case kind.ModuleBoundary != nil && kind.ModuleBoundary.Open:
			if kind.ModuleBoundary.IsModType {
				// Module Type bodies are interface declarations; none of their
				// contents are real proof obligations.
				skipDepth = 1
				continue
			}
			modulePath = append(modulePath, kind.ModuleBoundary.Name)

		case kind.ModuleBoundary != nil && !kind.ModuleBoundary.Open:
			if len(modulePath) > 0 {
				modulePath = modulePath[:len(modulePath)-1]
			}

		case kind.Obligation != nil:
			parentText := ""
			parentPath := append([]string(nil), modulePath...)
			if pendingOpener != nil {
				parentText = pendingOpener.Text
				parentPath = append([]string(nil), pendingOpener.ProofPath...)
				pendingUsed = true
			} else if obligationParent != nil {
				parentText = obligationParent.Text
				parentPath = append([]string(nil), obligationParent.ProofPath...)
			} else if len(stack) > 0 {
				top := stack[len(stack)-1].proof
				parentText = top.Text
				parentPath = append([]string(nil), top.ProofPath...)
			}
			p := &Proof{
				OpenerStepIndex: i,
				Text:            parentText,
				Type:            TermObligation,
				ProofPath:       parentPath,
				closerStepIndex: -1,
			}
			stack = append(stack, &proofFrame{proof: p})

		case kind.Opener != nil && kind.IsProofOpener(step.Text):
			obligationParent = nil
			p := &Proof{
				OpenerStepIndex: i,
				Text:            step.Text,
				Type:            kind.Opener.Type,
				ProofPath:       append([]string(nil), modulePath...),
				closerStepIndex: -1,
			}
			if kind.Opener.Type == TermDefinition || kind.Opener.Type == TermFixpoint {
				// Might be a Program header for obligations to come; defer
				// until we see what follows it.
				pendingOpener = p
				pendingUsed = false
			} else {
				stack = append(stack, &proofFrame{proof: p})
			}

		case kind.Opener != nil && kind.Opener.Program:
			// A Program definition that carries its own body: not a proof,
			// but the parent sentence for the obligations its holes generate.
			obligationParent = &Proof{
				Text:      step.Text,
				ProofPath: append([]string(nil), modulePath...),
			}

		case kind.Closer != nil:
			if len(stack) == 0 {
				continue // a stray Defined/Qed after a non-proof Definition
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if kind.Closer.Keyword == "Abort" {
				continue // popped without recording
			}
			top.proof.Closed = true
			top.proof.closerStepIndex = i
			finished = append(finished, top.proof)

		default:
			if len(stack) > 0 {
				top := stack[len(stack)-1].proof
				top.Steps = append(top.Steps, ProofStep{Text: step.Text, stepIndex: i})
			}
		}
	}

	// A header that was claimed by at least one obligation never becomes
	// a Proof of its own; one that never saw a body or an obligation is
	// just an unclosed standalone proof.
	if pendingOpener != nil && !pendingUsed {
		stack = append(stack, &proofFrame{proof: pendingOpener})
	}

	// Anything left open at EOF is still part of the output, just unclosed.
	for _, frame := range stack {
		finished = append(finished, frame.proof)
	}

	sort.Slice(finished, func(a, b int) bool {
		return finished[a].OpenerStepIndex < finished[b].OpenerStepIndex
	})

	out := make([]Proof, len(finished))
	for i, p := range finished {
		out[i] = *p
	}
	return out
}
