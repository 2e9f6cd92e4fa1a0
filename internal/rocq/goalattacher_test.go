package rocq

import (
	"context"
	"fmt"
	"testing"
)

func TestGoalAttacherRecordsPerStepErrors(t *testing.T) {
	src := `Theorem t : True.
Proof.
exact I.
Qed.
`
	doc := &FlecheDocument{Spans: fakeSentenceSpans(src)}
	steps, err := BuildSteps(doc, src)
	if err != nil {
		t.Fatalf("BuildSteps: %v", err)
	}
	tc := NewTermContext()
	tc.Walk(steps)
	proofs := NewProofGrouper().Group(steps)
	if len(proofs) != 1 || len(proofs[0].Steps) != 2 {
		t.Fatalf("unexpected grouping: %+v", proofs)
	}

	// The first proof step ("Proof.") starts on line 0, right after the
	// opener's period; fail that one and answer the other.
	gw := newFakeGateway()
	gw.goalsFn = func(uri string, pos Position) (*GoalAnswer, error) {
		if pos.Line == 0 {
			return nil, fmt.Errorf("no proof state here")
		}
		return &GoalAnswer{Position: pos, Goals: &GoalConfig{Goals: []Goal{{Ty: "True"}}}}, nil
	}

	ga := NewGoalAttacher(gw, "file:///t.v", tc, 2)
	if err := ga.Attach(context.Background(), steps, proofs); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	first, second := proofs[0].Steps[0], proofs[0].Steps[1]
	if first.Goals.Error == nil {
		t.Errorf("expected the failed step to carry Goals.Error, got %+v", first.Goals)
	}
	if second.Goals.Goals == nil || len(second.Goals.Goals.Goals) != 1 {
		t.Errorf("expected the other step to carry its goal state, got %+v", second.Goals)
	}
}
