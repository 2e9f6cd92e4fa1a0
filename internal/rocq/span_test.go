package rocq

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleSource = `Theorem plus_O_n : forall n, 0 + n = n.
Proof.
intros n.
reflexivity.
Qed.
`

func TestBuildStepsAndConcatText(t *testing.T) {
	doc := &FlecheDocument{Spans: fakeSentenceSpans(sampleSource)}
	steps, err := BuildSteps(doc, sampleSource)
	if err != nil {
		t.Fatalf("BuildSteps: %v", err)
	}
	if len(steps) != 5 {
		t.Fatalf("len(steps) = %d, want 5: %+v", len(steps), steps)
	}

	if got := ConcatText(steps); got != sampleSource {
		t.Fatalf("ConcatText round-trip mismatch:\ngot:  %q\nwant: %q", got, sampleSource)
	}

	if steps[0].ASTTag.Opener == nil || steps[0].ASTTag.Opener.Type != TermTheorem {
		t.Errorf("step 0 classification = %+v, want Theorem opener", steps[0].ASTTag)
	}
	if steps[4].ASTTag.Closer == nil {
		t.Errorf("step 4 classification = %+v, want closer", steps[4].ASTTag)
	}
}

func TestStepIndexLookup(t *testing.T) {
	doc := &FlecheDocument{Spans: fakeSentenceSpans(sampleSource)}
	steps, err := BuildSteps(doc, sampleSource)
	if err != nil {
		t.Fatalf("BuildSteps: %v", err)
	}
	idx := NewStepIndex(steps, sampleSource)

	for i, step := range steps {
		offsets := newLineOffsets(sampleSource)
		start := offsets.toByteOffset(step.Range.Start)
		if got := idx.StepAt(start); got != i {
			t.Errorf("StepAt(%d) = %d, want %d", start, got, i)
		}
	}

	if got := idx.StepAt(len(sampleSource) + 10); got != -1 {
		t.Errorf("StepAt(out of range) = %d, want -1", got)
	}
}

func TestBuildStepsTextSequenceMatchesSource(t *testing.T) {
	doc := &FlecheDocument{Spans: fakeSentenceSpans(sampleSource)}
	steps, err := BuildSteps(doc, sampleSource)
	if err != nil {
		t.Fatalf("BuildSteps: %v", err)
	}

	want := []string{
		"Theorem plus_O_n : forall n, 0 + n = n.",
		"\nProof.",
		"\nintros n.",
		"\nreflexivity.",
		"\nQed.\n",
	}
	got := make([]string, len(steps))
	for i, s := range steps {
		got[i] = s.Text
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("step text sequence mismatch (-want +got):\n%s", diff)
	}
}
