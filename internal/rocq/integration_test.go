package rocq

// integration_test.go — drives the whole open pipeline (span build, term
// walk, proof grouping, goal attachment) over the testdata fixture with
// the fake gateway, checking the derived views against the file as a
// reader would see it.

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenValidFileFixture(t *testing.T) {
	path := filepath.Join("testdata", "valid_file.v")
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	gw := newFakeGateway()
	pf, err := OpenWithGateway(context.Background(), gw, path, Config{})
	if err != nil {
		t.Fatalf("OpenWithGateway: %v", err)
	}
	t.Cleanup(func() { _ = pf.Close(context.Background()) })

	if got := ConcatText(pf.Steps()); got != string(src) {
		t.Fatalf("step texts do not concatenate back to the file:\ngot:  %q\nwant: %q", got, string(src))
	}
	if !pf.IsValid() {
		t.Fatal("the fixture should open without error diagnostics")
	}

	// The lemma plus the four theorems, all closed at EOF.
	proofs := pf.Proofs()
	if len(proofs) != 5 {
		t.Fatalf("len(Proofs()) = %d, want 5: %+v", len(proofs), proofs)
	}
	if got := pf.OpenProofs(); len(got) != 0 {
		t.Fatalf("len(OpenProofs()) = %d, want 0: %+v", len(got), got)
	}
	var theorems []Proof
	for _, p := range proofs {
		if p.Type == TermTheorem {
			theorems = append(theorems, p)
		}
	}
	if len(theorems) != 4 {
		t.Fatalf("theorem count = %d, want 4: %+v", len(theorems), proofs)
	}

	// The accumulated symbol table saw every top-level definition.
	fc := pf.Context()
	for _, name := range []string{"natural", "plus", "plus_O_n"} {
		if _, ok := fc.Terms[name]; !ok {
			t.Errorf("Terms missing %q: %+v", name, fc.Terms)
		}
	}
	if len(fc.Notations) != 1 || fc.Notations[0].Pattern != "n + m" {
		t.Errorf("Notations = %+v, want the single n + m notation", fc.Notations)
	}

	// The second theorem's rewrite step references the earlier lemma, and
	// its opener statement references the inductive and the fixpoint in
	// first-occurrence order.
	var rewriteProof *Proof
	for i := range theorems {
		if strings.HasPrefix(strings.TrimSpace(theorems[i].Text), "Theorem rewrite_example") {
			rewriteProof = &theorems[i]
		}
	}
	if rewriteProof == nil {
		t.Fatalf("rewrite_example not found among %+v", theorems)
	}
	if len(rewriteProof.Context) != 2 ||
		rewriteProof.Context[0].Type != TermInductive ||
		rewriteProof.Context[1].Type != TermFixpoint {
		t.Fatalf("opener Context = %+v, want [natural, plus]", rewriteProof.Context)
	}

	var rewriteStep *ProofStep
	for i := range rewriteProof.Steps {
		if strings.Contains(rewriteProof.Steps[i].Text, "rewrite") {
			rewriteStep = &rewriteProof.Steps[i]
		}
	}
	if rewriteStep == nil {
		t.Fatalf("no rewrite step in %+v", rewriteProof.Steps)
	}
	if len(rewriteStep.Context) != 1 || rewriteStep.Context[0].Type != TermLemma {
		t.Fatalf("rewrite step Context = %+v, want just the plus_O_n lemma", rewriteStep.Context)
	}
	if !strings.HasPrefix(rewriteStep.Context[0].Text, "Lemma plus_O_n") {
		t.Errorf("rewrite step Context[0].Text = %q, want the plus_O_n lemma", rewriteStep.Context[0].Text)
	}
	if rewriteStep.Goals.Goals == nil {
		t.Error("rewrite step should carry an attached goal state")
	}
}
