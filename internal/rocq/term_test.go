package rocq

import "testing"

const termSampleSource = `Module Nat2.
Definition double (n : nat) := n + n.
Notation "x ** y" := (double x + y) (at level 50) : my_scope.
Section Helpers.
Definition triple (n : nat) := n + n + n.
End Helpers.
End Nat2.
Import Nat2.
`

func buildTermContext(t *testing.T, src string) (*TermContext, []Step) {
	t.Helper()
	doc := &FlecheDocument{Spans: fakeSentenceSpans(src)}
	steps, err := BuildSteps(doc, src)
	if err != nil {
		t.Fatalf("BuildSteps: %v", err)
	}
	tc := NewTermContext()
	tc.Walk(steps)
	return tc, steps
}

func TestTermContextQualifiesAndResolvesThroughImport(t *testing.T) {
	tc, _ := buildTermContext(t, termSampleSource)

	if _, ok := tc.Context().Terms["Nat2.double"]; !ok {
		t.Fatalf("expected Nat2.double in Terms, got %+v", tc.Context().Terms)
	}

	// Triple was defined inside Section Helpers, nested inside Module
	// Nat2, so its permanent key carries both names.
	if _, ok := tc.Context().Terms["Nat2.Helpers.triple"]; !ok {
		t.Fatalf("expected Nat2.Helpers.triple in Terms, got %+v", tc.Context().Terms)
	}

	// The Section close should have made "triple" resolvable by its bare
	// short name permanently, regardless of the later Import.
	if got, ok := tc.Lookup("triple"); !ok || got.QualifiedName("triple") != "Nat2.Helpers.triple" {
		t.Fatalf("expected \"triple\" to resolve via the Section-close alias, got %+v ok=%v", got, ok)
	}

	// The trailing "Import Nat2." should have created a short alias for
	// double (a direct, un-nested member of Nat2).
	if got, ok := tc.Lookup("double"); !ok || got.QualifiedName("double") != "Nat2.double" {
		t.Fatalf("expected \"double\" to resolve via the Nat2 import alias, got %+v ok=%v", got, ok)
	}
}

func TestTermContextModuleEndRequiresQualification(t *testing.T) {
	src := `Module M.
Definition inner := 1.
End M.
`
	tc, _ := buildTermContext(t, src)
	if _, ok := tc.Context().Terms["M.inner"]; !ok {
		t.Fatalf("M.inner should remain in Terms permanently, got %+v", tc.Context().Terms)
	}
	if _, ok := tc.Lookup("inner"); ok {
		t.Fatalf("\"inner\" should not resolve once outside Module M without an Import")
	}
	if got, ok := tc.Lookup("M.inner"); !ok || got.Text == "" {
		t.Fatalf("\"M.inner\" should still resolve by its qualified name")
	}
}

func TestGetNotationScopedBeatsUnscoped(t *testing.T) {
	tc := NewTermContext()
	tc.fc.Notations = []Term{
		{Pattern: "x + y", Scope: ""},
		{Pattern: "x + y", Scope: "nat"},
	}

	got, err := tc.GetNotation("x + y", "nat")
	if err != nil {
		t.Fatalf("GetNotation: %v", err)
	}
	if got.Scope != "nat" {
		t.Errorf("GetNotation(scope=nat) = scope %q, want the scoped match", got.Scope)
	}

	got, err = tc.GetNotation("x + y", "other_scope")
	if err != nil {
		t.Fatalf("GetNotation: %v", err)
	}
	if got.Scope != "" {
		t.Errorf("GetNotation(scope=other_scope) = scope %q, want the unscoped fallback", got.Scope)
	}

	if _, err := tc.GetNotation("missing", ""); err == nil {
		t.Error("GetNotation(missing pattern) should error")
	}
}

func TestStepContextOrdersByFirstOccurrence(t *testing.T) {
	src := `Definition foo := 1.
Definition bar := 2.
Theorem t : bar + foo = foo + bar.
`
	tc, steps := buildTermContext(t, src)

	ctxTerms := tc.StepContext(steps[2], nil)
	if len(ctxTerms) != 2 {
		t.Fatalf("len(StepContext) = %d, want 2: %+v", len(ctxTerms), ctxTerms)
	}
	// bar appears before foo in the theorem statement, so it comes first,
	// and each term appears once despite being referenced twice.
	if ctxTerms[0].Text != "Definition bar := 2." {
		t.Errorf("StepContext[0].Text = %q, want bar's definition", ctxTerms[0].Text)
	}
	if ctxTerms[1].Text != "Definition foo := 1." {
		t.Errorf("StepContext[1].Text = %q, want foo's definition", ctxTerms[1].Text)
	}
}

func TestStepContextPrefersStructuralRefs(t *testing.T) {
	src := `Definition foo := 1.
Definition bar := 2.
Theorem t : bar + foo = foo + bar.
`
	tc, steps := buildTermContext(t, src)

	ctxTerms := tc.StepContext(steps[2], []string{"foo"})
	if len(ctxTerms) != 1 || ctxTerms[0].Text != "Definition foo := 1." {
		t.Fatalf("StepContext with structural refs = %+v, want just foo", ctxTerms)
	}
}
