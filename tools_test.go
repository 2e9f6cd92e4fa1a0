package main

import (
	"testing"

	"github.com/rocq-mcp/rocq-mcp/internal/rocq"
)

func TestToEngineEdits(t *testing.T) {
	edits, err := toEngineEdits([]editArg{
		{Kind: "add", AfterIndex: 2, Text: "\nidtac."},
		{Kind: "delete", Index: 5},
	})
	if err != nil {
		t.Fatalf("toEngineEdits: %v", err)
	}
	if len(edits) != 2 {
		t.Fatalf("len(edits) = %d, want 2", len(edits))
	}
	if edits[0].Kind != rocq.EditAdd || edits[0].AfterIndex != 2 || edits[0].Text != "\nidtac." {
		t.Errorf("edits[0] = %+v, want the add", edits[0])
	}
	if edits[1].Kind != rocq.EditDelete || edits[1].Index != 5 {
		t.Errorf("edits[1] = %+v, want the delete", edits[1])
	}
}

func TestToEngineEditsRejectsUnknownKind(t *testing.T) {
	if _, err := toEngineEdits([]editArg{{Kind: "replace"}}); err == nil {
		t.Fatal("expected an error for an unknown edit kind")
	}
}
