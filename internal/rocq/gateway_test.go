package rocq

import (
	"context"
	"encoding/json"
	"log"
	"testing"
)

func newHandlerOnlyGateway(t *testing.T, uri, text string) *LSPGateway {
	t.Helper()
	gw := &LSPGateway{
		logger:   log.Default(),
		pending:  make(map[int64]chan *envelope),
		handlers: make(map[string]func(json.RawMessage)),
		docs:     make(map[string]*gatewayDoc),
	}
	gw.docs[uri] = newGatewayDoc(text)
	return gw
}

func TestHandleDiagnosticsStoresPerDocument(t *testing.T) {
	uri := "file:///x.v"
	gw := newHandlerOnlyGateway(t, uri, "Theorem t : True.")

	params, err := json.Marshal(map[string]any{
		"uri": uri,
		"diagnostics": []Diagnostic{
			{Message: "oops", Severity: SeverityError},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	gw.handleDiagnostics(params)

	diags := gw.Diagnostics(uri)
	if len(diags) != 1 || diags[0].Message != "oops" {
		t.Fatalf("Diagnostics = %+v, want the published one", diags)
	}
	if got := gw.Diagnostics("file:///other.v"); got != nil {
		t.Fatalf("Diagnostics for an unopened uri = %+v, want nil", got)
	}
}

func TestAwaitReadySignaledByEmptyProgress(t *testing.T) {
	uri := "file:///x.v"
	gw := newHandlerOnlyGateway(t, uri, "Theorem t : True.")

	progress := func(infos []CoqFileProgressInfo) {
		params, err := json.Marshal(CoqFileProgressParams{
			TextDocument: VersionedTextDocumentIdentifier{URI: uri, Version: 1},
			Processing:   infos,
		})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		gw.handleFileProgress(params)
	}

	// Still processing, then done.
	progress([]CoqFileProgressInfo{{Range: Range{}}})
	progress(nil)

	if err := gw.AwaitReady(context.Background(), uri); err != nil {
		t.Fatalf("AwaitReady after empty progress: %v", err)
	}
}

func TestAwaitReadyReportsFatalProgress(t *testing.T) {
	uri := "file:///x.v"
	gw := newHandlerOnlyGateway(t, uri, "Theorem t : True.")

	fatal := ProgressFatalError
	params, err := json.Marshal(CoqFileProgressParams{
		TextDocument: VersionedTextDocumentIdentifier{URI: uri, Version: 1},
		Processing:   []CoqFileProgressInfo{{Kind: &fatal}},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	gw.handleFileProgress(params)

	empty, err := json.Marshal(CoqFileProgressParams{
		TextDocument: VersionedTextDocumentIdentifier{URI: uri, Version: 1},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	gw.handleFileProgress(empty)

	if err := gw.AwaitReady(context.Background(), uri); !IsKind(err, KindInvalidFile) {
		t.Fatalf("AwaitReady after fatal progress = %v, want KindInvalidFile", err)
	}
}
