package rocq

// gateway.go — ServerGateway: the thin request/response adapter over the
// Coq language server. The rest of the engine only ever talks to the
// ServerGateway interface; LSPGateway is the one concrete implementation,
// driving a subprocess that speaks the coq-lsp/Fleche extensions
// (proof/goals, coq/getDocument, $/coq/fileProgress).

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ServerGateway is the contract the rest of the engine consumes. Every
// method is synchronous from the caller's perspective.
type ServerGateway interface {
	// Open begins tracking uri at version 1 with the given text.
	Open(ctx context.Context, uri, text string) error
	// Change replaces the full text of uri at newVersion. The gateway
	// always sends a full-text replacement, never a partial edit.
	Change(ctx context.Context, uri string, newVersion int, fullText string) error
	// AwaitReady blocks until the server has finished processing the
	// current version of uri.
	AwaitReady(ctx context.Context, uri string) error
	// Goals returns the goal state at position, or nil if the server has
	// no proof state there.
	Goals(ctx context.Context, uri string, position Position) (*GoalAnswer, error)
	// FlecheDocument returns the server's structured span view of uri.
	FlecheDocument(ctx context.Context, uri string) (*FlecheDocument, error)
	// Diagnostics returns the latest diagnostics the server published
	// for uri's current version.
	Diagnostics(uri string) []Diagnostic
	// Save persists uri's current in-memory text to disk, byte-exact.
	Save(uri string) error
	// Close stops tracking uri and notifies the server.
	Close(ctx context.Context, uri string) error
}

// gatewayDoc is the per-URI bookkeeping the LSPGateway keeps.
type gatewayDoc struct {
	version int
	text    string

	mu          sync.Mutex
	diagnostics []Diagnostic
	processing  []CoqFileProgressInfo
	failed      bool          // a fileProgress entry reported FatalError for this version
	readyCh     chan struct{} // closed/replaced whenever processing becomes empty
}

func newGatewayDoc(text string) *gatewayDoc {
	return &gatewayDoc{version: 1, text: text, readyCh: make(chan struct{})}
}

// LSPGateway drives a real language server subprocess over Content-Length
// framed JSON-RPC (wire.go), implementing ServerGateway.
type LSPGateway struct {
	cmd    *exec.Cmd
	framer *rpcFramer
	logger *log.Logger

	reqID     atomic.Int64
	pending   map[int64]chan *envelope
	pendingMu sync.Mutex

	handlers   map[string]func(json.RawMessage)
	handlersMu sync.RWMutex

	docsMu sync.Mutex
	docs   map[string]*gatewayDoc

	degraded atomic.Bool // set once a call times out; subsequent calls fail fast

	group *errgroup.Group
}

// NewLSPGateway spawns cfg.ServerCommand with cfg.ServerArgs and performs
// the LSP initialize/initialized handshake against rootURI.
func NewLSPGateway(ctx context.Context, cfg Config, rootURI string, logger *log.Logger) (*LSPGateway, error) {
	if logger == nil {
		logger = log.Default()
	}
	cmd := exec.CommandContext(ctx, cfg.ServerCommand, cfg.ServerArgs...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errServerUnavailable(fmt.Errorf("stdin pipe: %w", err))
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errServerUnavailable(fmt.Errorf("stdout pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		return nil, errServerUnavailable(fmt.Errorf("start %s: %w", cfg.ServerCommand, err))
	}

	g, _ := errgroup.WithContext(ctx)
	gw := &LSPGateway{
		cmd:      cmd,
		framer:   newRPCFramer(stdout, stdin),
		logger:   logger,
		pending:  make(map[int64]chan *envelope),
		handlers: make(map[string]func(json.RawMessage)),
		docs:     make(map[string]*gatewayDoc),
		group:    g,
	}

	gw.onNotification("textDocument/publishDiagnostics", gw.handleDiagnostics)
	gw.onNotification("$/coq/fileProgress", gw.handleFileProgress)

	g.Go(gw.readLoop)

	if err := gw.initialize(rootURI); err != nil {
		return nil, err
	}
	return gw, nil
}

func (gw *LSPGateway) onNotification(method string, handler func(json.RawMessage)) {
	gw.handlersMu.Lock()
	defer gw.handlersMu.Unlock()
	gw.handlers[method] = handler
}

func (gw *LSPGateway) readLoop() error {
	for {
		msg, err := gw.framer.readFrame()
		if err != nil {
			gw.degraded.Store(true)
			return err
		}

		switch {
		case msg.ID != nil && msg.Method == "":
			gw.pendingMu.Lock()
			ch, ok := gw.pending[*msg.ID]
			if ok {
				delete(gw.pending, *msg.ID)
			}
			gw.pendingMu.Unlock()
			if ok {
				ch <- msg
			}
		case msg.ID != nil:
			gw.respondDefault(*msg.ID)
		case msg.Method != "":
			gw.handlersMu.RLock()
			handler, ok := gw.handlers[msg.Method]
			gw.handlersMu.RUnlock()
			if ok {
				handler(msg.Params)
			} else {
				gw.logger.Printf("unhandled notification: %s", msg.Method)
			}
		}
	}
}

// respondDefault answers any server→client request with a null result;
// the engine never needs to answer workspace/configuration-style prompts
// for a stock coq-lsp server.
func (gw *LSPGateway) respondDefault(id int64) {
	if err := gw.framer.writeFrame(&envelope{ID: &id, Result: json.RawMessage("null")}); err != nil {
		gw.logger.Printf("respond to server request %d: %v", id, err)
	}
}

func (gw *LSPGateway) request(method string, params any) (json.RawMessage, error) {
	if gw.degraded.Load() {
		return nil, errServerUnavailable(fmt.Errorf("session degraded by a prior timeout"))
	}

	ch := make(chan *envelope, 1)
	id := gw.reqID.Add(1)
	gw.pendingMu.Lock()
	gw.pending[id] = ch
	gw.pendingMu.Unlock()

	abandon := func(err error) (json.RawMessage, error) {
		gw.pendingMu.Lock()
		delete(gw.pending, id)
		gw.pendingMu.Unlock()
		return nil, err
	}

	var rawParams json.RawMessage
	if params != nil {
		var err error
		rawParams, err = json.Marshal(params)
		if err != nil {
			return abandon(err)
		}
	}
	if err := gw.framer.writeFrame(&envelope{ID: &id, Method: method, Params: rawParams}); err != nil {
		return abandon(err)
	}

	resp := <-ch
	if resp.Error != nil {
		return nil, fmt.Errorf("LSP error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

func (gw *LSPGateway) notify(method string, params any) error {
	return gw.framer.notify(method, params)
}

func (gw *LSPGateway) initialize(rootURI string) error {
	params := map[string]any{
		"processId": os.Getpid(),
		"rootUri":   rootURI,
		"capabilities": map[string]any{
			"textDocument": map[string]any{
				"publishDiagnostics": map[string]any{},
			},
		},
	}
	if _, err := gw.request("initialize", params); err != nil {
		return errServerUnavailable(fmt.Errorf("initialize: %w", err))
	}
	return gw.notify("initialized", map[string]any{})
}

func (gw *LSPGateway) handleDiagnostics(params json.RawMessage) {
	var p struct {
		URI         string       `json:"uri"`
		Diagnostics []Diagnostic `json:"diagnostics"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		gw.logger.Printf("parse diagnostics: %v", err)
		return
	}
	gw.docsMu.Lock()
	doc, ok := gw.docs[p.URI]
	gw.docsMu.Unlock()
	if !ok {
		return
	}
	doc.mu.Lock()
	doc.diagnostics = p.Diagnostics
	doc.mu.Unlock()
}

func (gw *LSPGateway) handleFileProgress(params json.RawMessage) {
	var p CoqFileProgressParams
	if err := json.Unmarshal(params, &p); err != nil {
		gw.logger.Printf("parse fileProgress: %v", err)
		return
	}
	gw.docsMu.Lock()
	doc, ok := gw.docs[p.TextDocument.URI]
	gw.docsMu.Unlock()
	if !ok {
		return
	}
	doc.mu.Lock()
	doc.processing = p.Processing
	for _, info := range p.Processing {
		if info.Kind != nil && *info.Kind == ProgressFatalError {
			doc.failed = true
		}
	}
	if len(p.Processing) == 0 {
		close(doc.readyCh)
		doc.readyCh = make(chan struct{})
	}
	doc.mu.Unlock()
}

func (gw *LSPGateway) Open(ctx context.Context, uri, text string) error {
	doc := newGatewayDoc(text)
	gw.docsMu.Lock()
	gw.docs[uri] = doc
	gw.docsMu.Unlock()

	params := map[string]any{
		"textDocument": map[string]any{
			"uri":        uri,
			"languageId": "coq",
			"version":    doc.version,
			"text":       text,
		},
	}
	if err := gw.notify("textDocument/didOpen", params); err != nil {
		return errServerUnavailable(err)
	}
	return gw.AwaitReady(ctx, uri)
}

func (gw *LSPGateway) Change(ctx context.Context, uri string, newVersion int, fullText string) error {
	gw.docsMu.Lock()
	doc, ok := gw.docs[uri]
	gw.docsMu.Unlock()
	if !ok {
		return fmt.Errorf("document not open: %s", uri)
	}
	doc.mu.Lock()
	doc.version = newVersion
	doc.text = fullText
	doc.failed = false
	doc.mu.Unlock()

	params := map[string]any{
		"textDocument":   map[string]any{"uri": uri, "version": newVersion},
		"contentChanges": []map[string]any{{"text": fullText}},
	}
	if err := gw.notify("textDocument/didChange", params); err != nil {
		return errServerUnavailable(err)
	}
	return gw.AwaitReady(ctx, uri)
}

// AwaitReady blocks until processing is empty for uri, bounded only by
// ctx. ProofFile's own calls carry the Config timeout; ChangeEngine's
// rollback passes context.Background(), so that wait has no deadline.
func (gw *LSPGateway) AwaitReady(ctx context.Context, uri string) error {
	gw.docsMu.Lock()
	doc, ok := gw.docs[uri]
	gw.docsMu.Unlock()
	if !ok {
		return fmt.Errorf("document not open: %s", uri)
	}

	doc.mu.Lock()
	alreadyReady := len(doc.processing) == 0
	ch := doc.readyCh
	doc.mu.Unlock()

	if !alreadyReady {
		select {
		case <-ch:
		case <-ctx.Done():
			gw.degraded.Store(true)
			return errServerTimeout("await_ready", ctx.Err())
		}
	}

	doc.mu.Lock()
	failed := doc.failed
	doc.mu.Unlock()
	if failed {
		return errInvalidFile("the server reported a fatal error processing the document", nil)
	}
	return nil
}

func (gw *LSPGateway) Goals(ctx context.Context, uri string, position Position) (*GoalAnswer, error) {
	gw.docsMu.Lock()
	doc, ok := gw.docs[uri]
	gw.docsMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("document not open: %s", uri)
	}
	doc.mu.Lock()
	version := doc.version
	doc.mu.Unlock()

	params := map[string]any{
		"textDocument": map[string]any{"uri": uri, "version": version},
		"position":     position,
	}

	type result struct {
		resp json.RawMessage
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := gw.request("proof/goals", params)
		done <- result{resp, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		if len(r.resp) == 0 || string(r.resp) == "null" {
			return nil, nil
		}
		var ga GoalAnswer
		if err := json.Unmarshal(r.resp, &ga); err != nil {
			return nil, fmt.Errorf("parse proof/goals result: %w", err)
		}
		return &ga, nil
	case <-ctx.Done():
		gw.degraded.Store(true)
		return nil, errServerTimeout("goals", ctx.Err())
	}
}

func (gw *LSPGateway) FlecheDocument(ctx context.Context, uri string) (*FlecheDocument, error) {
	params := map[string]any{"textDocument": map[string]any{"uri": uri}}

	type result struct {
		resp json.RawMessage
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := gw.request("coq/getDocument", params)
		done <- result{resp, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		var fd FlecheDocument
		if err := json.Unmarshal(r.resp, &fd); err != nil {
			return nil, fmt.Errorf("parse coq/getDocument result: %w", err)
		}
		return &fd, nil
	case <-ctx.Done():
		gw.degraded.Store(true)
		return nil, errServerTimeout("flecheDocument", ctx.Err())
	}
}

func (gw *LSPGateway) Diagnostics(uri string) []Diagnostic {
	gw.docsMu.Lock()
	doc, ok := gw.docs[uri]
	gw.docsMu.Unlock()
	if !ok {
		return nil
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return doc.diagnostics
}

// Save writes the document's current in-memory text to disk, byte-exact.
func (gw *LSPGateway) Save(uri string) error {
	gw.docsMu.Lock()
	doc, ok := gw.docs[uri]
	gw.docsMu.Unlock()
	if !ok {
		return fmt.Errorf("document not open: %s", uri)
	}
	path, err := uriToPath(uri)
	if err != nil {
		return err
	}
	doc.mu.Lock()
	text := doc.text
	doc.mu.Unlock()
	return os.WriteFile(path, []byte(text), 0o644)
}

func (gw *LSPGateway) Close(ctx context.Context, uri string) error {
	params := map[string]any{"textDocument": map[string]any{"uri": uri}}
	err := gw.notify("textDocument/didClose", params)
	gw.docsMu.Lock()
	delete(gw.docs, uri)
	gw.docsMu.Unlock()
	return err
}

// Shutdown sends the LSP shutdown/exit sequence and waits for the
// subprocess and read loop to finish.
func (gw *LSPGateway) Shutdown(ctx context.Context) error {
	if _, err := gw.request("shutdown", nil); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := gw.notify("exit", nil); err != nil {
		return fmt.Errorf("exit: %w", err)
	}
	if err := gw.cmd.Wait(); err != nil {
		return err
	}
	_ = gw.group.Wait() // readLoop exits once stdout closes
	return nil
}

// FileURI converts a local filesystem path to a file:// URI.
func FileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + abs
}

func uriToPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse uri %s: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	return u.Path, nil
}

