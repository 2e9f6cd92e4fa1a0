package rocq

// statemanager.go — StateManager: keyed access to every ProofFile the MCP
// server currently has open, one language server subprocess per file,
// guarded by a single mutex.

import (
	"context"
	"fmt"
	"sync"
)

// StateManager owns every currently open ProofFile, keyed by file path.
type StateManager struct {
	cfg Config

	mu    sync.Mutex
	files map[string]*ProofFile
}

// NewStateManager returns an empty StateManager using cfg to open new
// files.
func NewStateManager(cfg Config) *StateManager {
	return &StateManager{cfg: cfg, files: make(map[string]*ProofFile)}
}

// Open starts tracking path, spawning a fresh language server for it. A
// second Open of an already-open path is a no-op.
func (sm *StateManager) Open(ctx context.Context, path string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.files[path]; ok {
		return nil
	}
	pf, err := Open(ctx, path, sm.cfg)
	if err != nil {
		return err
	}
	sm.files[path] = pf
	return nil
}

func (sm *StateManager) get(path string) (*ProofFile, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	pf, ok := sm.files[path]
	if !ok {
		return nil, errInvalidFile(fmt.Sprintf("%s is not open; call rocq_open first", path), nil)
	}
	return pf, nil
}

// Close stops tracking path and shuts its server down.
func (sm *StateManager) Close(ctx context.Context, path string) error {
	sm.mu.Lock()
	pf, ok := sm.files[path]
	if ok {
		delete(sm.files, path)
	}
	sm.mu.Unlock()
	if !ok {
		return nil
	}
	return pf.Close(ctx)
}

// Shutdown closes every still-open file, used when the MCP server exits.
func (sm *StateManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	files := sm.files
	sm.files = make(map[string]*ProofFile)
	sm.mu.Unlock()

	var firstErr error
	for _, pf := range files {
		if err := pf.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (sm *StateManager) Steps(path string) ([]Step, error) {
	pf, err := sm.get(path)
	if err != nil {
		return nil, err
	}
	return pf.Steps(), nil
}

func (sm *StateManager) StepsTaken(path string) ([]Step, error) {
	pf, err := sm.get(path)
	if err != nil {
		return nil, err
	}
	return pf.StepsTaken(), nil
}

func (sm *StateManager) Proofs(path string) ([]Proof, error) {
	pf, err := sm.get(path)
	if err != nil {
		return nil, err
	}
	return pf.Proofs(), nil
}

func (sm *StateManager) OpenProofs(path string) ([]Proof, error) {
	pf, err := sm.get(path)
	if err != nil {
		return nil, err
	}
	return pf.OpenProofs(), nil
}

func (sm *StateManager) Context(path string) (*FileContext, error) {
	pf, err := sm.get(path)
	if err != nil {
		return nil, err
	}
	return pf.Context(), nil
}

func (sm *StateManager) Diagnostics(path string) ([]Diagnostic, error) {
	pf, err := sm.get(path)
	if err != nil {
		return nil, err
	}
	return pf.Diagnostics(), nil
}

func (sm *StateManager) Exec(path string, n int) error {
	pf, err := sm.get(path)
	if err != nil {
		return err
	}
	pf.Exec(n)
	return nil
}

func (sm *StateManager) AddStep(ctx context.Context, path string, afterIndex int, text string) (string, error) {
	pf, err := sm.get(path)
	if err != nil {
		return "", err
	}
	return pf.AddStep(ctx, afterIndex, text)
}

func (sm *StateManager) DeleteStep(ctx context.Context, path string, index int) (string, error) {
	pf, err := sm.get(path)
	if err != nil {
		return "", err
	}
	return pf.DeleteStep(ctx, index)
}

func (sm *StateManager) ChangeSteps(ctx context.Context, path string, edits []Edit) (string, error) {
	pf, err := sm.get(path)
	if err != nil {
		return "", err
	}
	return pf.ChangeSteps(ctx, edits)
}
