package rocq

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\"): %v", err)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
	if cfg.ServerCommand != "coq-lsp" {
		t.Errorf("ServerCommand = %q, want coq-lsp", cfg.ServerCommand)
	}

	cfg, err = LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig(absent path): %v", err)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout for an absent file = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
}

func TestLoadConfigKeepsDefaultsForOmittedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "workspace: /proj\nserver_args: [\"--std\"]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Workspace != "/proj" {
		t.Errorf("Workspace = %q, want /proj", cfg.Workspace)
	}
	if len(cfg.ServerArgs) != 1 || cfg.ServerArgs[0] != "--std" {
		t.Errorf("ServerArgs = %v, want [--std]", cfg.ServerArgs)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("omitted timeout should keep the default, got %v", cfg.Timeout)
	}
	if cfg.ServerCommand != "coq-lsp" {
		t.Errorf("omitted server_command should keep the default, got %q", cfg.ServerCommand)
	}
}

func TestLoadConfigParsesTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("timeout: 5s\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
}
