package rocq

// config.go — optional engine configuration: the knob set ProofFile
// actually needs — per-call timeout, workspace root, server command and
// args — loadable from an optional YAML file.

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTimeout bounds any blocking ServerGateway call unless configured
// otherwise.
const DefaultTimeout = 60 * time.Second

// Config controls how a ProofFile talks to its language server.
type Config struct {
	// Workspace is the project directory used to resolve _CoqProject /
	// Makefile-based imports. Empty means "no workspace, resolve relative
	// to the file's own directory".
	Workspace string

	// Timeout bounds every blocking ServerGateway call (open/change/goals/
	// await_ready). Zero means DefaultTimeout.
	Timeout time.Duration

	// ServerCommand and ServerArgs launch the concrete language server
	// subprocess when no ServerGateway is supplied explicitly.
	ServerCommand string
	ServerArgs    []string
}

// rawConfig is the YAML shape; timeout travels as a duration string
// ("5s", "2m") since yaml.v3 has no native time.Duration decoding.
type rawConfig struct {
	Workspace     string   `yaml:"workspace"`
	Timeout       string   `yaml:"timeout"`
	ServerCommand string   `yaml:"server_command"`
	ServerArgs    []string `yaml:"server_args"`
}

// defaultConfig returns the default Config: DefaultTimeout and the
// coq-lsp server command. Workspace and ServerArgs stay empty.
func defaultConfig() Config {
	return Config{
		Timeout:       DefaultTimeout,
		ServerCommand: "coq-lsp",
	}
}

// LoadConfig reads a YAML config file, filling in defaults for any field
// the file omits. A missing path is not an error: callers fall back to
// defaultConfig() entirely.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	// Omitted keys keep their defaults.
	if raw.Workspace != "" {
		cfg.Workspace = raw.Workspace
	}
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return cfg, fmt.Errorf("parse config %s: timeout: %w", path, err)
		}
		cfg.Timeout = d
	}
	if raw.ServerCommand != "" {
		cfg.ServerCommand = raw.ServerCommand
	}
	if raw.ServerArgs != nil {
		cfg.ServerArgs = raw.ServerArgs
	}
	return cfg, nil
}
