package framework

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ToolMode selects how an external formatter exchanges text.
type ToolMode string

const (
	// ToolModePipe feeds the region on stdin and reads the result from stdout.
	ToolModePipe ToolMode = "pipe"
	// ToolModeFile passes the backing file path and lets the tool rewrite it.
	ToolModeFile ToolMode = "file"
)

const (
	DefaultPipeTimeout    = 10 * time.Second
	DefaultFileArgTimeout = 30 * time.Second
	// ZprintStyle is the configuration map handed to zprint.
	ZprintStyle = "{:style :respect-bl}"
)

// ToolSpec describes one external formatter.
type ToolSpec struct {
	Command string
	Args    []string
	Mode    ToolMode
}

// Config is passed to the dispatcher at construction time.
type Config struct {
	// BinDir is the install directory searched before PATH for tool commands.
	BinDir         string
	PipeTimeout    time.Duration
	FileArgTimeout time.Duration
	Tools          map[SyntaxTag]ToolSpec
}

// DefaultConfig returns the stock zprint/black/dart setup.
func DefaultConfig() *Config {
	return &Config{
		PipeTimeout:    DefaultPipeTimeout,
		FileArgTimeout: DefaultFileArgTimeout,
		Tools: map[SyntaxTag]ToolSpec{
			SyntaxClojure: {Command: "zprint", Args: []string{ZprintStyle}, Mode: ToolModePipe},
			SyntaxPython:  {Command: "black", Args: []string{"-q"}, Mode: ToolModeFile},
			SyntaxDart:    {Command: "dart", Args: []string{"format"}, Mode: ToolModeFile},
		},
	}
}

// Validate checks tool entries for obvious mistakes.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config missing")
	}
	if c.PipeTimeout <= 0 {
		return fmt.Errorf("pipe timeout must be positive")
	}
	if c.FileArgTimeout < 0 {
		return fmt.Errorf("file timeout must not be negative")
	}
	for tag, spec := range c.Tools {
		if !tag.Valid() {
			return fmt.Errorf("unknown language %q", tag)
		}
		if tag == SyntaxJSON {
			return fmt.Errorf("json is formatted in-process and takes no tool")
		}
		if spec.Command == "" {
			return fmt.Errorf("%s: command required", tag)
		}
		switch spec.Mode {
		case ToolModePipe, ToolModeFile:
		default:
			return fmt.Errorf("%s: unknown mode %q", tag, spec.Mode)
		}
	}
	return nil
}

// ResolveCommand finds the executable for command: absolute paths are used
// as-is, then BinDir is searched, then PATH. Unresolvable names are returned
// unchanged so the failure surfaces when the tool is started.
func (c *Config) ResolveCommand(command string) string {
	if command == "" || filepath.IsAbs(command) {
		return command
	}
	if c != nil && c.BinDir != "" {
		candidate := filepath.Join(c.BinDir, command)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	if path, err := exec.LookPath(command); err == nil {
		return path
	}
	return command
}
