package framework

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileArgStrategy runs a formatter that rewrites the backing file in place.
type FileArgStrategy struct {
	Tool    ToolSpec
	Runner  CommandRunner
	Timeout time.Duration
	Lookup  func(string) string
}

// NewFileArgStrategy wires a file-path formatter from configuration.
func NewFileArgStrategy(cfg *Config, spec ToolSpec, runner CommandRunner) *FileArgStrategy {
	if runner == nil {
		runner = ExecRunner{}
	}
	s := &FileArgStrategy{Tool: spec, Runner: runner, Timeout: DefaultFileArgTimeout}
	if cfg != nil {
		s.Timeout = cfg.FileArgTimeout
		s.Lookup = cfg.ResolveCommand
	}
	return s
}

func (s *FileArgStrategy) Name() string { return "file:" + s.Tool.Command }

// RewritesInPlace reports that running this strategy modifies the backing file.
func (s *FileArgStrategy) RewritesInPlace() bool { return true }

// Run invokes `<tool> [args...] <path>` and waits for it. Success means the
// caller must reload the file; no text is captured.
func (s *FileArgStrategy) Run(ctx context.Context, in StrategyInput) FormatOutcome {
	path := in.FilePath
	if path == "" {
		return Skipped("no backing file", ErrNoBackingFile)
	}
	if !filepath.IsAbs(path) {
		return Skipped("no backing file", fmt.Errorf("%w: %s is not absolute", ErrNoBackingFile, path))
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Skipped("no backing file", fmt.Errorf("%w: %s is not a regular file", ErrNoBackingFile, path))
	}
	command := s.Tool.Command
	if s.Lookup != nil {
		command = s.Lookup(command)
	}
	args := append(append([]string(nil), s.Tool.Args...), path)
	if _, err := s.Runner.Run(ctx, ToolInvocation{
		Command: command,
		Args:    args,
		Dir:     filepath.Dir(path),
		Timeout: s.Timeout,
	}); err != nil {
		return Failed(err)
	}
	return ReplacedOnDisk()
}
