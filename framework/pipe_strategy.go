package framework

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"
)

// PipeStrategy feeds the region to a formatter on stdin and takes its stdout
// as the replacement text.
type PipeStrategy struct {
	Tool    ToolSpec
	Runner  CommandRunner
	Timeout time.Duration
	// Lookup resolves Tool.Command to an executable path at run time.
	Lookup func(string) string
}

// NewPipeStrategy wires a pipe formatter from configuration.
func NewPipeStrategy(cfg *Config, spec ToolSpec, runner CommandRunner) *PipeStrategy {
	if runner == nil {
		runner = ExecRunner{}
	}
	s := &PipeStrategy{Tool: spec, Runner: runner, Timeout: DefaultPipeTimeout}
	if cfg != nil {
		if cfg.PipeTimeout > 0 {
			s.Timeout = cfg.PipeTimeout
		}
		s.Lookup = cfg.ResolveCommand
	}
	return s
}

func (s *PipeStrategy) Name() string { return "pipe:" + s.Tool.Command }

// Run invokes the tool once. Empty output is treated as "no change" so a tool
// that exits cleanly without printing never erases the buffer.
func (s *PipeStrategy) Run(ctx context.Context, in StrategyInput) FormatOutcome {
	command := s.Tool.Command
	if s.Lookup != nil {
		command = s.Lookup(command)
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultPipeTimeout
	}
	res, err := s.Runner.Run(ctx, ToolInvocation{
		Command: command,
		Args:    append([]string(nil), s.Tool.Args...),
		Stdin:   []byte(in.Text),
		Timeout: timeout,
	})
	if err != nil {
		return Failed(err)
	}
	if len(res.Stdout) == 0 {
		return Skipped("empty output", ErrEmptyToolOutput)
	}
	if !utf8.Valid(res.Stdout) {
		return Failed(fmt.Errorf("%w: %s produced invalid UTF-8", ErrToolInvocation, s.Tool.Command))
	}
	return Replaced(string(res.Stdout))
}
