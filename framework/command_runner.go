package framework

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// ToolInvocation captures one external formatter process. It is owned by the
// strategy that builds it and never outlives the call.
type ToolInvocation struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
	// Stdin is written to the process and then closed. Nil leaves stdin
	// attached to the null device.
	Stdin   []byte
	Timeout time.Duration
}

// ToolResult holds what a finished process produced.
type ToolResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// CommandRunner executes a ToolInvocation to completion.
type CommandRunner interface {
	Run(ctx context.Context, inv ToolInvocation) (ToolResult, error)
}

// ExecRunner launches invocations as local subprocesses.
type ExecRunner struct {
	// WaitDelay bounds how long Run waits for I/O to drain after the process
	// has been killed. Zero uses one second.
	WaitDelay time.Duration
}

// Run starts the process, feeds stdin, drains stdout and stderr concurrently
// and waits for exit. On timeout the process is killed and reaped before Run
// returns and any partial output is discarded.
func (r ExecRunner) Run(ctx context.Context, inv ToolInvocation) (ToolResult, error) {
	if inv.Command == "" {
		return ToolResult{}, fmt.Errorf("%w: command required", ErrToolInvocation)
	}
	execCtx := ctx
	cancel := func() {}
	if inv.Timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, inv.Timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(execCtx, inv.Command, inv.Args...)
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if inv.Stdin != nil {
		cmd.Stdin = bytes.NewReader(inv.Stdin)
	}
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = time.Second
	}

	start := time.Now()
	err := cmd.Run()
	res := ToolResult{Duration: time.Since(start)}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("%w: %s killed after %s", ErrProcessTimeout, inv.Command, res.Duration.Round(time.Millisecond))
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%w: %s: %v", ErrToolInvocation, inv.Command, ctxErr)
	}
	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, &ExitError{Command: inv.Command, Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return res, fmt.Errorf("%w: %v", ErrToolInvocation, err)
	}
	return res, nil
}
