package framework

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// countingStrategy records every invocation and returns a canned outcome.
type countingStrategy struct {
	name    string
	outcome FormatOutcome

	mu    sync.Mutex
	calls int
	seen  []StrategyInput
}

func (s *countingStrategy) Name() string { return s.name }

func (s *countingStrategy) Run(ctx context.Context, in StrategyInput) FormatOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.seen = append(s.seen, in)
	return s.outcome
}

func (s *countingStrategy) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubRunner returns a fixed result without spawning a process.
type stubRunner struct {
	result ToolResult
	err    error
	last   ToolInvocation
}

func (r *stubRunner) Run(ctx context.Context, inv ToolInvocation) (ToolResult, error) {
	r.last = inv
	return r.result, r.err
}

// recordingTelemetry keeps every emitted event.
type recordingTelemetry struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingTelemetry) Emit(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// writeScript drops an executable shell script into dir and returns its path.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script tools require a POSIX shell")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}
