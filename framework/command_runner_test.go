package framework

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExecRunnerDrainsLargeStreams guards against pipe deadlocks when a tool
// writes more than a pipe buffer to both stdout and stderr.
func TestExecRunnerDrainsLargeStreams(t *testing.T) {
	dir := t.TempDir()
	tool := writeScript(t, dir, "noisy", `cat; head -c 300000 /dev/zero | tr '\0' e >&2`)
	input := strings.Repeat("abcdefgh", 40000)

	res, err := ExecRunner{}.Run(context.Background(), ToolInvocation{
		Command: tool,
		Stdin:   []byte(input),
		Timeout: 10 * time.Second,
	})

	require.NoError(t, err)
	assert.Equal(t, input, string(res.Stdout))
	assert.Len(t, res.Stderr, 300000)
	assert.Zero(t, res.ExitCode)
}

func TestExecRunnerDiscardsOutputOnTimeout(t *testing.T) {
	dir := t.TempDir()
	tool := writeScript(t, dir, "partial", `echo partial; exec sleep 30`)

	res, err := ExecRunner{WaitDelay: 100 * time.Millisecond}.Run(context.Background(), ToolInvocation{
		Command: tool,
		Timeout: 200 * time.Millisecond,
	})

	require.ErrorIs(t, err, ErrProcessTimeout)
	assert.Empty(t, res.Stdout)
}

func TestExecRunnerHonorsCallerCancellation(t *testing.T) {
	dir := t.TempDir()
	tool := writeScript(t, dir, "slow", `exec sleep 30`)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := ExecRunner{}.Run(ctx, ToolInvocation{Command: tool})

	require.ErrorIs(t, err, ErrToolInvocation)
}

func TestExecRunnerRequiresCommand(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), ToolInvocation{})
	require.ErrorIs(t, err, ErrToolInvocation)
}
