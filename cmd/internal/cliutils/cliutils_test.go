package cliutils

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/reformat/cmd/internal/workspacecfg"
	"github.com/lexcodex/reformat/framework"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newRuntime(t *testing.T, ws *workspacecfg.WorkspaceConfig, history bool) *Runtime {
	t.Helper()
	rt, err := BuildRuntime(ws, Options{Logger: quietLogger(), History: history})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("5:12")
	require.NoError(t, err)
	assert.Equal(t, framework.Region{Start: 5, End: 12}, r)

	r, err = ParseRange("")
	require.NoError(t, err)
	assert.True(t, r.Empty())

	for _, bad := range []string{"5", "a:1", "1:b", "-1:4"} {
		_, err := ParseRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseRanges(t *testing.T) {
	sels, err := ParseRanges([]string{"0:3", " ", "8:12"})
	require.NoError(t, err)
	assert.Equal(t, []framework.Region{{Start: 0, End: 3}, {Start: 8, End: 12}}, sels)

	sels, err = ParseRanges(nil)
	require.NoError(t, err)
	assert.Empty(t, sels)

	_, err = ParseRanges([]string{"0:3", "x"})
	assert.Error(t, err)
}

func TestInferSyntaxByExtension(t *testing.T) {
	assert.Equal(t, "clojure", InferSyntaxByExtension("src/core.cljs"))
	assert.Equal(t, "json", InferSyntaxByExtension("package.JSON"))
	assert.Equal(t, "python", InferSyntaxByExtension("app.py"))
	assert.Equal(t, "dart", InferSyntaxByExtension("lib/main.dart"))
	assert.Equal(t, "", InferSyntaxByExtension("README"))
}

func TestFormatFilesKeepsOrderAndWrites(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.json")
	broken := filepath.Join(dir, "b.json")
	other := filepath.Join(dir, "c.txt")
	require.NoError(t, os.WriteFile(good, []byte(`{"b":1,"a":2}`), 0o600))
	require.NoError(t, os.WriteFile(broken, []byte(`{"b":`), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("plain"), 0o644))
	missing := filepath.Join(dir, "missing.json")

	rt := newRuntime(t, workspacecfg.Default(dir), false)
	results, err := FormatFiles(context.Background(), rt.Dispatcher, []string{good, broken, other, missing}, FormatOptions{}, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, framework.OutcomeReplaced, results[0].Outcome.Kind)
	assert.True(t, results[0].Modified())
	assert.Equal(t, framework.OutcomeFailed, results[1].Outcome.Kind)
	assert.False(t, results[1].Modified())
	assert.Equal(t, framework.OutcomeSkipped, results[2].Outcome.Kind)
	assert.Error(t, results[3].Err)

	wrote, err := WriteResult(results[0])
	require.NoError(t, err)
	assert.True(t, wrote)
	data, err := os.ReadFile(good)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"b\": 1,\n    \"a\": 2\n}", string(data))
	info, err := os.Stat(good)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	wrote, err = WriteResult(results[1])
	require.NoError(t, err)
	assert.False(t, wrote)
	data, err = os.ReadFile(broken)
	require.NoError(t, err)
	assert.Equal(t, `{"b":`, string(data))
}

func TestFormatFileRangeOnlyTouchesSelection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mixed.txt")
	content := "header\n[1,2]\nfooter"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	rt := newRuntime(t, workspacecfg.Default(dir), false)

	start := strings.Index(content, "[")
	res := FormatFile(context.Background(), rt.Dispatcher, path, FormatOptions{
		Syntax:     "json",
		Selections: []framework.Region{{Start: start, End: start + 5}},
	})

	require.NoError(t, res.Err)
	assert.Equal(t, "header\n[\n    1,\n    2\n]\nfooter", res.Formatted())
}

func TestFormatFileFormatsEverySelection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mixed.txt")
	content := "[1]\n--\n{\"a\":2}\n--\nnot json"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	rt := newRuntime(t, workspacecfg.Default(dir), false)

	first := framework.Region{Start: 0, End: 3}
	second := framework.Region{Start: strings.Index(content, "{"), End: strings.Index(content, "}") + 1}
	res := FormatFile(context.Background(), rt.Dispatcher, path, FormatOptions{
		Syntax:     "json",
		Selections: []framework.Region{first, second},
	})

	require.NoError(t, res.Err)
	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, second, res.Outcomes[0].Region)
	assert.Equal(t, first, res.Outcomes[1].Region)
	assert.Equal(t, "[\n    1\n]\n--\n{\n    \"a\": 2\n}\n--\nnot json", res.Formatted())
}

// blackStub installs a fake black in a fresh bin dir that rewrites the file
// passed last.
func blackStub(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script tools require a POSIX shell")
	}
	bin := t.TempDir()
	script := "#!/bin/sh\nfor last; do :; done\nprintf 'x = 1\\n' > \"$last\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(bin, "black"), []byte(script), 0o755))
	return bin
}

func TestFormatFileRunsInPlaceToolOnCopy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.py")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o644))
	rt, err := BuildRuntime(workspacecfg.Default(dir), Options{Logger: quietLogger(), BinDir: blackStub(t)})
	require.NoError(t, err)
	defer rt.Close()

	res := FormatFile(context.Background(), rt.Dispatcher, path, FormatOptions{})

	require.NoError(t, res.Err)
	assert.Equal(t, framework.OutcomeReplaced, res.Outcome.Kind)
	assert.False(t, res.Outcome.Reload)
	assert.True(t, res.Modified())
	assert.Equal(t, "x = 1\n", res.Formatted())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x=1", string(data))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".reformat-"), "leftover copy %s", e.Name())
	}

	res = FormatFile(context.Background(), rt.Dispatcher, path, FormatOptions{InPlace: true})
	require.NoError(t, res.Err)
	assert.True(t, res.Outcome.Reload)
	assert.False(t, res.Modified())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(data))
}

func TestBuildRuntimeRecordsHistoryAndTelemetry(t *testing.T) {
	dir := t.TempDir()
	ws := workspacecfg.Default(dir)
	rt := newRuntime(t, ws, true)
	require.NotNil(t, rt.History)

	rt.Dispatcher.Dispatch(context.Background(), framework.FormatRequest{Content: `[1]`, Syntax: "source.json"})
	rt.Dispatcher.Dispatch(context.Background(), framework.FormatRequest{Content: `x`, Syntax: "source.rust"})

	summary, err := rt.History.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary[framework.OutcomeReplaced])
	assert.Equal(t, 1, summary[framework.OutcomeSkipped])

	require.NoError(t, rt.Close())
	data, err := os.ReadFile(ws.TelemetryPath())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	var last framework.Event
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &last))
	assert.Equal(t, framework.EventRequestFinished, last.Type)
	assert.Equal(t, framework.OutcomeSkipped, last.Outcome)
}

func TestBuildRuntimeBinDirOverride(t *testing.T) {
	ws := workspacecfg.Default(t.TempDir())
	ws.TelemetryLog = ""
	rt, err := BuildRuntime(ws, Options{Logger: quietLogger(), BinDir: "/opt/formatters"})
	require.NoError(t, err)
	defer rt.Close()
	assert.Equal(t, "/opt/formatters", rt.Config.BinDir)
	assert.Nil(t, rt.History)
}
