package framework

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultPipeTimeout, cfg.PipeTimeout)
	assert.Equal(t, ToolModePipe, cfg.Tools[SyntaxClojure].Mode)
	assert.Equal(t, ToolModeFile, cfg.Tools[SyntaxPython].Mode)
	assert.Equal(t, []string{"format"}, cfg.Tools[SyntaxDart].Args)
}

func TestConfigValidateRejectsJSONTool(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tools[SyntaxJSON] = ToolSpec{Command: "jq", Mode: ToolModePipe}
	require.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsMissingCommand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tools[SyntaxDart] = ToolSpec{Mode: ToolModeFile}
	require.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsDisabledPipeTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PipeTimeout = 0
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.FileArgTimeout = -time.Second
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.FileArgTimeout = 0
	require.NoError(t, cfg.Validate())
}

func TestPipeStrategyFallsBackToDefaultTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PipeTimeout = 0
	s := NewPipeStrategy(cfg, cfg.Tools[SyntaxClojure], &stubRunner{})
	assert.Equal(t, DefaultPipeTimeout, s.Timeout)
}

func TestResolveCommandPrefersBinDir(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "zprint", "cat")
	cfg := &Config{BinDir: dir}

	assert.Equal(t, script, cfg.ResolveCommand("zprint"))
	assert.Equal(t, "/abs/tool", cfg.ResolveCommand("/abs/tool"))
	assert.Equal(t, "definitely-not-a-real-formatter", cfg.ResolveCommand("definitely-not-a-real-formatter"))
	assert.Equal(t, filepath.Join(dir, "zprint"), cfg.ResolveCommand("zprint"))
}
