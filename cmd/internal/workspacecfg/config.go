package workspacecfg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lexcodex/reformat/framework"
)

// BinDirEnv overrides bin_dir from the workspace file.
const BinDirEnv = "REFORMAT_BIN_DIR"

// ConfigFileNames lists the workspace files Load looks for, in order.
var ConfigFileNames = []string{"reformat.yaml", "reformat.yml", "reformat.toml"}

// WorkspaceConfig models the persisted workspace settings.
type WorkspaceConfig struct {
	BinDir       string                `yaml:"bin_dir,omitempty" toml:"bin_dir,omitempty"`
	PipeTimeout  string                `yaml:"pipe_timeout,omitempty" toml:"pipe_timeout,omitempty"`
	FileTimeout  string                `yaml:"file_timeout,omitempty" toml:"file_timeout,omitempty"`
	TelemetryLog string                `yaml:"telemetry_log,omitempty" toml:"telemetry_log,omitempty"`
	HistoryDB    string                `yaml:"history_db,omitempty" toml:"history_db,omitempty"`
	Tools        map[string]ToolConfig `yaml:"tools,omitempty" toml:"tools,omitempty"`
	// Exclude holds globs skipped when the CLI walks directories.
	Exclude []string `yaml:"exclude,omitempty" toml:"exclude,omitempty"`

	// Workspace is the directory relative paths are resolved against.
	Workspace string `yaml:"-" toml:"-"`
	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-" toml:"-"`
}

// ToolConfig overrides one language's formatter. Empty fields keep the default.
type ToolConfig struct {
	Command string   `yaml:"command,omitempty" toml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty" toml:"args,omitempty"`
	Mode    string   `yaml:"mode,omitempty" toml:"mode,omitempty"`
}

// Default returns the settings used when a workspace has no config file.
func Default(workspace string) *WorkspaceConfig {
	if workspace == "" {
		workspace = "."
	}
	return &WorkspaceConfig{
		TelemetryLog: filepath.Join(".reformat", "events.jsonl"),
		HistoryDB:    filepath.Join(".reformat", "history.db"),
		Exclude:      []string{".reformat"},
		Workspace:    workspace,
	}
}

// Find returns the first config file present in workspace.
func Find(workspace string) (string, bool) {
	if workspace == "" {
		workspace = "."
	}
	for _, name := range ConfigFileNames {
		path := filepath.Join(workspace, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// Load reads the workspace config if present and falls back to defaults.
func Load(workspace string) (*WorkspaceConfig, error) {
	path, ok := Find(workspace)
	if !ok {
		cfg := Default(workspace)
		cfg.applyEnv()
		return cfg, nil
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if workspace != "" {
		cfg.Workspace = workspace
	}
	return cfg, nil
}

// LoadFile reads an explicit config file. The format follows the extension.
func LoadFile(path string) (*WorkspaceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default(filepath.Dir(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported config format", path)
	}
	cfg.Path = path
	cfg.applyEnv()
	return cfg, nil
}

// Save writes the configuration to path as YAML or TOML.
func Save(cfg *WorkspaceConfig, path string) error {
	if cfg == nil {
		return errors.New("workspace config missing")
	}
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("%s: failed to encode TOML: %w", path, err)
		}
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("%s: failed to encode YAML: %w", path, err)
		}
		if err := enc.Close(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%s: unsupported config format", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s: %w", path, fs.ErrExist)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Starter returns a fully spelled-out config mirroring the built-in defaults.
func Starter() *WorkspaceConfig {
	cfg := Default(".")
	def := framework.DefaultConfig()
	cfg.PipeTimeout = def.PipeTimeout.String()
	cfg.FileTimeout = def.FileArgTimeout.String()
	cfg.Tools = make(map[string]ToolConfig, len(def.Tools))
	for tag, spec := range def.Tools {
		cfg.Tools[string(tag)] = ToolConfig{Command: spec.Command, Args: spec.Args, Mode: string(spec.Mode)}
	}
	return cfg
}

func (w *WorkspaceConfig) applyEnv() {
	if v := os.Getenv(BinDirEnv); v != "" {
		w.BinDir = v
	}
}

// FrameworkConfig converts the workspace settings into the dispatcher config.
func (w *WorkspaceConfig) FrameworkConfig() (*framework.Config, error) {
	cfg := framework.DefaultConfig()
	if w == nil {
		return cfg, nil
	}
	if w.BinDir != "" {
		dir, err := expandHome(w.BinDir)
		if err != nil {
			return nil, err
		}
		cfg.BinDir = w.resolve(dir)
	}
	var err error
	if cfg.PipeTimeout, err = parseTimeout("pipe_timeout", w.PipeTimeout, cfg.PipeTimeout); err != nil {
		return nil, err
	}
	if cfg.FileArgTimeout, err = parseTimeout("file_timeout", w.FileTimeout, cfg.FileArgTimeout); err != nil {
		return nil, err
	}
	for key, tool := range w.Tools {
		tag := framework.SyntaxTag(strings.ToLower(strings.TrimSpace(key)))
		if !tag.Valid() {
			return nil, fmt.Errorf("tools: unknown language %q", key)
		}
		spec := cfg.Tools[tag]
		if tool.Command != "" {
			spec.Command = tool.Command
		}
		if tool.Args != nil {
			spec.Args = tool.Args
		}
		if tool.Mode != "" {
			spec.Mode = framework.ToolMode(strings.ToLower(tool.Mode))
		}
		cfg.Tools[tag] = spec
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", w.source(), err)
	}
	return cfg, nil
}

// TelemetryPath resolves telemetry_log, empty when disabled.
func (w *WorkspaceConfig) TelemetryPath() string {
	if w == nil || w.TelemetryLog == "" {
		return ""
	}
	return w.resolve(w.TelemetryLog)
}

// HistoryPath resolves history_db, empty when disabled.
func (w *WorkspaceConfig) HistoryPath() string {
	if w == nil || w.HistoryDB == "" {
		return ""
	}
	return w.resolve(w.HistoryDB)
}

func (w *WorkspaceConfig) resolve(path string) string {
	if filepath.IsAbs(path) || w.Workspace == "" {
		return path
	}
	return filepath.Join(w.Workspace, path)
}

func (w *WorkspaceConfig) source() string {
	if w.Path != "" {
		return w.Path
	}
	return "workspace config"
}

func parseTimeout(name, raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ToolStatus captures whether a configured formatter can be started.
type ToolStatus struct {
	Language framework.SyntaxTag `json:"language"`
	Command  string              `json:"command"`
	Mode     framework.ToolMode  `json:"mode"`
	Status   string              `json:"status"`
	Details  string              `json:"details,omitempty"`
}

// CheckTools checks every configured tool binary. JSON is reported as built in.
func CheckTools(ctx context.Context, cfg *framework.Config) []ToolStatus {
	results := []ToolStatus{{Language: framework.SyntaxJSON, Command: "(built-in)", Status: "ok"}}
	if cfg == nil {
		return results
	}
	tags := make([]framework.SyntaxTag, 0, len(cfg.Tools))
	for tag := range cfg.Tools {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	for _, tag := range tags {
		if ctx.Err() != nil {
			break
		}
		spec := cfg.Tools[tag]
		results = append(results, checkBinary(tag, spec, cfg.ResolveCommand(spec.Command)))
	}
	return results
}

func checkBinary(tag framework.SyntaxTag, spec framework.ToolSpec, resolved string) ToolStatus {
	status := ToolStatus{Language: tag, Command: resolved, Mode: spec.Mode}
	if !filepath.IsAbs(resolved) {
		path, err := exec.LookPath(resolved)
		if err != nil {
			status.Status = "missing"
			status.Details = err.Error()
			return status
		}
		resolved = path
	}
	info, err := os.Stat(resolved)
	if err != nil {
		status.Status = "missing"
		status.Details = err.Error()
		return status
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		status.Status = "missing"
		status.Details = "not executable"
		return status
	}
	status.Status = "ok"
	return status
}
