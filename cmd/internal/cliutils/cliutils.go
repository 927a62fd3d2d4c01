package cliutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lexcodex/reformat/cmd/internal/workspacecfg"
	"github.com/lexcodex/reformat/framework"
	"github.com/lexcodex/reformat/persistence"
)

// Formatter is satisfied by *framework.Dispatcher.
type Formatter interface {
	framework.Formatter
	RewritesInPlace(syntax string) bool
}

// Options controls how BuildRuntime wires the dispatcher.
type Options struct {
	Logger *log.Logger
	// BinDir overrides the configured tool directory when set.
	BinDir string
	// History records outcomes in the workspace SQLite database.
	History bool
	// Verbose logs every request, not only failures.
	Verbose bool
}

// Runtime bundles the dispatcher with the sinks that need closing.
type Runtime struct {
	Config     *framework.Config
	Dispatcher *framework.Dispatcher
	History    *persistence.SQLiteOutcomeStore

	closers []io.Closer
}

// BuildRuntime turns workspace settings into a ready dispatcher. Close the
// runtime to flush the telemetry log and history database.
func BuildRuntime(ws *workspacecfg.WorkspaceConfig, opts Options) (*Runtime, error) {
	cfg, err := ws.FrameworkConfig()
	if err != nil {
		return nil, err
	}
	if opts.BinDir != "" {
		cfg.BinDir = opts.BinDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	rt := &Runtime{Config: cfg}
	var sinks []framework.Telemetry
	if opts.Verbose {
		sinks = append(sinks, framework.LoggerTelemetry{Logger: logger, Verbose: true})
	}
	if path := ws.TelemetryPath(); path != "" {
		events, err := framework.NewJSONFileTelemetry(path)
		if err != nil {
			return nil, fmt.Errorf("telemetry log: %w", err)
		}
		rt.closers = append(rt.closers, events)
		sinks = append(sinks, events)
	}
	if opts.History {
		if path := ws.HistoryPath(); path != "" {
			store, err := persistence.NewSQLiteOutcomeStore(path, logger)
			if err != nil {
				_ = rt.Close()
				return nil, fmt.Errorf("history: %w", err)
			}
			rt.History = store
			rt.closers = append(rt.closers, store)
			sinks = append(sinks, store)
		}
	}
	rt.Dispatcher, err = framework.NewDispatcher(cfg, framework.WithLogger(logger), framework.WithTelemetry(framework.MultiplexTelemetry{Sinks: sinks}))
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

// Close releases telemetry sinks.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// InferSyntaxByExtension returns a syntax id given a file path, empty when the
// extension is not recognised.
func InferSyntaxByExtension(path string) string {
	return string(framework.SyntaxForExtension(filepath.Ext(path)))
}

// ParseRange parses "start:end" byte offsets. An empty string selects nothing,
// which the dispatcher widens to the whole file.
func ParseRange(raw string) (framework.Region, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return framework.Region{}, nil
	}
	startRaw, endRaw, ok := strings.Cut(raw, ":")
	if !ok {
		return framework.Region{}, fmt.Errorf("range %q: expected start:end", raw)
	}
	start, err := strconv.Atoi(strings.TrimSpace(startRaw))
	if err != nil {
		return framework.Region{}, fmt.Errorf("range %q: %w", raw, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endRaw))
	if err != nil {
		return framework.Region{}, fmt.Errorf("range %q: %w", raw, err)
	}
	if start < 0 || end < 0 {
		return framework.Region{}, fmt.Errorf("range %q: offsets must not be negative", raw)
	}
	return framework.Region{Start: start, End: end}, nil
}

// ParseRanges parses every --range value. Blank values are ignored.
func ParseRanges(raws []string) ([]framework.Region, error) {
	var sels []framework.Region
	for _, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		sel, err := ParseRange(raw)
		if err != nil {
			return nil, err
		}
		sels = append(sels, sel)
	}
	return sels, nil
}

// FormatOptions controls FormatFile and FormatFiles.
type FormatOptions struct {
	// Syntax overrides inference from the file extension.
	Syntax string
	// Selections limits formatting to these regions. None means the whole file.
	Selections []framework.Region
	// InPlace lets tools that rewrite files themselves touch the real file.
	// Otherwise they run on a copy and the result is reported as text.
	InPlace bool
}

// FileResult is the outcome of formatting one file from the command line.
type FileResult struct {
	Path     string
	Syntax   string
	Original string
	// Content is the buffer with every in-memory replacement applied.
	Content string
	// Outcome summarizes Outcomes: the first failure, else the first
	// replacement, else the first outcome.
	Outcome  framework.FormatOutcome
	Outcomes []framework.FormatOutcome
	// Err reports a failure to read the file; Outcome is empty then.
	Err error
}

// Formatted returns the buffer after applying every outcome.
func (r FileResult) Formatted() string {
	if r.Err != nil {
		return r.Original
	}
	return r.Content
}

// Modified reports whether writing the result would change the file.
func (r FileResult) Modified() bool {
	return r.Err == nil && r.Content != r.Original
}

// FormatFile reads path and dispatches each selection of it.
func FormatFile(ctx context.Context, f Formatter, path string, opts FormatOptions) FileResult {
	res := FileResult{Path: path, Syntax: opts.Syntax}
	if res.Syntax == "" {
		res.Syntax = InferSyntaxByExtension(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		res.Err = err
		return res
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		res.Err = err
		return res
	}
	res.Original = string(data)
	req := framework.FormatRequest{Content: res.Original, Syntax: res.Syntax, FilePath: abs}

	var sels framework.SelectionsResult
	if !opts.InPlace && f.RewritesInPlace(res.Syntax) {
		sels, err = formatCopy(ctx, f, req, opts.Selections)
		if err != nil {
			res.Err = err
			return res
		}
	} else {
		sels = framework.FormatSelections(ctx, f, req, opts.Selections)
	}
	res.Content = sels.Content
	res.Outcomes = sels.Outcomes
	res.Outcome = summarize(sels.Outcomes)
	return res
}

// formatCopy runs an in-place tool on a sibling copy of req.FilePath and turns
// the rewritten copy into an in-memory replacement. The copy shares the
// original's directory and base name so the tool finds the same project
// settings.
func formatCopy(ctx context.Context, f Formatter, req framework.FormatRequest, sels []framework.Region) (framework.SelectionsResult, error) {
	tmp, err := os.CreateTemp(filepath.Dir(req.FilePath), ".reformat-*-"+filepath.Base(req.FilePath))
	if err != nil {
		return framework.SelectionsResult{}, fmt.Errorf("copy %s: %w", req.FilePath, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.WriteString(tmp, req.Content); err != nil {
		_ = tmp.Close()
		return framework.SelectionsResult{}, fmt.Errorf("copy %s: %w", req.FilePath, err)
	}
	if err := tmp.Close(); err != nil {
		return framework.SelectionsResult{}, fmt.Errorf("copy %s: %w", req.FilePath, err)
	}

	copyReq := req
	copyReq.FilePath = tmp.Name()
	res := framework.FormatSelections(ctx, f, copyReq, sels)
	if !res.Reload {
		return res, nil
	}
	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return framework.SelectionsResult{}, fmt.Errorf("read back %s: %w", req.FilePath, err)
	}
	last := len(res.Outcomes) - 1
	replaced := framework.Replaced(string(data))
	replaced.Region = framework.WholeBuffer(req.Content)
	res.Outcomes[last] = replaced
	res.Content = string(data)
	res.Reload = false
	return res, nil
}

func summarize(outcomes []framework.FormatOutcome) framework.FormatOutcome {
	for _, o := range outcomes {
		if o.Kind == framework.OutcomeFailed {
			return o
		}
	}
	for _, o := range outcomes {
		if o.Kind == framework.OutcomeReplaced {
			return o
		}
	}
	if len(outcomes) == 0 {
		return framework.FormatOutcome{}
	}
	return outcomes[0]
}

// FormatFiles formats paths concurrently, at most jobs at a time (NumCPU when
// jobs <= 0). Results keep the order of paths.
func FormatFiles(ctx context.Context, f Formatter, paths []string, opts FormatOptions, jobs int) ([]FileResult, error) {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(paths))))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = FormatFile(gctx, f, path, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// WriteResult writes the formatted buffer back to its file. Tools that
// rewrote the file themselves need no write.
func WriteResult(res FileResult) (bool, error) {
	if !res.Modified() {
		return false, nil
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(res.Path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(res.Path, []byte(res.Formatted()), mode); err != nil {
		return false, fmt.Errorf("write %s: %w", res.Path, err)
	}
	return true, nil
}
