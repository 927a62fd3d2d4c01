package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Dispatcher maps a syntax tag to the strategy that formats it.
type Dispatcher struct {
	mu         sync.RWMutex
	strategies map[SyntaxTag]Strategy
	telemetry  Telemetry
	logger     *log.Logger
	runner     CommandRunner
	seq        atomic.Uint64
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithTelemetry attaches an event sink.
func WithTelemetry(t Telemetry) Option {
	return func(d *Dispatcher) { d.telemetry = t }
}

// WithLogger sets the diagnostic logger. Nil discards diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(d *Dispatcher) {
		if logger == nil {
			logger = log.New(io.Discard, "", 0)
		}
		d.logger = logger
	}
}

// WithRunner replaces the process runner used by the default strategies.
func WithRunner(runner CommandRunner) Option {
	return func(d *Dispatcher) { d.runner = runner }
}

// NewDispatcher builds a dispatcher with the JSON strategy and one strategy
// per configured tool.
func NewDispatcher(cfg *Config, opts ...Option) (*Dispatcher, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	d := &Dispatcher{
		strategies: make(map[SyntaxTag]Strategy),
		logger:     log.Default(),
		runner:     ExecRunner{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.strategies[SyntaxJSON] = InlineStrategy{}
	for tag, spec := range cfg.Tools {
		switch spec.Mode {
		case ToolModePipe:
			d.strategies[tag] = NewPipeStrategy(cfg, spec, d.runner)
		case ToolModeFile:
			d.strategies[tag] = NewFileArgStrategy(cfg, spec, d.runner)
		}
	}
	return d, nil
}

// Register installs or replaces the strategy for tag.
func (d *Dispatcher) Register(tag SyntaxTag, s Strategy) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.strategies == nil {
		d.strategies = make(map[SyntaxTag]Strategy)
	}
	d.strategies[tag] = s
}

// Strategy returns the strategy registered for tag.
func (d *Dispatcher) Strategy(tag SyntaxTag) (Strategy, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.strategies[tag]
	return s, ok
}

// RewritesInPlace reports whether formatting syntax would modify the backing
// file rather than return replacement text.
func (d *Dispatcher) RewritesInPlace(syntax string) bool {
	s, ok := d.Strategy(ResolveSyntax(syntax))
	if !ok {
		return false
	}
	rw, ok := s.(InPlaceRewriter)
	return ok && rw.RewritesInPlace()
}

// Dispatch runs one request to completion. It never mutates caller state:
// the returned outcome says what to do with the buffer.
func (d *Dispatcher) Dispatch(ctx context.Context, req FormatRequest) FormatOutcome {
	id := fmt.Sprintf("fmt-%d", d.seq.Add(1))
	start := time.Now()
	tag := ResolveSyntax(req.Syntax)
	region := ResolveSelection(req.Content, req.Selection)
	d.emit(Event{
		Type:      EventRequestReceived,
		RequestID: id,
		Syntax:    tag,
		Scope:     req.Syntax,
		FilePath:  req.FilePath,
		Region:    region,
		Timestamp: start,
	})

	outcome, strategyName := d.route(ctx, tag, region, req)
	outcome.Region = region

	d.report(tag, outcome)
	d.emit(Event{
		Type:      EventRequestFinished,
		RequestID: id,
		Syntax:    tag,
		Scope:     req.Syntax,
		Strategy:  strategyName,
		FilePath:  req.FilePath,
		Region:    region,
		Outcome:   outcome.Kind,
		Message:   outcome.Reason,
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	})
	return outcome
}

func (d *Dispatcher) route(ctx context.Context, tag SyntaxTag, region Region, req FormatRequest) (FormatOutcome, string) {
	if tag == SyntaxNone {
		return Skipped("unsupported syntax", fmt.Errorf("%w: %q", ErrUnsupportedSyntax, req.Syntax)), ""
	}
	strategy, ok := d.Strategy(tag)
	if !ok || strategy == nil {
		return Skipped("no formatter registered", fmt.Errorf("%w: %s", ErrUnsupportedSyntax, tag)), ""
	}
	in := StrategyInput{
		Text:     req.Content[region.Start:region.End],
		Region:   region,
		FilePath: req.FilePath,
	}
	return strategy.Run(ctx, in), strategy.Name()
}

func (d *Dispatcher) report(tag SyntaxTag, outcome FormatOutcome) {
	if d.logger == nil || errors.Is(outcome.Err, ErrUnsupportedSyntax) {
		return
	}
	switch outcome.Kind {
	case OutcomeFailed:
		d.logger.Printf("(reformat) Failed to format %s: %v", tag, outcome.Err)
	case OutcomeSkipped:
		d.logger.Printf("(reformat) Skipped %s: %s", tag, outcome.Reason)
	}
}

func (d *Dispatcher) emit(event Event) {
	if d.telemetry != nil {
		d.telemetry.Emit(event)
	}
}
