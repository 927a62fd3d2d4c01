package framework

import "context"

// Strategy performs the format operation for one language family.
type Strategy interface {
	Name() string
	Run(ctx context.Context, in StrategyInput) FormatOutcome
}

// InPlaceRewriter is implemented by strategies that modify the backing file
// instead of returning text.
type InPlaceRewriter interface {
	RewritesInPlace() bool
}

// StrategyFunc adapts a function into a Strategy.
type StrategyFunc struct {
	Label string
	Fn    func(ctx context.Context, in StrategyInput) FormatOutcome
	// InPlace marks Fn as rewriting the backing file.
	InPlace bool
}

func (s StrategyFunc) Name() string { return s.Label }

func (s StrategyFunc) Run(ctx context.Context, in StrategyInput) FormatOutcome {
	return s.Fn(ctx, in)
}

func (s StrategyFunc) RewritesInPlace() bool { return s.InPlace }
