package framework

import (
	"context"
	"sort"
)

// Formatter dispatches a single request. *Dispatcher satisfies it.
type Formatter interface {
	Dispatch(ctx context.Context, req FormatRequest) FormatOutcome
}

// SelectionsResult collects the outcomes of formatting several regions of one
// buffer.
type SelectionsResult struct {
	// Outcomes holds one outcome per dispatched region, last region first.
	// Each Region is valid against the original content.
	Outcomes []FormatOutcome
	// Content is the buffer with every in-memory replacement applied.
	Content string
	// Reload is set when a tool rewrote the backing file. Remaining regions
	// are not dispatched then.
	Reload bool
}

// Failed returns the first failed outcome, if any.
func (r SelectionsResult) Failed() (FormatOutcome, bool) {
	for _, o := range r.Outcomes {
		if o.Kind == OutcomeFailed {
			return o, true
		}
	}
	return FormatOutcome{}, false
}

// NormalizeSelections clamps sels to content, merges overlapping or touching
// regions and orders them from last to first. No selection, or any empty
// one, yields the whole buffer.
func NormalizeSelections(content string, sels []Region) []Region {
	if len(sels) == 0 {
		return []Region{WholeBuffer(content)}
	}
	resolved := make([]Region, 0, len(sels))
	for _, sel := range sels {
		if sel.Empty() {
			return []Region{WholeBuffer(content)}
		}
		resolved = append(resolved, ResolveSelection(content, sel))
	}
	sort.Slice(resolved, func(i, j int) bool { return resolved[i].Start < resolved[j].Start })
	merged := []Region{resolved[0]}
	for _, r := range resolved[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			last.End = max(last.End, r.End)
			continue
		}
		merged = append(merged, r)
	}
	for i, j := 0, len(merged)-1; i < j; i, j = i+1, j-1 {
		merged[i], merged[j] = merged[j], merged[i]
	}
	return merged
}

// FormatSelections formats every selection of req.Content, one dispatch per
// region. Regions run from last to first so earlier offsets stay valid while
// later text changes length. A failed region leaves its text untouched and
// the rest still run.
func FormatSelections(ctx context.Context, f Formatter, req FormatRequest, sels []Region) SelectionsResult {
	res := SelectionsResult{Content: req.Content}
	for _, region := range NormalizeSelections(req.Content, sels) {
		if ctx.Err() != nil {
			res.Outcomes = append(res.Outcomes, Failed(ctx.Err()))
			break
		}
		sub := req
		sub.Content = res.Content
		sub.Selection = region
		outcome := f.Dispatch(ctx, sub)
		res.Outcomes = append(res.Outcomes, outcome)
		if outcome.Kind == OutcomeReplaced && outcome.Reload {
			res.Reload = true
			break
		}
		res.Content = outcome.Apply(res.Content)
	}
	return res
}
