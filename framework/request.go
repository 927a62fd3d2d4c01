package framework

import "fmt"

// Region is a contiguous byte span of a buffer.
type Region struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the region selects nothing.
func (r Region) Empty() bool { return r.Start == r.End }

// Len returns the number of bytes covered.
func (r Region) Len() int { return r.End - r.Start }

func (r Region) String() string { return fmt.Sprintf("(%d,%d)", r.Start, r.End) }

// WholeBuffer returns the region covering all of content.
func WholeBuffer(content string) Region {
	return Region{Start: 0, End: len(content)}
}

// FormatRequest is what the host hands to the dispatcher.
type FormatRequest struct {
	Content   string
	Syntax    string
	Selection Region
	// FilePath is the absolute on-disk path backing the buffer, if any.
	FilePath string
}

// ResolveSelection clamps a selection to the content bounds and widens it to
// the whole buffer when nothing is left selected.
func ResolveSelection(content string, sel Region) Region {
	if sel.Start > sel.End {
		sel.Start, sel.End = sel.End, sel.Start
	}
	sel.Start = clamp(sel.Start, 0, len(content))
	sel.End = clamp(sel.End, 0, len(content))
	if sel.Empty() {
		return WholeBuffer(content)
	}
	return sel
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StrategyInput is the resolved slice of a request passed to a strategy.
type StrategyInput struct {
	Text     string
	Region   Region
	FilePath string
}
