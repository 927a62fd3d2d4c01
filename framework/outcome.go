package framework

import "fmt"

// OutcomeKind tags a FormatOutcome.
type OutcomeKind string

const (
	OutcomeReplaced OutcomeKind = "replaced"
	OutcomeSkipped  OutcomeKind = "skipped"
	OutcomeFailed   OutcomeKind = "failed"
)

// FormatOutcome is the terminal result of one format request.
type FormatOutcome struct {
	Kind OutcomeKind
	// Text holds the formatted region for in-memory replacements.
	Text string
	// Region is the span of the original content the outcome refers to.
	Region Region
	// Reload is set when the tool rewrote the file on disk and the caller
	// must reload it to see the new content.
	Reload bool
	Reason string
	Err    error
}

// Replaced wraps formatted text.
func Replaced(text string) FormatOutcome {
	return FormatOutcome{Kind: OutcomeReplaced, Text: text}
}

// ReplacedOnDisk signals the backing file was rewritten in place.
func ReplacedOnDisk() FormatOutcome {
	return FormatOutcome{Kind: OutcomeReplaced, Reload: true}
}

// Skipped records a no-op with a reason.
func Skipped(reason string, err error) FormatOutcome {
	return FormatOutcome{Kind: OutcomeSkipped, Reason: reason, Err: err}
}

// Failed records a no-op caused by err.
func Failed(err error) FormatOutcome {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return FormatOutcome{Kind: OutcomeFailed, Reason: reason, Err: err}
}

// Changed reports whether the outcome carries new in-memory text.
func (o FormatOutcome) Changed() bool {
	return o.Kind == OutcomeReplaced && !o.Reload
}

// Apply returns content with the outcome applied to its region; an empty
// region stands for the whole buffer. Anything but an in-memory replacement
// leaves content untouched.
func (o FormatOutcome) Apply(content string) string {
	if !o.Changed() {
		return content
	}
	r := ResolveSelection(content, o.Region)
	return content[:r.Start] + o.Text + content[r.End:]
}

func (o FormatOutcome) String() string {
	switch {
	case o.Kind == OutcomeReplaced && o.Reload:
		return "replaced (on disk)"
	case o.Kind == OutcomeReplaced:
		return fmt.Sprintf("replaced %s", o.Region)
	default:
		return fmt.Sprintf("%s: %s", o.Kind, o.Reason)
	}
}
