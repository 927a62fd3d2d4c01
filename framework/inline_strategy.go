package framework

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// JSONIndent is the indentation unit used for JSON output.
const JSONIndent = "    "

// InlineStrategy formats JSON in-process by a parse/serialize round trip.
type InlineStrategy struct {
	// Indent overrides JSONIndent when set.
	Indent string
}

func (s InlineStrategy) Name() string { return "inline-json" }

// Run returns the re-indented JSON, or Failed when the text does not parse.
func (s InlineStrategy) Run(ctx context.Context, in StrategyInput) FormatOutcome {
	indent := s.Indent
	if indent == "" {
		indent = JSONIndent
	}
	formatted, err := FormatJSON(in.Text, indent)
	if err != nil {
		return Failed(err)
	}
	return Replaced(formatted)
}

// FormatJSON re-serializes src with one value per line and the given indent.
// Object keys keep their input order and number literals keep their spelling,
// so formatting formatted output is a no-op.
func FormatJSON(src, indent string) (string, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(src)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedInput, describeJSONError(err))
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", indent); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return out.String(), nil
}

func describeJSONError(err error) string {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("%s (offset %d)", syntaxErr.Error(), syntaxErr.Offset)
	}
	return err.Error()
}
