package framework

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jsonSamples = []string{
	`{"b":1,"a":2}`,
	`[]`,
	`{}`,
	`"just a string"`,
	`  {"nested": {"z": [1, 2.50, {"y": null}], "a": true}, "empty": [], "obj": {}}  `,
	`{"unicode": "héllo ✓", "escaped": "line\nbreak é <tag>"}`,
	`[1e10, -0.0, 12345678901234567890]`,
}

func TestInlineStrategyExample(t *testing.T) {
	outcome := InlineStrategy{}.Run(context.Background(), StrategyInput{Text: `{"b":1,"a":2}`})
	require.Equal(t, OutcomeReplaced, outcome.Kind)
	assert.Equal(t, "{\n    \"b\": 1,\n    \"a\": 2\n}", outcome.Text)
}

func TestInlineStrategyIdempotent(t *testing.T) {
	for _, sample := range jsonSamples {
		once, err := FormatJSON(sample, JSONIndent)
		require.NoError(t, err, sample)
		twice, err := FormatJSON(once, JSONIndent)
		require.NoError(t, err, sample)
		assert.Equal(t, once, twice, sample)
	}
}

func TestInlineStrategyPreservesStructure(t *testing.T) {
	for _, sample := range jsonSamples {
		formatted, err := FormatJSON(sample, JSONIndent)
		require.NoError(t, err)

		var before, after any
		require.NoError(t, json.Unmarshal([]byte(sample), &before))
		require.NoError(t, json.Unmarshal([]byte(formatted), &after))
		assert.Equal(t, before, after, sample)
	}
}

func TestInlineStrategyMalformedInput(t *testing.T) {
	for _, bad := range []string{`{"a":`, ``, `{"a":1} trailing`, `{'a':1}`, `[1,]`} {
		outcome := InlineStrategy{}.Run(context.Background(), StrategyInput{Text: bad})
		require.Equal(t, OutcomeFailed, outcome.Kind, bad)
		assert.ErrorIs(t, outcome.Err, ErrMalformedInput)
		assert.Empty(t, outcome.Text)
		assert.Equal(t, bad, outcome.Apply(bad))
	}
}

func TestInlineStrategyMalformedInputThroughDispatcher(t *testing.T) {
	d := newTestDispatcher(t)
	content := `{"a": [1, 2}`
	outcome := d.Dispatch(context.Background(), FormatRequest{Content: content, Syntax: "source.json"})
	require.Equal(t, OutcomeFailed, outcome.Kind)
	assert.Contains(t, outcome.Reason, "offset")
	assert.Equal(t, content, outcome.Apply(content))
}

func TestInlineStrategyCustomIndent(t *testing.T) {
	outcome := InlineStrategy{Indent: "\t"}.Run(context.Background(), StrategyInput{Text: `[1]`})
	assert.Equal(t, "[\n\t1\n]", outcome.Text)
}
