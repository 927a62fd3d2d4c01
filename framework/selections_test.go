package framework

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upperStrategy upper-cases its input so every replaced region is visible.
func upperStrategy() StrategyFunc {
	return StrategyFunc{Label: "upper", Fn: func(ctx context.Context, in StrategyInput) FormatOutcome {
		if strings.Contains(in.Text, "!") {
			return Failed(errors.New("bang"))
		}
		return Replaced(strings.ToUpper(in.Text))
	}}
}

func TestNormalizeSelections(t *testing.T) {
	content := "0123456789"
	assert.Equal(t, []Region{{0, 10}}, NormalizeSelections(content, nil))
	assert.Equal(t, []Region{{0, 10}}, NormalizeSelections(content, []Region{{2, 4}, {6, 6}}))
	assert.Equal(t,
		[]Region{{7, 9}, {1, 5}},
		NormalizeSelections(content, []Region{{1, 3}, {7, 9}, {2, 5}}))
	assert.Equal(t, []Region{{1, 6}}, NormalizeSelections(content, []Region{{4, 6}, {1, 4}}))
	assert.Equal(t, []Region{{8, 10}, {0, 2}}, NormalizeSelections(content, []Region{{2, 0}, {8, 50}}))
}

func TestFormatSelectionsLastToFirst(t *testing.T) {
	d := newTestDispatcher(t)
	strategy := upperStrategy()
	d.Register(SyntaxClojure, strategy)
	content := "aa bb cc dd"

	res := FormatSelections(context.Background(), d, FormatRequest{Content: content, Syntax: "clojure"},
		[]Region{{0, 2}, {6, 8}})

	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, Region{6, 8}, res.Outcomes[0].Region)
	assert.Equal(t, Region{0, 2}, res.Outcomes[1].Region)
	assert.Equal(t, "AA bb CC dd", res.Content)
	assert.False(t, res.Reload)
	_, failed := res.Failed()
	assert.False(t, failed)
}

func TestFormatSelectionsOffsetsSurviveLengthChanges(t *testing.T) {
	d := newTestDispatcher(t)
	d.Register(SyntaxClojure, StrategyFunc{Label: "grow", Fn: func(ctx context.Context, in StrategyInput) FormatOutcome {
		return Replaced("<" + in.Text + in.Text + ">")
	}})

	res := FormatSelections(context.Background(), d, FormatRequest{Content: "a-b-c", Syntax: "clojure"},
		[]Region{{0, 1}, {2, 3}, {4, 5}})

	assert.Equal(t, "<aa>-<bb>-<cc>", res.Content)
	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, Region{4, 5}, res.Outcomes[0].Region)
	assert.Equal(t, Region{0, 1}, res.Outcomes[2].Region)
}

func TestFormatSelectionsContinuesAfterFailure(t *testing.T) {
	d := newTestDispatcher(t)
	d.Register(SyntaxClojure, upperStrategy())

	res := FormatSelections(context.Background(), d, FormatRequest{Content: "ab !x cd", Syntax: "clojure"},
		[]Region{{0, 2}, {3, 5}, {6, 8}})

	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, "AB !x CD", res.Content)
	failed, ok := res.Failed()
	require.True(t, ok)
	assert.Equal(t, Region{3, 5}, failed.Region)
}

func TestFormatSelectionsStopsAfterReload(t *testing.T) {
	d := newTestDispatcher(t)
	stub := &countingStrategy{name: "black", outcome: ReplacedOnDisk()}
	d.Register(SyntaxPython, stub)

	res := FormatSelections(context.Background(), d,
		FormatRequest{Content: "x=1\ny=2\n", Syntax: "python", FilePath: "/tmp/m.py"},
		[]Region{{0, 3}, {4, 7}})

	assert.True(t, res.Reload)
	assert.Equal(t, 1, stub.count())
	assert.Equal(t, "x=1\ny=2\n", res.Content)
}

func TestFormatSelectionsWholeBufferWithoutSelection(t *testing.T) {
	d := newTestDispatcher(t)

	res := FormatSelections(context.Background(), d, FormatRequest{Content: `{"a":1}`, Syntax: "source.json"}, nil)

	require.Len(t, res.Outcomes, 1)
	assert.Equal(t, "{\n    \"a\": 1\n}", res.Content)
}
