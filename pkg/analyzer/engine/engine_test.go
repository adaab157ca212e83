package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/panbanda/cppsmell/pkg/ast"
	"github.com/panbanda/cppsmell/pkg/ast/treesitter"
	"github.com/panbanda/cppsmell/pkg/models"
	"github.com/panbanda/cppsmell/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	failMarker  = "// FORCE_PARSE_FAILURE"
	panicMarker = "// FORCE_PANIC"
)

// fakeProvider wraps the real tree-sitter provider and injects failures.
type fakeProvider struct {
	real    *treesitter.Provider
	initErr error
	inits   atomic.Int32
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{real: treesitter.New()}
}

func (f *fakeProvider) Init(ctx context.Context) error {
	f.inits.Add(1)
	if f.initErr != nil {
		return f.initErr
	}
	return f.real.Init(ctx)
}

func (f *fakeProvider) Parse(ctx context.Context, source []byte) (ast.Tree, error) {
	if bytes.Contains(source, []byte(failMarker)) {
		return nil, errors.New("parser gave up")
	}
	tree, err := f.real.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	if bytes.Contains(source, []byte(panicMarker)) {
		return panickingTree{tree}, nil
	}
	return tree, nil
}

func (f *fakeProvider) Close() { f.real.Close() }

type panickingTree struct {
	ast.Tree
}

func (panickingTree) Root() ast.Node { panic("corrupt tree") }

const sample = `#include <vector>

int counter = 0;

class Widget {
public:
    int size() const { return n_; }
private:
    int n_;
};

int configure(int a, int b, int c, int d, int e) {
    if (a > b && b > c && c > d && d > e) {
        return 1;
    }
    return 0;
}
`

func TestAnalyze(t *testing.T) {
	e := New(newFakeProvider())

	res, err := e.Analyze(context.Background(), sample, "src/widget.cpp")
	require.NoError(t, err)

	assert.Equal(t, "src/widget.cpp", res.FileName)
	assert.Equal(t, "cpp", res.Language)
	assert.Equal(t, int64(len(sample)), res.FileSize)
	assert.NotEmpty(t, res.ContentHash)
	assert.False(t, res.Failed)
	assert.Equal(t, len(res.Findings), res.FindingCount)

	kinds := map[models.SmellKind]int{}
	for _, f := range res.Findings {
		kinds[f.Kind]++
		assert.Equal(t, "src/widget.cpp", f.File)
		assert.NotEmpty(t, f.ID)
		assert.NotZero(t, f.Severity.Weight())
	}
	assert.Equal(t, 1, kinds[models.SmellLongParameterList])
	assert.Equal(t, 1, kinds[models.SmellGlobalVariables])
	assert.Equal(t, 1, kinds[models.SmellComplexCondition])

	assert.GreaterOrEqual(t, res.Metrics.CyclomaticComplexity, 1)
	assert.Equal(t, 2, res.Metrics.MethodCount)
	assert.Equal(t, ast.LineCount(sample), res.Metrics.LinesOfCode)
}

func TestAnalyzeIdempotent(t *testing.T) {
	e := New(newFakeProvider())

	a, err := e.Analyze(context.Background(), sample, "a.cpp")
	require.NoError(t, err)
	b, err := e.Analyze(context.Background(), sample, "a.cpp")
	require.NoError(t, err)

	assert.Equal(t, a.Findings, b.Findings)
	assert.Equal(t, a.Metrics, b.Metrics)
}

func TestAnalyzeOrdersStructuralBeforeLexical(t *testing.T) {
	src := testutil.FunctionWithBodyLines("big", 45) + "\nint g;\n"
	e := New(newFakeProvider())

	res, err := e.Analyze(context.Background(), src, "a.cpp")
	require.NoError(t, err)
	require.Len(t, res.Findings, 2)
	assert.Equal(t, models.SmellLongFunction, res.Findings[0].Kind)
	assert.Equal(t, models.SeverityHigh, res.Findings[0].Severity)
	assert.Equal(t, models.SmellGlobalVariables, res.Findings[1].Kind)
}

func TestAnalyzeParseFailure(t *testing.T) {
	e := New(newFakeProvider())

	_, err := e.Analyze(context.Background(), "int x;\n"+failMarker, "bad.c")
	require.Error(t, err)
	assert.ErrorIs(t, err, ast.ErrParseFailure)

	var pe *ast.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "bad.c", pe.File)

	// The text is still retrievable.
	assert.Equal(t, "int x;\n"+failMarker, e.GetOriginalText("bad.c"))
}

func TestAnalyzeStrictParse(t *testing.T) {
	broken := "int ok() { return 1; }\n\nint broken( { return ; \n"

	lenient := New(newFakeProvider())
	_, err := lenient.Analyze(context.Background(), broken, "a.cpp")
	assert.NoError(t, err)

	strict := New(newFakeProvider(), WithStrictParse(true))
	_, err = strict.Analyze(context.Background(), broken, "a.cpp")
	require.Error(t, err)
	assert.ErrorIs(t, err, ast.ErrParseFailure)

	var pe *ast.ParseError
	require.ErrorAs(t, err, &pe)
	assert.GreaterOrEqual(t, pe.Line, 3)
}

func TestAnalyzeParserUnavailable(t *testing.T) {
	p := newFakeProvider()
	p.initErr = errors.New("grammar missing")
	e := New(p)

	_, err := e.Analyze(context.Background(), sample, "a.cpp")
	assert.ErrorIs(t, err, ast.ErrParserUnavailable)
}

func TestAnalyzeBatchIsolatesFailures(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := New(newFakeProvider(), WithLogger(logger), WithWorkers(2))

	inputs := []Input{
		{Name: "good.cpp", Text: sample},
		{Name: "fail.cpp", Text: "int a;\n" + failMarker},
		{Name: "panic.cpp", Text: "int b;\n" + panicMarker},
		{Name: "empty.c", Text: ""},
	}

	var ticks atomic.Int32
	results, err := e.AnalyzeBatch(context.Background(), inputs, func() { ticks.Add(1) })
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, int32(4), ticks.Load())

	for i, in := range inputs {
		assert.Equal(t, in.Name, results[i].FileName)
	}

	assert.False(t, results[0].Failed)
	assert.NotEmpty(t, results[0].Findings)

	for _, r := range results[1:3] {
		assert.True(t, r.Failed, r.FileName)
		assert.NotEmpty(t, r.Error)
		assert.Empty(t, r.Findings)
		assert.NotNil(t, r.Findings)
		assert.Equal(t, models.Metrics{}, r.Metrics)
		assert.NotEmpty(t, r.ContentHash)
	}
	assert.Contains(t, results[2].Error, "corrupt tree")

	assert.False(t, results[3].Failed)
	assert.Equal(t, "c", results[3].Language)
	assert.Equal(t, 1, results[3].Metrics.CyclomaticComplexity)

	assert.Contains(t, logs.String(), "file analysis degraded")
	assert.Contains(t, logs.String(), "fail.cpp")
	assert.Contains(t, logs.String(), "batch analyzed")
}

func TestAnalyzeBatchAbortsWhenParserUnavailable(t *testing.T) {
	p := newFakeProvider()
	p.initErr = fmt.Errorf("%w: grammar missing", ast.ErrParserUnavailable)
	e := New(p)

	results, err := e.AnalyzeBatch(context.Background(), []Input{{Name: "a.cpp", Text: sample}}, nil)
	assert.ErrorIs(t, err, ast.ErrParserUnavailable)
	assert.Nil(t, results)
	assert.Equal(t, int32(1), p.inits.Load())
}

func TestAnalyzeBatchCancelled(t *testing.T) {
	e := New(newFakeProvider())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.AnalyzeBatch(ctx, []Input{{Name: "a.cpp", Text: sample}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeBatchFindingIDsUnique(t *testing.T) {
	e := New(newFakeProvider())

	body := testutil.FunctionWithBodyLines("f", 25)
	inputs := []Input{
		{Name: "a.cpp", Text: body + "\nint g1;\nint g2;\n"},
		{Name: "b.cpp", Text: body + "\nint g1;\nint g2;\n"},
	}
	results, err := e.AnalyzeBatch(context.Background(), inputs, nil)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, r := range results {
		for _, f := range r.Findings {
			assert.False(t, seen[f.ID], "duplicate id %s", f.ID)
			seen[f.ID] = true
		}
	}
	assert.Len(t, seen, 6)
}

func TestGetOriginalText(t *testing.T) {
	e := New(newFakeProvider())
	assert.Equal(t, TextNotAvailable, e.GetOriginalText("never.cpp"))

	_, err := e.Analyze(context.Background(), "int x;", "x.cpp")
	require.NoError(t, err)
	assert.Equal(t, "int x;", e.GetOriginalText("x.cpp"))

	_, err = e.Analyze(context.Background(), "int y;", "x.cpp")
	require.NoError(t, err)
	assert.Equal(t, "int y;", e.GetOriginalText("x.cpp"))
	assert.Equal(t, 1, e.Cache().Len())
}

func TestWithThresholds(t *testing.T) {
	e := New(newFakeProvider(), WithThresholds(models.Thresholds{
		models.RuleLongFunctionLines: {Trigger: 5, Medium: 10, High: 15, Base: models.SeverityLow},
	}))

	assert.Equal(t, 5, e.Thresholds().Get(models.RuleLongFunctionLines).Trigger)
	assert.Equal(t, models.DefaultThresholds()[models.RuleDeepNesting], e.Thresholds()[models.RuleDeepNesting])

	res, err := e.Analyze(context.Background(), testutil.FunctionWithBodyLines("f", 12), "a.cpp")
	require.NoError(t, err)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, models.SmellLongFunction, res.Findings[0].Kind)
	assert.Equal(t, models.SeverityMedium, res.Findings[0].Severity)
	assert.True(t, strings.HasPrefix(res.Findings[0].ID, "LongFunction-"))
}
