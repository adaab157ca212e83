package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/panbanda/cppsmell/internal/testutil"
	"github.com/panbanda/cppsmell/internal/vcs"
	"github.com/panbanda/cppsmell/pkg/analyzer/engine"
	"github.com/panbanda/cppsmell/pkg/config"
	"github.com/panbanda/cppsmell/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const widget = `int counter = 0;

int configure(int a, int b, int c, int d, int e) {
    return a + b + c + d + e;
}
`

const clean = `static int helper(int a) {
    return a + 1;
}
`

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	cfg := config.DefaultConfig()
	svc := New(append([]Option{WithConfig(cfg)}, opts...)...)
	t.Cleanup(svc.Close)
	return svc
}

func TestAnalyzePaths(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateFileTree(t, dir, map[string]string{
		"src/widget.cpp": widget,
		"src/clean.c":    clean,
		"README.md":      "# docs\n",
	})

	svc := newService(t)
	res, err := svc.AnalyzePaths(context.Background(), []string{dir}, "")
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	assert.Equal(t, 2, res.Stats.TotalFiles)
	assert.Equal(t, 1, res.Stats.SmellsByType[models.SmellGlobalVariables])
	assert.Equal(t, 1, res.Stats.SmellsByType[models.SmellLongParameterList])
	assert.Equal(t, 0, res.Stats.FailedFiles)

	widgetPath := filepath.Join(dir, "src", "widget.cpp")
	assert.Equal(t, widget, svc.GetOriginalText(widgetPath))
	assert.Equal(t, engine.TextNotAvailable, svc.GetOriginalText("nope.cpp"))
}

func TestCollectSkipsLargeFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateFileTree(t, dir, map[string]string{
		"small.cpp": clean,
		"big.cpp":   widget + widget + widget,
	})

	cfg := config.DefaultConfig()
	cfg.Analysis.MaxFileSize = int64(len(clean))
	svc := New(WithConfig(cfg))
	defer svc.Close()

	c, err := svc.Collect(context.Background(), []string{dir}, "")
	require.NoError(t, err)
	require.Len(t, c.Inputs, 1)
	assert.Equal(t, filepath.Join(dir, "small.cpp"), c.Inputs[0].Name)
	assert.Equal(t, []string{filepath.Join(dir, "big.cpp")}, c.Skipped)
}

func TestCollectMissingPath(t *testing.T) {
	svc := newService(t)
	_, err := svc.Collect(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}, "")
	assert.Error(t, err)
}

func TestAnalyzeProgress(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateFileTree(t, dir, map[string]string{
		"a.cpp": clean,
		"b.cpp": clean,
		"c.h":   clean,
	})

	svc := newService(t)
	c, err := svc.Collect(context.Background(), []string{dir}, "")
	require.NoError(t, err)

	ticks := 0
	res, err := svc.Analyze(context.Background(), c, func() { ticks++ })
	require.NoError(t, err)
	assert.Len(t, res.Results, 3)
	assert.Equal(t, 3, ticks)
}

func TestAnalyzeAtRef(t *testing.T) {
	dir := t.TempDir()
	testutil.CommitFiles(t, dir, map[string]string{"src/widget.cpp": widget}, "add widget")

	// The working copy no longer has the smells; the revision still does.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "widget.cpp"), []byte(clean), 0644))

	svc := newService(t)
	res, err := svc.AnalyzePaths(context.Background(), []string{dir}, "HEAD")
	require.NoError(t, err)

	require.Len(t, res.Results, 1)
	assert.Equal(t, "src/widget.cpp", res.Results[0].FileName)
	assert.Equal(t, "HEAD", res.Ref)
	assert.Equal(t, 1, res.Stats.SmellsByType[models.SmellGlobalVariables])

	working, err := svc.AnalyzePaths(context.Background(), []string{dir}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, working.Stats.TotalSmells)
}

type failingOpener struct{}

func (failingOpener) PlainOpen(string) (vcs.Repository, error) {
	return nil, errors.New("not a repository")
}

func (failingOpener) PlainOpenWithDetect(string) (vcs.Repository, error) {
	return nil, errors.New("not a repository")
}

func TestAnalyzeAtRefWithoutRepository(t *testing.T) {
	svc := newService(t, WithOpener(failingOpener{}))
	_, err := svc.AnalyzePaths(context.Background(), []string{t.TempDir()}, "HEAD")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git repository")
}

func TestRepoRelative(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "core"), 0755))

	got, err := repoRelative(root, []string{root, filepath.Join(root, "src", "core")})
	require.NoError(t, err)
	assert.Equal(t, []string{".", "src/core"}, got)

	_, err = repoRelative(filepath.Join(root, "src"), []string{root})
	assert.Error(t, err)
}
