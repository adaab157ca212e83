// Package engine turns source text into FileResults. It owns the content
// cache and runs the metrics calculator plus every structural and lexical
// detector on each file.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/panbanda/cppsmell/internal/cache"
	"github.com/panbanda/cppsmell/internal/fileproc"
	"github.com/panbanda/cppsmell/pkg/analyzer/lexical"
	"github.com/panbanda/cppsmell/pkg/analyzer/structural"
	"github.com/panbanda/cppsmell/pkg/ast"
	"github.com/panbanda/cppsmell/pkg/models"
	"github.com/panbanda/cppsmell/pkg/parser"
	"github.com/sourcegraph/conc/panics"
)

// TextNotAvailable is returned by GetOriginalText for unknown file names.
const TextNotAvailable = "not available"

// errSyntax is the cause attached to strict-mode parse failures.
var errSyntax = errors.New("syntax error")

// Input is one unit of analysis.
type Input struct {
	Name string
	Text string
}

// Engine analyzes C and C++ sources. It is safe for concurrent use.
type Engine struct {
	provider   ast.Provider
	cache      *cache.Cache
	thresholds models.Thresholds
	structural []structural.Detector
	lexical    []lexical.Detector
	logger     *slog.Logger
	strict     bool
	workers    int
	now        func() time.Time
}

// Option is a functional option for configuring Engine.
type Option func(*Engine)

// WithThresholds overrides entries of the default threshold table.
func WithThresholds(th models.Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = e.thresholds.Merge(th)
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStrictParse treats trees containing error nodes as parse failures.
func WithStrictParse(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithWorkers bounds batch parallelism. Zero means 2x NumCPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithCache shares a content cache between engines.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// New creates an engine around an explicitly constructed provider. The
// caller keeps ownership of the provider.
func New(provider ast.Provider, opts ...Option) *Engine {
	e := &Engine{
		provider:   provider,
		cache:      cache.New(),
		thresholds: models.DefaultThresholds(),
		logger:     slog.New(slog.DiscardHandler),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	e.structural = structural.Default(e.thresholds)
	e.lexical = lexical.Default(e.thresholds)
	return e
}

// Thresholds returns the effective threshold table.
func (e *Engine) Thresholds() models.Thresholds {
	return e.thresholds
}

// Analyze analyzes one file. The text is cached under name before parsing,
// so it stays retrievable even when parsing fails. Errors wrap
// ast.ErrParserUnavailable or are *ast.ParseError values.
func (e *Engine) Analyze(ctx context.Context, text, name string) (models.FileResult, error) {
	digest := e.cache.Put(name, text)

	if err := e.init(ctx); err != nil {
		return models.FileResult{}, err
	}

	tree, err := e.provider.Parse(ctx, []byte(text))
	if err != nil {
		if errors.Is(err, ast.ErrParserUnavailable) {
			return models.FileResult{}, err
		}
		return models.FileResult{}, &ast.ParseError{File: name, Err: err}
	}
	defer tree.Close()

	if e.strict && tree.HasErrors() {
		return models.FileResult{}, &ast.ParseError{File: name, Line: tree.FirstErrorLine(), Err: errSyntax}
	}

	unit := structural.NewUnit(name, tree)
	fileMetrics := unit.Metrics.File(tree)

	findings := structural.Run(unit, e.structural)
	findings = append(findings, lexical.Run(lexical.NewSource(name, text), e.lexical)...)
	models.AssignIDs(name, findings)

	return models.FileResult{
		FileName:     name,
		Language:     string(parser.DetectLanguage(name)),
		FileSize:     int64(len(text)),
		ContentHash:  digest,
		Findings:     findings,
		FindingCount: len(findings),
		Timestamp:    e.now(),
		Metrics:      fileMetrics,
	}, nil
}

// AnalyzeBatch analyzes inputs in parallel and returns one result per input
// in input order. A file that fails to parse, or whose analysis panics, is
// reported as a degraded result and does not stop the batch. Grammar
// initialization failure and context cancellation abort the batch.
func (e *Engine) AnalyzeBatch(ctx context.Context, inputs []Input, onProgress fileproc.ProgressFunc) ([]models.FileResult, error) {
	if err := e.init(ctx); err != nil {
		return nil, err
	}

	results, err := fileproc.Map(ctx, inputs, e.workers, func(ctx context.Context, in Input) (models.FileResult, error) {
		return e.analyzeIsolated(ctx, in)
	}, onProgress)
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Failed {
			failed++
		}
	}
	e.logger.Debug("batch analyzed", "files", len(results), "failed", failed)
	return results, nil
}

func (e *Engine) analyzeIsolated(ctx context.Context, in Input) (models.FileResult, error) {
	var (
		res models.FileResult
		err error
	)
	if rec := panics.Try(func() { res, err = e.Analyze(ctx, in.Text, in.Name) }); rec != nil {
		err = rec.AsError()
	}
	if err == nil {
		return res, nil
	}

	if errors.Is(err, ast.ErrParserUnavailable) {
		return res, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}

	e.logger.Warn("file analysis degraded", "file", in.Name, "error", err)
	failed := models.FailedFileResult(in.Name, int64(len(in.Text)), err)
	failed.Language = string(parser.DetectLanguage(in.Name))
	failed.ContentHash, _ = e.cache.Digest(in.Name)
	failed.Timestamp = e.now()
	return failed, nil
}

// GetOriginalText returns the text last analyzed under name, or
// TextNotAvailable.
func (e *Engine) GetOriginalText(name string) string {
	if text, ok := e.cache.Get(name); ok {
		return text
	}
	return TextNotAvailable
}

// Cache exposes the content cache.
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}

func (e *Engine) init(ctx context.Context) error {
	err := e.provider.Init(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	e.logger.Error("grammar initialization failed", "error", err)
	if errors.Is(err, ast.ErrParserUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ast.ErrParserUnavailable, err)
}
