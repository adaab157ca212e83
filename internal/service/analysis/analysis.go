// Package analysis runs the smell pipeline over paths on disk or at a git
// revision: scan, read, analyze, aggregate.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/panbanda/cppsmell/internal/fileproc"
	"github.com/panbanda/cppsmell/internal/scanner"
	"github.com/panbanda/cppsmell/internal/vcs"
	"github.com/panbanda/cppsmell/pkg/analyzer/aggregate"
	"github.com/panbanda/cppsmell/pkg/analyzer/engine"
	"github.com/panbanda/cppsmell/pkg/ast"
	"github.com/panbanda/cppsmell/pkg/ast/treesitter"
	"github.com/panbanda/cppsmell/pkg/config"
	"github.com/panbanda/cppsmell/pkg/models"
)

// Service orchestrates smell analysis runs. It keeps one engine, so text
// analyzed by earlier runs stays retrievable through GetOriginalText.
type Service struct {
	config   *config.Config
	opener   vcs.Opener
	logger   *slog.Logger
	provider ast.Provider
	owned    bool
	engine   *engine.Engine
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithOpener sets the VCS opener (for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// WithLogger sets the logger handed to the engine.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithProvider replaces the tree-sitter provider. The caller keeps
// ownership of p.
func WithProvider(p ast.Provider) Option {
	return func(s *Service) {
		s.provider = p
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		opener: vcs.DefaultOpener(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.provider == nil {
		s.provider = treesitter.New()
		s.owned = true
	}
	s.engine = engine.New(s.provider,
		engine.WithThresholds(s.config.Thresholds),
		engine.WithStrictParse(s.config.Analysis.StrictParse),
		engine.WithWorkers(s.config.Analysis.Workers),
		engine.WithLogger(s.logger),
	)
	return s
}

// Close releases the provider when the service created it.
func (s *Service) Close() {
	if s.owned {
		s.provider.Close()
	}
}

// Collected is the set of files read for one run.
type Collected struct {
	Ref     string
	Inputs  []engine.Input
	Skipped []string // over analysis.max_file_size
	Errors  *fileproc.ProcessingErrors
}

// Result is the outcome of one run.
type Result struct {
	Ref     string
	Results []models.FileResult
	Stats   models.CorpusStats
	Skipped []string
	Errors  *fileproc.ProcessingErrors
}

// Collect finds and reads the C and C++ sources under paths. With a non-empty
// ref the files come from that git revision instead of the working tree.
func (s *Service) Collect(ctx context.Context, paths []string, ref string) (*Collected, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	files, src, err := s.locate(paths, ref)
	if err != nil {
		return nil, err
	}

	read, err := fileproc.ReadSources(ctx, files, src, s.config.Analysis.MaxFileSize)
	if err != nil {
		return nil, err
	}

	c := &Collected{
		Ref:     ref,
		Inputs:  make([]engine.Input, len(read.Files)),
		Skipped: read.Skipped,
		Errors:  read.Errors,
	}
	for i, f := range read.Files {
		c.Inputs[i] = engine.Input{Name: f.Path, Text: string(f.Content)}
	}
	for _, e := range read.Errors.Errors {
		s.logger.Warn("file unreadable", "file", e.Path, "error", e.Err)
	}
	for _, path := range read.Skipped {
		s.logger.Info("file skipped", "file", path, "reason", "max_file_size")
	}
	return c, nil
}

func (s *Service) locate(paths []string, ref string) ([]string, fileproc.Reader, error) {
	sc := scanner.NewScanner(s.config)
	if ref == "" {
		files, err := sc.ScanPaths(paths)
		if err != nil {
			return nil, nil, err
		}
		return files, fileproc.DiskReader{}, nil
	}

	repo, err := s.opener.PlainOpenWithDetect(paths[0])
	if err != nil {
		return nil, nil, fmt.Errorf("--ref requires a git repository: %w", err)
	}
	tree, err := repo.TreeAt(ref)
	if err != nil {
		return nil, nil, err
	}
	entries, err := tree.Entries()
	if err != nil {
		return nil, nil, err
	}

	prefixes, err := repoRelative(repo.RepoPath(), paths)
	if err != nil {
		return nil, nil, err
	}
	return sc.ScanTree(entries, prefixes), fileproc.NewRevisionReader(tree, ref), nil
}

// repoRelative converts paths into slash-separated prefixes relative to the
// repository root.
func repoRelative(root string, paths []string) ([]string, error) {
	root = resolve(root)
	prefixes := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, resolve(p))
		if err != nil {
			return nil, err
		}
		if rel == ".." || filepath.IsAbs(rel) || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
			return nil, fmt.Errorf("%s is outside repository %s", p, root)
		}
		prefixes = append(prefixes, filepath.ToSlash(rel))
	}
	return prefixes, nil
}

func resolve(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if real, err := filepath.EvalSymlinks(p); err == nil {
		p = real
	}
	return p
}

// Analyze runs the engine over collected inputs and aggregates the results.
func (s *Service) Analyze(ctx context.Context, c *Collected, onProgress fileproc.ProgressFunc) (*Result, error) {
	results, err := s.engine.AnalyzeBatch(ctx, c.Inputs, onProgress)
	if err != nil {
		return nil, err
	}
	return &Result{
		Ref:     c.Ref,
		Results: results,
		Stats:   aggregate.Aggregate(results, aggregate.WithTopFiles(s.config.Analysis.TopFiles)),
		Skipped: c.Skipped,
		Errors:  c.Errors,
	}, nil
}

// AnalyzePaths is Collect followed by Analyze.
func (s *Service) AnalyzePaths(ctx context.Context, paths []string, ref string) (*Result, error) {
	c, err := s.Collect(ctx, paths, ref)
	if err != nil {
		return nil, err
	}
	return s.Analyze(ctx, c, nil)
}

// GetOriginalText returns the text last analyzed under name, or
// engine.TextNotAvailable.
func (s *Service) GetOriginalText(name string) string {
	return s.engine.GetOriginalText(name)
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.config
}
