// Package scanner finds C and C++ source files to analyze.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/cppsmell/internal/vcs"
	"github.com/panbanda/cppsmell/pkg/config"
	"github.com/panbanda/cppsmell/pkg/parser"
)

// Scanner finds source files in a directory.
type Scanner struct {
	config *config.Config

	// configMatcher holds patterns from the config, matched relative to
	// the scan root. gitMatcher holds .gitignore patterns, matched relative
	// to the repository root.
	configMatcher gitignore.Matcher
	gitMatcher    gitignore.Matcher
	gitRoot       string
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Scanner{config: cfg}

	var patterns []gitignore.Pattern
	for _, pattern := range cfg.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	for _, dir := range cfg.Exclude.Dirs {
		patterns = append(patterns, gitignore.ParsePattern(strings.TrimSuffix(dir, "/")+"/", nil))
	}
	if len(patterns) > 0 {
		s.configMatcher = gitignore.NewMatcher(patterns)
	}
	return s
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadGitignore reads every .gitignore in the repository containing root.
func (s *Scanner) loadGitignore(absRoot string) {
	s.gitMatcher, s.gitRoot = nil, ""
	if !s.config.Exclude.Gitignore {
		return
	}
	gitRoot := findGitRoot(absRoot)
	if gitRoot == "" {
		return
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(patterns) == 0 {
		return
	}
	s.gitMatcher = gitignore.NewMatcher(patterns)
	s.gitRoot = gitRoot
}

// isExcluded checks a path, relative to the scan root, against the config
// patterns and (given its absolute form) the .gitignore patterns.
func (s *Scanner) isExcluded(rel, abs string, isDir bool) bool {
	if s.configMatcher != nil && rel != "." {
		if s.configMatcher.Match(splitPath(rel), isDir) {
			return true
		}
	}
	if s.gitMatcher != nil {
		if gitRel, err := filepath.Rel(s.gitRoot, abs); err == nil && gitRel != "." && !strings.HasPrefix(gitRel, "..") {
			if s.gitMatcher.Match(splitPath(gitRel), isDir) {
				return true
			}
		}
	}
	return false
}

func splitPath(p string) []string {
	return strings.Split(filepath.ToSlash(p), "/")
}

// ScanDir recursively scans a directory for C and C++ source files and
// returns them sorted.
// Validates that all paths stay within the root directory to prevent traversal attacks.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	// Resolve root to absolute path for security validation
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	// Resolve any symlinks in the root path
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadGitignore(absRoot)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		absPath := filepath.Join(absRoot, relPath)

		// Security: validate path stays within root (prevent symlink traversal)
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if s.isExcluded(relPath, absPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(relPath, absPath, false) {
			return nil
		}
		if parser.DetectLanguage(path) != parser.LangUnknown {
			files = append(files, path)
		}

		return nil
	})

	sort.Strings(files)
	return files, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// ScanPaths expands a mix of files and directories. Explicitly named files
// are kept when they are C or C++ sources, even if excluded; directories
// are scanned. The result is sorted and free of duplicates.
func (s *Scanner) ScanPaths(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}

		found := []string{p}
		if info.IsDir() {
			if found, err = s.ScanDir(p); err != nil {
				return nil, err
			}
		} else if parser.DetectLanguage(p) == parser.LangUnknown {
			continue
		}

		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

// ScanTree selects the C and C++ sources of a git tree that fall under one
// of prefixes (all when empty) and are not excluded by the config patterns.
func (s *Scanner) ScanTree(entries []vcs.TreeEntry, prefixes []string) []string {
	var files []string
	for _, e := range entries {
		if parser.DetectLanguage(e.Path) == parser.LangUnknown {
			continue
		}
		if !underAny(e.Path, prefixes) {
			continue
		}
		if s.configMatcher != nil && s.configMatcher.Match(splitPath(e.Path), false) {
			continue
		}
		files = append(files, e.Path)
	}
	sort.Strings(files)
	return files
}

func underAny(path string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		p = strings.TrimSuffix(filepath.ToSlash(filepath.Clean(p)), "/")
		if p == "." || p == "" || path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
