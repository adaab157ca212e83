package fileproc

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/panbanda/cppsmell/internal/vcs"
)

// Reader returns the bytes of one translation unit.
type Reader interface {
	Read(path string) ([]byte, error)
}

// DiskReader reads sources from the working tree.
type DiskReader struct{}

func (DiskReader) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// RevisionReader reads sources as they were committed at one revision.
// Paths are relative to the repository root. go-git trees are not safe for
// concurrent reads, so reads are serialized.
type RevisionReader struct {
	mu   sync.Mutex
	tree vcs.Tree
	rev  string
}

// NewRevisionReader reads from tree, which was resolved from rev.
func NewRevisionReader(tree vcs.Tree, rev string) *RevisionReader {
	return &RevisionReader{tree: tree, rev: rev}
}

func (r *RevisionReader) Read(path string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	content, err := r.tree.File(path)
	if err != nil {
		return nil, fmt.Errorf("%s at %s: %w", path, r.rev, err)
	}
	return content, nil
}

// Loaded is a file whose content has been read.
type Loaded struct {
	Path    string
	Content []byte
}

// ReadResult is the outcome of ReadSources.
type ReadResult struct {
	Files   []Loaded
	Skipped []string // over the size limit
	Errors  *ProcessingErrors
}

// ReadSources reads files through r in order, skipping files larger than
// maxSize bytes (0 means no limit). Unreadable files are collected in
// Errors and left out of Files.
func ReadSources(ctx context.Context, files []string, r Reader, maxSize int64) (*ReadResult, error) {
	res := &ReadResult{
		Files:  make([]Loaded, 0, len(files)),
		Errors: &ProcessingErrors{},
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		content, err := r.Read(path)
		if err != nil {
			res.Errors.Add(path, err)
			continue
		}
		if maxSize > 0 && int64(len(content)) > maxSize {
			res.Skipped = append(res.Skipped, path)
			continue
		}
		res.Files = append(res.Files, Loaded{Path: path, Content: content})
	}
	return res, nil
}
