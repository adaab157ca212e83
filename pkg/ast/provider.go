package ast

import (
	"context"
	"errors"
	"fmt"
)

// ErrParserUnavailable is returned when the grammar has not been loaded or
// failed to load. It is fatal for a whole batch.
var ErrParserUnavailable = errors.New("parser unavailable")

// ErrParseFailure is returned when a single file could not be turned into a
// syntax tree. It is recoverable per file.
var ErrParseFailure = errors.New("parse failure")

// ParseError describes a failed parse of one file.
type ParseError struct {
	File string
	Line int // first offending line, 0 if unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports ParseError as an ErrParseFailure.
func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailure
}

// Node is one node of a syntax tree.
type Node interface {
	// Kind returns the grammar's node type tag (e.g. "function_definition").
	Kind() string

	// IsNamed is false for anonymous tokens such as "&&" or "{".
	IsNamed() bool

	// ChildCount returns the number of immediate children, named or not.
	ChildCount() int

	// Child returns the i-th immediate child, or nil.
	Child(i int) Node

	// Field returns the child stored under a grammar field name, or nil.
	Field(name string) Node

	// StartLine and EndLine are 1-based and inclusive.
	StartLine() int
	EndLine() int

	// Text returns the raw source covered by the node.
	Text() string
}

// Tree is a parsed source unit.
type Tree interface {
	Root() Node
	Source() []byte

	// HasErrors reports whether the parser had to recover from syntax errors.
	HasErrors() bool

	// FirstErrorLine is the 1-based line of the first error node, or 0.
	FirstErrorLine() int

	// Close releases parser-owned memory. Nodes must not be used afterwards.
	Close()
}

// Provider turns source text into syntax trees for one grammar.
type Provider interface {
	// Init loads the grammar once. Concurrent callers share the single
	// attempt and observe its outcome.
	Init(ctx context.Context) error

	// Parse returns ErrParserUnavailable until Init has succeeded.
	Parse(ctx context.Context, source []byte) (Tree, error)

	// Close releases provider resources.
	Close()
}
