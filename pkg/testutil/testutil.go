// Package testutil provides C/C++ fixtures and parsing helpers for tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/panbanda/cppsmell/pkg/ast"
	"github.com/panbanda/cppsmell/pkg/ast/treesitter"
)

// Parse parses C++ source with a fresh tree-sitter provider. The tree is
// closed when the test ends.
func Parse(t *testing.T, src string) ast.Tree {
	t.Helper()
	p := treesitter.New()
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	tree, err := p.Parse(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	t.Cleanup(tree.Close)
	return tree
}

// FunctionWithBodyLines returns a function named name whose body spans
// exactly lines lines, braces included.
func FunctionWithBodyLines(name string, lines int) string {
	if lines < 2 {
		lines = 2
	}
	var b strings.Builder
	fmt.Fprintf(&b, "void %s() {\n", name)
	for i := range lines - 2 {
		fmt.Fprintf(&b, "    step(%d);\n", i)
	}
	b.WriteString("}\n")
	return b.String()
}

// ClassWithMethods returns a class with n inline methods, each on one line.
func ClassWithMethods(name string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "class %s {\npublic:\n", name)
	for i := range n {
		fmt.Fprintf(&b, "    int m%d() { return %d; }\n", i, i)
	}
	b.WriteString("};\n")
	return b.String()
}

// NestedBlocks returns a function whose deepest block sits at depth
// braces, counting the function body as the first level.
func NestedBlocks(depth int) string {
	var b strings.Builder
	b.WriteString("void nest() {\n")
	for i := 1; i < depth; i++ {
		fmt.Fprintf(&b, "%sif (x%d) {\n", strings.Repeat("    ", i), i)
	}
	fmt.Fprintf(&b, "%swork();\n", strings.Repeat("    ", depth))
	for i := depth - 1; i >= 1; i-- {
		fmt.Fprintf(&b, "%s}\n", strings.Repeat("    ", i))
	}
	b.WriteString("}\n")
	return b.String()
}
