// Package metrics computes quality metrics over C/C++ syntax trees.
//
// Every metric degrades to a neutral value when the tree lacks an expected
// child (a function without a body, a class without a name). Nothing in
// this package returns an error.
package metrics

import (
	"strings"

	"github.com/panbanda/cppsmell/pkg/ast"
	"github.com/panbanda/cppsmell/pkg/models"
)

var classKinds = []string{"class_specifier", "struct_specifier"}

var loopAndBranchKinds = map[string]bool{
	"if_statement":    true,
	"while_statement": true,
	"for_statement":   true,
	"for_range_loop":  true,
	"do_statement":    true,
	"catch_clause":    true,
}

// Calculator computes metrics for nodes of one translation unit. It indexes
// the unit's classes up front so inheritance chains can be followed.
type Calculator struct {
	classes map[string]ast.Node
}

// New builds a calculator for the tree rooted at root.
func New(root ast.Node) *Calculator {
	c := &Calculator{
		classes: make(map[string]ast.Node),
	}
	for _, cls := range ast.FindAll(root, classKinds...) {
		if cls.Field("body") == nil {
			continue
		}
		if name := ClassName(cls); name != "" {
			if _, dup := c.classes[name]; !dup {
				c.classes[name] = cls
			}
		}
	}
	return c
}

// Compute returns all six metrics for n.
func (c *Calculator) Compute(n ast.Node) models.Metrics {
	if n == nil {
		return models.Metrics{CyclomaticComplexity: 1, CohesionScore: 1}
	}
	return models.Metrics{
		CyclomaticComplexity: Complexity(n),
		LinesOfCode:          ast.LineCount(n.Text()),
		MethodCount:          MethodCount(n),
		InheritanceDepth:     c.InheritanceDepth(n),
		CouplingCount:        Coupling(n),
		CohesionScore:        Cohesion(n),
	}
}

// File returns the file-level metrics for a tree. Lines are counted over
// the full source so leading and trailing blank lines are included.
func (c *Calculator) File(tree ast.Tree) models.Metrics {
	m := c.Compute(tree.Root())
	m.LinesOfCode = ast.LineCount(string(tree.Source()))
	return m
}

// Complexity returns the cyclomatic complexity of n: 1 plus one per
// branch, loop, case label, catch clause and short-circuit operator.
func Complexity(n ast.Node) int {
	count := 1
	ast.Walk(n, func(node ast.Node) bool {
		switch kind := node.Kind(); {
		case loopAndBranchKinds[kind]:
			count++
		case kind == "case_statement":
			// default labels carry no value
			if node.Field("value") != nil {
				count++
			}
		case kind == "binary_expression":
			if isLogicalOperator(node.Field("operator")) {
				count++
			}
		}
		return true
	})
	return count
}

func isLogicalOperator(op ast.Node) bool {
	if op == nil {
		return false
	}
	switch op.Kind() {
	case "&&", "||", "and", "or":
		return true
	}
	return false
}

// MethodCount returns the number of function definitions at or below n.
func MethodCount(n ast.Node) int {
	return len(ast.FindAll(n, "function_definition"))
}

// InheritanceDepth returns the longest base-class chain of a class node, or
// the deepest chain among all classes below any other node.
func (c *Calculator) InheritanceDepth(n ast.Node) int {
	if n == nil {
		return 0
	}
	if isClass(n) {
		return c.classDepth(n, map[string]bool{})
	}
	depth := 0
	for _, cls := range ast.FindAll(n, classKinds...) {
		depth = max(depth, c.classDepth(cls, map[string]bool{}))
	}
	return depth
}

func (c *Calculator) classDepth(cls ast.Node, visiting map[string]bool) int {
	if name := ClassName(cls); name != "" {
		if visiting[name] {
			return 0
		}
		visiting[name] = true
		defer delete(visiting, name)
	}

	bases := BaseNames(cls)
	if len(bases) == 0 {
		return 0
	}

	// Bases defined outside this unit count as one level.
	deepest := 0
	for _, base := range bases {
		if next, ok := c.classes[base]; ok {
			deepest = max(deepest, c.classDepth(next, visiting))
		}
	}
	return 1 + deepest
}

func isClass(n ast.Node) bool {
	k := n.Kind()
	return k == "class_specifier" || k == "struct_specifier"
}

// ClassName returns the simple name of a class or struct specifier.
func ClassName(cls ast.Node) string {
	name := cls.Field("name")
	if name == nil {
		return ""
	}
	return simpleName(name.Text())
}

// BaseNames returns the simple names of the direct base classes of cls.
func BaseNames(cls ast.Node) []string {
	clause := ast.FirstChildOfKind(cls, "base_class_clause")
	if clause == nil {
		return nil
	}
	var names []string
	for _, child := range ast.Children(clause) {
		switch child.Kind() {
		case "type_identifier", "qualified_identifier", "template_type":
			if name := simpleName(child.Text()); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// simpleName strips template arguments and namespace qualifiers.
func simpleName(s string) string {
	if i := strings.IndexByte(s, '<'); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "::"); i >= 0 {
		s = s[i+2:]
	}
	return strings.TrimSpace(s)
}
