package metrics

import (
	"strings"

	"github.com/panbanda/cppsmell/pkg/ast"
)

var ignoredRoots = map[string]bool{
	"std":  true,
	"this": true,
}

// Coupling counts the distinct symbol roots that n reaches through
// qualified names, member access and calls. Standard library references
// and calls to functions defined inside n are not counted.
func Coupling(n ast.Node) int {
	if n == nil {
		return 0
	}

	local := make(map[string]bool)
	for _, fn := range ast.FindAll(n, "function_definition") {
		if name := FunctionName(fn); name != "" {
			local[simpleName(name)] = true
		}
	}

	roots := make(map[string]bool)
	add := func(root string) {
		root = strings.TrimSpace(root)
		if root == "" || ignoredRoots[root] || local[root] {
			return
		}
		roots[root] = true
	}

	ast.Walk(n, func(node ast.Node) bool {
		switch node.Kind() {
		case "qualified_identifier":
			add(qualifiedRoot(node))
			return false
		case "field_expression":
			add(memberRoot(node))
		case "call_expression":
			if fn := node.Field("function"); fn != nil && fn.Kind() == "identifier" {
				add(fn.Text())
			}
		}
		return true
	})
	return len(roots)
}

// qualifiedRoot returns the outermost scope of a::b::c, or the name itself
// for a globally qualified ::name.
func qualifiedRoot(n ast.Node) string {
	scope := n.Field("scope")
	if scope == nil {
		if name := n.Field("name"); name != nil {
			return simpleName(name.Text())
		}
		return ""
	}
	if scope.Kind() == "qualified_identifier" {
		return qualifiedRoot(scope)
	}
	return simpleName(scope.Text())
}

// memberRoot returns the leftmost object of a.b->c, or "" when the chain
// starts with something other than a plain name.
func memberRoot(n ast.Node) string {
	cur := n
	for cur != nil && cur.Kind() == "field_expression" {
		cur = cur.Field("argument")
	}
	if cur == nil {
		return ""
	}
	switch cur.Kind() {
	case "identifier", "this":
		return cur.Text()
	case "qualified_identifier":
		return qualifiedRoot(cur)
	}
	return ""
}

// FunctionName returns the declared name of a function definition, following
// nested declarators. Returns "" for anonymous or malformed definitions.
func FunctionName(fn ast.Node) string {
	d := fn.Field("declarator")
	for d != nil {
		switch d.Kind() {
		case "identifier", "field_identifier", "qualified_identifier",
			"destructor_name", "operator_name", "template_function":
			return d.Text()
		}
		next := d.Field("declarator")
		if next == nil {
			next = firstNamedChild(d)
		}
		d = next
	}
	return ""
}

func firstNamedChild(n ast.Node) ast.Node {
	for _, c := range ast.Children(n) {
		if c.IsNamed() {
			return c
		}
	}
	return nil
}
