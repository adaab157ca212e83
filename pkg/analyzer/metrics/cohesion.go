package metrics

import (
	"strings"

	"github.com/panbanda/cppsmell/pkg/ast"
)

// Cohesion returns the share of method pairs in n that access at least one
// common instance field. Units with fewer than two methods score 1.
func Cohesion(n ast.Node) float64 {
	if n == nil {
		return 1
	}
	methods := ast.FindAll(n, "function_definition")
	if len(methods) < 2 {
		return 1
	}

	fields := MemberFields(n)
	access := make([]map[string]bool, len(methods))
	for i, m := range methods {
		access[i] = fieldAccesses(m, fields)
	}

	total, connected := 0, 0
	for i := range methods {
		for j := i + 1; j < len(methods); j++ {
			total++
			if intersects(access[i], access[j]) {
				connected++
			}
		}
	}
	return float64(connected) / float64(total)
}

// MemberFields returns the data member names declared in any class body at
// or below n.
func MemberFields(n ast.Node) map[string]bool {
	fields := make(map[string]bool)
	for _, decl := range ast.FindAll(n, "field_declaration") {
		for _, child := range ast.Children(decl) {
			if name := declaredField(child); name != "" {
				fields[name] = true
			}
		}
	}
	return fields
}

// declaredField unwraps pointer, reference and array declarators. Method
// declarations yield "".
func declaredField(n ast.Node) string {
	for n != nil {
		kind := n.Kind()
		switch {
		case kind == "field_identifier":
			return n.Text()
		case kind == "function_declarator":
			return ""
		case strings.HasSuffix(kind, "_declarator"):
			next := n.Field("declarator")
			if next == nil {
				next = firstNamedChild(n)
			}
			n = next
		default:
			return ""
		}
	}
	return ""
}

// fieldAccesses collects the fields a method touches, either through
// this->field or by naming a member directly.
func fieldAccesses(method ast.Node, fields map[string]bool) map[string]bool {
	used := make(map[string]bool)
	body := method.Field("body")
	if body == nil {
		return used
	}
	ast.Walk(body, func(node ast.Node) bool {
		switch node.Kind() {
		case "field_expression":
			arg := node.Field("argument")
			field := node.Field("field")
			if arg != nil && field != nil && arg.Kind() == "this" {
				used[field.Text()] = true
			}
		case "identifier":
			if name := node.Text(); fields[name] {
				used[name] = true
			}
		}
		return true
	})
	return used
}

func intersects(a, b map[string]bool) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}
