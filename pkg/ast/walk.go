package ast

// Visitor is called for each node in pre-order. Returning false skips the
// node's subtree.
type Visitor func(n Node) bool

// Walk visits every node under root exactly once in pre-order using an
// explicit stack, so deep trees cannot exhaust the goroutine stack.
func Walk(root Node, visit Visitor) {
	if root == nil {
		return
	}

	stack := []Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visit(n) {
			continue
		}

		// Push in reverse so the first child is visited first.
		for i := n.ChildCount() - 1; i >= 0; i-- {
			if c := n.Child(i); c != nil {
				stack = append(stack, c)
			}
		}
	}
}

// FindAll returns every node under root (root included) whose kind is in kinds.
func FindAll(root Node, kinds ...string) []Node {
	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	var out []Node
	Walk(root, func(n Node) bool {
		if want[n.Kind()] {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Children returns the immediate children of n.
func Children(n Node) []Node {
	if n == nil {
		return nil
	}
	out := make([]Node, 0, n.ChildCount())
	for i := range n.ChildCount() {
		if c := n.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildOfKind returns the first immediate child with the given kind.
func FirstChildOfKind(n Node, kind string) Node {
	if n == nil {
		return nil
	}
	for i := range n.ChildCount() {
		if c := n.Child(i); c != nil && c.Kind() == kind {
			return c
		}
	}
	return nil
}

// LineCount returns the number of newline-delimited lines in s. An empty
// string has zero lines.
func LineCount(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
		}
	}
	return n
}
