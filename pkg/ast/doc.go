// Package ast provides a parser-independent view of a syntax tree.
//
// Analyzers depend on the Node, Tree and Provider interfaces only. The
// tree-sitter implementation lives in the treesitter subpackage; tests can
// supply their own Provider.
//
// Usage:
//
//	provider := treesitter.New()
//	defer provider.Close()
//
//	if err := provider.Init(ctx); err != nil {
//	    return err
//	}
//
//	tree, err := provider.Parse(ctx, source)
//	if err != nil {
//	    return err
//	}
//	defer tree.Close()
//
//	ast.Walk(tree.Root(), func(n ast.Node) bool {
//	    fmt.Println(n.Kind(), n.StartLine())
//	    return true
//	})
package ast
