package parser

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"main.c", LangC},
		{"include/api.h", LangC},
		{"src/widget.cpp", LangCPP},
		{"src/widget.CC", LangCPP},
		{"a.cxx", LangCPP},
		{"a.hpp", LangCPP},
		{"a.hh", LangCPP},
		{"a.inl", LangCPP},
		{"script.py", LangUnknown},
		{"Makefile", LangUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLanguage(tt.path), tt.path)
	}
}

func TestParse(t *testing.T) {
	p := New()
	defer p.Close()

	src := []byte("struct point { int x; int y; };\nint main(void) { return 0; }\n")
	for _, lang := range []Language{LangC, LangCPP} {
		res, err := p.Parse(context.Background(), src, lang, "main.c")
		require.NoError(t, err)
		assert.Equal(t, lang, res.Language)
		assert.Equal(t, "translation_unit", res.Tree.RootNode().Type())
		assert.False(t, res.Tree.RootNode().HasError())
		res.Tree.Close()
	}
}

func TestParseUnsupported(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.Parse(context.Background(), []byte("x = 1"), LangUnknown, "x.py")
	assert.ErrorContains(t, err, "unsupported language")
}

func TestWalkTypedAndNodeText(t *testing.T) {
	p := New()
	defer p.Close()

	src := []byte("int f(int a) { if (a) { return 1; } return 0; }\nint g() { return 2; }\n")
	res, err := p.Parse(context.Background(), src, LangCPP, "f.cpp")
	require.NoError(t, err)
	defer res.Tree.Close()

	var names []string
	ifs := 0
	WalkTyped(res.Tree.RootNode(), src, func(n *sitter.Node, nodeType string, source []byte) bool {
		switch nodeType {
		case "function_declarator":
			names = append(names, GetNodeText(n.ChildByFieldName("declarator"), source))
		case "if_statement":
			ifs++
		}
		return true
	})
	assert.Equal(t, []string{"f", "g"}, names)
	assert.Equal(t, 1, ifs)

	// Returning false skips children.
	visited := 0
	WalkTyped(res.Tree.RootNode(), src, func(*sitter.Node, string, []byte) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)

	assert.Empty(t, GetNodeText(nil, src))
	assert.Empty(t, GetNodeText(res.Tree.RootNode(), src[:5]))
}
