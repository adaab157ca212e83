package treesitter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panbanda/cppsmell/pkg/ast"
	"github.com/panbanda/cppsmell/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/singleflight"
)

const initKey = "grammar"

// GrammarLoader loads the tree-sitter grammar used for every parse.
type GrammarLoader func() (*sitter.Language, error)

// DefaultGrammar loads the bundled C++ grammar.
func DefaultGrammar() (*sitter.Language, error) {
	return parser.GetTreeSitterLanguage(parser.LangCPP)
}

// Provider implements ast.Provider using tree-sitter.
// It is safe for concurrent use once constructed; each Parse call uses its
// own tree-sitter parser.
type Provider struct {
	loader GrammarLoader
	group  singleflight.Group

	mu   sync.RWMutex
	lang *sitter.Language
	err  error

	loads atomic.Int32
}

var _ ast.Provider = (*Provider)(nil)

// Option is a functional option for configuring Provider.
type Option func(*Provider)

// WithGrammarLoader replaces the grammar loader.
func WithGrammarLoader(loader GrammarLoader) Option {
	return func(p *Provider) {
		p.loader = loader
	}
}

// New creates a provider. The grammar is not loaded until Init.
func New(opts ...Option) *Provider {
	p := &Provider{loader: DefaultGrammar}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init loads the grammar exactly once. Concurrent first callers wait for the
// single in-flight load. A failed load is remembered and returned to every
// later caller until Retry is called.
func (p *Provider) Init(ctx context.Context) error {
	if lang, err := p.state(); lang != nil || err != nil {
		return err
	}

	ch := p.group.DoChan(initKey, func() (any, error) {
		if lang, err := p.state(); lang != nil || err != nil {
			return lang, err
		}

		p.loads.Add(1)
		lang, err := p.loader()
		if err == nil && lang == nil {
			err = errors.New("grammar loader returned no language")
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			p.err = fmt.Errorf("%w: %v", ast.ErrParserUnavailable, err)
			return nil, p.err
		}
		p.lang = lang
		return lang, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

// Retry clears a remembered initialization failure and loads again.
func (p *Provider) Retry(ctx context.Context) error {
	p.mu.Lock()
	p.err = nil
	p.mu.Unlock()
	return p.Init(ctx)
}

// Ready reports whether the grammar is loaded.
func (p *Provider) Ready() bool {
	lang, _ := p.state()
	return lang != nil
}

// Loads returns how many times the grammar loader has run.
func (p *Provider) Loads() int {
	return int(p.loads.Load())
}

func (p *Provider) state() (*sitter.Language, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lang, p.err
}

// Parse parses source into a syntax tree.
func (p *Provider) Parse(ctx context.Context, source []byte) (ast.Tree, error) {
	lang, err := p.state()
	if lang == nil {
		if err != nil {
			return nil, err
		}
		return nil, ast.ErrParserUnavailable
	}

	psr := parser.New()
	defer psr.Close()

	result, err := psr.ParseWith(ctx, source, lang, parser.LangCPP, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ast.ErrParseFailure, err)
	}

	return &tree{
		tree:   result.Tree,
		root:   result.Tree.RootNode(),
		source: source,
	}, nil
}

// Close releases provider resources. Trees already returned stay valid
// until closed.
func (p *Provider) Close() {}

// tree wraps a tree-sitter tree to implement ast.Tree.
type tree struct {
	tree   *sitter.Tree
	root   *sitter.Node
	source []byte
}

func (t *tree) Root() ast.Node {
	return wrap(t.root, t.source)
}

func (t *tree) Source() []byte {
	return t.source
}

func (t *tree) HasErrors() bool {
	return t.root != nil && t.root.HasError()
}

func (t *tree) FirstErrorLine() int {
	if !t.HasErrors() {
		return 0
	}

	line := 0
	parser.WalkTyped(t.root, t.source, func(n *sitter.Node, nodeType string, _ []byte) bool {
		if line > 0 {
			return false
		}
		if nodeType == "ERROR" || n.IsMissing() {
			line = int(n.StartPoint().Row) + 1
			return false
		}
		return n.HasError()
	})
	return line
}

func (t *tree) Close() {
	t.tree.Close()
}

// node wraps a tree-sitter node to implement ast.Node.
type node struct {
	n      *sitter.Node
	source []byte
}

// wrap returns an untyped nil for missing nodes so callers can compare the
// interface against nil.
func wrap(n *sitter.Node, source []byte) ast.Node {
	if n == nil || n.IsNull() {
		return nil
	}
	return &node{n: n, source: source}
}

func (n *node) Kind() string {
	return n.n.Type()
}

func (n *node) IsNamed() bool {
	return n.n.IsNamed()
}

func (n *node) ChildCount() int {
	return int(n.n.ChildCount())
}

func (n *node) Child(i int) ast.Node {
	return wrap(n.n.Child(i), n.source)
}

func (n *node) Field(name string) ast.Node {
	return wrap(n.n.ChildByFieldName(name), n.source)
}

func (n *node) StartLine() int {
	return int(n.n.StartPoint().Row) + 1
}

func (n *node) EndLine() int {
	return int(n.n.EndPoint().Row) + 1
}

func (n *node) Text() string {
	return parser.GetNodeText(n.n, n.source)
}
