package parser

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

// Document is a parsed C# source file: the raw bytes plus the concrete
// syntax tree produced by tree-sitter. The rewriter reads both and never
// mutates either; rewritten output is assembled from byte-range edits.
type Document struct {
	Path   string
	Source []byte
	Tree   *sitter.Tree
}

// Language returns the tree-sitter grammar used for all documents.
func Language() *sitter.Language {
	return csharp.GetLanguage()
}

// Parse parses C# source into a Document.
func Parse(path string, source []byte) (*Document, error) {
	p := sitter.NewParser()
	p.SetLanguage(Language())
	tree, err := p.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &Document{Path: path, Source: source, Tree: tree}, nil
}

// ParseFile reads and parses a C# source file from disk.
func ParseFile(path string) (*Document, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return Parse(path, source)
}

// Root returns the root node of the document's syntax tree.
func (d *Document) Root() *sitter.Node {
	return d.Tree.RootNode()
}

// Content returns the source text covered by a node.
func (d *Document) Content(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(d.Source)
}
