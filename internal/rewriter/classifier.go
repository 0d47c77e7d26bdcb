package rewriter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"fluentmig/internal/parser"
	"fluentmig/internal/resolver"
)

// ModelProvider supplies the document's semantic model on demand. It is
// invoked at most once per document; a nil model or an error means type
// information is permanently unavailable and every query answers Unknown.
type ModelProvider func() (*resolver.SemanticModel, error)

// Classifier answers tri-state type questions about expressions in one
// document. The semantic model behind it is built lazily on first use and
// shared by all subsequent queries; classification never returns an error,
// it degrades to Unknown instead.
type Classifier struct {
	doc      *parser.Document
	provider ModelProvider
	model    *resolver.SemanticModel
	loaded   bool
}

// NewClassifier creates a classifier for doc. A nil provider gets the
// default model built from the document's own tree.
func NewClassifier(doc *parser.Document, provider ModelProvider) *Classifier {
	c := &Classifier{doc: doc, provider: provider}
	if c.provider == nil {
		c.provider = func() (*resolver.SemanticModel, error) {
			return resolver.BuildModel(doc.Root(), doc.Source, parser.Language())
		}
	}
	return c
}

func (c *Classifier) semanticModel() *resolver.SemanticModel {
	if !c.loaded {
		c.loaded = true
		model, err := c.provider()
		if err != nil {
			model = nil
		}
		c.model = model
	}
	return c.model
}

// declaredType resolves the declared type text of a plain identifier.
// Anything more structured than an identifier is beyond the declaration
// index and resolves to "".
func (c *Classifier) declaredType(n *sitter.Node) string {
	if n == nil || n.Type() != "identifier" {
		return ""
	}
	return c.semanticModel().DeclaredType(c.doc.Content(n))
}

// IsNullable reports whether the expression can evaluate to null. A
// conditional-access expression is nullable by construction, no model
// needed.
func (c *Classifier) IsNullable(n *sitter.Node) (t resolver.Ternary) {
	defer catchUnknown(&t)
	if n != nil && n.Type() == "conditional_access_expression" {
		return resolver.Yes
	}
	return resolver.TypeIsNullable(c.declaredType(n))
}

// IsArray reports whether the expression's static type is an array type.
func (c *Classifier) IsArray(n *sitter.Node) (t resolver.Ternary) {
	defer catchUnknown(&t)
	return resolver.TypeIsArray(c.declaredType(n))
}

// IsCollection reports whether the expression's static type is a sized
// collection exposing a Count property.
func (c *Classifier) IsCollection(n *sitter.Node) (t resolver.Ternary) {
	defer catchUnknown(&t)
	return resolver.TypeIsCollection(c.declaredType(n))
}

// IsCallable reports whether the expression denotes a delegate or lambda,
// used to pick the predicate overload of containment assertions.
func (c *Classifier) IsCallable(n *sitter.Node) (t resolver.Ternary) {
	defer catchUnknown(&t)
	if n != nil {
		switch n.Type() {
		case "lambda_expression", "anonymous_method_expression":
			return resolver.Yes
		}
	}
	return resolver.TypeIsCallable(c.declaredType(n))
}

// catchUnknown converts any classification panic into Unknown so a broken
// model can never abort a rewrite.
func catchUnknown(t *resolver.Ternary) {
	if r := recover(); r != nil {
		*t = resolver.Unknown
	}
}
