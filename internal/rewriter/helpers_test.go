package rewriter

import (
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/require"

	"fluentmig/internal/parser"
)

// parseSource parses a C# fragment for tests.
func parseSource(t *testing.T, src string) *parser.Document {
	t.Helper()
	doc, err := parser.Parse("test.cs", []byte(src))
	require.NoError(t, err)
	return doc
}

// rewriteSource runs a fresh engine over src and returns the output text.
func rewriteSource(t *testing.T, src string) string {
	t.Helper()
	doc := parseSource(t, src)
	return string(NewEngine(doc).Rewrite().Output)
}

// inTestMethod wraps statements in a minimal test class so the grammar
// parses them as real method bodies.
func inTestMethod(body string) string {
	return "using FluentAssertions;\n\n" +
		"public class SampleTests\n{\n    public void Case()\n    {\n" +
		body +
		"\n    }\n}\n"
}

// inAsyncTestMethod is inTestMethod for awaited chains.
func inAsyncTestMethod(body string) string {
	return "using FluentAssertions;\n\n" +
		"public class SampleTests\n{\n    public async Task Case()\n    {\n" +
		body +
		"\n    }\n}\n"
}

// findFirst returns the first node of the given kind in document order.
func findFirst(doc *parser.Document, kind string) *sitter.Node {
	var match *sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if match != nil || n == nil {
			return
		}
		if n.Type() == kind {
			match = n
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(doc.Root())
	return match
}

// findIdentifier returns the first identifier node with the given text.
func findIdentifier(doc *parser.Document, name string) *sitter.Node {
	var match *sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if match != nil || n == nil {
			return
		}
		if n.Type() == "identifier" && doc.Content(n) == name {
			match = n
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(doc.Root())
	return match
}
