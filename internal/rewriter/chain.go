package rewriter

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"fluentmig/internal/parser"
)

// entryPointName is the FluentAssertions entry call that starts every chain.
const entryPointName = "Should"

// Wrapping is the syntactic envelope around a chain that must survive the
// rewrite.
type Wrapping int

const (
	WrapNone Wrapping = iota
	WrapConditional
	WrapAwait
)

// AssertionChain is the transient result of recognizing one fluent chain.
// It lives for a single rewrite attempt: the extractor builds it, a rule
// consumes or rejects it, and it is discarded.
type AssertionChain struct {
	// Node is the full node whose byte span the replacement covers.
	Node *sitter.Node
	// Subject is the receiver of the entry call, still pointing into the
	// original tree.
	Subject *sitter.Node
	// SubjectText is the subject as written. For null-conditional chains it
	// is rebuilt from the wrapper start so the `?.` prefix is preserved.
	SubjectText string
	// Verb is the terminal method name with any generic tail stripped.
	Verb string
	// VerbRaw is the verb token exactly as written, e.g. "Throw<ArgumentException>".
	VerbRaw string
	// TypeArg is the first generic type argument, "" when the verb is not generic.
	TypeArg string
	// Args are the verb's positional argument expressions, in order.
	Args []*sitter.Node
	// Malformed marks a chain using named arguments; such chains are
	// recognized but never rewritten.
	Malformed bool
	Wrapping  Wrapping
}

// extractFromInvocation recognizes the plain shape
// `subject.Should().Verb(args...)` rooted at an invocation node. It returns
// (nil, false) for every other shape; extraction never fails loudly.
func extractFromInvocation(doc *parser.Document, node *sitter.Node) (*AssertionChain, bool) {
	if node == nil || node.Type() != "invocation_expression" {
		return nil, false
	}
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_access_expression" {
		return nil, false
	}
	verbNode := fn.ChildByFieldName("name")
	entryInv := fn.ChildByFieldName("expression")
	if verbNode == nil || entryInv == nil || entryInv.Type() != "invocation_expression" {
		return nil, false
	}
	entryFn := entryInv.ChildByFieldName("function")
	if entryFn == nil || entryFn.Type() != "member_access_expression" {
		return nil, false
	}
	entryName := entryFn.ChildByFieldName("name")
	if entryName == nil || doc.Content(entryName) != entryPointName {
		return nil, false
	}
	if countArguments(entryInv) != 0 {
		return nil, false
	}
	subject := entryFn.ChildByFieldName("expression")
	if subject == nil || subject.Type() == "member_binding_expression" {
		// A binding subject only makes sense inside a conditional-access
		// wrapper, where extractFromConditionalAccess handles it.
		return nil, false
	}

	chain := &AssertionChain{
		Node:        node,
		Subject:     subject,
		SubjectText: doc.Content(subject),
		Wrapping:    WrapNone,
	}
	chain.readVerb(doc, verbNode)
	chain.readArguments(doc, node)
	return chain, true
}

// extractFromAwait recognizes `await subject.Should().Verb(args...)`. The
// chain is extracted from the awaited invocation; rules for async verbs
// re-emit their own await, rules for sync verbs do not, so the replacement
// always spans the whole await expression.
func extractFromAwait(doc *parser.Document, node *sitter.Node) (*AssertionChain, bool) {
	if node == nil || node.Type() != "await_expression" {
		return nil, false
	}
	inner := lastNamedChild(node)
	chain, ok := extractFromInvocation(doc, inner)
	if !ok {
		return nil, false
	}
	chain.Node = node
	chain.Wrapping = WrapAwait
	return chain, true
}

// extractFromConditionalAccess recognizes `a?.b.Should().Verb(args...)`,
// including nested runs of `?.` links. The subject is rebuilt from the
// wrapper's start so null propagation on the prefix carries over to the
// rewritten expression.
func extractFromConditionalAccess(doc *parser.Document, node *sitter.Node) (*AssertionChain, bool) {
	if node == nil || node.Type() != "conditional_access_expression" {
		return nil, false
	}

	// Descend to the deepest conditional link; its tail holds the chain.
	tail := lastNamedChild(node)
	for tail != nil && tail.Type() == "conditional_access_expression" {
		tail = lastNamedChild(tail)
	}
	if tail == nil || tail.Type() != "invocation_expression" {
		return nil, false
	}
	// The verb invocation must terminate the wrapper; anything chained
	// after it is a shape this pass does not touch.
	if tail.EndByte() != node.EndByte() {
		return nil, false
	}

	fn := tail.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_access_expression" {
		return nil, false
	}
	verbNode := fn.ChildByFieldName("name")
	entryInv := fn.ChildByFieldName("expression")
	if verbNode == nil || entryInv == nil || entryInv.Type() != "invocation_expression" {
		return nil, false
	}
	entryFn := entryInv.ChildByFieldName("function")
	if entryFn == nil {
		return nil, false
	}
	if entryFn.Type() == "member_binding_expression" {
		// `a?.Should()` guards the assertion itself behind the null check;
		// flattening that would turn a skipped assertion into a failing one.
		return nil, false
	}
	if entryFn.Type() != "member_access_expression" {
		return nil, false
	}
	entryName := entryFn.ChildByFieldName("name")
	if entryName == nil || doc.Content(entryName) != entryPointName {
		return nil, false
	}
	if countArguments(entryInv) != 0 {
		return nil, false
	}
	subject := entryFn.ChildByFieldName("expression")
	if subject == nil {
		return nil, false
	}

	chain := &AssertionChain{
		Node:        node,
		Subject:     subject,
		SubjectText: string(doc.Source[node.StartByte():subject.EndByte()]),
		Wrapping:    WrapConditional,
	}
	chain.readVerb(doc, verbNode)
	chain.readArguments(doc, tail)
	return chain, true
}

// readVerb fills Verb, VerbRaw, and TypeArg from the verb name node, which
// is either a plain identifier or a generic_name.
func (ch *AssertionChain) readVerb(doc *parser.Document, verbNode *sitter.Node) {
	ch.VerbRaw = doc.Content(verbNode)
	if verbNode.Type() != "generic_name" {
		ch.Verb = ch.VerbRaw
		return
	}
	for i := 0; i < int(verbNode.NamedChildCount()); i++ {
		child := verbNode.NamedChild(i)
		switch child.Type() {
		case "identifier":
			ch.Verb = doc.Content(child)
		case "type_argument_list":
			if child.NamedChildCount() > 0 {
				ch.TypeArg = doc.Content(child.NamedChild(0))
			}
		}
	}
	if ch.Verb == "" {
		ch.Verb = ch.VerbRaw
	}
}

// readArguments fills Args from the verb invocation's argument list. Named
// arguments mark the chain malformed: the catalog's positional conventions
// no longer apply and the safe outcome is to leave the node alone.
func (ch *AssertionChain) readArguments(doc *parser.Document, invocation *sitter.Node) {
	args := invocation.ChildByFieldName("arguments")
	if args == nil {
		return
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		if child.Type() != "argument" {
			ch.Args = append(ch.Args, child)
			continue
		}
		if hasNamedChildOfType(child, "name_colon") {
			ch.Malformed = true
		}
		expr := lastNamedChild(child)
		if expr != nil {
			ch.Args = append(ch.Args, expr)
		}
	}
}

// typeArgument resolves the exception/type argument for verbs that accept
// it generically or as a `typeof(...)` value argument. The second return
// reports whether a lone value argument was consumed as the type.
func (ch *AssertionChain) typeArgument(doc *parser.Document) (string, bool) {
	if ch.TypeArg != "" {
		return ch.TypeArg, false
	}
	if len(ch.Args) == 1 {
		text := strings.TrimSpace(doc.Content(ch.Args[0]))
		if strings.HasPrefix(text, "typeof(") && strings.HasSuffix(text, ")") {
			return strings.TrimSpace(text[len("typeof(") : len(text)-1]), true
		}
	}
	return "", false
}

func countArguments(invocation *sitter.Node) int {
	args := invocation.ChildByFieldName("arguments")
	if args == nil {
		return 0
	}
	return int(args.NamedChildCount())
}

func lastNamedChild(n *sitter.Node) *sitter.Node {
	if n == nil || n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(int(n.NamedChildCount()) - 1)
}

func hasNamedChildOfType(n *sitter.Node, kind string) bool {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == kind {
			return true
		}
	}
	return false
}
