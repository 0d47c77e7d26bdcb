package rewriter

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"fluentmig/internal/parser"
)

// Edit replaces the byte range [Start, End) of the original source with
// Text. Replacements cover exactly the matched node's span, so whitespace
// and comments around it are untouched and line-level diffs stay minimal.
type Edit struct {
	Start uint32
	End   uint32
	Text  string
}

// applyEdits splices a set of non-overlapping edits into source, returning
// a new byte slice. The input slice is never modified.
func applyEdits(source []byte, edits []Edit) []byte {
	if len(edits) == 0 {
		out := make([]byte, len(source))
		copy(out, source)
		return out
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var out []byte
	var cursor uint32
	for _, e := range sorted {
		if e.Start < cursor || e.End > uint32(len(source)) {
			// Overlapping or out-of-range edit: drop it rather than emit a
			// mangled file.
			continue
		}
		out = append(out, source[cursor:e.Start]...)
		out = append(out, e.Text...)
		cursor = e.End
	}
	out = append(out, source[cursor:]...)
	return out
}

// atomicKinds are expression shapes that never need parenthesizing when
// embedded in a synthesized comparison.
var atomicKinds = map[string]bool{
	"identifier":                          true,
	"member_access_expression":            true,
	"invocation_expression":               true,
	"element_access_expression":           true,
	"parenthesized_expression":            true,
	"conditional_access_expression":       true,
	"member_binding_expression":           true,
	"integer_literal":                     true,
	"real_literal":                        true,
	"string_literal":                      true,
	"verbatim_string_literal":             true,
	"interpolated_string_expression":      true,
	"character_literal":                   true,
	"boolean_literal":                     true,
	"null_literal":                        true,
	"this_expression":                     true,
	"qualified_name":                      true,
	"generic_name":                        true,
	"object_creation_expression":          true,
	"implicit_object_creation_expression": true,
}

// operand renders a node for use inside a synthesized binary expression,
// parenthesizing anything that is not obviously atomic.
func operand(doc *parser.Document, n *sitter.Node) string {
	text := doc.Content(n)
	if n != nil && !atomicKinds[n.Type()] {
		return "(" + text + ")"
	}
	return text
}

// subjectOperand renders the chain subject for a synthesized comparison.
// Rebuilt null-conditional prefixes are postfix chains and stay bare.
func (ch *AssertionChain) subjectOperand(doc *parser.Document) string {
	if ch.Wrapping == WrapConditional || ch.Subject == nil {
		return ch.SubjectText
	}
	if !atomicKinds[ch.Subject.Type()] {
		return "(" + ch.SubjectText + ")"
	}
	return ch.SubjectText
}

// argText returns the i-th value argument as written. Callers check arity
// before indexing; a rule that needs an argument the chain does not have
// must surface a no-rewrite, never index past Args.
func (ch *AssertionChain) argText(doc *parser.Document, i int) string {
	return doc.Content(ch.Args[i])
}

// argOperand is operand() for the i-th value argument.
func (ch *AssertionChain) argOperand(doc *parser.Document, i int) string {
	return operand(doc, ch.Args[i])
}
