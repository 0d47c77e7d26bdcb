package rewriter

import (
	"log"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"fluentmig/internal/parser"
)

// Outcome is the result of one rewrite attempt on a matched chain.
type Outcome int

const (
	// OutcomeApplied means a rule produced a replacement.
	OutcomeApplied Outcome = iota
	// OutcomeSkipped means the verb was recognized but the rule declined
	// (bad arity, named arguments, missing type argument); the node stays
	// byte-for-byte as it was.
	OutcomeSkipped
)

func (o Outcome) String() string {
	if o == OutcomeApplied {
		return "applied"
	}
	return "skipped"
}

// RewriteEvent records one matched chain for observability; control flow
// never depends on it.
type RewriteEvent struct {
	Verb    string
	Rule    string
	Line    int
	Outcome Outcome
}

// Stats summarizes one document rewrite.
type Stats struct {
	Matched int
	Applied int
	Skipped int
}

// Result is the outcome of rewriting one document. Output always holds a
// full copy of the source; Changed reports whether any chain was rewritten.
type Result struct {
	Output  []byte
	Changed bool
	Events  []RewriteEvent
	Stats   Stats
}

// Engine rewrites the fluent assertion chains of a single document. One
// engine serves one document; documents rewritten in parallel each get
// their own engine and lazily built semantic model, so no state is shared
// across them.
type Engine struct {
	doc        *parser.Document
	classifier *Classifier
	edits      []Edit
	events     []RewriteEvent
	stats      Stats
}

// NewEngine creates an engine whose classifier builds the default semantic
// model from the document itself.
func NewEngine(doc *parser.Document) *Engine {
	return NewEngineWithModel(doc, nil)
}

// NewEngineWithModel creates an engine with a caller-supplied model
// accessor, invoked at most once when the first classifier query runs.
func NewEngineWithModel(doc *parser.Document, provider ModelProvider) *Engine {
	return &Engine{
		doc:        doc,
		classifier: NewClassifier(doc, provider),
	}
}

// Rewrite walks the document once, depth first, and returns the rewritten
// source. Nodes the engine is not completely confident about are left
// untouched; when nothing matches, Output equals the input and Changed is
// false.
func (e *Engine) Rewrite() *Result {
	e.walk(e.doc.Root())
	changed := len(e.edits) > 0
	if changed {
		e.migrateUsings()
	}
	return &Result{
		Output:  applyEdits(e.doc.Source, e.edits),
		Changed: changed,
		Events:  e.events,
		Stats:   e.stats,
	}
}

// walk offers each node to the extractors, wrapper shapes first so an inner
// invocation is never matched standalone while its envelope is in play. A
// rewritten subtree is consumed; an unmatched one is traversed normally so
// chains nested in lambda arguments are still found.
func (e *Engine) walk(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "conditional_access_expression":
		if e.attempt(node, extractFromConditionalAccess) {
			return
		}
	case "await_expression":
		if e.attempt(node, extractFromAwait) {
			return
		}
	case "invocation_expression":
		if e.attempt(node, extractFromInvocation) {
			return
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		e.walk(node.NamedChild(i))
	}
}

// attempt runs one extract-classify-synthesize cycle on a node. Any panic
// below it is contained here: the node is simply not rewritten, and the
// rest of the document proceeds.
func (e *Engine) attempt(node *sitter.Node, extract func(*parser.Document, *sitter.Node) (*AssertionChain, bool)) (rewritten bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: rewrite attempt failed at %s:%d: %v",
				e.doc.Path, int(node.StartPoint().Row)+1, r)
			rewritten = false
		}
	}()

	if chainContinues(node) {
		return false
	}

	chain, ok := extract(e.doc, node)
	if !ok {
		return false
	}
	if strings.Contains(chain.SubjectText, "."+entryPointName+"(") {
		// `.Which`-style continuations feed one chain's result into another;
		// the statement only makes sense whole, so it stays whole.
		return false
	}
	entry, ok := lookupRule(chain.VerbRaw)
	if !ok {
		// Unrecognized verb: fall through to ordinary traversal.
		return false
	}

	e.stats.Matched++
	line := int(node.StartPoint().Row) + 1

	if chain.Malformed {
		e.record(chain.Verb, entry.name, line, OutcomeSkipped)
		return false
	}
	text, ok := entry.apply(chain, e.classifier, e.doc)
	if !ok {
		e.record(chain.Verb, entry.name, line, OutcomeSkipped)
		return false
	}

	e.edits = append(e.edits, Edit{Start: node.StartByte(), End: node.EndByte(), Text: text})
	e.record(chain.Verb, entry.name, line, OutcomeApplied)
	return true
}

// chainContinues reports whether the node is the receiver of a further
// member access, i.e. the fluent chain keeps going past the verb (`.And`,
// `.Which`, `.Subject`). The continuation carries semantics a flat
// assertion cannot, so the whole statement stays untouched rather than
// rewriting the inner chain into a void receiver.
func chainContinues(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "member_access_expression":
		expr := parent.ChildByFieldName("expression")
		return expr != nil && expr.StartByte() == node.StartByte() && expr.EndByte() == node.EndByte()
	case "conditional_access_expression":
		// A whole chain nested inside a larger `?.` run is only reachable
		// when the enclosing wrapper failed extraction; it is a fragment.
		return true
	}
	return false
}

func (e *Engine) record(verb, rule string, line int, outcome Outcome) {
	if outcome == OutcomeApplied {
		e.stats.Applied++
	} else {
		e.stats.Skipped++
	}
	e.events = append(e.events, RewriteEvent{Verb: verb, Rule: rule, Line: line, Outcome: outcome})
}

// migrateUsings swaps `using FluentAssertions;` for `using Xunit;` once at
// least one chain was rewritten. When the file already imports Xunit the
// directive is removed together with its line break.
func (e *Engine) migrateUsings() {
	query, err := sitter.NewQuery([]byte(`(using_directive) @using`), parser.Language())
	if err != nil {
		return
	}
	var directives []*sitter.Node
	hasXunit := false
	qc := sitter.NewQueryCursor()
	qc.Exec(query, e.doc.Root())
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, cap := range m.Captures {
			text := strings.TrimSpace(e.doc.Content(cap.Node))
			if text == "using Xunit;" {
				hasXunit = true
			}
			if text == "using FluentAssertions;" {
				directives = append(directives, cap.Node)
			}
		}
	}
	for _, d := range directives {
		if hasXunit {
			end := d.EndByte()
			if int(end) < len(e.doc.Source) && e.doc.Source[end] == '\n' {
				end++
			}
			e.edits = append(e.edits, Edit{Start: d.StartByte(), End: end, Text: ""})
			continue
		}
		e.edits = append(e.edits, Edit{Start: d.StartByte(), End: d.EndByte(), Text: "using Xunit;"})
		hasXunit = true
	}
}
