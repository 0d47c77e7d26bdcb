package resolver

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// declQuery collects every place a C# identifier is given a static type:
// local variable declarations, method parameters, and properties. Field
// declarations reuse the variable_declaration shape, so one pattern covers
// both locals and fields.
const declQuery = `
	(variable_declaration type: (_) @type (variable_declarator (identifier) @name))
	(parameter type: (_) @type name: (identifier) @name)
	(property_declaration type: (_) @type name: (identifier) @name)
`

// SemanticModel is a best-effort declaration index for one document. It maps
// identifiers to their declared type text and answers the type queries the
// rewriter needs. Building it scans the whole tree, so callers construct it
// once per document and share it across queries.
type SemanticModel struct {
	decls map[string]string
}

// BuildModel scans the tree rooted at root and indexes every typed
// declaration. `var` declarations fall back to a literal-shape inference on
// the initializer; identifiers that stay untyped simply resolve to Unknown
// later on.
func BuildModel(root *sitter.Node, source []byte, lang *sitter.Language) (*SemanticModel, error) {
	if root == nil {
		return nil, fmt.Errorf("nil root node")
	}

	query, err := sitter.NewQuery([]byte(declQuery), lang)
	if err != nil {
		return nil, fmt.Errorf("failed to create declaration query: %w", err)
	}

	decls := make(map[string]string)
	qc := sitter.NewQueryCursor()
	qc.Exec(query, root)
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		var typeText string
		var nameNode *sitter.Node
		for _, c := range m.Captures {
			switch query.CaptureNameForId(c.Index) {
			case "type":
				typeText = c.Node.Content(source)
			case "name":
				nameNode = c.Node
			}
		}
		if nameNode == nil || typeText == "" {
			continue
		}
		name := nameNode.Content(source)
		if typeText == "var" {
			typeText = inferInitializerType(initializerText(nameNode, source))
		}
		if typeText != "" {
			decls[name] = typeText
		}
	}

	return &SemanticModel{decls: decls}, nil
}

// DeclaredType returns the declared (or inferred) type text for an
// identifier, or "" when the identifier is not in the index.
func (m *SemanticModel) DeclaredType(name string) string {
	if m == nil {
		return ""
	}
	return m.decls[name]
}

// Size returns the number of indexed declarations.
func (m *SemanticModel) Size() int {
	if m == nil {
		return 0
	}
	return len(m.decls)
}

// initializerText finds the initializer expression of a variable_declarator
// given its name node, returning "" when the declarator has none.
func initializerText(nameNode *sitter.Node, source []byte) string {
	decl := nameNode.Parent()
	if decl == nil || decl.Type() != "variable_declarator" {
		return ""
	}
	last := decl.NamedChild(int(decl.NamedChildCount()) - 1)
	if last == nil || last == nameNode {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(last.Content(source)), "="))
}

// inferInitializerType guesses a type from the shape of a `var` initializer.
// It only needs to be good enough for the rewriter's four queries; anything
// it cannot place returns "" and the identifier resolves to Unknown.
func inferInitializerType(init string) string {
	init = strings.TrimSpace(init)
	if init == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(init, "new "), strings.HasPrefix(init, "new("), strings.HasPrefix(init, "new["):
		rest := strings.TrimSpace(strings.TrimPrefix(init, "new"))
		if cut := strings.IndexAny(rest, "({"); cut >= 0 {
			rest = rest[:cut]
		}
		rest = strings.TrimSpace(rest)
		if i := strings.IndexByte(rest, '['); i >= 0 {
			return rest[:i] + "[]"
		}
		return rest
	case strings.HasPrefix(init, `"`), strings.HasPrefix(init, `$"`), strings.HasPrefix(init, `@"`):
		return "string"
	case strings.HasPrefix(init, "'"):
		return "char"
	case init == "true", init == "false":
		return "bool"
	case strings.Contains(init, "=>"):
		return "delegate"
	}
	if c := init[0]; c >= '0' && c <= '9' || c == '-' && len(init) > 1 && init[1] >= '0' && init[1] <= '9' {
		if strings.ContainsAny(init, ".eE") || strings.ContainsAny(init, "fdmFDM") {
			return "double"
		}
		return "int"
	}
	return ""
}

// valueTypes are the built-in C# value types; they are never null and never
// behave as arrays, collections, or delegates.
var valueTypes = map[string]bool{
	"int": true, "long": true, "short": true, "byte": true,
	"sbyte": true, "uint": true, "ulong": true, "ushort": true,
	"bool": true, "char": true, "double": true, "float": true,
	"decimal": true, "nint": true, "nuint": true,
}

// collectionTypes are the sized collection types whose count is exposed as
// a Count property (as opposed to arrays' Length or LINQ's Count()).
var collectionTypes = map[string]bool{
	"List": true, "IList": true, "ICollection": true,
	"IReadOnlyCollection": true, "IReadOnlyList": true,
	"Collection": true, "ObservableCollection": true,
	"Dictionary": true, "IDictionary": true, "SortedDictionary": true,
	"HashSet": true, "ISet": true, "SortedSet": true,
	"Queue": true, "Stack": true, "LinkedList": true, "SortedList": true,
}

// callableTypes are delegate-shaped types.
var callableTypes = map[string]bool{
	"Func": true, "Action": true, "Predicate": true,
	"Expression": true, "Comparison": true, "Delegate": true,
	"delegate": true,
}

// baseName strips a trailing nullable marker and any generic argument list:
// "List<int>?" becomes "List".
func baseName(t string) string {
	t = strings.TrimSuffix(strings.TrimSpace(t), "?")
	if i := strings.IndexByte(t, '<'); i >= 0 {
		t = t[:i]
	}
	return t
}

// TypeIsNullable reports whether a value of the declared type can be null.
// Under nullable-annotation semantics only `?`-suffixed types are nullable;
// unannotated reference types count as non-nullable.
func TypeIsNullable(t string) Ternary {
	t = strings.TrimSpace(t)
	if t == "" || t == "var" {
		return Unknown
	}
	if strings.HasSuffix(t, "?") {
		return Yes
	}
	return No
}

// TypeIsArray reports whether the declared type is an array type.
func TypeIsArray(t string) Ternary {
	t = strings.TrimSuffix(strings.TrimSpace(t), "?")
	if t == "" || t == "var" {
		return Unknown
	}
	if strings.HasSuffix(t, "[]") {
		return Yes
	}
	return No
}

// TypeIsCollection reports whether the declared type exposes a Count
// property as a sized collection. Custom types stay Unknown: they may well
// implement ICollection without the name saying so.
func TypeIsCollection(t string) Ternary {
	t = strings.TrimSpace(t)
	if t == "" || t == "var" {
		return Unknown
	}
	if strings.HasSuffix(strings.TrimSuffix(t, "?"), "[]") {
		return No
	}
	base := baseName(t)
	if collectionTypes[base] {
		return Yes
	}
	if valueTypes[base] || base == "string" || callableTypes[base] {
		return No
	}
	return Unknown
}

// TypeIsCallable reports whether the declared type is delegate-shaped.
func TypeIsCallable(t string) Ternary {
	t = strings.TrimSpace(t)
	if t == "" || t == "var" {
		return Unknown
	}
	if strings.HasSuffix(strings.TrimSuffix(t, "?"), "[]") {
		return No
	}
	base := baseName(t)
	if callableTypes[base] {
		return Yes
	}
	if valueTypes[base] || base == "string" || collectionTypes[base] {
		return No
	}
	return Unknown
}
