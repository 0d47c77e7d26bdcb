package rewriter

import (
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"fluentmig/internal/parser"
	"fluentmig/internal/resolver"
)

// ruleFunc maps a recognized chain to its flat replacement expression.
// Returning ok=false means the chain, although matched by verb name, cannot
// be rewritten (wrong arity, missing type argument); the node is then left
// exactly as it was.
type ruleFunc func(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool)

type ruleEntry struct {
	name  string
	match func(raw string) bool
	apply ruleFunc
}

func exact(name string) func(string) bool {
	return func(raw string) bool { return raw == name }
}

// generic matches a verb with an optional generic-argument tail, anchored
// so prefixed names ("NotThrow" vs "NotThrowAsync") cannot collide.
func generic(name string) func(string) bool {
	re := regexp.MustCompile(`^` + name + `(<.+>)?$`)
	return re.MatchString
}

// lookupRule returns the first catalog entry matching the raw verb token.
// Catalog order is significant and the generic patterns come first, the way
// the fixed-name table expects.
func lookupRule(raw string) (*ruleEntry, bool) {
	for i := range catalog {
		if catalog[i].match(raw) {
			return &catalog[i], true
		}
	}
	return nil, false
}

var catalog = []ruleEntry{
	// Verbs with optional generic arity, matched by anchored pattern.
	{"ThrowAsync", generic("ThrowAsync"), ruleThrowAsync},
	{"NotThrowAsync", generic("NotThrowAsync"), ruleNotThrowAsync},
	{"Throw", generic("Throw"), ruleThrow},
	{"NotThrow", generic("NotThrow"), ruleNotThrow},
	{"BeOfType", generic("BeOfType"), typeCheckRule("Assert.IsType")},
	{"NotBeOfType", generic("NotBeOfType"), typeCheckRule("Assert.IsNotType")},
	{"BeAssignableTo", generic("BeAssignableTo"), typeCheckRule("Assert.IsAssignableFrom")},

	// Fixed-name verbs, matched by equality.
	{"BeTrue", exact("BeTrue"), unaryRule("Assert.True(%s)")},
	{"BeFalse", exact("BeFalse"), unaryRule("Assert.False(%s)")},
	{"BeNull", exact("BeNull"), unaryRule("Assert.Null(%s)")},
	{"NotBeNull", exact("NotBeNull"), unaryRule("Assert.NotNull(%s)")},
	{"BePositive", exact("BePositive"), comparisonNoArgRule("> 0")},
	{"BeNegative", exact("BeNegative"), comparisonNoArgRule("< 0")},
	{"Be", exact("Be"), ruleBe},
	{"NotBe", exact("NotBe"), expectedSubjectRule("Assert.NotEqual(%s, %s)")},
	{"BeSameAs", exact("BeSameAs"), expectedSubjectRule("Assert.Same(%s, %s)")},
	{"NotBeSameAs", exact("NotBeSameAs"), expectedSubjectRule("Assert.NotSame(%s, %s)")},
	{"BeEquivalentTo", exact("BeEquivalentTo"), ruleBeEquivalentTo},
	{"BeEmpty", exact("BeEmpty"), ruleBeEmpty},
	{"NotBeEmpty", exact("NotBeEmpty"), unaryRule("Assert.NotEmpty(%s)")},
	{"BeNullOrEmpty", exact("BeNullOrEmpty"), unaryRule("Assert.True(string.IsNullOrEmpty(%s))")},
	{"NotBeNullOrEmpty", exact("NotBeNullOrEmpty"), unaryRule("Assert.False(string.IsNullOrEmpty(%s))")},
	{"Contain", exact("Contain"), containmentRule("Assert.Contains")},
	{"NotContain", exact("NotContain"), containmentRule("Assert.DoesNotContain")},
	{"ContainEquivalentOf", exact("ContainEquivalentOf"),
		expectedSubjectRule("Assert.Contains(%s, %s, StringComparison.OrdinalIgnoreCase)")},
	{"NotContainEquivalentOf", exact("NotContainEquivalentOf"),
		expectedSubjectRule("Assert.DoesNotContain(%s, %s, StringComparison.OrdinalIgnoreCase)")},
	{"ContainAll", exact("ContainAll"), ruleContainAll},
	{"HaveCount", exact("HaveCount"), ruleHaveCount},
	{"StartWith", exact("StartWith"), expectedSubjectRule("Assert.StartsWith(%s, %s)")},
	{"EndWith", exact("EndWith"), expectedSubjectRule("Assert.EndsWith(%s, %s)")},
	{"BeGreaterThan", exact("BeGreaterThan"), comparisonRule(">", false)},
	{"BeLessThan", exact("BeLessThan"), comparisonRule("<", false)},
	{"BeGreaterOrEqualTo", exact("BeGreaterOrEqualTo"), comparisonRule(">=", false)},
	{"BeLessOrEqualTo", exact("BeLessOrEqualTo"), comparisonRule("<=", false)},
	{"BeBefore", exact("BeBefore"), comparisonRule("<", false)},
	{"NotBeBefore", exact("NotBeBefore"), comparisonRule("<", true)},
	{"BeAfter", exact("BeAfter"), comparisonRule(">", false)},
	{"NotBeAfter", exact("NotBeAfter"), comparisonRule(">", true)},
	{"BeOnOrBefore", exact("BeOnOrBefore"), comparisonRule("<=", false)},
	{"NotBeOnOrBefore", exact("NotBeOnOrBefore"), comparisonRule("<=", true)},
	{"BeOnOrAfter", exact("BeOnOrAfter"), comparisonRule(">=", false)},
	{"NotBeOnOrAfter", exact("NotBeOnOrAfter"), comparisonRule(">=", true)},
	{"BeCloseTo", exact("BeCloseTo"), rangeRule("Assert.InRange")},
	{"NotBeCloseTo", exact("NotBeCloseTo"), rangeRule("Assert.NotInRange")},
	{"BeOneOf", exact("BeOneOf"), ruleBeOneOf},
}

// unaryRule builds rules for verbs taking no arguments, formatting the
// subject into a single-argument assertion.
func unaryRule(format string) ruleFunc {
	return func(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
		if len(ch.Args) != 0 {
			return "", false
		}
		return fmt.Sprintf(format, ch.SubjectText), true
	}
}

// expectedSubjectRule builds rules for verbs taking one expected value,
// with the conventional (expected, actual) argument order.
func expectedSubjectRule(format string) ruleFunc {
	return func(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
		if len(ch.Args) != 1 {
			return "", false
		}
		return fmt.Sprintf(format, ch.argText(doc, 0), ch.SubjectText), true
	}
}

// comparisonNoArgRule handles BePositive/BeNegative: a boolean assertion on
// a fixed comparison against zero.
func comparisonNoArgRule(opAndBound string) ruleFunc {
	return func(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
		if len(ch.Args) != 0 {
			return "", false
		}
		return fmt.Sprintf("Assert.True(%s %s)", ch.subjectOperand(doc), opAndBound), true
	}
}

// comparisonRule handles the relational verbs: subject compared against the
// bound, asserted true, or asserted false for the negated date verbs.
func comparisonRule(op string, negated bool) ruleFunc {
	assert := "Assert.True"
	if negated {
		assert = "Assert.False"
	}
	return func(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
		if len(ch.Args) != 1 {
			return "", false
		}
		return fmt.Sprintf("%s(%s %s %s)", assert, ch.subjectOperand(doc), op, ch.argOperand(doc, 0)), true
	}
}

// rangeRule handles BeCloseTo/NotBeCloseTo. Exactly two positional
// arguments (expected, precision) are required; the comparer overload is
// indistinguishable from a malformed chain and stays untouched.
func rangeRule(assert string) ruleFunc {
	return func(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
		if len(ch.Args) != 2 {
			return "", false
		}
		expected := ch.argOperand(doc, 0)
		precision := ch.argOperand(doc, 1)
		return fmt.Sprintf("%s(%s, %s - %s, %s + %s)",
			assert, ch.SubjectText, expected, precision, expected, precision), true
	}
}

// typeCheckRule handles BeOfType/NotBeOfType/BeAssignableTo in both the
// generic and the typeof-argument forms. Without a resolvable type there is
// nothing to assert and the chain stays untouched.
func typeCheckRule(assert string) ruleFunc {
	return func(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
		typeArg, consumed := ch.typeArgument(doc)
		if typeArg == "" {
			return "", false
		}
		extra := len(ch.Args)
		if consumed {
			extra--
		}
		if extra != 0 {
			return "", false
		}
		if ch.TypeArg != "" {
			return fmt.Sprintf("%s<%s>(%s)", assert, typeArg, ch.SubjectText), true
		}
		return fmt.Sprintf("%s(typeof(%s), %s)", assert, typeArg, ch.SubjectText), true
	}
}

// containmentRule handles Contain/NotContain. A callable argument selects
// the predicate overload (subject, predicate); everything else, including
// an Unknown classification, takes the value form (expected, subject).
func containmentRule(assert string) ruleFunc {
	return func(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
		if len(ch.Args) != 1 {
			return "", false
		}
		if c.IsCallable(ch.Args[0]) == resolver.Yes {
			return fmt.Sprintf("%s(%s, %s)", assert, ch.SubjectText, ch.argText(doc, 0)), true
		}
		return fmt.Sprintf("%s(%s, %s)", assert, ch.argText(doc, 0), ch.SubjectText), true
	}
}

func ruleBe(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
	if len(ch.Args) != 1 {
		return "", false
	}
	expected := ch.argText(doc, 0)
	if expected == "1" {
		// list.Count.Should().Be(1) is an exactly-one-element assertion on
		// the list itself. A possibly-null receiver skips the collapse and
		// keeps the plain equality, same as HaveCount.
		if recv, ok := countReceiver(ch, doc); ok && c.IsNullable(recv) != resolver.Yes {
			return fmt.Sprintf("Assert.Single(%s)", doc.Content(recv)), true
		}
	}
	return fmt.Sprintf("Assert.Equal(%s, %s)", expected, ch.SubjectText), true
}

// countReceiver unwraps a `x.Count` subject to x.
func countReceiver(ch *AssertionChain, doc *parser.Document) (*sitter.Node, bool) {
	if ch.Subject == nil || ch.Subject.Type() != "member_access_expression" {
		return nil, false
	}
	name := ch.Subject.ChildByFieldName("name")
	recv := ch.Subject.ChildByFieldName("expression")
	if name == nil || recv == nil || doc.Content(name) != "Count" {
		return nil, false
	}
	return recv, true
}

func ruleBeEquivalentTo(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
	switch len(ch.Args) {
	case 1:
		return fmt.Sprintf("Assert.Equivalent(%s, %s)", ch.argText(doc, 0), ch.SubjectText), true
	case 0:
		// Defensive placeholder rather than indexing a missing argument.
		return fmt.Sprintf("Assert.Equivalent(null, %s)", ch.SubjectText), true
	default:
		// An options lambda carries semantics the flat call cannot express.
		return "", false
	}
}

func ruleBeEmpty(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
	if len(ch.Args) != 0 {
		return "", false
	}
	if subjectNullable(ch, c) {
		return fmt.Sprintf(`Assert.Empty(%s ?? "")`, ch.SubjectText), true
	}
	return fmt.Sprintf("Assert.Empty(%s)", ch.SubjectText), true
}

func ruleContainAll(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
	if len(ch.Args) == 0 {
		return "", false
	}
	items := make([]string, len(ch.Args))
	for i := range ch.Args {
		items[i] = ch.argText(doc, i)
	}
	return fmt.Sprintf("Assert.All(new[] { %s }, item => Assert.Contains(item, %s))",
		strings.Join(items, ", "), ch.SubjectText), true
}

func ruleHaveCount(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
	if len(ch.Args) != 1 {
		return "", false
	}
	expected := ch.argText(doc, 0)
	nullable := subjectNullable(ch, c)

	// Tier 1: literal zero and one collapse to emptiness and singleton
	// assertions. Possibly-null subjects skip the collapse and take the
	// null-propagating count comparison below instead.
	if !nullable {
		switch expected {
		case "0":
			return fmt.Sprintf("Assert.Empty(%s)", ch.SubjectText), true
		case "1":
			return fmt.Sprintf("Assert.Single(%s)", ch.SubjectText), true
		}
	}

	// Tier 2 and 3: pick the count accessor from the subject's type,
	// falling back to the LINQ Count() when neither array nor collection
	// can be established.
	var accessor string
	switch {
	case c.IsArray(ch.Subject) == resolver.Yes:
		accessor = "Length"
	case c.IsCollection(ch.Subject) == resolver.Yes:
		accessor = "Count"
	default:
		accessor = "Count()"
	}
	access := "."
	if nullable {
		access = "?."
	}
	return fmt.Sprintf("Assert.Equal(%s, %s%s%s)", expected, ch.SubjectText, access, accessor), true
}

func ruleBeOneOf(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
	if len(ch.Args) != 1 {
		return "", false
	}
	return fmt.Sprintf("Assert.Contains(%s, %s)", ch.SubjectText, ch.argText(doc, 0)), true
}

func ruleThrow(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
	typeArg, consumed, ok := exceptionType(ch, doc)
	if !ok {
		return "", false
	}
	switch {
	case ch.TypeArg != "":
		return fmt.Sprintf("Assert.Throws<%s>(%s)", typeArg, ch.SubjectText), true
	case consumed:
		return fmt.Sprintf("Assert.Throws(typeof(%s), %s)", typeArg, ch.SubjectText), true
	default:
		return fmt.Sprintf("Assert.ThrowsAny<Exception>(%s)", ch.SubjectText), true
	}
}

func ruleThrowAsync(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
	typeArg, consumed, ok := exceptionType(ch, doc)
	if !ok {
		return "", false
	}
	switch {
	case ch.TypeArg != "":
		return fmt.Sprintf("await Assert.ThrowsAsync<%s>(%s)", typeArg, ch.SubjectText), true
	case consumed:
		return fmt.Sprintf("await Assert.ThrowsAsync(typeof(%s), %s)", typeArg, ch.SubjectText), true
	default:
		return fmt.Sprintf("await Assert.ThrowsAnyAsync<Exception>(%s)", ch.SubjectText), true
	}
}

func ruleNotThrow(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
	if _, _, ok := exceptionType(ch, doc); !ok {
		return "", false
	}
	return fmt.Sprintf("Assert.Null(Record.Exception(%s))", ch.SubjectText), true
}

func ruleNotThrowAsync(ch *AssertionChain, c *Classifier, doc *parser.Document) (string, bool) {
	if _, _, ok := exceptionType(ch, doc); !ok {
		return "", false
	}
	return fmt.Sprintf("Assert.Null(await Record.ExceptionAsync(%s))", ch.SubjectText), true
}

// exceptionType resolves the exception type for the Throw family: generic
// argument first, then a lone typeof(...) value argument, then none. Any
// leftover value arguments make the chain unrewritable.
func exceptionType(ch *AssertionChain, doc *parser.Document) (typeArg string, consumed bool, ok bool) {
	typeArg, consumed = ch.typeArgument(doc)
	extra := len(ch.Args)
	if consumed {
		extra--
	}
	if extra != 0 {
		return "", false, false
	}
	return typeArg, consumed, true
}

// subjectNullable decides whether the nullable guard applies: a rebuilt
// null-conditional subject always does, and an Unknown classification takes
// the guarded branch as the safe default.
func subjectNullable(ch *AssertionChain, c *Classifier) bool {
	if ch.Wrapping == WrapConditional {
		return true
	}
	return c.IsNullable(ch.Subject) != resolver.No
}
