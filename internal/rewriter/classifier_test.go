package rewriter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fluentmig/internal/resolver"
)

func TestClassifier_DefaultModel(t *testing.T) {
	src := inTestMethod(
		"        List<int> items = new List<int>();\n" +
			"        int[] values = new int[2];\n" +
			"        string? label = null;\n" +
			"        Func<int, bool> pred = x => x > 0;\n" +
			"        items.Should().NotBeEmpty();")
	doc := parseSource(t, src)
	c := NewClassifier(doc, nil)

	items := findIdentifier(doc, "items")
	require.NotNil(t, items)
	assert.Equal(t, resolver.Yes, c.IsCollection(items))
	assert.Equal(t, resolver.No, c.IsArray(items))
	assert.Equal(t, resolver.No, c.IsNullable(items))

	values := findIdentifier(doc, "values")
	require.NotNil(t, values)
	assert.Equal(t, resolver.Yes, c.IsArray(values))
	assert.Equal(t, resolver.No, c.IsCollection(values))

	label := findIdentifier(doc, "label")
	require.NotNil(t, label)
	assert.Equal(t, resolver.Yes, c.IsNullable(label))

	pred := findIdentifier(doc, "pred")
	require.NotNil(t, pred)
	assert.Equal(t, resolver.Yes, c.IsCallable(pred))

	unknown := findIdentifier(doc, "Should")
	require.NotNil(t, unknown)
	assert.Equal(t, resolver.Unknown, c.IsCollection(unknown))
}

func TestClassifier_UnavailableModel(t *testing.T) {
	src := inTestMethod(
		"        List<int> items = new List<int>();\n" +
			"        items.Should().NotBeEmpty();")
	doc := parseSource(t, src)

	calls := 0
	c := NewClassifier(doc, func() (*resolver.SemanticModel, error) {
		calls++
		return nil, fmt.Errorf("type resolution unavailable")
	})

	items := findIdentifier(doc, "items")
	require.NotNil(t, items)
	assert.Equal(t, resolver.Unknown, c.IsCollection(items))
	assert.Equal(t, resolver.Unknown, c.IsArray(items))
	assert.Equal(t, resolver.Unknown, c.IsNullable(items))
	assert.Equal(t, resolver.Unknown, c.IsCallable(items))
	assert.Equal(t, 1, calls, "the accessor is consulted once, then the answer is shared")
}

func TestClassifier_ConditionalAccessIsNullable(t *testing.T) {
	// Nullability of a conditional access needs no model at all.
	src := inTestMethod(`        var x = order?.Total;`)
	doc := parseSource(t, src)
	c := NewClassifier(doc, func() (*resolver.SemanticModel, error) {
		return nil, fmt.Errorf("unavailable")
	})

	cond := findFirst(doc, "conditional_access_expression")
	require.NotNil(t, cond)
	assert.Equal(t, resolver.Yes, c.IsNullable(cond))
}

func TestClassifier_SyntacticLambdaIsCallable(t *testing.T) {
	src := inTestMethod(`        items.Should().Contain(x => x > 1);`)
	doc := parseSource(t, src)
	c := NewClassifier(doc, func() (*resolver.SemanticModel, error) {
		return nil, fmt.Errorf("unavailable")
	})

	lambda := findFirst(doc, "lambda_expression")
	require.NotNil(t, lambda)
	assert.Equal(t, resolver.Yes, c.IsCallable(lambda))
}
