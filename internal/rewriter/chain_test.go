package rewriter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFromInvocation(t *testing.T) {
	t.Run("Plain chain", func(t *testing.T) {
		doc := parseSource(t, inTestMethod(`        result.Should().Be(42);`))
		node := findFirst(doc, "invocation_expression")
		require.NotNil(t, node)

		chain, ok := extractFromInvocation(doc, node)
		require.True(t, ok)
		assert.Equal(t, "result", chain.SubjectText)
		assert.Equal(t, "Be", chain.Verb)
		assert.Equal(t, "Be", chain.VerbRaw)
		assert.Empty(t, chain.TypeArg)
		assert.Len(t, chain.Args, 1)
		assert.Equal(t, "42", doc.Content(chain.Args[0]))
		assert.Equal(t, WrapNone, chain.Wrapping)
		assert.False(t, chain.Malformed)
	})

	t.Run("Generic verb", func(t *testing.T) {
		doc := parseSource(t, inTestMethod(`        act.Should().Throw<InvalidOperationException>();`))
		node := findFirst(doc, "invocation_expression")
		require.NotNil(t, node)

		chain, ok := extractFromInvocation(doc, node)
		require.True(t, ok)
		assert.Equal(t, "act", chain.SubjectText)
		assert.Equal(t, "Throw", chain.Verb)
		assert.Equal(t, "Throw<InvalidOperationException>", chain.VerbRaw)
		assert.Equal(t, "InvalidOperationException", chain.TypeArg)
		assert.Empty(t, chain.Args)
	})

	t.Run("Member access subject", func(t *testing.T) {
		doc := parseSource(t, inTestMethod(`        order.Total.Should().BePositive();`))
		node := findFirst(doc, "invocation_expression")
		require.NotNil(t, node)

		chain, ok := extractFromInvocation(doc, node)
		require.True(t, ok)
		assert.Equal(t, "order.Total", chain.SubjectText)
		assert.Equal(t, "BePositive", chain.Verb)
	})

	t.Run("Named argument marks chain malformed", func(t *testing.T) {
		doc := parseSource(t, inTestMethod(`        result.Should().Be(expected: 42);`))
		node := findFirst(doc, "invocation_expression")
		require.NotNil(t, node)

		chain, ok := extractFromInvocation(doc, node)
		require.True(t, ok)
		assert.True(t, chain.Malformed)
	})

	t.Run("Wrong entry point", func(t *testing.T) {
		doc := parseSource(t, inTestMethod(`        result.Would().Be(42);`))
		node := findFirst(doc, "invocation_expression")
		require.NotNil(t, node)

		_, ok := extractFromInvocation(doc, node)
		assert.False(t, ok)
	})

	t.Run("Entry point with arguments", func(t *testing.T) {
		doc := parseSource(t, inTestMethod(`        result.Should(5).Be(42);`))
		node := findFirst(doc, "invocation_expression")
		require.NotNil(t, node)

		_, ok := extractFromInvocation(doc, node)
		assert.False(t, ok)
	})

	t.Run("Bare entry call is not a chain", func(t *testing.T) {
		doc := parseSource(t, inTestMethod(`        result.Should();`))
		node := findFirst(doc, "invocation_expression")
		require.NotNil(t, node)

		_, ok := extractFromInvocation(doc, node)
		assert.False(t, ok)
	})
}

func TestExtractFromAwait(t *testing.T) {
	doc := parseSource(t, inAsyncTestMethod(`        await act.Should().ThrowAsync<TimeoutException>();`))
	node := findFirst(doc, "await_expression")
	require.NotNil(t, node)

	chain, ok := extractFromAwait(doc, node)
	require.True(t, ok)
	assert.Equal(t, "act", chain.SubjectText)
	assert.Equal(t, "ThrowAsync", chain.Verb)
	assert.Equal(t, "TimeoutException", chain.TypeArg)
	assert.Equal(t, WrapAwait, chain.Wrapping)
	assert.Equal(t, node, chain.Node, "replacement must cover the whole await expression")
}

func TestExtractFromConditionalAccess(t *testing.T) {
	t.Run("Single link", func(t *testing.T) {
		doc := parseSource(t, inTestMethod(`        order?.Lines.Should().BeEmpty();`))
		node := findFirst(doc, "conditional_access_expression")
		require.NotNil(t, node)

		chain, ok := extractFromConditionalAccess(doc, node)
		require.True(t, ok)
		assert.Equal(t, "order?.Lines", chain.SubjectText)
		assert.Equal(t, "BeEmpty", chain.Verb)
		assert.Equal(t, WrapConditional, chain.Wrapping)
	})

	t.Run("Nested links", func(t *testing.T) {
		doc := parseSource(t, inTestMethod(`        a?.b?.c.Should().BeNull();`))
		node := findFirst(doc, "conditional_access_expression")
		require.NotNil(t, node)

		chain, ok := extractFromConditionalAccess(doc, node)
		require.True(t, ok)
		assert.Equal(t, "a?.b?.c", chain.SubjectText)
		assert.Equal(t, "BeNull", chain.Verb)
	})

	t.Run("Guarded entry call is left alone", func(t *testing.T) {
		// Here the null check guards the assertion itself; flattening it
		// would assert where the original skipped.
		doc := parseSource(t, inTestMethod(`        order?.Should().BeNull();`))
		node := findFirst(doc, "conditional_access_expression")
		require.NotNil(t, node)

		_, ok := extractFromConditionalAccess(doc, node)
		assert.False(t, ok)
	})
}
