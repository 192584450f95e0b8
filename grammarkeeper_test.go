package grammarkeeper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const propertyGrammar = `
Item = "-" _ KeyValuePairs _

KeyValuePairs = 'item(' KeyValuePair ("," _ KeyValuePair)* ')'

KeyValuePair = Key _ "=" _ Value

Key = ~r"[a-zA-Z][a-zA-Z0-9_]*"

Value = String / Number / KeyValuePairs

String = StringLiteral / StringQuoted

StringLiteral = "string(" ~r'[^)"]+' ")"
StringQuoted = "string(" _ '"' ~r'[^"]*' '"' _ ")"

Number = "number(" _ ~r"[0-9]+(\.[0-9]+)?" _ ")"

_ = Whitespace*

Whitespace = " " / "\t" / EOL

EOL = "\n" / "\r\n" / "\r"
`

func Test_Grammar_Property(t *testing.T) {
	grammar, err := NewGrammar(propertyGrammar)
	require.NoError(t, err)

	tree, err := grammar.Parse(`- item(name=string("Иван"), age=number(42), tags=item(a=string(x)))`)
	require.NoError(t, err)

	keys := tree.FindAll("Key")
	require.Len(t, keys, 4)
	assert.Equal(t, "name", keys[0].Text)
	assert.Equal(t, "a", keys[3].Text)
	assert.Equal(t, "42", tree.Find("Number").Children[2].Text)
	assert.NotEmpty(t, DumpRuleTree(tree))
}

func Test_Grammar_ParseErrors(t *testing.T) {
	t.Run("leftovers", func(t *testing.T) {
		grammar, err := NewGrammar(`seq = "a" (" " "b")+`)
		require.NoError(t, err)

		tree, err := grammar.Parse("a bb")
		assert.Nil(t, tree)

		var tokenErr *ErrUnexpectedToken
		require.ErrorAs(t, err, &tokenErr)
		assert.Equal(t, 3, tokenErr.Position)
		assert.Equal(t, "b", tokenErr.Token)
		assert.Contains(t, tokenErr.Expected, `" "`)
	})

	t.Run("left recursion", func(t *testing.T) {
		grammar, err := NewGrammar(`
expression = operator_expression / non_operator_expression
non_operator_expression = number_expression
operator_expression = expression "+" non_operator_expression
number_expression = ~"[0-9]+"
`)
		require.NoError(t, err)

		tree, err := grammar.ParseWithRule("operator_expression", "1+2")
		assert.Nil(t, tree)

		var lrErr *ErrLeftRecursion
		require.ErrorAs(t, err, &lrErr)
		assert.Equal(t, 0, lrErr.Position)
	})
}

func Test_MetaGrammar(t *testing.T) {
	assert.Contains(t, MetaGrammar().RuleNames(), "rule")
}
