package bootstrap

import (
	"fmt"

	"github.com/b4fun/grammarkeeper-go/types"
	"github.com/dlclark/regexp2"
)

// ruleSyntax describes the grammar description language in itself.
const ruleSyntax = `
# Ignored things (represented by _) are hung off the end of the leafmost
# kinds of nodes. Literals like "/" count as leaves.

rules = _ rule*
rule = label equals expression
equals = "=" _
literal = spaceless_literal _

expression = ored / sequence / term
or_term = "/" _ alternative
ored = alternative or_term+
alternative = sequence / term
sequence = term term+
not_term = "!" term _
lookahead_term = "&" term _
term = not_term / lookahead_term / quantified / atom
quantified = atom quantifier
atom = reference / literal / regex / parenthesized
regex = "~" spaceless_literal ~"[ilmsuxa]*"i _
parenthesized = "(" _ expression ")" _
quantifier = ~r"[*+?]|\{\d*,\d+\}|\{\d+,\d*\}|\{\d+\}" _
reference = label !equals

# A subsequent equal sign is the only thing that distinguishes a label
# (which begins a new rule) from a reference (which is just a pointer to a
# rule defined somewhere else):
label = ~"[a-zA-Z_][a-zA-Z_0-9]*(?![\"'])" _

_ = meaninglessness*
meaninglessness = ~r"\s+" / comment
comment = ~r"#[^\r\n]*"
`

// spacelessLiteral is injected into the meta grammar; quoted strings are
// awkward to describe with the quoted strings they define.
var spacelessLiteral = types.NewOneOf(
	"spaceless_literal",
	[]types.Expression{
		types.NewRegex(
			"",
			regexp2.MustCompile(`(?si)^r?"[^"\\]*(?:\\.[^"\\]*)*"`, regexp2.RE2),
		),
		types.NewRegex(
			"",
			regexp2.MustCompile(`(?si)^r?'[^'\\]*(?:\\.[^'\\]*)*'`, regexp2.RE2),
		),
	},
)

// MetaGrammar parses grammar descriptions.
var MetaGrammar *types.Grammar

func initMetaGrammar() (*types.Grammar, error) {
	mux := createRuleVisitor([]types.Expression{spacelessLiteral})

	bootstrapTree, err := types.ParseWithExpression(createBootstrapRules(), ruleSyntax)
	if err != nil {
		return nil, fmt.Errorf("parse bootstrap grammar: %w", err)
	}
	bootstrapGrammar, err := asGrammar(mux.Visit(bootstrapTree))
	if err != nil {
		return nil, fmt.Errorf("visit bootstrap grammar: %w", err)
	}

	tree, err := bootstrapGrammar.Parse(ruleSyntax)
	if err != nil {
		return nil, fmt.Errorf("parse meta grammar: %w", err)
	}
	result, err := asGrammar(mux.Visit(tree))
	if err != nil {
		return nil, fmt.Errorf("visit meta grammar: %w", err)
	}

	return result, nil
}

func init() {
	var err error
	MetaGrammar, err = initMetaGrammar()
	if err != nil {
		panic(fmt.Errorf("init meta grammar: %w", err))
	}
}

// NewGrammar compiles a grammar description. The first rule becomes the
// default rule.
func NewGrammar(input string, parseOpts ...types.ParseOption) (*types.Grammar, error) {
	tree, err := MetaGrammar.Parse(input, parseOpts...)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}

	return asGrammar(createRuleVisitor(nil).Visit(tree))
}
