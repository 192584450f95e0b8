package bootstrap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/b4fun/grammarkeeper-go/nodes"
	"github.com/b4fun/grammarkeeper-go/types"
	"github.com/dlclark/regexp2"
)

// quotedLiteralExpr parses "..." and '...' literals with an optional r/R
// prefix that disables escape processing.
var quotedLiteralExpr, quotedLiteralVisitor = func() (types.Expression, *nodes.NodeVisitorMux) {
	body := func(quote string) types.Expression {
		pattern := fmt.Sprintf(`^[^%[1]s\\]*(?:\\.[^%[1]s\\]*)*`, quote)
		return types.NewRegex(
			"body",
			regexp2.MustCompile(pattern, regexp2.RE2|regexp2.Singleline|regexp2.Unicode),
		)
	}
	quoted := func(name, quote string, raw bool) types.Expression {
		members := []types.Expression{
			types.NewLiteral(quote),
			body(quote),
			types.NewLiteral(quote),
		}
		if raw {
			prefix := types.NewOneOf("", []types.Expression{
				types.NewLiteral("r"),
				types.NewLiteral("R"),
			})
			members = append([]types.Expression{prefix}, members...)
		}
		return types.NewSequence(name, members)
	}

	literal := types.NewOneOf(
		"quoted_literal",
		[]types.Expression{
			quoted("escaped", `"`, false),
			quoted("escaped", `'`, false),
			quoted("raw", `"`, true),
			quoted("raw", `'`, true),
		},
	)

	bodyOf := func(node *types.Node) (string, error) {
		found := node.Find("body")
		if found == nil {
			return "", fmt.Errorf("%s has no body", node)
		}
		return found.Text, nil
	}

	visitEscaped := func(node *types.Node, _ []any) (any, error) {
		text, err := bodyOf(node)
		if err != nil {
			return nil, err
		}
		return unescape(text)
	}

	visitRaw := func(node *types.Node, _ []any) (any, error) {
		return bodyOf(node)
	}

	mux := nodes.NewNodeVisitorMux().
		HandleExpr("escaped", visitEscaped).
		HandleExpr("raw", visitRaw).
		HandleExpr("quoted_literal", func(node *types.Node, children []any) (any, error) {
			if err := assertNodeToHaveChildrenCount(node, children, 1); err != nil {
				return nil, err
			}
			return children[0], nil
		})

	return literal, mux
}()

// unescape resolves backslash escapes. Unknown escapes are kept verbatim.
func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var sb strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '\\' || i+1 == len(runes) {
			sb.WriteRune(r)
			continue
		}

		i++
		switch next := runes[i]; next {
		case 'n':
			sb.WriteRune('\n')
		case 't':
			sb.WriteRune('\t')
		case 'r':
			sb.WriteRune('\r')
		case '\\', '"', '\'':
			sb.WriteRune(next)
		case 'u':
			if i+4 >= len(runes) {
				return "", fmt.Errorf("truncated \\u escape in %q", s)
			}
			code, err := strconv.ParseUint(string(runes[i+1:i+5]), 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid \\u escape in %q: %w", s, err)
			}
			sb.WriteRune(rune(code))
			i += 4
		default:
			sb.WriteRune('\\')
			sb.WriteRune(next)
		}
	}
	return sb.String(), nil
}

func evalQuotedLiteral(input string) (string, error) {
	tree, err := types.ParseWithExpression(quotedLiteralExpr, input)
	if err != nil {
		return "", err
	}

	v, err := quotedLiteralVisitor.Visit(tree)
	if err != nil {
		return "", err
	}

	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("unexpected type %T", v)
	}
	return s, nil
}
