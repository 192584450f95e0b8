package diagnostic

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/b4fun/grammarkeeper-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineColumn(t *testing.T) {
	code := "Перем x;\nx = 5;"

	line, column := LineColumn(code, 0)
	assert.Equal(t, []int{1, 1}, []int{line, column})

	line, column = LineColumn(code, 13)
	assert.Equal(t, []int{2, 5}, []int{line, column})

	line, column = LineColumn(code, len([]rune(code)))
	assert.Equal(t, []int{2, 7}, []int{line, column})
}

func TestContextWindow(t *testing.T) {
	code := "a\nb\nc\nd = 1 +;\ne\nf\ng"

	expected := "" +
		"   2: b\n" +
		"   3: c\n" +
		"-> 4: d = 1 +;\n" +
		"             ^\n" +
		"   5: e\n" +
		"   6: f"
	assert.Equal(t, expected, ContextWindow(code, 4, 8))
}

func TestContextWindow_Edges(t *testing.T) {
	t.Run("first line", func(t *testing.T) {
		window := ContextWindow("x\ny", 1, 1)
		assert.Equal(t, "-> 1: x\n      ^\n   2: y", window)
	})

	t.Run("wide characters and tabs", func(t *testing.T) {
		window := ContextWindow("\t世界 x", 1, 5)
		assert.Equal(t, "-> 1: \t世界 x\n      \t     ^", window)
	})

	t.Run("line numbers are aligned", func(t *testing.T) {
		code := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10"
		window := ContextWindow(code, 9, 1)
		assert.Contains(t, window, "    7: 7\n")
		assert.Contains(t, window, "->  9: 9\n")
		assert.Contains(t, window, "   10: 10")
	})
}

func TestSnippet(t *testing.T) {
	code := "a\nb\nc\nd\ne\nf"
	assert.Equal(t, "b\nc\nd\ne\nf", Snippet(code, 4, 2))
	assert.Equal(t, "a\nb", Snippet(code, 1, 1))
}

func TestFromError(t *testing.T) {
	code := "Если x > 3 Тогда\n    x = x - 1;"

	t.Run("unexpected token", func(t *testing.T) {
		err := &types.ErrUnexpectedToken{
			Position: len([]rune(code)),
			Token:    types.EndOfInput,
			Expected: []string{`"КонецЕсли"`},
		}

		d := FromError(code, err)
		assert.Equal(t, KindUnexpectedToken, d.Kind)
		assert.Equal(t, 2, d.Line)
		assert.Equal(t, 15, d.Column)
		assert.Equal(t, types.EndOfInput, d.Offending)
		assert.Equal(t, "    x = x - 1;", d.LineText)
		assert.Contains(t, d.Context, "-> 2:     x = x - 1;")
		assert.Contains(t, d.Context, "   1: Если x > 3 Тогда")
	})

	t.Run("unexpected character", func(t *testing.T) {
		err := &types.ErrUnexpectedCharacter{Position: 5, Line: 1, Column: 6, Char: '@'}

		d := FromError("x = 1@", err)
		assert.Equal(t, KindUnexpectedCharacter, d.Kind)
		assert.Equal(t, "@", d.Offending)
		assert.Equal(t, 6, d.Column)
	})

	t.Run("other", func(t *testing.T) {
		d := FromError(code, errors.New("boom"))
		assert.Equal(t, KindOther, d.Kind)
		assert.Equal(t, 1, d.Line)
		assert.Equal(t, 1, d.Column)
		assert.Equal(t, "boom", d.Message)
		assert.Contains(t, d.Context, "-> 1: ")
	})
}

func TestSyntaxError(t *testing.T) {
	cause := &types.ErrUnexpectedToken{Position: 0, Token: "x", Expected: []string{`"Перем"`}}
	err := NewSyntaxError("x", cause)

	var tokenErr *types.ErrUnexpectedToken
	assert.ErrorAs(t, err, &tokenErr)
	assert.Contains(t, err.Error(), `unexpected token "x" at line 1, column 1`)

	data, jsonErr := json.Marshal(err.Diagnostic)
	require.NoError(t, jsonErr)
	assert.Contains(t, string(data), `"kind":"unexpected_token"`)
}
