package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_evalQuotedLiteral(t *testing.T) {
	cases := []struct {
		name      string
		in        string
		out       string
		expectErr bool
	}{
		{
			name: "double quoted string",
			in:   `"hello'world'"`,
			out:  "hello'world'",
		},
		{
			name: "single quoted string",
			in:   `'hello"world"'`,
			out:  "hello\"world\"",
		},
		{
			name: "escapes",
			in:   `"a\"b\n\\c\d"`,
			out:  "a\"b\n\\c\\d",
		},
		{
			name: "unicode escape",
			in:   `"\u0414а"`,
			out:  "Да",
		},
		{
			name: "raw string keeps escapes",
			in:   `r"hello\'world'"`,
			out:  "hello\\'world'",
		},
		{
			name: "cyrillic",
			in:   `"КонецЕсли"`,
			out:  "КонецЕсли",
		},
		{
			name: "regex",
			in:   `r"[a-zA-Zа-яА-ЯёЁ_][\w]*"`,
			out:  "[a-zA-Zа-яА-ЯёЁ_][\\w]*",
		},
		{
			name:      "unterminated",
			in:        `"abc`,
			expectErr: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out, err := evalQuotedLiteral(c.in)
			if c.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.out, out)
		})
	}
}
