package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_lineAndColumn(t *testing.T) {
	text := []rune("Перем x;\nx = 5;\n")

	cases := []struct {
		pos    int
		line   int
		column int
	}{
		{pos: 0, line: 1, column: 1},
		{pos: 6, line: 1, column: 7},
		{pos: 9, line: 2, column: 1},
		{pos: 13, line: 2, column: 5},
		{pos: 100, line: 3, column: 1},
	}
	for _, c := range cases {
		line, column := lineAndColumn(text, c.pos)
		assert.Equal(t, c.line, line, "line at %d", c.pos)
		assert.Equal(t, c.column, column, "column at %d", c.pos)
	}
}
