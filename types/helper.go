package types

// lineAndColumn converts a rune offset into a 1-based line and column.
func lineAndColumn(text []rune, pos int) (int, int) {
	if pos > len(text) {
		pos = len(text)
	}
	line, lineStart := 1, 0
	for i := 0; i < pos; i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, pos - lineStart + 1
}
