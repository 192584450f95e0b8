package diagnostic

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// LineColumn converts a rune offset in code into a 1-based line and column.
func LineColumn(code string, offset int) (int, int) {
	line, column := 1, 1
	pos := 0
	for _, r := range code {
		if pos >= offset {
			break
		}
		if r == '\n' {
			line++
			column = 1
		} else {
			column++
		}
		pos++
	}
	return line, column
}

func splitLines(code string) []string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func lineText(code string, line int) string {
	lines := splitLines(code)
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// Snippet returns the raw lines within radius of line.
func Snippet(code string, line, radius int) string {
	lines := splitLines(code)
	from, to := window(len(lines), line, radius)
	if from > to {
		return ""
	}
	return strings.Join(lines[from-1:to], "\n")
}

func window(count, line, radius int) (int, int) {
	from := line - radius
	if from < 1 {
		from = 1
	}
	to := line + radius
	if to > count {
		to = count
	}
	return from, to
}

// ContextWindow renders up to ContextRadius lines before and after line,
// each prefixed with its number. The failing line is marked with "->" and
// followed by a caret under column.
func ContextWindow(code string, line, column int) string {
	lines := splitLines(code)
	from, to := window(len(lines), line, ContextRadius)
	if from > to {
		return ""
	}

	width := len(fmt.Sprint(to))
	var sb strings.Builder
	for n := from; n <= to; n++ {
		marker := "   "
		if n == line {
			marker = "-> "
		}
		fmt.Fprintf(&sb, "%s%*d: %s\n", marker, width, n, lines[n-1])

		if n == line {
			prefix := []rune(lines[n-1])
			if column-1 < len(prefix) {
				prefix = prefix[:max(column-1, 0)]
			}
			sb.WriteString(strings.Repeat(" ", 3+width+2))
			sb.WriteString(caretPadding(string(prefix)))
			sb.WriteString("^\n")
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// caretPadding blanks out prefix keeping tabs, so the caret lines up under
// wide characters and tab stops alike.
func caretPadding(prefix string) string {
	var sb strings.Builder
	for i, part := range strings.Split(prefix, "\t") {
		if i > 0 {
			sb.WriteByte('\t')
		}
		sb.WriteString(strings.Repeat(" ", uniseg.StringWidth(part)))
	}
	return sb.String()
}
