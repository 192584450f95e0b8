package merge

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

var ruleDeclPattern = regexp2.MustCompile(`^(\w+)\s*=`, regexp2.None)

// TextStrategy patches rule definitions in place and appends the rest of
// the fragment under a description comment.
type TextStrategy struct{}

var _ Strategy = TextStrategy{}

func (TextStrategy) Merge(current string, proposal Proposal) (*Result, error) {
	directives, err := ParseDirectives(proposal.Fragment)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	updated := current
	for _, directive := range directives {
		patched, found, err := appendAlternative(updated, directive.Rule, directive.Alternative)
		if err != nil {
			return nil, err
		}
		if !found {
			result.Mismatched = append(result.Mismatched, directive)
			continue
		}
		updated = patched
		result.Applied = append(result.Applied, directive)
	}

	description := strings.Join(strings.Fields(proposal.Description), " ")
	result.Candidate = fmt.Sprintf(
		"%s\n\n%s%s\n%s\n",
		strings.TrimRight(updated, "\n"),
		ExtensionHeader, description,
		StripDirectives(proposal.Fragment),
	)
	return result, nil
}

func declaredRule(line string) (string, error) {
	m, err := ruleDeclPattern.FindStringMatch(line)
	if err != nil || m == nil {
		return "", err
	}
	return m.GroupByNumber(1).String(), nil
}

// appendAlternative rewrites the definition of rule in grammar as
// "rule = <existing> / alternative". The definition spans from its
// declaration line to the next blank line or top-level declaration.
func appendAlternative(grammar, rule, alternative string) (string, bool, error) {
	lines := strings.Split(grammar, "\n")

	start := -1
	for i, line := range lines {
		name, err := declaredRule(line)
		if err != nil {
			return "", false, err
		}
		if name == rule {
			start = i
			break
		}
	}
	if start < 0 {
		return grammar, false, nil
	}

	end := start + 1
	for ; end < len(lines); end++ {
		if strings.TrimSpace(lines[end]) == "" {
			break
		}
		name, err := declaredRule(lines[end])
		if err != nil {
			return "", false, err
		}
		if name != "" {
			break
		}
	}

	var parts []string
	for i := start; i < end; i++ {
		line := stripComment(lines[i])
		if i == start {
			_, line, _ = strings.Cut(line, "=")
		}
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}

	rewritten := fmt.Sprintf("%s = %s", rule, alternative)
	if existing := strings.Join(parts, " "); existing != "" {
		rewritten = fmt.Sprintf("%s = %s / %s", rule, existing, alternative)
	}

	patched := append([]string{}, lines[:start]...)
	patched = append(patched, rewritten)
	patched = append(patched, lines[end:]...)
	return strings.Join(patched, "\n"), true, nil
}

// stripComment drops a trailing "#" comment that is not inside a quoted literal.
func stripComment(line string) string {
	var quote rune
	escaped := false
	for i, r := range line {
		switch {
		case escaped:
			escaped = false
		case quote != 0 && r == '\\':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '#':
			return line[:i]
		}
	}
	return line
}
