// Package merge applies extension proposals to grammar text.
package merge

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// Proposal is a grammar fragment offered as an extension of the active
// grammar. The fragment may carry UPDATE_RULE directive lines.
type Proposal struct {
	Fragment    string `json:"fragment"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
}

// Directive asks for Alternative to be appended to the choices of Rule.
type Directive struct {
	Rule        string `json:"rule"`
	Alternative string `json:"alternative"`
	// Line is the directive line as written in the fragment.
	Line string `json:"line"`
}

func (d Directive) String() string {
	return fmt.Sprintf("%s |= %s", d.Rule, d.Alternative)
}

// Result is the outcome of a merge.
type Result struct {
	// Candidate is the full grammar text to validate.
	Candidate string
	// Applied lists the directives whose rule was found and rewritten.
	Applied []Directive
	// Mismatched lists the directives naming a rule the grammar lacks.
	Mismatched []Directive
}

// Strategy combines the current grammar text with a proposal.
type Strategy interface {
	Merge(current string, proposal Proposal) (*Result, error)
}

// ExtensionHeader prefixes the description comment of each appended fragment.
const ExtensionHeader = "# Extension: "

var directivePattern = regexp2.MustCompile(
	`^[ \t]*(?:#|//)?[ \t]*UPDATE_RULE:[ \t]*(\w+)[ \t]*\|=[ \t]*(.+?)[ \t\r]*$`,
	regexp2.Multiline,
)

// ParseDirectives extracts the UPDATE_RULE directives of fragment in
// textual order.
func ParseDirectives(fragment string) ([]Directive, error) {
	var directives []Directive

	m, err := directivePattern.FindStringMatch(fragment)
	for ; m != nil && err == nil; m, err = directivePattern.FindNextMatch(m) {
		directives = append(directives, Directive{
			Rule:        m.GroupByNumber(1).String(),
			Alternative: m.GroupByNumber(2).String(),
			Line:        strings.TrimSpace(m.String()),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("scan directives: %w", err)
	}
	return directives, nil
}

// StripDirectives removes directive lines from fragment and turns "//"
// comment lines into "#" comments.
func StripDirectives(fragment string) string {
	var kept []string
	for _, line := range strings.Split(fragment, "\n") {
		if ok, _ := directivePattern.MatchString(line); ok {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") {
			line = "#" + strings.TrimPrefix(trimmed, "//")
		}
		kept = append(kept, line)
	}
	return strings.Trim(strings.Join(kept, "\n"), "\n")
}
