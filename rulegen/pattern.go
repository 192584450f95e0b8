package rulegen

import (
	"fmt"
	"strings"

	"github.com/b4fun/grammarkeeper-go/merge"
	"github.com/dlclark/regexp2"
)

// CreatedByPattern marks versions created from a PatternProposer proposal.
const CreatedByPattern = "pattern-proposer"

// Pattern maps a source construct to the rules that parse it.
type Pattern struct {
	// Trigger is matched against the failing source as written. The
	// fragment's keywords are case-sensitive too.
	Trigger string
	// Rule is the rule Fragment introduces. A grammar that already declares
	// it is not offered the fragment again.
	Rule        string
	Fragment    string
	Description string
}

// ForEachLoop teaches a 1C grammar the "Для каждого ... Из ... Цикл" loop.
var ForEachLoop = Pattern{
	Trigger: "Для каждого",
	Rule:    "foreach_statement",
	Fragment: `# for each loop
# UPDATE_RULE: statement |= foreach_statement
foreach_statement = "Для" "каждого" IDENTIFIER "Из" expression "Цикл" statement* "КонецЦикла" ";"?
`,
	Description: `Add "Для каждого" loops`,
}

// PatternProposer is a deterministic proposer driven by a fixed table of
// known constructs.
type PatternProposer struct {
	patterns []Pattern
}

var _ Proposer = (*PatternProposer)(nil)

// NewPatternProposer returns a proposer for patterns, or for ForEachLoop when
// none are given.
func NewPatternProposer(patterns ...Pattern) *PatternProposer {
	if len(patterns) == 0 {
		patterns = []Pattern{ForEachLoop}
	}
	return &PatternProposer{patterns: patterns}
}

func (p *PatternProposer) Propose(req Request) (*merge.Proposal, error) {
	var source string
	if req.Diagnostic != nil {
		source = req.Diagnostic.LineText + "\n"
	}
	source += req.Snippet

	for _, pattern := range p.patterns {
		if !strings.Contains(source, pattern.Trigger) {
			continue
		}
		declared, err := declaresRule(req.Grammar, pattern.Rule)
		if err != nil {
			return nil, err
		}
		if declared {
			continue
		}
		return &merge.Proposal{
			Fragment:    pattern.Fragment,
			Description: pattern.Description,
			CreatedBy:   CreatedByPattern,
		}, nil
	}
	return nil, nil
}

func declaresRule(grammar, rule string) (bool, error) {
	if rule == "" {
		return false, nil
	}
	re, err := regexp2.Compile(`^`+regexp2.Escape(rule)+`\s*=`, regexp2.Multiline)
	if err != nil {
		return false, fmt.Errorf("rule pattern for %q: %w", rule, err)
	}
	return re.MatchString(grammar)
}
