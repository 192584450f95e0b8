package selfextend

// State is a step of the self-extension loop.
type State int

const (
	StateParsing State = iota
	StateSuccess
	StateFailed
	StateAnalyzing
	StateProposalRequested
	StateValidating
	StateCommitted
	StateFail
)

var stateNames = [...]string{
	StateParsing:           "parsing",
	StateSuccess:           "success",
	StateFailed:            "failed",
	StateAnalyzing:         "analyzing",
	StateProposalRequested: "proposal_requested",
	StateValidating:        "validating",
	StateCommitted:         "committed",
	StateFail:              "fail",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the loop stops in s.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateFail
}

// Reason explains why the loop ended in StateFail.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonDisabled means self-extension is switched off.
	ReasonDisabled
	// ReasonAttemptsExhausted means the extension bound was reached.
	ReasonAttemptsExhausted
	// ReasonNoProposal means the proposer had nothing to offer.
	ReasonNoProposal
	// ReasonProposerFailed means the proposer returned an error.
	ReasonProposerFailed
	// ReasonExtendRejected means the proposal could not be committed.
	ReasonExtendRejected
	// ReasonReviewRequired means a proposal exists but automatic updates
	// are switched off.
	ReasonReviewRequired
)

var reasonNames = [...]string{
	ReasonNone:              "",
	ReasonDisabled:          "disabled",
	ReasonAttemptsExhausted: "attempts_exhausted",
	ReasonNoProposal:        "no_proposal",
	ReasonProposerFailed:    "proposer_failed",
	ReasonExtendRejected:    "extend_rejected",
	ReasonReviewRequired:    "review_required",
}

func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return "unknown"
	}
	return reasonNames[r]
}

func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
