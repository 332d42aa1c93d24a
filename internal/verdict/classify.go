package verdict

import "strings"

// FallbackRejectReason is shown when a rejected verdict carries no reason.
const FallbackRejectReason = "This doesn't look like a music video. Please try another!"

// Outcome is the result of classifying a Verdict.
type Outcome int

const (
	Reject Outcome = iota
	AcceptWithWarning
	Accept
)

func (o Outcome) String() string {
	switch o {
	case Reject:
		return "reject"
	case AcceptWithWarning:
		return "accept_with_warning"
	case Accept:
		return "accept"
	default:
		return "unknown"
	}
}

// Classification pairs an Outcome with the user-facing reason for a Reject.
type Classification struct {
	Outcome Outcome
	Reason  string
}

// Classify maps a verdict onto Reject, AcceptWithWarning or Accept.
//
// A verdict is rejected only when the collaborator says it is not a match and
// also produced nothing to show. A negative verdict that still carries items is
// treated as a false negative and accepted with a warning, as is any verdict
// flagged uncertain. Items with empty text do not count.
func Classify(v Verdict) Classification {
	hasItems := len(v.DisplayableItems()) > 0

	switch {
	case !v.Accepted && !hasItems:
		reason := strings.TrimSpace(v.Reason)
		if reason == "" {
			reason = FallbackRejectReason
		}
		return Classification{Outcome: Reject, Reason: reason}
	case v.Uncertain, !v.Accepted:
		return Classification{Outcome: AcceptWithWarning}
	default:
		return Classification{Outcome: Accept}
	}
}
