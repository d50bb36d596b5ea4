// Package response classifies the model's final natural-language answer. A
// query can execute without any mechanical error and the model can still
// produce an evasive or "I don't know" answer; this package detects those
// cases so they can be recorded and escalated.
//
// This is a best-effort heuristic over phrase lists, not a ground-truth
// oracle. The precedence rules are tuned behavior: preserve them rather than
// re-deriving what looks reasonable.
package response

import (
	"regexp"
	"strings"
)

// Reason labels why an answer was classified as a failure.
type Reason string

// Failure reasons, from most to least specific.
const (
	ReasonExecutionError Reason = "execution_error"
	ReasonNotUnderstood  Reason = "not_understood"
	ReasonNoData         Reason = "no_data"
	ReasonEntityNotFound Reason = "entity_not_found"
	ReasonIncorrectData  Reason = "incorrect_data"
	ReasonEvasive        Reason = "evasive_response"
	ReasonUnknown        Reason = "unknown"
)

// earlyWindow is how deep into the answer a strong indicator is always
// treated as a failure. Early hedging dominates whatever follows.
const earlyWindow = 300

// numericPattern matches formatted currency or numeric content: "R$ 45.230,10",
// "1.234", "12,5%", or runs of three or more digits.
var numericPattern = regexp.MustCompile(`r\$\s*\d|\d+[.,]\d+|\d+\s*%|\d{3,}`)

// Classifier detects failed or evasive answers using configured phrase lists.
// The zero indicators case falls back to DefaultIndicators.
type Classifier struct {
	ind *Indicators
}

// NewClassifier creates a classifier over the given indicator lists. Passing
// nil uses DefaultIndicators.
func NewClassifier(ind *Indicators) *Classifier {
	if ind == nil {
		ind = DefaultIndicators()
	}
	return &Classifier{ind: ind}
}

// IsFailure reports whether the answer represents a failure despite the model
// having produced text. Precedence, in order:
//
//  1. No indicators present: not a failure.
//  2. A strong indicator within the first ~300 characters: failure.
//  3. An evasion indicator without numeric content: failure. With numeric
//     content the evasion phrase is tolerated as part of a real answer.
//  4. A strong indicator later in the text: failure only alongside explicit
//     self-doubt hedging; with numeric content and no hedging the late,
//     isolated trigger phrase is accepted.
func (c *Classifier) IsFailure(answer string) bool {
	text := strings.ToLower(answer)

	strongIdx := c.earliestStrong(text)
	evasion := containsAny(text, c.ind.Evasion)

	if strongIdx < 0 && !evasion {
		return false
	}
	if strongIdx >= 0 && strongIdx < earlyWindow {
		return true
	}

	numeric := numericPattern.MatchString(text)
	if evasion && !numeric {
		return true
	}

	if strongIdx >= 0 {
		if containsAny(text, c.ind.SelfDoubt) {
			return true
		}
		if !numeric {
			return true
		}
	}
	return false
}

// FailureReason maps a failed answer to a coarse reason label. A mechanical
// execution error takes precedence over anything the text says.
func (c *Classifier) FailureReason(answer string, hadExecError bool) Reason {
	if hadExecError {
		return ReasonExecutionError
	}

	text := strings.ToLower(answer)
	switch {
	case containsAny(text, c.ind.EntityMissing):
		return ReasonEntityNotFound
	case containsAny(text, c.ind.SelfDoubt):
		return ReasonIncorrectData
	case containsAny(text, c.ind.NotUnderstood):
		return ReasonNotUnderstood
	case containsAny(text, c.ind.NoData):
		return ReasonNoData
	case containsAny(text, c.ind.Evasion):
		return ReasonEvasive
	default:
		return ReasonUnknown
	}
}

// earliestStrong returns the byte index of the first strong indicator in the
// lowercased text, or -1 when none is present.
func (c *Classifier) earliestStrong(text string) int {
	earliest := -1
	for _, list := range c.ind.strong() {
		for _, phrase := range list {
			idx := strings.Index(text, strings.ToLower(phrase))
			if idx >= 0 && (earliest < 0 || idx < earliest) {
				earliest = idx
			}
		}
	}
	return earliest
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}
