package worker

import "strings"

// NicknameReportThreshold is the confidence above which a resolution is
// substituted into the search question and reported to the user, per
// spec.md §4.11 step c.
const NicknameReportThreshold = 0.5

// resolved is one nickname's resolution outcome, carried alongside the
// nickname text it was resolved from.
type resolved struct {
	nickname     string
	resolvedName string
	confidence   float64
}

// SubstituteNicknames replaces every nickname in question whose
// resolution cleared NicknameReportThreshold with its canonical name,
// and returns the reportable resolutions in the order given.
func SubstituteNicknames(question string, resolutions []resolved) (string, []resolved) {
	substituted := question
	var reported []resolved
	for _, r := range resolutions {
		if r.confidence <= NicknameReportThreshold {
			continue
		}
		substituted = strings.ReplaceAll(substituted, r.nickname, r.resolvedName)
		reported = append(reported, r)
	}
	return substituted, reported
}
