package worker

import "github.com/chatrag/ragcore/internal/types"

// Action is the decision the confidence gate routes ProcessAsk's to,
// per spec.md §4.11 step e.
type Action int

const (
	// ActionProceed answers normally from the retrieved context.
	ActionProceed Action = iota
	// ActionGeneralFallback answers with a general-purpose model and no
	// local context; only reachable for kind=smart.
	ActionGeneralFallback
	// ActionNotFound replies with a "not found" message and completes
	// the job without calling the answer generator.
	ActionNotFound
)

// GateAction implements the confidence gate: Low/Medium/High proceed;
// None+kind=smart falls through to a general-purpose model with empty
// context; None otherwise reports "not found".
func GateAction(level types.ConfidenceLevel, kind types.JobKind) Action {
	if level != types.ConfidenceNone {
		return ActionProceed
	}
	if kind == types.JobKindSmart {
		return ActionGeneralFallback
	}
	return ActionNotFound
}
