package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chatrag/ragcore/internal/types"
)

func TestGateActionProceedsOnAnyNonNoneConfidence(t *testing.T) {
	for _, level := range []types.ConfidenceLevel{"Low", "Medium", "High"} {
		assert.Equal(t, ActionProceed, GateAction(level, types.JobKindAsk))
		assert.Equal(t, ActionProceed, GateAction(level, types.JobKindSmart))
	}
}

func TestGateActionFallsBackToGeneralModelForSmartWithNoConfidence(t *testing.T) {
	assert.Equal(t, ActionGeneralFallback, GateAction(types.ConfidenceNone, types.JobKindSmart))
}

func TestGateActionReportsNotFoundForAskWithNoConfidence(t *testing.T) {
	assert.Equal(t, ActionNotFound, GateAction(types.ConfidenceNone, types.JobKindAsk))
}
