package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteNicknamesReplacesAboveThreshold(t *testing.T) {
	question := "what did slim say yesterday"
	substituted, reported := SubstituteNicknames(question, []resolved{
		{nickname: "slim", resolvedName: "Jim Carter", confidence: 0.9},
	})
	assert.Equal(t, "what did Jim Carter say yesterday", substituted)
	assert.Len(t, reported, 1)
	assert.Equal(t, "Jim Carter", reported[0].resolvedName)
}

func TestSubstituteNicknamesSkipsAtOrBelowThreshold(t *testing.T) {
	question := "what did slim say yesterday"
	substituted, reported := SubstituteNicknames(question, []resolved{
		{nickname: "slim", resolvedName: "Jim Carter", confidence: NicknameReportThreshold},
		{nickname: "slim", resolvedName: "Other Guy", confidence: 0.2},
	})
	assert.Equal(t, question, substituted)
	assert.Empty(t, reported)
}

func TestSubstituteNicknamesHandlesMultipleResolutions(t *testing.T) {
	question := "did sam tell kay about it"
	substituted, reported := SubstituteNicknames(question, []resolved{
		{nickname: "sam", resolvedName: "Samantha", confidence: 0.8},
		{nickname: "kay", resolvedName: "Katherine", confidence: 0.7},
	})
	assert.Equal(t, "did Samantha tell Katherine about it", substituted)
	assert.Len(t, reported, 2)
}

func TestSubstituteNicknamesNoResolutionsReturnsUnchanged(t *testing.T) {
	substituted, reported := SubstituteNicknames("plain question", nil)
	assert.Equal(t, "plain question", substituted)
	assert.Nil(t, reported)
}

func TestFormatNicknameReportEmptyWhenNoneReported(t *testing.T) {
	assert.Equal(t, "", formatNicknameReport(nil))
}

func TestFormatNicknameReportListsEachResolution(t *testing.T) {
	report := formatNicknameReport([]resolved{
		{nickname: "slim", resolvedName: "Jim Carter", confidence: 0.9},
		{nickname: "kay", resolvedName: "Katherine", confidence: 0.7},
	})
	assert.Contains(t, report, "slim -> Jim Carter")
	assert.Contains(t, report, "kay -> Katherine")
}
