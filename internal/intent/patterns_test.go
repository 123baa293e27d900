package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chatrag/ragcore/internal/types"
)

func TestClassifyByPatternSelfPronoun(t *testing.T) {
	got := ClassifyByPattern("что я говорил вчера про отпуск")
	assert.Equal(t, types.IntentPersonalSelf, got.Intent)
}

func TestClassifyByPatternHandleMention(t *testing.T) {
	got := ClassifyByPattern("что говорил @ivan про проект")
	assert.Equal(t, types.IntentPersonalOther, got.Intent)
	assert.Equal(t, []string{"ivan"}, got.MentionedPeople)
}

func TestClassifyByPatternTemporalMarker(t *testing.T) {
	got := ClassifyByPattern("что обсуждали вчера")
	assert.Equal(t, types.IntentTemporal, got.Intent)
	assert.True(t, got.TemporalRef.Detected)
	assert.Equal(t, 1, got.TemporalRef.RelativeDays)
}

func TestClassifyByPatternDefaultsToFactual(t *testing.T) {
	got := ClassifyByPattern("когда запустили новую фичу")
	assert.Equal(t, types.IntentFactual, got.Intent)
}

func TestMatchesWordDoesNotMatchSubstringInsideLongerWord(t *testing.T) {
	// "я" must not match inside "семья"
	assert.False(t, matchesWord([]rune("обсуждали семья вчера"), []rune("я")))
}

func TestMatchesWordHandlesMultiWordPhrase(t *testing.T) {
	assert.True(t, matchesWord([]rune("у меня было собрание"), []rune("у меня")))
}
