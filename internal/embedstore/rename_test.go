package embedstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chatrag/ragcore/internal/types"
)

func TestRenameInTextCurrentFormat(t *testing.T) {
	got, changed := RenameInText("alice: hi there", "alice", "alicia")
	assert.True(t, changed)
	assert.Equal(t, "alicia: hi there", got)
}

func TestRenameInTextLegacyFormat(t *testing.T) {
	got, changed := RenameInText("[2024-01-01] alice: hi there", "alice", "alicia")
	assert.True(t, changed)
	assert.Equal(t, "[2024-01-01] alicia: hi there", got)
}

func TestRenameInTextLeavesOtherAuthorsUntouched(t *testing.T) {
	got, changed := RenameInText("bob: hi there", "alice", "alicia")
	assert.False(t, changed)
	assert.Equal(t, "bob: hi there", got)
}

func TestRenameInTextDoesNotMatchNameInsideBody(t *testing.T) {
	got, changed := RenameInText("bob: alice said hi", "alice", "alicia")
	assert.False(t, changed)
	assert.Equal(t, "bob: alice said hi", got)
}

func TestRenameInMetadataPatchesMatchingDisplayName(t *testing.T) {
	meta, _ := json.Marshal(types.UtteranceMetadata{DisplayName: "alice"})
	patched, changed, err := RenameInMetadata(meta, "alice", "alicia")
	assert.NoError(t, err)
	assert.True(t, changed)

	var out types.UtteranceMetadata
	_ = json.Unmarshal(patched, &out)
	assert.Equal(t, "alicia", out.DisplayName)
}

func TestRenameInMetadataLeavesNonMatchingUntouched(t *testing.T) {
	meta, _ := json.Marshal(types.UtteranceMetadata{DisplayName: "bob"})
	_, changed, err := RenameInMetadata(meta, "alice", "alicia")
	assert.NoError(t, err)
	assert.False(t, changed)
}
