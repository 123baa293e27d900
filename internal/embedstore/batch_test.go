package embedstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chatrag/ragcore/internal/types"
)

func msgAt(id, fromUser int64, minutes int) types.Message {
	return types.Message{
		ChatID:     1,
		ID:         id,
		FromUserID: fromUser,
		DisplayName: "alice",
		Text:       "hi",
		DateUTC:    time.Date(2026, 1, 1, 0, minutes, 0, 0, time.UTC),
	}
}

func TestGroupIntoBatchesJoinsSameAuthorWithinGap(t *testing.T) {
	messages := []types.Message{msgAt(1, 10, 0), msgAt(2, 10, 1), msgAt(3, 10, 4)}
	batches := GroupIntoBatches(messages)
	assert.Len(t, batches, 1)
	assert.Len(t, batches[0].Messages, 3)
}

func TestGroupIntoBatchesSplitsOnAuthorChange(t *testing.T) {
	messages := []types.Message{msgAt(1, 10, 0), msgAt(2, 20, 1)}
	batches := GroupIntoBatches(messages)
	assert.Len(t, batches, 2)
}

func TestGroupIntoBatchesSplitsOnGap(t *testing.T) {
	messages := []types.Message{msgAt(1, 10, 0), msgAt(2, 10, 6)}
	batches := GroupIntoBatches(messages)
	assert.Len(t, batches, 2)
}

func TestGroupIntoBatchesSplitsAtMax(t *testing.T) {
	messages := make([]types.Message, 11)
	for i := range messages {
		messages[i] = msgAt(int64(i+1), 10, i)
	}
	batches := GroupIntoBatches(messages)
	assert.Len(t, batches, 2)
	assert.Len(t, batches[0].Messages, 10)
	assert.Len(t, batches[1].Messages, 1)
}

func TestBatchFirstIDIsFirstMessageID(t *testing.T) {
	b := Batch{Messages: []types.Message{msgAt(5, 10, 0), msgAt(6, 10, 1)}}
	assert.Equal(t, int64(5), b.FirstID())
}

func TestBatchMetadataOmitsSpanForSingleMessage(t *testing.T) {
	b := Batch{Messages: []types.Message{msgAt(1, 10, 0)}}
	meta := b.Metadata()
	assert.Nil(t, meta.StartDate)
	assert.Zero(t, meta.MessageCount)
}

func TestBatchMetadataRecordsSpanForMultipleMessages(t *testing.T) {
	b := Batch{Messages: []types.Message{msgAt(1, 10, 0), msgAt(2, 10, 1), msgAt(3, 10, 2)}}
	meta := b.Metadata()
	assert.NotNil(t, meta.StartDate)
	assert.NotNil(t, meta.EndDate)
	assert.Equal(t, 3, meta.MessageCount)
	assert.Equal(t, []int64{1, 2, 3}, meta.MessageIDs)
}

func TestBatchTextJoinsBodiesWithAuthorPrefix(t *testing.T) {
	b := Batch{Messages: []types.Message{msgAt(1, 10, 0), msgAt(2, 10, 1)}}
	assert.Equal(t, "alice: hi\nhi", b.Text())
}
