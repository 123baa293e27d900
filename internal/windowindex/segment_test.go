package windowindex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chatrag/ragcore/internal/types"
)

func msgAt(id int64, userID int64, minute int, text string) types.Message {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return types.Message{ID: id, FromUserID: userID, DateUTC: base.Add(time.Duration(minute) * time.Minute), Text: text}
}

// TestSegmentByTimeGap encodes spec.md §8 edge case D: messages at
// minutes [0,1,2,35,36,37,38,39] split into dialogs of length 3 and 5.
func TestSegmentByTimeGap(t *testing.T) {
	minutes := []int{0, 1, 2, 35, 36, 37, 38, 39}
	messages := make([]types.Message, len(minutes))
	for i, m := range minutes {
		messages[i] = msgAt(int64(i+1), 1, m, "hi")
	}

	dialogs := Segment(messages)

	assert.Len(t, dialogs, 2)
	assert.Len(t, dialogs[0], 3)
	assert.Len(t, dialogs[1], 5)
}

func TestSegmentTopicShiftOnlyAfterMinLen(t *testing.T) {
	messages := []types.Message{
		msgAt(1, 1, 0, "привет"),
		msgAt(2, 2, 1, "как дела"),
		msgAt(3, 1, 2, "норм"),
		msgAt(4, 2, 3, "кстати, другая тема"), // dialog only has 3 msgs so far, shouldn't split
	}
	dialogs := Segment(messages)
	assert.Len(t, dialogs, 1)

	longer := append(append([]types.Message{}, messages...),
		msgAt(5, 1, 4, "ладно"),
		msgAt(6, 2, 5, "кстати, другая тема"), // now dialog has 5 msgs, should split
	)
	dialogs = Segment(longer)
	assert.Len(t, dialogs, 2)
	assert.Equal(t, int64(6), dialogs[1][0].ID)
}

func TestSegmentParticipantShiftRequiresMonologueAndMinLen(t *testing.T) {
	// 8 messages all from user 1 (monologue), then user 2 speaks.
	messages := make([]types.Message, 0, 9)
	for i := 0; i < 8; i++ {
		messages = append(messages, msgAt(int64(i+1), 1, i, "msg"))
	}
	messages = append(messages, msgAt(9, 2, 8, "hey"))

	dialogs := Segment(messages)
	assert.Len(t, dialogs, 2)
	assert.Len(t, dialogs[0], 8)
	assert.Equal(t, int64(9), dialogs[1][0].ID)
}

func TestSegmentParticipantShiftNotTriggeredBelowMinLen(t *testing.T) {
	messages := []types.Message{
		msgAt(1, 1, 0, "a"), msgAt(2, 1, 1, "b"), msgAt(3, 1, 2, "c"),
		msgAt(4, 1, 3, "d"), msgAt(5, 1, 4, "e"),
		msgAt(6, 2, 5, "f"), // different author but dialog only has 5 msgs, below ParticipantShiftMinLen=8
	}
	dialogs := Segment(messages)
	assert.Len(t, dialogs, 1)
}
