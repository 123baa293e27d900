// Package windowindex segments a chat's chronological message stream
// into topic-bounded dialogs and builds the overlapping sliding-window
// embeddings used for coarse retrieval, per spec.md §4.6.
package windowindex

import (
	"strings"
	"time"

	"github.com/chatrag/ragcore/internal/types"
)

// TimeGap is the strong dialog-boundary threshold.
const TimeGap = 30 * time.Minute

// topicShiftMarkers trigger a boundary only once the current dialog has
// reached TopicShiftMinLen messages.
var topicShiftMarkers = []string{
	"кстати", "btw", "другая тема", "сменим тему", "другой вопрос", "offtop", "оффтоп",
}

const (
	TopicShiftMinLen       = 5
	ParticipantShiftMinLen = 8
	MonologueRun           = 5
)

// HasTopicShiftMarker reports whether text opens or contains one of the
// fixed topic-shift phrases.
func HasTopicShiftMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range topicShiftMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Segment splits a chronologically-ordered message stream into
// dialogs, applying the three boundary rules of spec.md §4.6 in order:
// time gap, topic-shift marker (dialog already >= 5 long), and
// participant-pattern shift (dialog already >= 8 long, last 5 messages
// a single-author monologue, new message from someone else).
func Segment(messages []types.Message) [][]types.Message {
	if len(messages) == 0 {
		return nil
	}

	var dialogs [][]types.Message
	current := []types.Message{messages[0]}

	for i := 1; i < len(messages); i++ {
		msg := messages[i]
		prev := messages[i-1]

		boundary := false
		switch {
		case msg.DateUTC.Sub(prev.DateUTC) > TimeGap:
			boundary = true
		case len(current) >= TopicShiftMinLen && HasTopicShiftMarker(msg.Text):
			boundary = true
		case len(current) >= ParticipantShiftMinLen && isMonologueShift(current, msg):
			boundary = true
		}

		if boundary {
			dialogs = append(dialogs, current)
			current = []types.Message{msg}
			continue
		}
		current = append(current, msg)
	}
	dialogs = append(dialogs, current)
	return dialogs
}

// isMonologueShift reports whether the last MonologueRun messages of
// dialog are all from one author and next is from someone else.
func isMonologueShift(dialog []types.Message, next types.Message) bool {
	if len(dialog) < MonologueRun {
		return false
	}
	tail := dialog[len(dialog)-MonologueRun:]
	author := tail[0].FromUserID
	for _, m := range tail[1:] {
		if m.FromUserID != author {
			return false
		}
	}
	return next.FromUserID != author
}
