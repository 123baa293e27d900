package embedstore

import (
	"strings"
	"time"

	"github.com/chatrag/ragcore/internal/types"
)

// BatchGap is the maximum time between consecutive same-author messages
// for them to join one batch.
const BatchGap = 5 * time.Minute

// BatchMax is the maximum number of messages a single batch may hold.
const BatchMax = 10

// Batch is a run of consecutive same-author messages that embeds as one
// row, per spec.md §4.2's batch grouping rule.
type Batch struct {
	Messages []types.Message
}

// FirstID returns the id the batch's row is keyed by.
func (b Batch) FirstID() int64 { return b.Messages[0].ID }

// GroupIntoBatches splits messages (already ordered by date ascending)
// into runs of up to BatchMax consecutive same-author messages no more
// than BatchGap apart.
func GroupIntoBatches(messages []types.Message) []Batch {
	if len(messages) == 0 {
		return nil
	}

	var batches []Batch
	current := Batch{Messages: []types.Message{messages[0]}}
	for _, m := range messages[1:] {
		last := current.Messages[len(current.Messages)-1]
		sameAuthor := m.FromUserID == last.FromUserID
		withinGap := m.DateUTC.Sub(last.DateUTC) <= BatchGap
		underMax := len(current.Messages) < BatchMax
		if sameAuthor && withinGap && underMax {
			current.Messages = append(current.Messages, m)
			continue
		}
		batches = append(batches, current)
		current = Batch{Messages: []types.Message{m}}
	}
	batches = append(batches, current)
	return batches
}

// Text renders the batch's chunk text: the author name followed by the
// newline-joined message bodies.
func (b Batch) Text() string {
	first := b.Messages[0]
	bodies := make([]string, len(b.Messages))
	for i, m := range b.Messages {
		bodies[i] = m.Text
	}
	return first.AuthorLabel() + ": " + strings.Join(bodies, "\n")
}

// Metadata builds the metadata payload for a batch, recording the span
// when the batch holds more than one message.
func (b Batch) Metadata() types.UtteranceMetadata {
	first := b.Messages[0]
	meta := types.UtteranceMetadata{
		Username:    first.Username,
		DisplayName: first.DisplayName,
		FromUserID:  first.FromUserID,
		DateUTC:     first.DateUTC,
	}
	if len(b.Messages) > 1 {
		last := b.Messages[len(b.Messages)-1]
		ids := make([]int64, len(b.Messages))
		for i, m := range b.Messages {
			ids[i] = m.ID
		}
		startDate := first.DateUTC
		endDate := last.DateUTC
		meta.StartDate = &startDate
		meta.EndDate = &endDate
		meta.MessageCount = len(b.Messages)
		meta.MessageIDs = ids
	}
	return meta
}
