package windowindex

import "github.com/chatrag/ragcore/internal/types"

const (
	windowMin    = 5
	windowMax    = 15
	slideWidth   = 15
	slideStride  = 3
	trailingMin  = 5
)

// Window is one emitted sliding-window span, still in message-index
// form; the caller resolves it into text/embedding/upsert.
type Window struct {
	Members  []types.Message
	CenterID int64
}

// BuildWindows implements spec.md §4.6's per-dialog window emission:
//
//	L < 5:        nothing
//	5 <= L <= 15: one window over the whole dialog, centered on the median
//	L > 15:       slide a 15-wide window with stride 3, plus a final
//	              trailing 15-wide window if the residual tail is >= 5
func BuildWindows(dialog []types.Message) []Window {
	l := len(dialog)
	if l < windowMin {
		return nil
	}
	if l <= windowMax {
		return []Window{newWindow(dialog)}
	}

	var windows []Window
	start := 0
	lastEnd := 0
	for start+slideWidth <= l {
		span := dialog[start : start+slideWidth]
		windows = append(windows, newWindow(span))
		lastEnd = start + slideWidth
		start += slideStride
	}

	if residual := l - lastEnd; residual >= trailingMin {
		span := dialog[l-slideWidth:]
		windows = append(windows, newWindow(span))
	}
	return windows
}

func newWindow(members []types.Message) Window {
	return Window{Members: members, CenterID: members[medianIndex(len(members))].ID}
}

// medianIndex returns the lower-median index of a run of length n
// (n is always odd-or-even >=5 here; lower median matches spec.md's
// worked example D, where a length-3 dialog's center is its middle
// message and a length-5 dialog's center is its middle message).
func medianIndex(n int) int {
	return (n - 1) / 2
}
