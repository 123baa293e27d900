package contextwindow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeOverlappingJoinsSharedIDs(t *testing.T) {
	windows := [][]int64{
		{1, 2, 3, 4, 5},
		{4, 5, 6, 7, 8},
		{20, 21, 22},
	}
	merged := mergeOverlapping(windows)

	assert.Len(t, merged, 2)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8}, merged[0])
	assert.Equal(t, []int64{20, 21, 22}, merged[1])
}

func TestMergeOverlappingKeepsDisjointWindowsSeparate(t *testing.T) {
	windows := [][]int64{
		{1, 2, 3},
		{10, 11, 12},
	}
	merged := mergeOverlapping(windows)
	assert.Len(t, merged, 2)
}

func TestMergeOverlappingDedupesWithinAWindow(t *testing.T) {
	windows := [][]int64{
		{5, 5, 6},
	}
	merged := mergeOverlapping(windows)
	assert.Equal(t, [][]int64{{5, 6}}, merged)
}

func TestMergeOverlappingChainsThroughMultipleWindows(t *testing.T) {
	windows := [][]int64{
		{1, 2, 3},
		{3, 4, 5},
		{5, 6, 7},
	}
	merged := mergeOverlapping(windows)
	assert.Len(t, merged, 1)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7}, merged[0])
}
