package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allBoards(p GameParams) []Board {
	var boards []Board
	for c := 0; c < p.CardCount(); c++ {
		boards = append(boards, Board{Card(c)})
	}
	return boards
}

// Spec §8 scenario 5: R=3,S=2,board_card_count=1 -> get_bucket_count() =
// 6*6 = 36; compute_buckets([card=2])[2] = -1; other entries in {0,...,35}.
func TestBucketerScenario5(t *testing.T) {
	p := simpleParams()
	boards := allBoards(p)
	bk, err := NewBucketer(p, boards)
	require.NoError(t, err)

	assert.Equal(t, 36, bk.NumBuckets())

	board := Board{Card(2)}
	buckets, err := bk.ComputeBuckets(board)
	require.NoError(t, err)
	assert.Equal(t, -1, buckets[2])
	for hand, b := range buckets {
		if hand == 2 {
			continue
		}
		assert.GreaterOrEqual(t, b, 0)
		assert.Less(t, b, 36)
	}
}

func TestBucketerDistinctBoardsDistinctRanges(t *testing.T) {
	p := simpleParams()
	boards := allBoards(p)
	bk, err := NewBucketer(p, boards)
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, b := range boards {
		idx, err := bk.BoardIndex(b)
		require.NoError(t, err)
		assert.False(t, seen[idx], "board index collision")
		seen[idx] = true
	}
}
