package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleParams() GameParams {
	return DefaultGameParams()
}

func TestBoardStreet(t *testing.T) {
	assert.Equal(t, 1, Board{}.Street())
	assert.Equal(t, 2, Board{Card(0)}.Street())
}

func TestBoardCompatible(t *testing.T) {
	b := Board{Card(2)}
	assert.False(t, b.Compatible(Card(2)))
	assert.True(t, b.Compatible(Card(0)))
}

func TestBoardValidateRejectsDuplicatesAndOutOfRange(t *testing.T) {
	p := simpleParams()
	require.NoError(t, Board{Card(0), Card(1)}.validate(p))
	assert.ErrorIs(t, Board{Card(0), Card(0)}.validate(p), ErrInvalidBoard)
	assert.ErrorIs(t, Board{Card(-1)}.validate(p), ErrInvalidBoard)
	assert.ErrorIs(t, Board{Card(p.CardCount())}.validate(p), ErrInvalidBoard)
}

func TestNewUniformRangeSumsToOneAndMasksBoard(t *testing.T) {
	p := simpleParams()
	board := Board{Card(0)}
	r := NewUniformRange(board, p)
	require.True(t, r.IsNormalized())
	assert.Equal(t, 0.0, r[0])
}

func TestRangeNormalizeZeroSumStaysZero(t *testing.T) {
	p := simpleParams()
	r := make(Range, p.CardCount())
	out := r.Normalize(Board{}, p)
	assert.Equal(t, 0.0, out.Sum())
}

func TestRangeNormalizeMasksBoard(t *testing.T) {
	p := simpleParams()
	r := make(Range, p.CardCount())
	for i := range r {
		r[i] = 1
	}
	board := Board{Card(0)}
	out := r.Normalize(board, p)
	assert.Equal(t, 0.0, out[0])
	assert.InDelta(t, 1.0, out.Sum(), 1e-9)
}
