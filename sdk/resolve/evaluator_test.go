package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluatorStrengthBlockedByBoard(t *testing.T) {
	p := simpleParams()
	e := NewEvaluator(p)
	board := Board{Card(2)}
	assert.Equal(t, -1, e.Strength(Card(2), board))
}

func TestEvaluatorPairIsStrongest(t *testing.T) {
	p := simpleParams()
	e := NewEvaluator(p)
	board := Board{Card(2)} // rank 1 (R=3,S=2: card 2 -> rank 1, suit 0)
	pairRank := board[0].Rank(p)
	var pairedHand Card
	for c := 0; c < p.CardCount(); c++ {
		if Card(c).Rank(p) == pairRank && !board.Contains(Card(c)) {
			pairedHand = Card(c)
			break
		}
	}
	pairStrength := e.Strength(pairedHand, board)
	for c := 0; c < p.CardCount(); c++ {
		if Card(c) == pairedHand || board.Contains(Card(c)) {
			continue
		}
		assert.Greater(t, e.Strength(Card(c), board), pairStrength)
	}
}

func TestEvaluatorCompareAntisymmetric(t *testing.T) {
	p := simpleParams()
	e := NewEvaluator(p)
	board := Board{Card(2)}
	a, b := Card(0), Card(4)
	if board.Contains(a) || board.Contains(b) {
		t.Skip("chosen hands collide with board")
	}
	assert.Equal(t, -e.Compare(a, b, board), e.Compare(b, a, board))
}
