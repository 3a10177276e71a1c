package resolve

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zeroOracle values every transition-call slot at zero, which is enough
// to exercise the depth-limit wiring without depending on a trained
// network (training/evaluating the value function is out of scope).
type zeroOracle struct{}

func (zeroOracle) GetValue(ctx context.Context, inputs [][]float64, outputs [][]float64) error {
	for i := range outputs {
		for j := range outputs[i] {
			outputs[i][j] = 0
		}
	}
	return nil
}

func newTestLookahead(t *testing.T, p GameParams, bets [2]float64) (*Lookahead, *Tree) {
	t.Helper()
	tb := NewTreeBuilder(p)
	tree, err := tb.Build(nil, 0, bets)
	require.NoError(t, err)

	bk, err := NewBucketer(p, allBoards(p))
	require.NoError(t, err)

	lh := NewLookahead(p, tree, zeroOracle{}, bk, 0)
	return lh, tree
}

// Spec §8 scenario 1: board [], P1 to act, bets [100,100], both ranges
// uniform, R=3,S=2. CFR returns a strategy at the root with columns
// summing to 1, sum of P1+P2 root cfvs ~= 0 (zero-sum), exploitability <
// 5 (exploitability itself needs a best-response computation outside
// this package's scope; the zero-sum and column-stochastic invariants
// are checked directly here).
func TestLookaheadScenario1RootInvariants(t *testing.T) {
	p := simpleParams()
	lh, _ := newTestLookahead(t, p, [2]float64{100, 100})

	uniform := NewUniformRange(Board{}, p)
	require.NoError(t, lh.Run(context.Background(), uniform, uniform, nil))

	strategy := lh.RootStrategy()
	mask := CompatibilityMask(Board{}, p)
	for h := 0; h < p.CardCount(); h++ {
		if mask[h] == 0 {
			continue
		}
		sum := 0.0
		for _, row := range strategy {
			sum += row[h]
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
	}

	cfvs := lh.RootCFVs()
	total := 0.0
	for h := 0; h < p.CardCount(); h++ {
		total += uniform[h]*cfvs[0][h] + uniform[h]*cfvs[1][h]
	}
	assert.True(t, math.Abs(total) < 5, "expected near-zero-sum root cfvs, got %v", total)
}

func TestLookaheadGadgetPathRunsWithoutExactOpponentRange(t *testing.T) {
	p := simpleParams()
	p.CFRIters = 20
	p.CFRSkipIters = 10
	board := Board{Card(0)}
	tb := NewTreeBuilder(p)
	tree, err := tb.Build(board, 0, [2]float64{100, 100})
	require.NoError(t, err)

	bk, err := NewBucketer(p, allBoards(p))
	require.NoError(t, err)
	lh := NewLookahead(p, tree, zeroOracle{}, bk, 0)

	gadget, err := NewGadget(p, board)
	require.NoError(t, err)
	lh.SetGadget(gadget)

	bound := make([]float64, p.CardCount())
	uniform := NewUniformRange(board, p)
	err = lh.Run(context.Background(), uniform, nil, bound)
	require.NoError(t, err)

	strategy := lh.RootStrategy()
	require.NotEmpty(t, strategy)
}
