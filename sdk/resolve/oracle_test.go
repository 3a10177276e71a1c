package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoOracle returns its input ranges unchanged as cfvs, which makes the
// slot-swap on a position-1 resolver directly observable: the output at
// slot 0 should equal whatever range evaluate() placed in input slot 0.
type echoOracle struct{}

func (echoOracle) GetValue(ctx context.Context, inputs [][]float64, outputs [][]float64) error {
	copy(outputs[0], inputs[0][:len(outputs[0])])
	return nil
}

func TestOracleBoxSlotSwapIsSelfInverse(t *testing.T) {
	p := simpleParams()
	board := Board{Card(0)}
	bk, err := NewBucketer(p, allBoards(p))
	require.NoError(t, err)

	r0 := NewUniformRange(board, p)
	r1 := NewUniformRange(board, p)

	for _, resolver := range []int{0, 1} {
		ob := newOracleBox(p, echoOracle{}, bk, resolver)
		var out [2][]float64
		out[0] = make([]float64, p.CardCount())
		out[1] = make([]float64, p.CardCount())
		require.NoError(t, ob.evaluate(context.Background(), board, [2]Range{r0, r1}, 0.5, out))

		// Player 0's own input slot feeds back to player 0's own output
		// slot regardless of resolver, since slotOf is applied
		// identically (and is its own inverse) on pack and unpack.
		assert.InDeltaSlice(t, r0, out[0], 1e-9)
	}
}

func TestOracleBoxRememberAccumulatesAcrossCalls(t *testing.T) {
	p := simpleParams()
	board := Board{Card(0)}
	bk, err := NewBucketer(p, allBoards(p))
	require.NoError(t, err)

	ob := newOracleBox(p, zeroOracle{}, bk, 0)
	r := NewUniformRange(board, p)
	var out [2][]float64
	out[0] = make([]float64, p.CardCount())
	out[1] = make([]float64, p.CardCount())

	require.NoError(t, ob.evaluate(context.Background(), board, [2]Range{r, r}, 0.1, out))
	require.NoError(t, ob.evaluate(context.Background(), board, [2]Range{r, r}, 0.1, out))

	assert.Equal(t, 2, ob.memorySamples)
	cfv := ob.GetChanceActionCFV(board)
	assert.Len(t, cfv, bk.NumBuckets())
}
