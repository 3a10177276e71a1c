package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Spec §8 scenario 6: bet_sizing=[1.0], street=1, bets=[100,100];
// root.actions starts with [fold, check, ...] and has length in {3,4}.
func TestTreeBuilderScenario6(t *testing.T) {
	p := simpleParams()
	p.BetSizing = []float64{1.0}
	tb := NewTreeBuilder(p)

	tree, err := tb.Build(nil, 0, [2]float64{100, 100})
	require.NoError(t, err)

	root := tree.Root()
	require.GreaterOrEqual(t, len(root.Actions), 3)
	require.LessOrEqual(t, len(root.Actions), 4)
	assert.Equal(t, ActionFold, root.Actions[0].Kind)
	assert.Equal(t, ActionCheck, root.Actions[1].Kind)
}

// Spec §8 round-trip law: building twice from the same root produces
// isomorphic trees with identical actions vectors.
func TestTreeBuilderIsIdempotent(t *testing.T) {
	p := simpleParams()
	tb := NewTreeBuilder(p)

	t1, err := tb.Build(nil, 0, [2]float64{100, 100})
	require.NoError(t, err)
	t2, err := tb.Build(nil, 0, [2]float64{100, 100})
	require.NoError(t, err)

	require.Equal(t, len(t1.Nodes), len(t2.Nodes))
	for i := range t1.Nodes {
		assert.Equal(t, t1.Nodes[i].Actions, t2.Nodes[i].Actions)
		assert.Equal(t, t1.Nodes[i].Kind, t2.Nodes[i].Kind)
	}
}

func TestPublicNodePot(t *testing.T) {
	n := PublicNode{Bets: [2]float64{100, 250}}
	assert.Equal(t, 100.0, n.Pot())
}

// A call that answers a bet on a non-final, non-all-in street transitions
// to a chance node (a new board card is revealed) rather than ending the
// hand in a showdown on the current board.
func TestFacingBetCallTransitionsOnNonFinalStreet(t *testing.T) {
	p := simpleParams()
	tb := NewTreeBuilder(p)
	tree, err := tb.Build(nil, 0, [2]float64{100, 300})
	require.NoError(t, err)

	root := tree.Root()
	foundCall := false
	for i, a := range root.Actions {
		if a.Kind == ActionCall {
			foundCall = true
			child := tree.Nodes[root.Children[i]]
			assert.Equal(t, NodeChance, child.Kind)
			assert.Equal(t, [2]float64{300, 300}, child.Bets)
		}
	}
	assert.True(t, foundCall)
}

// A call on the last street ends the hand in a showdown.
func TestFacingBetCallIsTerminalOnFinalStreet(t *testing.T) {
	p := simpleParams()
	tb := NewTreeBuilder(p)
	tree, err := tb.Build(Board{Card(0)}, 0, [2]float64{100, 300})
	require.NoError(t, err)

	root := tree.Root()
	foundCall := false
	for i, a := range root.Actions {
		if a.Kind == ActionCall {
			foundCall = true
			child := tree.Nodes[root.Children[i]]
			assert.Equal(t, NodeTerminalCall, child.Kind)
		}
	}
	assert.True(t, foundCall)
}

// An all-in call is terminal even on a non-final street, since there is no
// further betting possible and no reason to defer the showdown.
func TestFacingBetCallIsTerminalWhenAllIn(t *testing.T) {
	p := simpleParams()
	tb := NewTreeBuilder(p)
	tree, err := tb.Build(nil, 0, [2]float64{100, p.Stack})
	require.NoError(t, err)

	root := tree.Root()
	foundCall := false
	for i, a := range root.Actions {
		if a.Kind == ActionCall {
			foundCall = true
			child := tree.Nodes[root.Children[i]]
			assert.Equal(t, NodeTerminalCall, child.Kind)
		}
	}
	assert.True(t, foundCall)
}
