package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTreeVisStructureOnly(t *testing.T) {
	p := simpleParams()
	tb := NewTreeBuilder(p)
	tree, err := tb.Build(nil, 0, [2]float64{100, 100})
	require.NoError(t, err)

	vis := BuildTreeVis(tree, nil)
	assert.Equal(t, tree.Root().CurrentPlayer, vis.CurrentPlayer)
	assert.Equal(t, len(tree.Root().Children), len(vis.Edges))
	for _, edge := range vis.Edges {
		assert.NotNil(t, edge.Child)
		assert.Nil(t, edge.Strategy)
	}
}

func TestSaveLoadTreeVisRoundTrip(t *testing.T) {
	p := simpleParams()
	tb := NewTreeBuilder(p)
	tree, err := tb.Build(nil, 0, [2]float64{100, 100})
	require.NoError(t, err)

	vis := BuildTreeVis(tree, nil)
	path := t.TempDir() + "/tree.json"
	require.NoError(t, SaveTreeVis(vis, path))

	loaded, err := LoadTreeVis(path)
	require.NoError(t, err)
	assert.Equal(t, vis.CurrentPlayer, loaded.CurrentPlayer)
	assert.Equal(t, len(vis.Edges), len(loaded.Edges))
}
