package resolve

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGameParamsValidates(t *testing.T) {
	p := DefaultGameParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, 6, p.CardCount())
}

func TestGameParamsValidateRejectsBadSkipIters(t *testing.T) {
	p := DefaultGameParams()
	p.CFRSkipIters = p.CFRIters
	assert.ErrorIs(t, p.Validate(), ErrIterationBudget)
}

func TestGameParamsValidateRejectsNonTwoPlayer(t *testing.T) {
	p := DefaultGameParams()
	p.PlayersCount = 3
	assert.ErrorIs(t, p.Validate(), ErrShapeMismatch)
}

func TestLoadGameParamsFromHCL(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/game.hcl"
	contents := `
ante             = 100
stack            = 1200
rank_count       = 3
suit_count       = 2
board_card_count = 1
streets_count    = 2
bet_sizing       = [1.0]
cfr_iters        = 1000
cfr_skip_iters   = 500
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	p, err := LoadGameParams(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultGameParams(), p)
}
