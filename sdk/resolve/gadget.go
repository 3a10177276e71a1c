package resolve

// Gadget reconstructs an opponent range at each re-solve iteration from a
// bound on the opponent's counterfactual values (spec §4.4 "CFR-D
// Gadget"), enabling decomposition across decision points without
// re-solving the whole game from scratch. Grounded on the regret-matching
// loop in sdk/solver/regret.go, generalised to the gadget's two-action
// auxiliary game (play / terminate) instead of a full action set.
//
// The gadget is not used when both players' ranges are known exactly,
// i.e. at the root of a hand (spec §4.4 "The gadget is not used when
// ranges are known exactly on both sides").
type Gadget struct {
	params GameParams
	board  Board
	mask   []float64 // board-possible-hand indicator, length C

	// playRegret and termRegret are cumulative CFR+ regrets per hand for
	// each of the gadget's two actions.
	playRegret []float64
	termRegret []float64

	playStrategy []float64
	termStrategy []float64
}

const gadgetFloor = 1e-8

// NewGadget initialises a gadget for board with play_strategy = 0,
// terminate_strategy = 1, regrets = 0 (spec §4.4 "Initial state").
func NewGadget(p GameParams, board Board) (*Gadget, error) {
	if err := board.validate(p); err != nil {
		return nil, err
	}
	c := p.CardCount()
	g := &Gadget{
		params:       p,
		board:        append(Board(nil), board...),
		mask:         CompatibilityMask(board, p),
		playRegret:   make([]float64, c),
		termRegret:   make([]float64, c),
		playStrategy: make([]float64, c),
		termStrategy: make([]float64, c),
	}
	copy(g.termStrategy, g.mask)
	return g, nil
}

// Iterate runs one gadget iteration given playValues (cfvs the opponent
// achieves this iteration by playing into the lookahead) and
// opponentCFVBound (the fixed terminate-values input), and returns the
// play_strategy, normalised to sum to 1 (all zeros if it is zero
// everywhere), as the opponent range for this iteration (spec §4.4
// steps 1-6).
func (g *Gadget) Iterate(playValues, opponentCFVBound []float64) []float64 {
	c := g.params.CardCount()
	v := make([]float64, c)
	for i := 0; i < c; i++ {
		v[i] = g.playStrategy[i]*playValues[i] + g.termStrategy[i]*opponentCFVBound[i]
	}

	for i := 0; i < c; i++ {
		rPlay := playValues[i] - v[i]
		rTerm := opponentCFVBound[i] - v[i]
		g.playRegret[i] = floorRegret(g.playRegret[i]+rPlay, gadgetFloor)
		g.termRegret[i] = floorRegret(g.termRegret[i]+rTerm, gadgetFloor)
	}

	for i := 0; i < c; i++ {
		sum := g.playRegret[i] + g.termRegret[i]
		if sum <= 0 {
			// Zero regret sum -> default strategy (fold), spec §7.2;
			// the gadget's "fold" analogue is terminate.
			g.playStrategy[i] = 0
			g.termStrategy[i] = 1
		} else {
			g.playStrategy[i] = g.playRegret[i] / sum
			g.termStrategy[i] = g.termRegret[i] / sum
		}
		g.playStrategy[i] *= g.mask[i]
		g.termStrategy[i] *= g.mask[i]
	}

	out := make([]float64, c)
	total := 0.0
	for i := 0; i < c; i++ {
		total += g.playStrategy[i]
	}
	if total > 0 {
		for i := 0; i < c; i++ {
			out[i] = g.playStrategy[i] / total
		}
	}
	return out
}

func floorRegret(r, eps float64) float64 {
	if r < eps {
		return eps
	}
	return r
}
